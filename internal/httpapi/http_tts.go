package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

type ttsRequest struct {
	Voice      string `json:"voice"`
	Text       string `json:"text"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Volume     int    `json:"volume"`
	SpeechRate int    `json:"speech_rate"`
	AppKey     string `json:"appkey"`
	Prompt     string `json:"prompt"`
}

func (h *Handlers) handleOneShotTTS(c *gin.Context) {
	taskID := protocol.NewID()

	if err := h.Validator.CheckToken(c.GetHeader("X-NLS-Token")); err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}

	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" || req.Voice == "" {
		errorEnvelope(c, taskID, apierr.InvalidParameter("voice and text are required"))
		return
	}
	if err := h.Validator.CheckAppKey(req.AppKey); err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}
	if req.SampleRate == 0 {
		req.SampleRate = 16000
	}
	if req.Format == "" {
		req.Format = "PCM"
	}

	audio, apiErr := h.synthesizeOneShot(c.Request.Context(), req.Text, req.Voice, req.Prompt, req.Format, req.SampleRate, req.Volume, req.SpeechRate)
	if apiErr != nil {
		errorEnvelope(c, taskID, apiErr)
		return
	}

	c.Header("task_id", taskID)
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// speechRequest mirrors go-openai's CreateSpeechRequest wire shape for the
// OpenAI-compatible endpoint. It is a local struct; only the model and voice
// fields use the SDK's own SpeechModel and SpeechVoice types.
type speechRequest struct {
	Model          openai.SpeechModel `json:"model"`
	Input          string             `json:"input"`
	Voice          openai.SpeechVoice `json:"voice"`
	ResponseFormat string             `json:"response_format"`
	Speed          float64            `json:"speed"`
	Instructions   string             `json:"instructions"`
}

func (h *Handlers) handleOpenAISpeech(c *gin.Context) {
	taskID := protocol.NewID()

	bearer := c.GetHeader("Authorization")
	token := ""
	if len(bearer) > 7 && bearer[:7] == "Bearer " {
		token = bearer[7:]
	}
	if err := h.Validator.CheckToken(token); err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}

	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" || req.Voice == "" {
		errorEnvelope(c, taskID, apierr.InvalidParameter("input and voice are required"))
		return
	}
	format := req.ResponseFormat
	if format == "" {
		format = "mp3"
	}
	speed := 0
	if req.Speed > 0 {
		speed = int((req.Speed - 1) * 500)
	}

	audio, apiErr := h.synthesizeOneShot(c.Request.Context(), req.Input, string(req.Voice), req.Instructions, format, 24000, 50, speed)
	if apiErr != nil {
		errorEnvelope(c, taskID, apiErr)
		return
	}

	c.Header("task_id", taskID)
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (h *Handlers) synthesizeOneShot(ctx context.Context, text, voice, prompt, format string, sampleRate, volume, speed int) ([]byte, *apierr.APIError) {
	idx, replica, err := h.TTSPool.Select()
	if err != nil {
		return nil, apierr.EngineNotLoaded("no TTS engine available")
	}
	defer h.TTSPool.Release(idx)

	isClone := h.Voices != nil && h.Voices.IsCloneVoice(voice)

	var synth func() (<-chan []float32, error)
	if isClone {
		clone, ok := engine.AsCloneTTS(replica)
		if !ok {
			return nil, apierr.InvalidParameter("voice not found in clone registry")
		}
		synth = func() (<-chan []float32, error) {
			return clone.SynthesizeClone(ctx, text, voice, speed, sampleRate, volume, prompt, format)
		}
	} else {
		preset, ok := engine.AsPresetTTS(replica)
		if !ok {
			return nil, apierr.InvalidParameter("voice not found in preset registry")
		}
		synth = func() (<-chan []float32, error) {
			return preset.SynthesizePreset(ctx, text, voice, speed, sampleRate, volume, format)
		}
	}

	pcm, genErr := executor.RunSync(ctx, h.Executor, func() ([]byte, error) {
		stream, err := synth()
		if err != nil {
			return nil, err
		}
		var buf []byte
		for samples := range stream {
			buf = append(buf, protocol.EncodePCM16LE(samples)...)
		}
		return buf, nil
	})
	if genErr != nil {
		return nil, apierr.InferenceFailure("synthesis failed", genErr)
	}

	wav, err := protocol.WrapWAV(pcm, sampleRate, 1)
	if err != nil {
		return nil, apierr.Internal("failed to frame audio", err)
	}
	return wav, nil
}
