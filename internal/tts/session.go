// Package tts drives the Aliyun FlowingSpeechSynthesizer streaming protocol
// (§4.4): StartSynthesis -> (RunSynthesis)+ -> StopSynthesis, voice routing
// between preset and clone engines, and PCM/WAV audio framing.
package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

type State int

const (
	StateReady State = iota
	StateStarted
	StateCompleted
)

// Sink is how the session emits wire frames and binary audio.
type Sink interface {
	SendEnvelope(name string, status int, statusText string, payload map[string]any) error
	SendBinary(b []byte) error
	Alive() bool
}

// StartParams is StartSynthesis's payload (§4.4).
type StartParams struct {
	Voice          string `json:"voice"`
	Format         string `json:"format"`
	SampleRate     int    `json:"sample_rate"`
	Volume         int    `json:"volume"`
	SpeechRate     int    `json:"speech_rate"`
	PitchRate      int    `json:"pitch_rate"`
	EnableSubtitle bool   `json:"enable_subtitle"`
	Prompt         string `json:"prompt"`
}

func defaultStartParams() StartParams {
	return StartParams{Format: "PCM", SampleRate: 16000, Volume: 50}
}

// CloneVoiceResolver reports whether a voice name is registered as a clone
// voice and, if so, which engine dispatch flavor to use for prompt framing.
type CloneVoiceResolver interface {
	IsCloneVoice(voice string) bool
	// CosyVoice3Compatible reports whether the clone voice should have the
	// CosyVoice3-style system prefix prepended to its prompt (§4.4).
	CosyVoice3Compatible(voice string) bool
}

// Session is one TTS WebSocket connection's protocol state machine.
type Session struct {
	mu sync.Mutex

	taskID    string
	sessionID string
	state     State

	params StartParams

	pool       *engine.Pool
	ex         *executor.Executor
	replicaIdx int
	replica    engine.Engine
	voices     CloneVoiceResolver

	sink   Sink
	logger *zap.Logger

	runCount int
}

func New(taskID string, pool *engine.Pool, ex *executor.Executor, voices CloneVoiceResolver, sink Sink, logger *zap.Logger) *Session {
	return &Session{
		taskID:    taskID,
		sessionID: "session_" + taskID,
		state:     StateReady,
		pool:      pool,
		ex:        ex,
		voices:    voices,
		sink:      sink,
		logger:    logger,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleStartSynthesis validates format/sample-rate, selects an engine
// replica, emits SynthesisStarted, and transitions to Started.
func (s *Session) HandleStartSynthesis(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return s.failLocked("StartSynthesis received outside Ready state")
	}

	params := defaultStartParams()
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &params)
	}
	if params.SampleRate == 0 {
		params.SampleRate = 16000
	}
	if !protocol.SupportedSampleRates[params.SampleRate] {
		return s.failLocked(fmt.Sprintf("unsupported sample rate %d", params.SampleRate))
	}
	switch protocol.AudioFormat(params.Format) {
	case protocol.FormatPCM, protocol.FormatWAV, protocol.FormatMP3:
	default:
		return s.failLocked(fmt.Sprintf("unsupported format %q", params.Format))
	}
	s.params = params

	idx, repl, err := s.pool.Select()
	if err != nil {
		return s.failLocked("no TTS engine available")
	}
	s.replicaIdx = idx
	s.replica = repl

	s.state = StateStarted
	return s.sink.SendEnvelope(protocol.EventSynthesisStarted, int(apierr.Success), "SUCCESS", map[string]any{
		"session_id": s.sessionID,
	})
}

// RunPayload is RunSynthesis's payload.
type RunPayload struct {
	Text string `json:"text"`
}

// HandleRunSynthesis drives one text-to-audio turn: SentenceBegin, streamed
// audio frames (with a periodic SentenceSynthesis progress message), then
// SentenceEnd.
func (s *Session) HandleRunSynthesis(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	if s.state != StateStarted {
		err := s.failLocked("RunSynthesis received outside Started state")
		s.mu.Unlock()
		return err
	}
	var run RunPayload
	if err := json.Unmarshal(payload, &run); err != nil || run.Text == "" {
		err := s.failLocked("RunSynthesis requires non-empty text")
		s.mu.Unlock()
		return err
	}
	if utf8.RuneCountInString(run.Text) > 1000 {
		err := s.failLocked("text exceeds 1000 characters")
		s.mu.Unlock()
		return err
	}
	s.runCount++
	index := s.runCount
	params := s.params
	replica := s.replica
	voices := s.voices
	s.mu.Unlock()

	if err := s.sink.SendEnvelope(protocol.EventSentenceBegin, int(apierr.Success), "SUCCESS", map[string]any{"index": index}); err != nil {
		return err
	}

	stream, genErr := s.dispatch(ctx, replica, voices, run.Text, params)
	if genErr != nil {
		s.mu.Lock()
		err := s.failLocked(genErr.Error())
		s.mu.Unlock()
		return err
	}

	frameCount := 0
	for samples := range stream {
		if !s.sink.Alive() {
			break
		}
		pcm := protocol.EncodePCM16LE(samples)
		var out []byte
		if protocol.AudioFormat(params.Format) == protocol.FormatPCM {
			out = pcm
		} else {
			wrapped, err := protocol.WrapWAV(pcm, params.SampleRate, 1)
			if err != nil {
				out = pcm
			} else {
				out = wrapped
			}
		}
		if err := s.sink.SendBinary(out); err != nil {
			break
		}
		frameCount++
		if frameCount%4 == 0 {
			_ = s.sink.SendEnvelope(protocol.EventSentenceSynthesis, int(apierr.Success), "SUCCESS", map[string]any{
				"index": index,
			})
		}
	}

	return s.sink.SendEnvelope(protocol.EventSentenceEnd, int(apierr.Success), "SUCCESS", map[string]any{"index": index})
}

// dispatch routes text to SynthesizeClone or SynthesizePreset depending on
// the voice registry, applying the CosyVoice2/3 prompt-framing rule (§4.4).
func (s *Session) dispatch(ctx context.Context, replica engine.Engine, voices CloneVoiceResolver, text string, params StartParams) (<-chan []float32, error) {
	isClone := voices != nil && voices.IsCloneVoice(params.Voice)
	var synth func() (<-chan []float32, error)
	if isClone {
		clone, ok := engine.AsCloneTTS(replica)
		if !ok {
			return nil, fmt.Errorf("voice %q requires clone TTS capability", params.Voice)
		}
		prompt := framePrompt(params.Prompt, voices.CosyVoice3Compatible(params.Voice))
		synth = func() (<-chan []float32, error) {
			return clone.SynthesizeClone(ctx, text, params.Voice, params.SpeechRate, params.SampleRate, params.Volume, prompt, params.Format)
		}
	} else {
		preset, ok := engine.AsPresetTTS(replica)
		if !ok {
			return nil, fmt.Errorf("voice %q not found in preset registry", params.Voice)
		}
		synth = func() (<-chan []float32, error) {
			return preset.SynthesizePreset(ctx, text, params.Voice, params.SpeechRate, params.SampleRate, params.Volume, params.Format)
		}
	}

	stream, err := executor.RunSync(ctx, s.ex, synth)
	if err != nil {
		return nil, err
	}
	return executor.BridgeChannel(ctx, s.ex, 16, stream), nil
}

// framePrompt applies the CosyVoice2/3 framing rule: CosyVoice3-compatible
// clones get a system prefix prepended, CosyVoice2-compatible clones only
// get the terminator appended.
func framePrompt(prompt string, cosyVoice3 bool) string {
	const terminator = "<|endofprompt|>"
	if prompt == "" {
		return ""
	}
	if cosyVoice3 {
		return "You are a helpful assistant." + prompt + terminator
	}
	return prompt + terminator
}

// HandleStopSynthesis emits SynthesisCompleted and transitions to Completed.
func (s *Session) HandleStopSynthesis() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStarted {
		return s.failLocked("StopSynthesis received outside Started state")
	}
	s.releaseEngineLocked()
	s.state = StateCompleted
	return s.sink.SendEnvelope(protocol.EventSynthesisCompleted, int(apierr.Success), "SUCCESS", map[string]any{})
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseEngineLocked()
}

func (s *Session) releaseEngineLocked() {
	if s.replica != nil {
		s.pool.Release(s.replicaIdx)
		s.replica = nil
	}
}

func (s *Session) failLocked(reason string) error {
	s.releaseEngineLocked()
	s.state = StateCompleted
	return s.sink.SendEnvelope(protocol.EventTaskFailed, int(apierr.DefaultClientError), reason, map[string]any{})
}
