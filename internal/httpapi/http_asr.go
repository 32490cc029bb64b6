package httpapi

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

// errorEnvelope builds the {task_id,result,status,message} JSON shape §7
// specifies for HTTP error responses, always echoing a task_id.
func errorEnvelope(c *gin.Context, taskID string, err *apierr.APIError) {
	if taskID == "" {
		taskID = protocol.NewID()
	}
	c.JSON(err.HTTPStatus, gin.H{
		"task_id": taskID,
		"result":  "",
		"status":  int(err.Code),
		"message": err.Message,
	})
}

func (h *Handlers) handleOneShotASR(c *gin.Context) {
	taskID := protocol.NewID()

	if err := h.Validator.CheckToken(c.GetHeader("X-NLS-Token")); err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}
	if err := h.Validator.CheckAppKey(c.Query("appkey")); err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}

	sampleRate := 16000
	if sr := c.Query("sample_rate"); sr != "" {
		if v, err := strconv.Atoi(sr); err == nil {
			sampleRate = v
		}
	}
	if !protocol.SupportedASRSampleRates[sampleRate] {
		errorEnvelope(c, taskID, apierr.UnsupportedSampleRate("unsupported sample rate"))
		return
	}

	audioPath, cleanup, err := h.resolveAudioInput(c)
	if err != nil {
		errorEnvelope(c, taskID, apierr.As(err))
		return
	}
	defer cleanup()

	idx, replica, err := h.ASRPool.Select()
	if err != nil {
		errorEnvelope(c, taskID, apierr.EngineNotLoaded("no ASR engine available"))
		return
	}
	defer h.ASRPool.Release(idx)
	fileASR, ok := engine.AsFileASR(replica)
	if !ok {
		errorEnvelope(c, taskID, apierr.EngineNotLoaded("engine does not support file transcription"))
		return
	}

	text, err := executor.RunSync(c.Request.Context(), h.Executor, func() (string, error) {
		return fileASR.TranscribeFile(c.Request.Context(), audioPath, engine.ASRParams{
			SampleRate:  sampleRate,
			EnablePunct: c.Query("enable_punctuation_prediction") != "false",
			EnableITN:   c.Query("enable_inverse_text_normalization") != "false",
		})
	})
	if err != nil {
		errorEnvelope(c, taskID, apierr.InferenceFailure("transcription failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": taskID,
		"result":  text,
		"status":  int(apierr.Success),
		"message": "SUCCESS",
	})
}

// resolveAudioInput accepts either a binary request body or an
// audio_address query string (§4.5), writing either to a temp file and
// returning a cleanup func.
func (h *Handlers) resolveAudioInput(c *gin.Context) (string, func(), error) {
	if addr := c.Query("audio_address"); addr != "" {
		resp, err := resty.New().SetTimeout(30 * time.Second).R().Get(addr)
		if err != nil || resp.StatusCode() >= 400 {
			return "", func() {}, apierr.AudioDownloadFailed("failed to download audio_address")
		}
		path, err := writeTempFile(h.Cfg.TempDir, "asr-input-*.audio", resp.Body())
		if err != nil {
			return "", func() {}, apierr.Internal("failed to stage downloaded audio", err)
		}
		return path, func() { _ = os.Remove(path) }, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		return "", func() {}, apierr.InvalidParameter("request body or audio_address is required")
	}
	path, err := writeTempFile(h.Cfg.TempDir, "asr-input-*.audio", body)
	if err != nil {
		return "", func() {}, apierr.Internal("failed to stage uploaded audio", err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func writeTempFile(dir, pattern string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(body); err != nil {
		return "", err
	}
	return f.Name(), nil
}
