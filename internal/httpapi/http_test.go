package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/internal/asynctts"
	"github.com/alispeech/streaming-gateway/pkg/auth"
	"github.com/alispeech/streaming-gateway/pkg/config"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/metrics"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

func newTestHandlers(t *testing.T) (*Handlers, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	asrPool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, []string{"clone_default"}), nil
	})
	require.NoError(t, err)
	ttsPool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, []string{"clone_default"}), nil
	})
	require.NoError(t, err)

	voices := voiceregistry.New(nil)
	validator := auth.New("", "")
	ex := executor.New(2)
	asyncSvc, err := asynctts.NewService(":memory:", ttsPool, ex, voices, t.TempDir(), 2*time.Second, 50*time.Millisecond, 7*24*time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(asyncSvc.Shutdown)

	cfg := &config.Config{TempDir: t.TempDir()}
	h := New(cfg, asrPool, ttsPool, engine.NewFakePunctuation(), engine.NewFakeITN(), voices, validator, ex, asyncSvc, metrics.NewMetrics(), zap.NewNop())
	h.SeedVoices()

	r := gin.New()
	h.Register(r)
	return h, r
}

func TestHandleASRHealthReportsLoadedCapabilities(t *testing.T) {
	_, r := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/stream/v1/asr/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	caps := body["capabilities"].(map[string]any)
	assert.True(t, caps["file_asr"].(bool))
	assert.True(t, caps["streaming_asr"].(bool))
}

func TestHandleTTSHealthReportsLoadedCapabilities(t *testing.T) {
	_, r := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/stream/v1/tts/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	caps := body["capabilities"].(map[string]any)
	assert.True(t, caps["preset_tts"].(bool))
	assert.True(t, caps["clone_tts"].(bool))
}

func TestHandleVoicesListsSeedCatalog(t *testing.T) {
	_, r := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/stream/v1/tts/voices", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	voices := body["voices"].([]any)
	assert.Len(t, voices, 4)
}

func TestHandleOneShotTTSReturnsWAVAudio(t *testing.T) {
	_, r := newTestHandlers(t)
	reqBody, _ := json.Marshal(ttsRequest{Voice: "zhixiaobai", Text: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/stream/v1/tts", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("task_id"))
	assert.Equal(t, "RIFF", rec.Body.String()[0:4])
}

func TestHandleOneShotTTSRejectsMissingFields(t *testing.T) {
	_, r := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/stream/v1/tts", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAsyncSubmitAndQuery(t *testing.T) {
	_, r := newTestHandlers(t)
	submitBody, _ := json.Marshal(map[string]any{
		"payload": map[string]any{"text": "你好。", "voice": "zhixiaobai", "format": "WAV", "sample_rate": 16000},
	})
	req := httptest.NewRequest(http.MethodPost, "/rest/v1/tts/async", bytes.NewReader(submitBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var submitResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	taskID := submitResp["data"].(map[string]any)["task_id"].(string)
	require.NotEmpty(t, taskID)

	require.Eventually(t, func() bool {
		queryReq := httptest.NewRequest(http.MethodGet, "/rest/v1/tts/async?task_id="+taskID, nil)
		queryRec := httptest.NewRecorder()
		r.ServeHTTP(queryRec, queryReq)
		if queryRec.Code != http.StatusOK {
			return false
		}
		var queryResp map[string]any
		if json.Unmarshal(queryRec.Body.Bytes(), &queryResp) != nil {
			return false
		}
		data, ok := queryResp["data"].(map[string]any)
		return ok && data["audio_address"] != nil && data["audio_address"] != ""
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHandleAsyncQueryRequiresTaskID(t *testing.T) {
	_, r := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/rest/v1/tts/async", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
