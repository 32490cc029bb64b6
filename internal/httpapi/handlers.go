// Package httpapi wires the gin routes and WebSocket upgrades (§4.5, §6.2):
// streaming ASR/TTS over WS, one-shot HTTP endpoints, health, and the voice
// catalog. Mirrors the teacher's one-Handlers-struct-per-surface pattern
// (internal/handler) and its websocket.Upgrader usage (pkg/voice/handler.go).
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/internal/asynctts"
	"github.com/alispeech/streaming-gateway/pkg/auth"
	"github.com/alispeech/streaming-gateway/pkg/config"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/metrics"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

// Handlers bundles every dependency the HTTP/WS surface needs.
type Handlers struct {
	Cfg       *config.Config
	ASRPool   *engine.Pool
	TTSPool   *engine.Pool
	Punc      engine.PunctuationModel
	ITN       engine.ITNModel
	Voices    *voiceregistry.Registry
	Validator *auth.Validator
	Executor  *executor.Executor
	Async     *asynctts.Service
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Upgrader  websocket.Upgrader
}

// New constructs Handlers with a permissive-origin upgrader, matching the
// teacher's development-mode CORS posture (pkg/voice/handler.go).
func New(cfg *config.Config, asrPool, ttsPool *engine.Pool, punc engine.PunctuationModel, itn engine.ITNModel, voices *voiceregistry.Registry, validator *auth.Validator, ex *executor.Executor, async *asynctts.Service, m *metrics.Metrics, logger *zap.Logger) *Handlers {
	return &Handlers{
		Cfg:       cfg,
		ASRPool:   asrPool,
		TTSPool:   ttsPool,
		Punc:      punc,
		ITN:       itn,
		Voices:    voices,
		Validator: validator,
		Executor:  ex,
		Async:     async,
		Metrics:   m,
		Logger:    logger,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts every route described in §6.2.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/ws/v1/asr", h.handleWSASR)
	r.GET("/ws/v1/tts", h.handleWSTTS)

	r.POST("/stream/v1/asr", h.handleOneShotASR)
	r.POST("/stream/v1/tts", h.handleOneShotTTS)
	r.POST("/openai/v1/audio/speech", h.handleOpenAISpeech)

	r.POST("/rest/v1/tts/async", h.handleAsyncSubmit)
	r.GET("/rest/v1/tts/async", h.handleAsyncQuery)

	r.GET("/stream/v1/asr/health", h.handleASRHealth)
	r.GET("/stream/v1/tts/health", h.handleTTSHealth)
	r.GET("/stream/v1/asr/models", h.handleASRModels)

	r.GET("/stream/v1/tts/voices", h.handleVoices)
	r.GET("/stream/v1/tts/voices/info", h.handleVoiceInfo)
	r.POST("/stream/v1/tts/voices/refresh", h.handleVoicesRefresh)
}
