package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/internal/tts"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

func (h *Handlers) handleWSTTS(c *gin.Context) {
	token := c.GetHeader("X-NLS-Token")
	if err := h.Validator.CheckToken(token); err != nil {
		c.JSON(400, gin.H{"status": 40000001, "message": err.Error()})
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("ws tts upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	taskID := protocol.NewID()
	sink := newConnSink(conn, taskID, protocol.NamespaceTTS)
	defer sink.markClosed()

	session := tts.New(taskID, h.TTSPool, h.Executor, h.Voices, sink, h.Logger)
	defer session.Close()

	if h.Metrics != nil {
		h.Metrics.TTSSessionsActive.Inc()
		h.Metrics.TTSSessionsTotal.Inc()
		defer h.Metrics.TTSSessionsActive.Dec()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			h.Logger.Debug("ws tts client disconnected", zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		hdr, payload, ok := protocol.ParseEnvelope(data)
		if !ok {
			continue
		}
		switch hdr.Name {
		case protocol.EventStartSynthesis:
			if err := session.HandleStartSynthesis(payload); err != nil {
				return
			}
		case protocol.EventRunSynthesis:
			if err := session.HandleRunSynthesis(ctx, payload); err != nil {
				return
			}
		case protocol.EventStopSynthesis:
			_ = session.HandleStopSynthesis()
			return
		}
	}
}
