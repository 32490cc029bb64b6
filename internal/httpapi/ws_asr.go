package httpapi

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/internal/asr"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

// connSink serializes writes on one WS connection — the teacher's
// pkg/voice/handler.go handles one session with one goroutine and one
// writer; a mutex here gives the same guarantee without a dedicated writer
// goroutine per session.
type connSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	taskID string
	ns     string
	alive  bool
}

func newConnSink(conn *websocket.Conn, taskID, namespace string) *connSink {
	return &connSink{conn: conn, taskID: taskID, ns: namespace, alive: true}
}

func (c *connSink) SendEnvelope(name string, status int, statusText string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return nil
	}
	hdr := protocol.Header{
		MessageID:  protocol.NewID(),
		TaskID:     c.taskID,
		Namespace:  c.ns,
		Name:       name,
		Status:     status,
		StatusText: statusText,
	}
	body, err := protocol.BuildEnvelope(hdr, payload)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, body)
}

func (c *connSink) SendBinary(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return nil
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (c *connSink) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *connSink) markClosed() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

func (h *Handlers) handleWSASR(c *gin.Context) {
	token := c.GetHeader("X-NLS-Token")
	if err := h.Validator.CheckToken(token); err != nil {
		c.JSON(400, gin.H{"status": 40000001, "message": err.Error()})
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("ws asr upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	taskID := protocol.NewID()
	sink := newConnSink(conn, taskID, protocol.NamespaceASR)
	defer sink.markClosed()

	nearfield := asr.NearfieldConfig{
		Enabled:    h.Cfg.ASREnableNearfieldFilter,
		Threshold:  h.Cfg.ASRNearfieldRMSThreshold,
		LogEnabled: h.Cfg.ASRNearfieldFilterLogEnabled,
	}
	session := asr.New(taskID, h.ASRPool, h.Executor, h.Punc, h.ITN, sink, h.Logger, nearfield)
	defer session.Close()

	if h.Metrics != nil {
		h.Metrics.ASRSessionsActive.Inc()
		h.Metrics.ASRSessionsTotal.Inc()
		defer h.Metrics.ASRSessionsActive.Dec()
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			h.Logger.Debug("ws asr client disconnected", zap.Error(err))
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			if session.State() != asr.StateStarted {
				continue
			}
			if err := session.HandleAudio(data); err != nil {
				return
			}
		case websocket.TextMessage:
			hdr, payload, ok := protocol.ParseEnvelope(data)
			if !ok {
				continue
			}
			switch hdr.Name {
			case protocol.EventStartTranscription:
				if err := session.HandleStartTranscription(payload); err != nil {
					return
				}
			case protocol.EventStopTranscription:
				_ = session.HandleStopTranscription()
				return
			}
		}
	}
}
