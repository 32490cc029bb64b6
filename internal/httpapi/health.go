package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alispeech/streaming-gateway/pkg/engine"
)

func poolHealth(pool *engine.Pool) gin.H {
	if pool == nil {
		return gin.H{"loaded": false, "replicas": []engine.ReplicaStats{}}
	}
	stats := pool.Stats()
	devices := make([]string, 0, len(stats))
	for _, s := range stats {
		devices = append(devices, string(s.Device))
	}
	return gin.H{
		"loaded":   pool.Loaded(),
		"devices":  devices,
		"replicas": stats,
	}
}

// handleASRHealth reports liveness, per-capability-loaded flags, device
// string, and engine pool stats (§4.5, SUPPLEMENTED FEATURES §C.3).
func (h *Handlers) handleASRHealth(c *gin.Context) {
	caps := map[string]bool{"file_asr": false, "streaming_asr": false}
	if h.ASRPool != nil {
		for _, r := range h.ASRPool.Replicas() {
			for _, cap := range r.LoadedCapabilities() {
				caps[cap] = true
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"capabilities": caps,
		"engine_pool":  poolHealth(h.ASRPool),
	})
}

func (h *Handlers) handleTTSHealth(c *gin.Context) {
	caps := map[string]bool{"preset_tts": false, "clone_tts": false}
	if h.TTSPool != nil {
		for _, r := range h.TTSPool.Replicas() {
			for _, cap := range r.LoadedCapabilities() {
				caps[cap] = true
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"capabilities": caps,
		"engine_pool":  poolHealth(h.TTSPool),
	})
}

// asrModel is one entry of the /stream/v1/asr/models catalog, mirroring the
// original's ModelManager.list_models() (§C.2 supplemented feature).
type asrModel struct {
	ID           string   `json:"id"`
	Loaded       bool     `json:"loaded"`
	Capabilities []string `json:"capabilities"`
}

func (h *Handlers) handleASRModels(c *gin.Context) {
	models := []asrModel{}
	if h.ASRPool != nil {
		for _, r := range h.ASRPool.Replicas() {
			models = append(models, asrModel{
				ID:           string(r.Device()),
				Loaded:       len(r.LoadedCapabilities()) > 0,
				Capabilities: r.LoadedCapabilities(),
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
