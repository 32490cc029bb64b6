package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

// seedVoices is the built-in catalog a refresh repopulates the registry
// with — standing in for a real model manifest, since no concrete TTS
// engine is shipped to report one (§1 Out-of-scope).
var seedVoices = []voiceregistry.Voice{
	{Name: "zhixiaobai", Clone: false, CosyVoice3: false, Loaded: true},
	{Name: "zhixiaoxia", Clone: false, CosyVoice3: false, Loaded: true},
	{Name: "longxiaochun", Clone: false, CosyVoice3: true, Loaded: true},
	{Name: "clone_default", Clone: true, CosyVoice3: true, Loaded: true},
}

func (h *Handlers) handleVoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voices": h.Voices.List()})
}

func (h *Handlers) handleVoiceInfo(c *gin.Context) {
	name := c.Query("voice")
	if name == "" {
		errorEnvelope(c, "", apierr.InvalidParameter("voice is required"))
		return
	}
	v, ok := h.Voices.Info(name)
	if !ok {
		errorEnvelope(c, "", apierr.InvalidParameter("voice not found"))
		return
	}
	c.JSON(http.StatusOK, v)
}

// handleVoicesRefresh rebuilds the voice catalog from the static seed list —
// the one write path onto the registry (§4.5, §6.3). The engine pool
// replicas are not consulted; the catalog is the seed list as it stands.
func (h *Handlers) handleVoicesRefresh(c *gin.Context) {
	h.Voices.Refresh(seedVoices)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(h.Voices.List())})
}

// SeedVoices populates the registry at boot, before the first client request
// can reach the catalog.
func (h *Handlers) SeedVoices() {
	h.Voices.Refresh(seedVoices)
}
