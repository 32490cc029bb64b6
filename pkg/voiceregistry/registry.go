// Package voiceregistry is the read-mostly catalog of TTS voices (§4.5,
// §6.3): which names are preset vs. zero-shot clone voices, and which clone
// voices use CosyVoice3-style prompt framing (§4.4). Writes occur only on
// Refresh; an optional pkg/cache.Cache passed to New backs a mirror (Redis
// when configured) so catalog reads survive a process restart without
// Redis being a correctness dependency.
package voiceregistry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/alispeech/streaming-gateway/pkg/cache"
)

// Voice describes one registered voice.
type Voice struct {
	Name       string `json:"name"`
	Clone      bool   `json:"clone"`
	CosyVoice3 bool   `json:"cosy_voice3"`
	Loaded     bool   `json:"loaded"`
}

// Registry is a read-mostly map guarded by one RWMutex, mirrored to an
// optional cache tier on refresh.
type Registry struct {
	mu     sync.RWMutex
	voices map[string]Voice
	cache  cache.Cache
}

const cacheKeyPrefix = "voice:"

func New(c cache.Cache) *Registry {
	return &Registry{voices: make(map[string]Voice), cache: c}
}

// Refresh replaces the catalog wholesale — the only write path.
func (r *Registry) Refresh(voices []Voice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices = make(map[string]Voice, len(voices))
	for _, v := range voices {
		r.voices[v.Name] = v
	}
	if r.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, v := range voices {
			if b, err := json.Marshal(v); err == nil {
				_ = r.cache.Set(ctx, cacheKeyPrefix+v.Name, string(b), time.Hour)
			}
		}
	}
}

// List returns every registered voice.
func (r *Registry) List() []Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Voice, 0, len(r.voices))
	for _, v := range r.voices {
		out = append(out, v)
	}
	return out
}

func (r *Registry) lookup(name string) (Voice, bool) {
	r.mu.RLock()
	v, ok := r.voices[name]
	r.mu.RUnlock()
	if ok {
		return v, true
	}
	if r.cache == nil {
		return Voice{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	raw, found, err := r.cache.Get(ctx, cacheKeyPrefix+name)
	if err != nil || !found {
		return Voice{}, false
	}
	var v2 Voice
	if json.Unmarshal([]byte(raw), &v2) != nil {
		return Voice{}, false
	}
	return v2, true
}

// IsCloneVoice satisfies tts.CloneVoiceResolver.
func (r *Registry) IsCloneVoice(name string) bool {
	v, ok := r.lookup(name)
	return ok && v.Clone
}

// CosyVoice3Compatible satisfies tts.CloneVoiceResolver.
func (r *Registry) CosyVoice3Compatible(name string) bool {
	v, ok := r.lookup(name)
	return ok && v.CosyVoice3
}

// Info returns a catalog entry for /stream/v1/tts/voices/info.
func (r *Registry) Info(name string) (Voice, bool) {
	return r.lookup(name)
}
