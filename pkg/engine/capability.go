package engine

import "context"

// ASRParams carries the per-call options FileASR and StreamingASR accept.
type ASRParams struct {
	Hotwords     string
	EnablePunct  bool
	EnableITN    bool
	EnableVAD    bool
	SampleRate   int
	LangTag      string
	RegionTag    string
}

// StreamCache is an opaque model cache threaded through successive
// StreamingASR or realtime punctuation calls; its contents are owned
// entirely by the concrete engine implementation. The ASR session keeps one
// StreamingASR cache for the whole connection and one realtime punctuation
// cache per sentence.
type StreamCache any

// FileASR transcribes a complete audio file in one blocking call.
type FileASR interface {
	TranscribeFile(ctx context.Context, audioPath string, params ASRParams) (text string, err error)
}

// StreamingASR transcribes one audio chunk, threading an opaque cache across
// successive calls; isFinal flushes the model's internal state.
type StreamingASR interface {
	TranscribeStreaming(ctx context.Context, pcmChunk []float32, cache StreamCache, isFinal bool, params ASRParams) (rawText, punctuatedText string, nextCache StreamCache, err error)
}

// PunctuationModel restores punctuation; realtime keeps a rolling cache,
// offline runs single-shot over the whole sentence.
type PunctuationModel interface {
	PunctuateRealtime(ctx context.Context, text string, cache StreamCache) (punctuated string, nextCache StreamCache, err error)
	PunctuateOffline(ctx context.Context, text string) (punctuated string, err error)
}

// ITNModel normalizes spoken-form numerals/dates to written form.
type ITNModel interface {
	Normalize(ctx context.Context, text string) (string, error)
}

// PresetTTS synthesizes with a built-in, non-cloned voice.
type PresetTTS interface {
	SynthesizePreset(ctx context.Context, text, voice string, speed, sampleRate, volume int, format string) (<-chan []float32, error)
}

// CloneTTS synthesizes with a zero-shot cloned voice, optionally steered by
// a natural-language prompt.
type CloneTTS interface {
	SynthesizeClone(ctx context.Context, text, voice string, speed, sampleRate, volume int, prompt, format string) (<-chan []float32, error)
}

// Engine is the union of capabilities a concrete replica may implement; a
// replica need not implement all of them. LoadedCapabilities reports which
// ones are ready, backing the pool's "loaded when at least one capability
// model reports loaded" health definition.
type Engine interface {
	Device() Device
	LoadedCapabilities() []string
}

// AsFileASR/AsStreamingASR/AsPresetTTS/AsCloneTTS perform the capability
// dispatch the manager uses to route calls (§4.2, §9 "dynamic dispatch by
// capability").
func AsFileASR(e Engine) (FileASR, bool)         { v, ok := e.(FileASR); return v, ok }
func AsStreamingASR(e Engine) (StreamingASR, bool) { v, ok := e.(StreamingASR); return v, ok }
func AsPresetTTS(e Engine) (PresetTTS, bool)     { v, ok := e.(PresetTTS); return v, ok }
func AsCloneTTS(e Engine) (CloneTTS, bool)       { v, ok := e.(CloneTTS); return v, ok }
