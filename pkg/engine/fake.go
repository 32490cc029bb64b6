package engine

import (
	"context"
	"fmt"
	"math"
	"time"
)

// FakeEngine is the only concrete engine this gateway ships: the real
// inference backends (ASR models, vocoder, voice cloning) are out of scope
// (§1) and collaborate only through the capability interfaces above. It
// produces deterministic, structurally valid output so the session FSMs and
// HTTP handlers can be exercised end-to-end without a GPU.
type FakeEngine struct {
	device       Device
	capabilities []string
	cloneVoices  map[string]bool
}

// NewFakeEngine builds a replica advertising every capability; cloneVoices
// lists the voice names routed to CloneTTS rather than PresetTTS.
func NewFakeEngine(device Device, cloneVoices []string) *FakeEngine {
	cv := make(map[string]bool, len(cloneVoices))
	for _, v := range cloneVoices {
		cv[v] = true
	}
	return &FakeEngine{
		device:       device,
		capabilities: []string{"file_asr", "streaming_asr", "preset_tts", "clone_tts"},
		cloneVoices:  cv,
	}
}

func (f *FakeEngine) Device() Device               { return f.device }
func (f *FakeEngine) LoadedCapabilities() []string { return f.capabilities }

// IsCloneVoice reports whether voice should be routed to SynthesizeClone.
func (f *FakeEngine) IsCloneVoice(voice string) bool { return f.cloneVoices[voice] }

func (f *FakeEngine) TranscribeFile(ctx context.Context, audioPath string, params ASRParams) (string, error) {
	return fmt.Sprintf("[transcribed %s]", audioPath), nil
}

type fakeStreamCache struct {
	fragments int
}

// TranscribeStreaming returns one new text fragment per non-silent call
// (the caller concatenates fragments to grow the displayed sentence) and an
// empty result when the chunk's energy is near zero, enough for the FSM's
// accumulation and endpointing logic to be driven deterministically in
// tests.
func (f *FakeEngine) TranscribeStreaming(ctx context.Context, pcmChunk []float32, cache StreamCache, isFinal bool, params ASRParams) (string, string, StreamCache, error) {
	fc, _ := cache.(*fakeStreamCache)
	if fc == nil {
		fc = &fakeStreamCache{}
	}
	var sum float64
	for _, s := range pcmChunk {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(pcmChunk)+1))
	if rms < 1e-4 {
		return "", "", fc, nil
	}
	fc.fragments++
	raw := fmt.Sprintf("字%d", fc.fragments)
	punct := raw
	if params.EnablePunct {
		punct = raw + "，"
	}
	return raw, punct, fc, nil
}

func (f *FakeEngine) synth(ctx context.Context, text string, sampleRate int) (<-chan []float32, error) {
	out := make(chan []float32, 4)
	go func() {
		defer close(out)
		n := len(text)
		if n == 0 {
			n = 1
		}
		frames := n
		if frames > 8 {
			frames = 8
		}
		for i := 0; i < frames; i++ {
			samples := make([]float32, sampleRate/50)
			for j := range samples {
				samples[j] = float32(0.1 * math.Sin(float64(i*j)/100.0))
			}
			select {
			case out <- samples:
			case <-ctx.Done():
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return out, nil
}

func (f *FakeEngine) SynthesizePreset(ctx context.Context, text, voice string, speed, sampleRate, volume int, format string) (<-chan []float32, error) {
	return f.synth(ctx, text, sampleRate)
}

func (f *FakeEngine) SynthesizeClone(ctx context.Context, text, voice string, speed, sampleRate, volume int, prompt, format string) (<-chan []float32, error) {
	return f.synth(ctx, text, sampleRate)
}
