package asynctts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

// Synthesizer performs the segmented synthesis path described in §4.6 step
// 2: split, synthesize each sentence, concatenate, and record timings.
type Synthesizer struct {
	pool    *engine.Pool
	ex      *executor.Executor
	voices  *voiceregistry.Registry
	tempDir string
}

func NewSynthesizer(pool *engine.Pool, ex *executor.Executor, voices *voiceregistry.Registry, tempDir string) *Synthesizer {
	return &Synthesizer{pool: pool, ex: ex, voices: voices, tempDir: tempDir}
}

// sentenceResult packs one sentence's synthesized PCM and sample count so it
// can travel through executor.RunSync's single generic result.
type sentenceResult struct {
	pcm     []byte
	samples int
}

// Synthesize returns the path to a written WAV file and per-sentence timing
// triplets, using the same preset-vs-clone routing rule as the streaming
// layer (§4.4).
func (s *Synthesizer) Synthesize(ctx context.Context, taskID, text, voice string, sampleRate, volume, speed int, format string) (string, []Sentence, error) {
	idx, replica, err := s.pool.Select()
	if err != nil {
		return "", nil, err
	}
	defer s.pool.Release(idx)

	isClone := s.voices != nil && s.voices.IsCloneVoice(voice)

	var synthSentence func(ctx context.Context, sentence string) (<-chan []float32, error)
	if isClone {
		clone, ok := engine.AsCloneTTS(replica)
		if !ok {
			return "", nil, fmt.Errorf("voice %q requires clone TTS capability", voice)
		}
		synthSentence = func(ctx context.Context, sentence string) (<-chan []float32, error) {
			return clone.SynthesizeClone(ctx, sentence, voice, speed, sampleRate, volume, "", format)
		}
	} else {
		preset, ok := engine.AsPresetTTS(replica)
		if !ok {
			return "", nil, fmt.Errorf("voice %q not found in preset registry", voice)
		}
		synthSentence = func(ctx context.Context, sentence string) (<-chan []float32, error) {
			return preset.SynthesizePreset(ctx, sentence, voice, speed, sampleRate, volume, format)
		}
	}

	var pcm []byte
	var sentences []Sentence
	var elapsedMs int64

	for _, sentence := range SplitSentences(text) {
		sr, err := executor.RunSync(ctx, s.ex, func() (sentenceResult, error) {
			stream, genErr := synthSentence(ctx, sentence)
			if genErr != nil {
				return sentenceResult{}, genErr
			}
			var buf []byte
			var samples int
			for chunk := range stream {
				buf = append(buf, protocol.EncodePCM16LE(chunk)...)
				samples += len(chunk)
			}
			return sentenceResult{pcm: buf, samples: samples}, nil
		})
		if err != nil {
			return "", nil, err
		}

		beginMs := elapsedMs
		pcm = append(pcm, sr.pcm...)
		durationMs := int64(sr.samples) * 1000 / int64(sampleRate)
		elapsedMs += durationMs
		sentences = append(sentences, Sentence{Text: sentence, BeginTime: beginMs, EndTime: elapsedMs})
	}

	wav, err := protocol.WrapWAV(pcm, sampleRate, 1)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", nil, err
	}
	filename := fmt.Sprintf("%s_%d.wav", taskID, time.Now().UnixNano())
	fullPath := filepath.Join(s.tempDir, filename)
	if err := os.WriteFile(fullPath, wav, 0o644); err != nil {
		return "", nil, err
	}
	return fullPath, sentences, nil
}
