// Package asr drives the Aliyun SpeechTranscriber streaming protocol (§4.3):
// chunk accretion, the nearfield gate, endpointing, the punctuation cascade,
// and result deduplication. This is the hardest subsystem in the gateway.
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

// Standard chunk sizes in samples at 16 kHz (§4.3): 600ms and 240ms.
const (
	chunkLarge = 9600
	chunkSmall = 3840
)

// State is the session's FSM state; it moves strictly forward.
type State int

const (
	StateReady State = iota
	StateStarted
	StateCompleted
)

// Sink is how the session emits wire frames; implemented by the WS handler.
type Sink interface {
	SendEnvelope(name string, status int, statusText string, payload map[string]any) error
	SendBinary(b []byte) error
}

// StartParams is StartTranscription's payload (§4.3), with defaults applied.
type StartParams struct {
	Format                     string `json:"format"`
	SampleRate                 int    `json:"sample_rate"`
	EnableIntermediateResult   bool   `json:"enable_intermediate_result"`
	EnablePunctuationPrediction bool  `json:"enable_punctuation_prediction"`
	EnableITN                  bool   `json:"enable_inverse_text_normalization"`
	MaxSentenceSilence         int    `json:"max_sentence_silence"`
}

func defaultStartParams() StartParams {
	return StartParams{
		Format:                      "pcm",
		SampleRate:                  16000,
		EnableIntermediateResult:    true,
		EnablePunctuationPrediction: true,
		EnableITN:                   true,
		MaxSentenceSilence:          800,
	}
}

// accumulator tracks one in-flight sentence (§3).
type accumulator struct {
	index       int
	active      bool
	beginTimeMs int64
	texts       []string // punctuated fragments, dedup append-only
	rawTexts    []string // raw fragments, dedup append-only
	emptyCount  int
	lastDisplay string
	puncCache   engine.StreamCache
}

// NearfieldConfig controls the optional nearfield gate (§4.3).
type NearfieldConfig struct {
	Enabled    bool
	Threshold  float64
	LogEnabled bool
}

// Session is one ASR WebSocket connection's protocol state machine.
type Session struct {
	mu sync.Mutex

	taskID    string
	sessionID string
	state     State

	params    StartParams
	nearfield NearfieldConfig

	buffer []float32

	pool         *engine.Pool
	ex           *executor.Executor
	replicaIdx   int
	replica      engine.Engine
	streamingASR engine.StreamingASR
	punc         engine.PunctuationModel
	itn          engine.ITNModel

	streamCache engine.StreamCache

	acc       *accumulator
	nextIndex int
	audioMs   int64

	sink   Sink
	logger *zap.Logger

	selected bool
}

// New builds a session bound to a given task id, pool, punctuation/ITN
// models, sink, and logger. The engine replica is selected on
// StartTranscription, not here.
func New(taskID string, pool *engine.Pool, ex *executor.Executor, punc engine.PunctuationModel, itn engine.ITNModel, sink Sink, logger *zap.Logger, nearfield NearfieldConfig) *Session {
	return &Session{
		taskID:    taskID,
		sessionID: "session_" + taskID,
		state:     StateReady,
		pool:      pool,
		ex:        ex,
		punc:      punc,
		itn:       itn,
		sink:      sink,
		logger:    logger,
		nearfield: nearfield,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleStartTranscription validates the payload, selects an engine
// replica, replies TranscriptionStarted, and transitions to Started.
func (s *Session) HandleStartTranscription(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return s.failLocked("StartTranscription received outside Ready state")
	}

	params := defaultStartParams()
	if len(payload) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(payload, &raw); err == nil {
			_ = json.Unmarshal(payload, &params)
		}
	}
	if params.SampleRate == 0 {
		params.SampleRate = 16000
	}
	if !protocol.SupportedASRSampleRates[params.SampleRate] {
		return s.failLocked(fmt.Sprintf("unsupported sample rate %d", params.SampleRate))
	}
	if params.MaxSentenceSilence <= 0 {
		params.MaxSentenceSilence = 800
	}
	s.params = params

	idx, repl, err := s.pool.Select()
	if err != nil {
		return s.failLocked("no ASR engine available")
	}
	sa, ok := engine.AsStreamingASR(repl)
	if !ok {
		s.pool.Release(idx)
		return s.failLocked("engine does not support streaming ASR")
	}
	s.replicaIdx = idx
	s.replica = repl
	s.streamingASR = sa
	s.selected = true

	s.state = StateStarted
	return s.sink.SendEnvelope(protocol.EventTranscriptionStarted, int(apierr.Success), "SUCCESS", map[string]any{
		"session_id": s.sessionID,
	})
}

// HandleAudio enqueues a binary audio frame, decoding and processing as many
// standard chunks as the rolling buffer can serve.
func (s *Session) HandleAudio(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStarted {
		return s.failLocked("audio frame received outside Started state")
	}
	s.buffer = append(s.buffer, protocol.DecodePCM16LE(data)...)
	for {
		n := pickStandardChunk(len(s.buffer))
		if n == 0 {
			break
		}
		chunk := s.buffer[:n]
		s.buffer = s.buffer[n:]
		if err := s.processChunk(chunk, false); err != nil {
			return err
		}
	}
	return nil
}

// HandleStopTranscription drains the buffer with isFinal=true, finalizes any
// active sentence, replies TranscriptionCompleted, and transitions to
// Completed.
func (s *Session) HandleStopTranscription() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStarted {
		return s.failLocked("StopTranscription received outside Started state")
	}
	if len(s.buffer) > 0 {
		chunk := s.buffer
		s.buffer = nil
		if err := s.processChunk(chunk, true); err != nil {
			return err
		}
	} else if s.streamingASR != nil {
		// Flush the model cache even with no pending samples.
		_, _ = executor.RunSync(context.Background(), s.ex, func() (streamResult, error) {
			raw, punct, nextCache, err := s.streamingASR.TranscribeStreaming(context.Background(), nil, s.streamCache, true, s.currentASRParams())
			return streamResult{raw: raw, punct: punct, cache: nextCache}, err
		})
	}
	if s.acc != nil && s.acc.active {
		s.finalizeSentenceLocked()
	}
	s.releaseEngineLocked()
	s.state = StateCompleted
	return s.sink.SendEnvelope(protocol.EventTranscriptionCompleted, int(apierr.Success), "SUCCESS", map[string]any{})
}

// Close releases any held engine replica on abnormal disconnect; safe to
// call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseEngineLocked()
}

func (s *Session) releaseEngineLocked() {
	if s.selected {
		s.pool.Release(s.replicaIdx)
		s.selected = false
	}
}

// streamResult packs TranscribeStreaming's multi-value return so it can
// travel through executor.RunSync's single generic result.
type streamResult struct {
	raw   string
	punct string
	cache engine.StreamCache
}

// puncResult packs PunctuateRealtime's multi-value return for the same
// reason.
type puncResult struct {
	text  string
	cache engine.StreamCache
}

func pickStandardChunk(n int) int {
	if n >= chunkLarge {
		return chunkLarge
	}
	if n >= chunkSmall {
		return chunkSmall
	}
	return 0
}

// chunkStride maps a chunk's sample count to the underlying streaming
// model's stride parameter (§4.3): round(samples/960) clamped to [4,10].
func chunkStride(samples int) int {
	stride := int(math.Round(float64(samples) / 960.0))
	if stride < 4 {
		stride = 4
	}
	if stride > 10 {
		stride = 10
	}
	return stride
}

func chunkDurationMs(samples, sampleRate int) int64 {
	if sampleRate == 0 {
		sampleRate = 16000
	}
	return int64(samples) * 1000 / int64(sampleRate)
}

func (s *Session) currentASRParams() engine.ASRParams {
	return engine.ASRParams{
		EnablePunct: s.params.EnablePunctuationPrediction,
		EnableITN:   s.params.EnableITN,
		SampleRate:  s.params.SampleRate,
	}
}

// maxEmptyChunks implements max(3, (max_sentence_silence*2)/600) from §4.3.
func (s *Session) maxEmptyChunks() int {
	v := (s.params.MaxSentenceSilence * 2) / 600
	if v < 3 {
		return 3
	}
	return v
}

func (s *Session) processChunk(chunk []float32, isFinal bool) error {
	s.audioMs += chunkDurationMs(len(chunk), s.params.SampleRate)

	threshold := s.nearfield.Threshold
	if s.acc != nil && s.acc.active {
		threshold *= 0.6
	}
	if s.nearfield.Enabled {
		rms := protocol.RMS(chunk)
		if s.nearfield.LogEnabled {
			s.logger.Debug("nearfield gate", zap.Float64("rms", rms), zap.Float64("threshold", threshold))
		}
		if rms < threshold {
			if s.acc == nil || !s.acc.active {
				return nil // drop entirely, no model call
			}
			s.handleEmptyResult()
			if isFinal {
				s.finalizeSentenceLocked()
			}
			return nil
		}
	}

	_ = chunkStride(len(chunk)) // computed for parity with the model's streaming API contract

	var puncCache engine.StreamCache
	if s.acc != nil {
		puncCache = s.acc.puncCache
	}
	sr, err := executor.RunSync(context.Background(), s.ex, func() (streamResult, error) {
		raw, punct, nextCache, err := s.streamingASR.TranscribeStreaming(context.Background(), chunk, s.streamCache, isFinal, s.currentASRParams())
		return streamResult{raw: raw, punct: punct, cache: nextCache}, err
	})
	if err != nil {
		return s.failLocked("Audio processing failed")
	}
	raw, punct := sr.raw, sr.punct
	s.streamCache = sr.cache

	if raw == "" && punct == "" {
		s.handleEmptyResult()
	} else {
		s.handleNonEmptyResult(raw, punct, puncCache)
	}

	if isFinal && s.acc != nil && s.acc.active {
		s.finalizeSentenceLocked()
	}
	return nil
}

func (s *Session) handleEmptyResult() {
	if s.acc == nil || !s.acc.active {
		return
	}
	s.acc.emptyCount++
	if s.acc.emptyCount >= s.maxEmptyChunks() {
		s.finalizeSentenceLocked()
	}
}

func (s *Session) handleNonEmptyResult(raw, punctuated string, puncCache engine.StreamCache) {
	if s.acc == nil || !s.acc.active {
		s.beginSentenceLocked()
	}
	s.acc.emptyCount = 0

	displayText := punctuated
	if s.params.EnablePunctuationPrediction && punctuated != "" {
		pr, err := executor.RunSync(context.Background(), s.ex, func() (puncResult, error) {
			realtime, nextCache, err := s.punc.PunctuateRealtime(context.Background(), raw, puncCache)
			return puncResult{text: realtime, cache: nextCache}, err
		})
		if err == nil {
			displayText = pr.text
			s.acc.puncCache = pr.cache
		}
	}

	changed := false
	if len(s.acc.rawTexts) == 0 || s.acc.rawTexts[len(s.acc.rawTexts)-1] != raw {
		s.acc.rawTexts = append(s.acc.rawTexts, raw)
		changed = true
	}
	if len(s.acc.texts) == 0 || s.acc.texts[len(s.acc.texts)-1] != displayText {
		s.acc.texts = append(s.acc.texts, displayText)
		changed = true
	}
	if !changed {
		return
	}

	display := strings.Join(s.acc.texts, "")
	if display == s.acc.lastDisplay {
		return
	}
	s.acc.lastDisplay = display
	if s.params.EnableIntermediateResult {
		_ = s.sink.SendEnvelope(protocol.EventTranscriptionChanged, int(apierr.Success), "SUCCESS", map[string]any{
			"index":  s.acc.index,
			"time":   s.audioMs,
			"result": display,
		})
	}
}

func (s *Session) beginSentenceLocked() {
	s.nextIndex++
	s.acc = &accumulator{index: s.nextIndex, active: true, beginTimeMs: s.audioMs}
	_ = s.sink.SendEnvelope(protocol.EventSentenceBegin, int(apierr.Success), "SUCCESS", map[string]any{
		"index": s.acc.index,
		"time":  s.acc.beginTimeMs,
	})
}

func (s *Session) finalizeSentenceLocked() {
	if s.acc == nil {
		return
	}
	acc := s.acc
	endTimeMs := s.audioMs

	rawConcat := strings.Join(acc.rawTexts, "")
	final, err := executor.RunSync(context.Background(), s.ex, func() (string, error) {
		return s.punc.PunctuateOffline(context.Background(), rawConcat)
	})
	if err != nil {
		final = rawConcat
	}
	if s.params.EnableITN && s.itn != nil {
		normalized, err := executor.RunSync(context.Background(), s.ex, func() (string, error) {
			return s.itn.Normalize(context.Background(), final)
		})
		if err == nil {
			final = normalized
		}
	}

	_ = s.sink.SendEnvelope(protocol.EventSentenceEnd, int(apierr.Success), "SUCCESS", map[string]any{
		"index":      acc.index,
		"time":       endTimeMs,
		"result":     final,
		"begin_time": acc.beginTimeMs,
	})
	s.acc = nil
}

func (s *Session) failLocked(reason string) error {
	s.releaseEngineLocked()
	s.state = StateCompleted
	return s.sink.SendEnvelope(protocol.EventTaskFailed, int(apierr.DefaultClientError), reason, map[string]any{})
}
