package tts

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

type fakeSink struct {
	mu     sync.Mutex
	envs   []string
	frames [][]byte
	alive  bool
}

func newFakeSink() *fakeSink { return &fakeSink{alive: true} }

func (f *fakeSink) SendEnvelope(name string, status int, statusText string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, name)
	return nil
}

func (f *fakeSink) SendBinary(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, b)
	return nil
}

func (f *fakeSink) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeSink) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.envs))
	copy(out, f.envs)
	return out
}

func (f *fakeSink) count(name string) int {
	n := 0
	for _, e := range f.names() {
		if e == name {
			n++
		}
	}
	return n
}

type fakeVoiceResolver struct {
	clones     map[string]bool
	cosyVoice3 map[string]bool
}

func (r *fakeVoiceResolver) IsCloneVoice(voice string) bool        { return r.clones[voice] }
func (r *fakeVoiceResolver) CosyVoice3Compatible(voice string) bool { return r.cosyVoice3[voice] }

func newTestTTSSession(t *testing.T) (*Session, *fakeSink, *engine.Pool) {
	t.Helper()
	pool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, []string{"clone_default"}), nil
	})
	require.NoError(t, err)
	resolver := &fakeVoiceResolver{
		clones:     map[string]bool{"clone_default": true},
		cosyVoice3: map[string]bool{"clone_default": true},
	}
	sink := newFakeSink()
	s := New("task1", pool, executor.New(2), resolver, sink, zap.NewNop())
	return s, sink, pool
}

func TestTTSMultiTurnHappyPath(t *testing.T) {
	s, sink, _ := newTestTTSSession(t)
	require.NoError(t, s.HandleStartSynthesis([]byte(`{"voice":"zhixiaobai","format":"PCM","sample_rate":16000}`)))
	assert.Equal(t, []string{protocol.EventSynthesisStarted}, sink.names())

	require.NoError(t, s.HandleRunSynthesis(context.Background(), []byte(`{"text":"hello there"}`)))
	require.NoError(t, s.HandleRunSynthesis(context.Background(), []byte(`{"text":"second turn"}`)))

	assert.Equal(t, 2, sink.count(protocol.EventSentenceBegin))
	assert.Equal(t, 2, sink.count(protocol.EventSentenceEnd))
	assert.NotEmpty(t, sink.frames)

	require.NoError(t, s.HandleStopSynthesis())
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 1, sink.count(protocol.EventSynthesisCompleted))
}

func TestTTSCloneVoiceWithPrompt(t *testing.T) {
	s, sink, _ := newTestTTSSession(t)
	require.NoError(t, s.HandleStartSynthesis([]byte(`{"voice":"clone_default","format":"WAV","sample_rate":16000,"prompt":"speak warmly"}`)))
	require.NoError(t, s.HandleRunSynthesis(context.Background(), []byte(`{"text":"cloned voice line"}`)))

	require.NotEmpty(t, sink.frames)
	for _, f := range sink.frames {
		assert.Equal(t, "RIFF", string(f[0:4]), "WAV format frames carry a RIFF header")
	}
}

func TestFramePromptCosyVoice3VsCosyVoice2(t *testing.T) {
	v3 := framePrompt("be cheerful", true)
	assert.True(t, strings.HasPrefix(v3, "You are a helpful assistant."))
	assert.True(t, strings.HasSuffix(v3, "<|endofprompt|>"))

	v2 := framePrompt("be cheerful", false)
	assert.False(t, strings.HasPrefix(v2, "You are a helpful assistant."))
	assert.True(t, strings.HasSuffix(v2, "<|endofprompt|>"))

	assert.Equal(t, "", framePrompt("", true))
}

func TestTTSRejectsUnsupportedFormat(t *testing.T) {
	s, sink, _ := newTestTTSSession(t)
	err := s.HandleStartSynthesis([]byte(`{"voice":"zhixiaobai","format":"OGG","sample_rate":16000}`))
	assert.NoError(t, err)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, []string{protocol.EventTaskFailed}, sink.names())
}

func TestTTSRejectsEmptyTextOnRun(t *testing.T) {
	s, sink, _ := newTestTTSSession(t)
	require.NoError(t, s.HandleStartSynthesis(nil))
	err := s.HandleRunSynthesis(context.Background(), []byte(`{"text":""}`))
	assert.NoError(t, err)
	assert.Equal(t, StateCompleted, s.State())
	assert.Contains(t, sink.names(), protocol.EventTaskFailed)
}

func TestTTSReleasesEngineOnStop(t *testing.T) {
	s, _, pool := newTestTTSSession(t)
	require.NoError(t, s.HandleStartSynthesis(nil))
	assert.Equal(t, []int{1}, pool.ActiveCounts())
	require.NoError(t, s.HandleStopSynthesis())
	assert.Equal(t, []int{0}, pool.ActiveCounts())
}
