package asynctts

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

func TestSynthesizerProducesWAVFileAndSentenceTimings(t *testing.T) {
	pool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, nil), nil
	})
	require.NoError(t, err)

	voices := voiceregistry.New(nil)
	voices.Refresh([]voiceregistry.Voice{{Name: "zhixiaobai", Clone: false}})

	tempDir := t.TempDir()
	synth := NewSynthesizer(pool, executor.New(2), voices, tempDir)

	path, sentences, err := synth.Synthesize(context.Background(), "task1", "你好。再见。", "zhixiaobai", 16000, 50, 0, "WAV")
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "你好。", sentences[0].Text)
	assert.Equal(t, "再见。", sentences[1].Text)
	assert.Equal(t, []int{0}, pool.ActiveCounts())

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "RIFF", string(data[0:4]))
}

func TestSynthesizerSentenceTimingsNonDecreasing(t *testing.T) {
	pool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, nil), nil
	})
	require.NoError(t, err)
	voices := voiceregistry.New(nil)
	synth := NewSynthesizer(pool, executor.New(2), voices, t.TempDir())

	_, sentences, err := synth.Synthesize(context.Background(), "task2", "一句。两句。三句。", "any", 16000, 50, 0, "WAV")
	require.NoError(t, err)
	require.Len(t, sentences, 3)
	for i, s := range sentences {
		assert.GreaterOrEqual(t, s.EndTime, s.BeginTime)
		if i > 0 {
			assert.GreaterOrEqual(t, s.BeginTime, sentences[i-1].EndTime)
		}
	}
}
