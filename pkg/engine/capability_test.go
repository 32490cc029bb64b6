package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeEngineImplementsEveryCapability(t *testing.T) {
	var e Engine = NewFakeEngine(DeviceCPU, []string{"clone_default"})

	fileASR, ok := AsFileASR(e)
	require.True(t, ok)
	text, err := fileASR.TranscribeFile(context.Background(), "/tmp/a.wav", ASRParams{})
	require.NoError(t, err)
	assert.Contains(t, text, "/tmp/a.wav")

	_, ok = AsStreamingASR(e)
	assert.True(t, ok)
	_, ok = AsPresetTTS(e)
	assert.True(t, ok)
	_, ok = AsCloneTTS(e)
	assert.True(t, ok)
}

func TestFakeEngineIsCloneVoiceRouting(t *testing.T) {
	fe := NewFakeEngine(DeviceCPU, []string{"clone_default"})
	assert.True(t, fe.IsCloneVoice("clone_default"))
	assert.False(t, fe.IsCloneVoice("zhixiaobai"))
}

func TestTranscribeStreamingSilenceYieldsNoFragment(t *testing.T) {
	fe := NewFakeEngine(DeviceCPU, nil)
	silence := make([]float32, 320)
	raw, punct, _, err := fe.TranscribeStreaming(context.Background(), silence, nil, false, ASRParams{})
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Empty(t, punct)
}

func TestTranscribeStreamingAccumulatesFragmentsAcrossCalls(t *testing.T) {
	fe := NewFakeEngine(DeviceCPU, nil)
	loud := make([]float32, 320)
	for i := range loud {
		loud[i] = 0.5
	}
	var cache StreamCache
	raw1, _, cache, err := fe.TranscribeStreaming(context.Background(), loud, cache, false, ASRParams{})
	require.NoError(t, err)
	raw2, _, _, err := fe.TranscribeStreaming(context.Background(), loud, cache, false, ASRParams{})
	require.NoError(t, err)
	assert.NotEqual(t, raw1, raw2)
}

func TestSynthesizePresetYieldsSamples(t *testing.T) {
	fe := NewFakeEngine(DeviceCPU, nil)
	ch, err := fe.SynthesizePreset(context.Background(), "hello", "zhixiaobai", 0, 16000, 50, "PCM")
	require.NoError(t, err)
	var total int
	for frame := range ch {
		total += len(frame)
	}
	assert.Greater(t, total, 0)
}
