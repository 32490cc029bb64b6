package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunctuateRealtimeAppendsCommaAndCarriesCache(t *testing.T) {
	p := NewFakePunctuation()
	out, cache, err := p.PunctuateRealtime(context.Background(), "你好", nil)
	require.NoError(t, err)
	assert.Equal(t, "你好，", out)
	require.NotNil(t, cache)

	out2, _, err := p.PunctuateRealtime(context.Background(), "再见", cache)
	require.NoError(t, err)
	assert.Equal(t, "再见，", out2)
}

func TestPunctuateRealtimeEmptyTextPassthrough(t *testing.T) {
	p := NewFakePunctuation()
	out, _, err := p.PunctuateRealtime(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestPunctuateOfflineAppendsFullStop(t *testing.T) {
	p := NewFakePunctuation()
	out, err := p.PunctuateOffline(context.Background(), "今天天气不错")
	require.NoError(t, err)
	assert.Equal(t, "今天天气不错。", out)
}

func TestITNNormalizeRewritesSpokenNumerals(t *testing.T) {
	itn := NewFakeITN()
	out, err := itn.Normalize(context.Background(), "一百二十块")
	require.NoError(t, err)
	assert.Equal(t, "120块", out)
}
