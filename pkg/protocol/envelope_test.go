package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsLowercaseHexNoDashes(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'), "unexpected char %q", r)
	}
}

func TestBuildAndParseEnvelopeRoundTrip(t *testing.T) {
	hdr := Header{
		MessageID:  NewID(),
		TaskID:     NewID(),
		Namespace:  NamespaceASR,
		Name:       "TranscriptionStarted",
		Status:     20000000,
		StatusText: "GATEWAY_SUCCESS",
	}
	raw, err := BuildEnvelope(hdr, map[string]any{"result": "hello"})
	require.NoError(t, err)

	parsed, payload, ok := ParseEnvelope(raw)
	require.True(t, ok)
	assert.Equal(t, hdr, parsed)
	assert.JSONEq(t, `{"result":"hello"}`, string(payload))
}

func TestParseEnvelopeRejectsNonObject(t *testing.T) {
	_, _, ok := ParseEnvelope([]byte(`[1,2,3]`))
	assert.False(t, ok)
}

func TestParseEnvelopeRejectsMissingHeader(t *testing.T) {
	_, _, ok := ParseEnvelope([]byte(`{"payload":{}}`))
	assert.False(t, ok)
}

func TestBuildEnvelopeDefaultsNilPayloadToEmptyObject(t *testing.T) {
	raw, err := BuildEnvelope(Header{Name: "X"}, nil)
	require.NoError(t, err)
	_, payload, ok := ParseEnvelope(raw)
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(payload))
}
