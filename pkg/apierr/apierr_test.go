package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCodeAndHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  *APIError
		code Code
		http int
	}{
		{"auth", Authentication("bad token"), AuthenticationFailed, 400},
		{"invalid_param", InvalidParameter("missing text"), CodeInvalidParameter, 400},
		{"engine_not_loaded", EngineNotLoaded("no replica"), DefaultServerError, 500},
		{"task_not_found", TaskNotFound("no such task"), DefaultClientError, 400},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.code, c.err.Code)
			assert.Equal(t, c.http, c.err.HTTPStatus)
		})
	}
}

func TestInferenceFailureWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := InferenceFailure("synth failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "synth failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestAsPassesThroughAPIError(t *testing.T) {
	orig := InvalidParameter("bad")
	got := As(orig)
	assert.Same(t, orig, got)
}

func TestAsWrapsPlainErrorAsInternal(t *testing.T) {
	got := As(errors.New("plain"))
	require.NotNil(t, got)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, 500, got.HTTPStatus)
}

func TestAsNilIsNil(t *testing.T) {
	assert.Nil(t, As(nil))
}
