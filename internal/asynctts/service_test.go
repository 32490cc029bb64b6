package asynctts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	pool, _, err := engine.NewPool("cpu", func(d engine.Device) (engine.Engine, error) {
		return engine.NewFakeEngine(d, nil), nil
	})
	require.NoError(t, err)
	voices := voiceregistry.New(nil)
	svc, err := NewService(":memory:", pool, executor.New(2), voices, t.TempDir(), 2*time.Second, 10*time.Millisecond, 7*24*time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Shutdown)
	return svc
}

func TestServiceSubmitValidatesText(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Submit(SubmitRequest{Text: "", Voice: "zhixiaobai"})
	assert.Error(t, err)
}

func TestServiceSubmitValidatesVoice(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Submit(SubmitRequest{Text: "hello", Voice: ""})
	assert.Error(t, err)
}

func TestServiceSubmitValidatesNotifyURLScheme(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Submit(SubmitRequest{Text: "hello", Voice: "zhixiaobai", EnableNotify: true, NotifyURL: "ftp://bad"})
	assert.Error(t, err)
}

func TestServiceQueryUnknownTaskNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Query("does-not-exist")
	assert.Error(t, err)
}

func TestServiceSubmitThenEventuallyQuerySuccess(t *testing.T) {
	svc := newTestService(t)
	taskID, requestID, err := svc.Submit(SubmitRequest{Text: "你好。", Voice: "zhixiaobai", SampleRate: 16000, Format: "WAV"})
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)
	assert.NotEmpty(t, requestID)

	require.Eventually(t, func() bool {
		task, err := svc.Query(taskID)
		if err != nil || task == nil {
			return false
		}
		return task.Status == StatusSuccess
	}, 2*time.Second, 20*time.Millisecond)
}
