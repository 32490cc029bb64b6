package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMetricsReturnsSameInstance(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	assert.Same(t, a, b)
}

func TestMetricsGaugesAndCountersAreUsable(t *testing.T) {
	m := NewMetrics()
	assert.NotPanics(t, func() {
		m.ASRSessionsActive.Inc()
		m.ASRSessionsActive.Dec()
		m.ASRSessionsTotal.Inc()
		m.EnginePoolActive.WithLabelValues("asr", "cpu").Set(1)
		m.ExecutorQueueDepth.Set(3)
		m.AsyncTasksTotal.WithLabelValues("SUCCESS").Inc()
		m.WSMessagesTotal.WithLabelValues("SpeechTranscriber", "StartTranscription").Inc()
	})
}
