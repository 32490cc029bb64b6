// Package metrics exposes the /metrics surface: engine pool active-count
// gauges, session counters, and inference executor queue depth, via
// prometheus/client_golang — the teacher's pkg/metrics package (present in
// the retrieved pack only as tests) wired to this domain's signals.
//
// Only the session gauges and counters are updated, by the WS handlers. The
// engine pool, executor, async-task and WS-message series are registered and
// exposed but no code sets them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every gauge/counter this gateway registers.
type Metrics struct {
	ASRSessionsActive  prometheus.Gauge
	TTSSessionsActive  prometheus.Gauge
	ASRSessionsTotal   prometheus.Counter
	TTSSessionsTotal   prometheus.Counter
	EnginePoolActive   *prometheus.GaugeVec
	ExecutorQueueDepth prometheus.Gauge
	AsyncTasksTotal    *prometheus.CounterVec
	WSMessagesTotal    *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// NewMetrics builds (once, process-wide) and returns the metrics bundle;
// repeated calls are safe and return the same instance.
func NewMetrics() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			ASRSessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "gateway_asr_sessions_active",
				Help: "Number of currently open ASR WebSocket sessions.",
			}),
			TTSSessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "gateway_tts_sessions_active",
				Help: "Number of currently open TTS WebSocket sessions.",
			}),
			ASRSessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gateway_asr_sessions_total",
				Help: "Total ASR WebSocket sessions accepted.",
			}),
			TTSSessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gateway_tts_sessions_total",
				Help: "Total TTS WebSocket sessions accepted.",
			}),
			EnginePoolActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "gateway_engine_pool_active_count",
				Help: "Active call count per engine replica.",
			}, []string{"pool", "device"}),
			ExecutorQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "gateway_inference_executor_inflight",
				Help: "In-flight inference executor work items.",
			}),
			AsyncTasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "gateway_async_tts_tasks_total",
				Help: "Completed async TTS tasks by terminal status.",
			}, []string{"status"}),
			WSMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "gateway_ws_messages_total",
				Help: "WebSocket control messages processed by event name.",
			}, []string{"namespace", "name"}),
		}
	})
	return instance
}
