package instrument

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"time"
)

// opMetrics are the metrics of a single wrapped operation.
// They are registered in the default VictoriaMetrics set and served by the rpc server under /metrics.
type opMetrics struct {
	calls    *metrics.Counter
	errors   *metrics.Counter
	duration *metrics.Histogram
}

func newOpMetrics(name string, c Concern) *opMetrics {
	labels := fmt.Sprintf(`{op=%q,wrapper=%q}`, name, c.String())
	return &opMetrics{
		calls:    metrics.GetOrCreateCounter("kvcache_calls_total" + labels),
		errors:   metrics.GetOrCreateCounter("kvcache_call_errors_total" + labels),
		duration: metrics.GetOrCreateHistogram("kvcache_call_duration_seconds" + labels),
	}
}

func (m *opMetrics) observe(start time.Time, err error) {
	m.calls.Inc()
	if err != nil {
		m.errors.Inc()
	}
	m.duration.UpdateDuration(start)
}
