package httptransport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WebhookUpdates  *prometheus.CounterVec
	WebhookDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhookUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "webhook",
			Name:      "updates_total",
			Help:      "Telegram updates received, by result.",
		}, []string{"result"}),
		WebhookDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "boltalka",
			Subsystem: "webhook",
			Name:      "handle_seconds",
			Help:      "Time spent dispatching one update.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) update(result string) {
	if m != nil {
		m.WebhookUpdates.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.WebhookDuration.Observe(seconds)
	}
}
