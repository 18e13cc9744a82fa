package crocodile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	GamesStarted   prometheus.Counter
	GamesResolved  *prometheus.CounterVec
	HintsEmitted   prometheus.Counter
	SweepTicks     prometheus.Counter
	SweepErrors    prometheus.Counter
	NotifyFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GamesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "games_started_total",
			Help:      "Crocodile games started.",
		}),
		GamesResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "games_resolved_total",
			Help:      "Crocodile games resolved, by outcome.",
		}, []string{"outcome"}),
		HintsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "hints_emitted_total",
			Help:      "Automatic hints returned for incorrect guesses.",
		}),
		SweepTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "sweep_ticks_total",
			Help:      "Timeout sweeper ticks.",
		}),
		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "sweep_errors_total",
			Help:      "Timeout sweeper ticks that failed to reach the store.",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boltalka",
			Subsystem: "crocodile",
			Name:      "notify_failures_total",
			Help:      "Timeout notifications that could not be delivered.",
		}),
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.GamesStarted.Inc()
	}
}

func (m *Metrics) resolved(outcome string) {
	if m != nil {
		m.GamesResolved.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) hint() {
	if m != nil {
		m.HintsEmitted.Inc()
	}
}

func (m *Metrics) sweepTick(err error) {
	if m == nil {
		return
	}
	m.SweepTicks.Inc()
	if err != nil {
		m.SweepErrors.Inc()
	}
}

func (m *Metrics) notifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}
