package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics groups the prometheus collectors exposed on /metrics.
type BotMetrics struct {
	UpdatesReceived   prometheus.Counter
	Publishes         prometheus.Counter
	PublishesRejected *prometheus.CounterVec
	SessionsTimedOut  prometheus.Counter
	ActiveSessions    prometheus.GaugeFunc
}

// New registers and returns the bot metrics. activeSessions is polled on
// scrape to report the live session count.
func New(activeSessions func() float64) *BotMetrics {
	m := &BotMetrics{
		UpdatesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pubbot",
			Subsystem: "telegram_bot",
			Name:      "updates_received",
			Help:      "The total number of webhook/polling updates received",
		}),
		Publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pubbot",
			Subsystem: "telegram_bot",
			Name:      "publishes_total",
			Help:      "The total number of posts published to the channel",
		}),
		PublishesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pubbot",
				Subsystem: "telegram_bot",
				Name:      "publishes_rejected_total",
				Help:      "Publish attempts rejected before a session was created",
			},
			[]string{"reason"},
		),
		SessionsTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pubbot",
			Subsystem: "telegram_bot",
			Name:      "sessions_timed_out",
			Help:      "Sessions cancelled by the inactivity timeout",
		}),
		ActiveSessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pubbot",
			Subsystem: "telegram_bot",
			Name:      "active_sessions",
			Help:      "The current number of in-flight publishing sessions",
		}, activeSessions),
	}

	prometheus.MustRegister(m.UpdatesReceived)
	prometheus.MustRegister(m.Publishes)
	prometheus.MustRegister(m.PublishesRejected)
	prometheus.MustRegister(m.SessionsTimedOut)
	prometheus.MustRegister(m.ActiveSessions)

	return m
}

// NewNop returns unregistered metrics for tests.
func NewNop() *BotMetrics {
	return &BotMetrics{
		UpdatesReceived: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_updates"}),
		Publishes:       prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_publishes"}),
		PublishesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "nop_rejected"}, []string{"reason"}),
		SessionsTimedOut: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_timeouts"}),
	}
}
