package billing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments of the payment flow.
type Metrics struct {
	notifications    *prometheus.CounterVec
	scheduleFailures prometheus.Counter
	providerLatency  *prometheus.HistogramVec
}

// NewMetrics registers the billing instruments. A nil registerer uses the
// default Prometheus registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recurpay",
			Name:      "notifications_total",
			Help:      "Payment notifications handled, by status and outcome kind.",
		}, []string{"status", "outcome"}),
		scheduleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recurpay",
			Name:      "schedule_failures_total",
			Help:      "Next-charge registrations that failed after the payment was recorded.",
		}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recurpay",
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of payment provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}
	registerer.MustRegister(m.notifications, m.scheduleFailures, m.providerLatency)
	return m
}

func (m *Metrics) observeNotification(status NotificationStatus, outcome string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.notifications.WithLabelValues(string(status), outcome).Inc()
}

func (m *Metrics) observeScheduleFailure() {
	if m == nil {
		return
	}
	m.scheduleFailures.Inc()
}

func (m *Metrics) observeProvider(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerLatency.WithLabelValues(operation, result).Observe(time.Since(started).Seconds())
}
