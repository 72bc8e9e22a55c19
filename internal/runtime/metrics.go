package runtime

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for relay_dispatcher_messages_total.
const (
	OutcomeDispatched = "dispatched"
	OutcomeResolved   = "resolved"
	OutcomeRejected   = "rejected"
	OutcomeNoHandler  = "no_handler"
	OutcomeStray      = "stray"
	OutcomeIgnored    = "ignored"
	OutcomeInvalid    = "invalid"
)

// DispatcherMetrics exports dispatcher activity to Prometheus.
type DispatcherMetrics struct {
	mu sync.Mutex

	messagesTotal   *prometheus.CounterVec
	handlerSeconds  *prometheus.HistogramVec
	handlerFailures *prometheus.CounterVec
	pending         prometheus.Gauge

	registerer prometheus.Registerer
	registered bool
}

func newDispatcherCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "dispatcher",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewDispatcherMetrics creates the collectors. A nil registerer means
// prometheus.DefaultRegisterer. Call Register before use.
func NewDispatcherMetrics(registerer prometheus.Registerer) *DispatcherMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &DispatcherMetrics{
		registerer:      registerer,
		messagesTotal:   newDispatcherCounterVec("messages_total", "Inbound envelopes by type and routing outcome", []string{"type", "outcome"}),
		handlerFailures: newDispatcherCounterVec("handler_failures_total", "Handler invocations that returned an error or panicked", []string{"method", "type"}),
		handlerSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "relay",
				Subsystem: "dispatcher",
				Name:      "handler_duration_seconds",
				Help:      "Time spent inside handlers",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "type"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Subsystem: "dispatcher",
			Name:      "pending_requests",
			Help:      "Correlation ids waiting for a response",
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *DispatcherMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.messagesTotal,
		m.handlerSeconds,
		m.handlerFailures,
		m.pending,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordMessage counts one inbound envelope.
func (m *DispatcherMetrics) RecordMessage(typ MessageType, outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(string(typ), outcome).Inc()
}

// ObserveHandler records a handler duration, and a failure when err is set.
func (m *DispatcherMetrics) ObserveHandler(method string, typ MessageType, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.handlerSeconds.WithLabelValues(method, string(typ)).Observe(d.Seconds())
	if err != nil {
		m.handlerFailures.WithLabelValues(method, string(typ)).Inc()
	}
}

// SetPending publishes the current size of the pending request table.
func (m *DispatcherMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
