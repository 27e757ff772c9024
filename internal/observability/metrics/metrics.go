// Package metrics exposes Prometheus instrumentation for conversation flows.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the booking flow.
type ConversationMetrics struct {
	messagesTotal   *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Messages processed, by session state and turn outcome",
		}, []string{"state", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Confirmed bookings, by provider confirmation mode",
		}, []string{"mode"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of outbound scheduling provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.bookingsTotal, m.providerLatency)
	return m
}

// ObserveMessage records one processed turn.
func (m *ConversationMetrics) ObserveMessage(state, outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(state, outcome).Inc()
}

// ObserveBooking records a confirmed booking.
func (m *ConversationMetrics) ObserveBooking(mode string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(mode).Inc()
}

// ObserveProviderLatency records one outbound provider call.
func (m *ConversationMetrics) ObserveProviderLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(operation).Observe(seconds)
}
