package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)
	m.ObserveMessage("AWAITING_DATE", "advanced")
	m.ObserveMessage("AWAITING_DATE", "retry")
	m.ObserveBooking("direct")
	m.ObserveProviderLatency("get_availability", 0.25)
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveMessage("INIT", "greeted")
	m.ObserveBooking("link")
	m.ObserveProviderLatency("list_offerings", 0.1)
}

func TestConversationMetricsRegisteredNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)
	m.ObserveMessage("INIT", "greeted")
	m.ObserveBooking("direct")
	m.ObserveProviderLatency("create_appointment", 0.2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"booking_conversation_messages_total",
		"booking_conversation_bookings_total",
		"booking_provider_latency_seconds",
	} {
		if !names[want] {
			t.Errorf("metric %q not registered", want)
		}
	}
}
