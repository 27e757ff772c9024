package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_Catalog(t *testing.T) {
	m := NewMockProvider(time.UTC, "")
	offerings, err := m.ListOfferings(context.Background())
	if err != nil {
		t.Fatalf("ListOfferings() error = %v", err)
	}
	if len(offerings) != 4 {
		t.Fatalf("len(offerings) = %d, want 4", len(offerings))
	}
	if offerings[0].Name != "General Consultation" {
		t.Fatalf("first offering = %s", offerings[0].Name)
	}
}

func TestMockProvider_AvailabilityRespectsBusy(t *testing.T) {
	m := NewMockProvider(time.UTC, "")
	m.Busy = func(ts time.Time) bool { return ts.Hour() == 9 || ts.Hour() == 13 }

	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	slots, err := m.GetAvailability(context.Background(), date, 30)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("len(slots) = %d, want 6 (8 hours minus 2 busy)", len(slots))
	}
	for _, s := range slots {
		if s.Start.Hour() == 9 || s.Start.Hour() == 13 {
			t.Fatalf("busy hour leaked into slots: %s", s.Start)
		}
	}
}

func TestMockProvider_CreateAppointment(t *testing.T) {
	m := NewMockProvider(time.UTC, "Clinic Room 1")
	start := time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC)

	result, err := m.CreateAppointment(context.Background(), BookingRequest{
		OfferingID: "urn:calendly:event_type:2",
		Start:      start,
		Name:       "Jane Doe",
		Email:      "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	if result.Mode != ConfirmDirect {
		t.Fatalf("mode = %s, want direct", result.Mode)
	}
	if result.OfferingName != "Follow-up" || !result.ConfirmedStart.Equal(start) {
		t.Fatalf("result = %+v", result)
	}
	if result.Location != "Clinic Room 1" {
		t.Fatalf("location = %s", result.Location)
	}
}

func TestMockProvider_CreateAppointmentFailure(t *testing.T) {
	m := NewMockProvider(time.UTC, "")
	m.CreateErr = errors.New("provider down")

	_, err := m.CreateAppointment(context.Background(), BookingRequest{OfferingID: "urn:calendly:event_type:1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
