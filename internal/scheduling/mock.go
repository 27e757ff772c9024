package scheduling

import (
	"context"
	"fmt"
	"time"
)

// MockProvider is a deterministic in-process Provider used in tests and
// MOCK_MODE deployments. It serves a fixed four-offering catalog,
// generates hourly slots over working hours, and confirms bookings
// directly at a fixed location.
type MockProvider struct {
	loc      *time.Location
	location string

	// Busy reports whether the hourly slot starting at t is taken.
	// Nil means everything is available.
	Busy func(t time.Time) bool

	// CreateErr, when set, makes CreateAppointment fail. Tests use this
	// to exercise the confirmation retry path.
	CreateErr error
}

// NewMockProvider creates a mock provider generating slots in loc and
// confirming bookings at the given location string.
func NewMockProvider(loc *time.Location, location string) *MockProvider {
	if loc == nil {
		loc = time.UTC
	}
	if location == "" {
		location = "Clinic Room 1"
	}
	return &MockProvider{loc: loc, location: location}
}

var mockCatalog = []Offering{
	{ID: "urn:calendly:event_type:1", Name: "General Consultation", DurationMinutes: 30, Slug: "general-30"},
	{ID: "urn:calendly:event_type:2", Name: "Follow-up", DurationMinutes: 15, Slug: "followup-15"},
	{ID: "urn:calendly:event_type:3", Name: "Physical Exam", DurationMinutes: 45, Slug: "physical-45"},
	{ID: "urn:calendly:event_type:4", Name: "Specialist Consultation", DurationMinutes: 60, Slug: "specialist-60"},
}

// ListOfferings returns the fixed catalog.
func (m *MockProvider) ListOfferings(ctx context.Context) ([]Offering, error) {
	out := make([]Offering, len(mockCatalog))
	copy(out, mockCatalog)
	return out, nil
}

// GetAvailability generates one slot per hour between 9:00 and 17:00,
// skipping any hour the Busy function marks as taken.
func (m *MockProvider) GetAvailability(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error) {
	y, mo, d := date.In(m.loc).Date()
	dur := time.Duration(durationMinutes) * time.Minute

	var slots []Slot
	for h := workdayStartHour; h < workdayEndHour; h++ {
		start := time.Date(y, mo, d, h, 0, 0, 0, m.loc)
		if m.Busy != nil && m.Busy(start) {
			continue
		}
		slots = append(slots, Slot{Start: start, End: start.Add(dur), Status: SlotAvailable})
	}
	return slots, nil
}

// CreateAppointment confirms the booking directly.
func (m *MockProvider) CreateAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	var name string
	for _, o := range mockCatalog {
		if o.ID == req.OfferingID {
			name = o.Name
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("mock provider: unknown offering %q", req.OfferingID)
	}
	return &BookingResult{
		Mode:           ConfirmDirect,
		ConfirmedStart: req.Start,
		OfferingName:   name,
		Location:       m.location,
	}, nil
}
