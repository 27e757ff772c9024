package scheduling

import (
	"context"
	"time"
)

// Provider is the external scheduling service that owns the offering
// catalog, availability, and booking creation. The workflow engine only
// depends on this interface.
type Provider interface {
	// ListOfferings returns the live offering catalog. Order is only
	// meaningful as "first match wins" when resolving slugs.
	ListOfferings(ctx context.Context) ([]Offering, error)

	// GetAvailability returns bookable slots for the given calendar date,
	// earliest first. Entries are pre-filtered to available.
	GetAvailability(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error)

	// CreateAppointment books the appointment or generates a single-use
	// booking link, depending on the provider's confirmation mode.
	CreateAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error)
}
