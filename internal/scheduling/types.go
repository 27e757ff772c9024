// Package scheduling contains the scheduling provider contract plus the
// Calendly client and a deterministic mock used for tests and demos.
package scheduling

import "time"

// Offering represents a bookable appointment type with a fixed duration.
type Offering struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	Slug            string `json:"slug"`
}

// SlotStatus marks whether a generated slot is free or taken.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBusy      SlotStatus = "busy"
)

// Slot represents a concrete bookable start/end interval.
type Slot struct {
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status SlotStatus `json:"status"`
}

// BookingRequest contains fields needed to create an appointment.
type BookingRequest struct {
	OfferingID string    `json:"offeringId"`
	Start      time.Time `json:"start"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Reason     string    `json:"reason,omitempty"`
}

// ConfirmationMode distinguishes how a provider confirms a booking.
type ConfirmationMode string

const (
	// ConfirmByLink means the patient finishes booking via a single-use URL.
	ConfirmByLink ConfirmationMode = "link"
	// ConfirmDirect means the appointment was created outright.
	ConfirmDirect ConfirmationMode = "direct"
)

// BookingResult contains booking creation results. BookingURL is set in
// link mode; ConfirmedStart, OfferingName and Location in direct mode.
type BookingResult struct {
	Mode           ConfirmationMode `json:"mode"`
	BookingURL     string           `json:"bookingUrl,omitempty"`
	ConfirmedStart time.Time        `json:"confirmedStart,omitempty"`
	OfferingName   string           `json:"offeringName,omitempty"`
	Location       string           `json:"location,omitempty"`
}
