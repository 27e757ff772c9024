// Package session holds per-conversation booking state and the stores
// that keep it for the lifetime of a conversation.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/clinic-booking-agent/internal/scheduling"
	"github.com/wolfman30/clinic-booking-agent/internal/timeparse"
)

// ErrNotFound is returned by Get for unknown session ids.
var ErrNotFound = errors.New("session: not found")

// State is the current step of the booking conversation.
type State string

const (
	StateInit                 State = "INIT"
	StateAwaitingReason       State = "AWAITING_REASON"
	StateAwaitingDate         State = "AWAITING_DATE"
	StateSelectingSlot        State = "SELECTING_SLOT"
	StateAwaitingName         State = "AWAITING_NAME"
	StateAwaitingEmail        State = "AWAITING_EMAIL"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateCompleted            State = "COMPLETED"
)

// Data accumulates what the conversation has collected so far. It is
// treated as an immutable value: handlers build a new Data and commit it
// wholesale, never mutating the stored copy in place.
type Data struct {
	Reason             string               `json:"reason,omitempty"`
	AppointmentType    *scheduling.Offering `json:"appointmentType,omitempty"`
	PreferredDate      time.Time            `json:"preferredDate,omitempty"`
	PreferredTimeRange *timeparse.HourRange `json:"preferredTimeRange,omitempty"`
	AvailableSlots     []scheduling.Slot    `json:"availableSlots,omitempty"`
	SelectedSlot       *scheduling.Slot     `json:"selectedSlot,omitempty"`
	Name               string               `json:"name,omitempty"`
	Email              string               `json:"email,omitempty"`
}

// Session is one in-progress conversation, identified by an opaque id.
type Session struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Data       Data      `json:"data"`
	LastActive time.Time `json:"lastActive"`
}

// Store is the injectable session registry. Update replaces the stored
// data wholesale and refreshes LastActive; it is a no-op for unknown ids.
type Store interface {
	Create(ctx context.Context, id string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, state State, data Data) error
}
