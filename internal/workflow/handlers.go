package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/clinic-booking-agent/internal/scheduling"
	"github.com/wolfman30/clinic-booking-agent/internal/session"
	"github.com/wolfman30/clinic-booking-agent/internal/timeparse"
)

const (
	offeringsClarification = "I couldn't determine the appointment type. We offer: General Consultation, Follow-up, Physical Exam, and Specialist Consultation. Which one would you like?"
	dateClarification      = "I didn't catch the date. Please say something like 'Tomorrow', 'Monday', or a specific date."
	noOpeningsReply        = "I'm sorry, I don't see any openings for that day. Could you try another date?"
	noSlotsInRangeReply    = "I have openings that day, but not in that specific time range. Would you like to see other times?"
	providerTroubleReply   = "I'm having trouble reaching the scheduling system right now. Could you try again in a moment?"
	invalidSlotReply       = "Please select a valid number from the list."
	askNameReply           = "Great choice. To finalize, may I have your full name?"
	askEmailReply          = "Thanks. And your email address?"
	invalidEmailReply      = "That doesn't look like a valid email. Please try again."
	cancelledReply         = "Booking cancelled. Let me know if you want to start over."
	confirmPromptReply     = "Please confirm with 'Yes' or 'No'."
	bookingFailedReply     = "There was an error booking your appointment. Please try again later."
)

// handleReason classifies the visit reason into an offering by keyword,
// in priority order; anything unrecognized defaults to a general
// consultation rather than a re-prompt.
func (e *Engine) handleReason(ctx context.Context, sess *session.Session, message string) string {
	lower := strings.ToLower(message)

	keyword := "general"
	switch {
	case strings.Contains(lower, "follow"):
		keyword = "follow"
	case strings.Contains(lower, "physical"), strings.Contains(lower, "exam"):
		keyword = "physical"
	case strings.Contains(lower, "specialist"):
		keyword = "specialist"
	}

	offerings, err := e.listOfferings(ctx)
	if err != nil {
		e.logger.Error("workflow: offering catalog lookup failed", "session_id", sess.ID, "error", err)
		e.metrics.ObserveMessage(string(sess.State), "provider_error")
		return providerTroubleReply
	}

	var selected *scheduling.Offering
	for i := range offerings {
		if strings.Contains(offerings[i].Slug, keyword) {
			selected = &offerings[i]
			break
		}
	}
	if selected == nil {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return offeringsClarification
	}

	data := sess.Data
	data.Reason = message
	data.AppointmentType = selected
	e.commit(ctx, sess.ID, session.StateAwaitingDate, data)
	e.metrics.ObserveMessage(string(sess.State), "advanced")

	return fmt.Sprintf("Okay, a %s (%d mins). When would you like to come in? (e.g., 'Tomorrow morning', 'Next Monday')",
		selected.Name, selected.DurationMinutes)
}

// handleDate resolves a calendar date and an optional time-of-day range
// from the message, fetches availability, and presents up to three slots.
func (e *Engine) handleDate(ctx context.Context, sess *session.Session, message string) string {
	date, okDate := timeparse.ParseDate(message, e.now(), e.loc)
	timeRange, okRange := timeparse.ParseTimeOfDay(message)

	if !okDate {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return dateClarification
	}

	slots, err := e.getAvailability(ctx, date, sess.Data.AppointmentType.DurationMinutes)
	if err != nil {
		e.logger.Error("workflow: availability lookup failed",
			"session_id", sess.ID,
			"date", date.Format("2006-01-02"),
			"error", err,
		)
		e.metrics.ObserveMessage(string(sess.State), "provider_error")
		return providerTroubleReply
	}
	if len(slots) == 0 {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return noOpeningsReply
	}

	filtered := slots
	if okRange {
		filtered = filtered[:0:0]
		for _, s := range slots {
			if timeRange.Contains(s.Start.In(e.loc).Hour()) {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) == 0 {
			e.metrics.ObserveMessage(string(sess.State), "retry")
			return noSlotsInRangeReply
		}
	}

	suggestions := filtered
	if len(suggestions) > maxSlotsToPresent {
		suggestions = suggestions[:maxSlotsToPresent]
	}

	data := sess.Data
	data.PreferredDate = date
	if okRange {
		data.PreferredTimeRange = &timeRange
	}
	data.AvailableSlots = suggestions
	e.commit(ctx, sess.ID, session.StateSelectingSlot, data)
	e.metrics.ObserveMessage(string(sess.State), "advanced")

	var b strings.Builder
	b.WriteString("Here are some available times:\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, timeparse.FormatSlot(s.Start.In(e.loc)))
	}
	fmt.Fprintf(&b, "\nPlease reply with the number (1-%d) of the slot you want.", len(suggestions))
	return b.String()
}

// handleSlotSelection interprets the message as a 1-based index into the
// presented slots.
func (e *Engine) handleSlotSelection(ctx context.Context, sess *session.Session, message string) string {
	n, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil || n < 1 || n > len(sess.Data.AvailableSlots) {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return invalidSlotReply
	}

	data := sess.Data
	selected := sess.Data.AvailableSlots[n-1]
	data.SelectedSlot = &selected
	e.commit(ctx, sess.ID, session.StateAwaitingName, data)
	e.metrics.ObserveMessage(string(sess.State), "advanced")
	return askNameReply
}

// handleName accepts any input as the patient name.
func (e *Engine) handleName(ctx context.Context, sess *session.Session, message string) string {
	data := sess.Data
	data.Name = message
	e.commit(ctx, sess.ID, session.StateAwaitingEmail, data)
	e.metrics.ObserveMessage(string(sess.State), "advanced")
	return askEmailReply
}

// handleEmail validates the address shape minimally and echoes the full
// booking summary for confirmation.
func (e *Engine) handleEmail(ctx context.Context, sess *session.Session, message string) string {
	if !strings.Contains(message, "@") {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return invalidEmailReply
	}

	data := sess.Data
	data.Email = message
	e.commit(ctx, sess.ID, session.StateAwaitingConfirmation, data)
	e.metrics.ObserveMessage(string(sess.State), "advanced")

	return fmt.Sprintf(`Booking Summary:
- Type: %s
- Time: %s
- Patient: %s
- Email: %s

Should I go ahead and book this? (Yes/No)`,
		data.AppointmentType.Name,
		timeparse.FormatSlot(data.SelectedSlot.Start.In(e.loc)),
		data.Name,
		data.Email,
	)
}

// handleConfirmation books the appointment, cancels, or re-prompts.
// "no" wins over "yes" when both appear, matching the priority order the
// flow has always used.
func (e *Engine) handleConfirmation(ctx context.Context, sess *session.Session, message string) string {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "no") || strings.Contains(lower, "cancel") {
		e.commit(ctx, sess.ID, session.StateInit, session.Data{})
		e.metrics.ObserveMessage(string(sess.State), "cancelled")
		return cancelledReply
	}

	if !strings.Contains(lower, "yes") && !strings.Contains(lower, "confirm") && !strings.Contains(lower, "ok") {
		e.metrics.ObserveMessage(string(sess.State), "retry")
		return confirmPromptReply
	}

	result, err := e.createAppointment(ctx, scheduling.BookingRequest{
		OfferingID: sess.Data.AppointmentType.ID,
		Start:      sess.Data.SelectedSlot.Start,
		Name:       sess.Data.Name,
		Email:      sess.Data.Email,
		Reason:     "Booked via AI agent",
	})
	if err != nil {
		e.logger.Error("workflow: appointment creation failed",
			"session_id", sess.ID,
			"offering_id", sess.Data.AppointmentType.ID,
			"error", err,
		)
		e.metrics.ObserveMessage(string(sess.State), "provider_error")
		return bookingFailedReply
	}

	e.commit(ctx, sess.ID, session.StateCompleted, sess.Data)
	e.metrics.ObserveMessage(string(sess.State), "booked")
	e.metrics.ObserveBooking(string(result.Mode))

	if result.Mode == scheduling.ConfirmByLink {
		return fmt.Sprintf("✅ Appointment Confirmed!\n\nPlease complete your booking here: %s", result.BookingURL)
	}
	return fmt.Sprintf("✅ Appointment Confirmed!\n\n📅 Date: %s\n🩺 Type: %s\n📍 Location: %s",
		timeparse.FormatSlot(sess.Data.SelectedSlot.Start.In(e.loc)),
		sess.Data.AppointmentType.Name,
		result.Location,
	)
}

// listOfferings wraps the provider call with latency instrumentation.
func (e *Engine) listOfferings(ctx context.Context) ([]scheduling.Offering, error) {
	start := time.Now()
	offerings, err := e.provider.ListOfferings(ctx)
	e.metrics.ObserveProviderLatency("list_offerings", time.Since(start).Seconds())
	return offerings, err
}

func (e *Engine) getAvailability(ctx context.Context, date time.Time, durationMinutes int) ([]scheduling.Slot, error) {
	start := time.Now()
	slots, err := e.provider.GetAvailability(ctx, date, durationMinutes)
	e.metrics.ObserveProviderLatency("get_availability", time.Since(start).Seconds())
	return slots, err
}

func (e *Engine) createAppointment(ctx context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error) {
	start := time.Now()
	result, err := e.provider.CreateAppointment(ctx, req)
	e.metrics.ObserveProviderLatency("create_appointment", time.Since(start).Seconds())
	return result, err
}
