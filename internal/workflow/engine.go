// Package workflow implements the conversational booking state machine.
// One call to ProcessMessage handles one inbound chat turn: it loads (or
// creates) the session, dispatches on its state, talks to the scheduling
// provider as needed, commits the next (state, data) pair and returns
// exactly one reply string.
package workflow

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/wolfman30/clinic-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking-agent/internal/scheduling"
	"github.com/wolfman30/clinic-booking-agent/internal/session"
	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

const (
	greetingReply  = "Hello! I'm your AI appointment assistant. How can I help you today? (e.g., 'I need a general consultation')"
	completedReply = "You already have a booking. Start a new chat to book another."
	fallbackReply  = "I'm not sure what to do. Let's start over."
)

// maxSlotsToPresent caps the numbered list shown to the patient.
const maxSlotsToPresent = 3

// sessionLockStripes sizes the fixed pool of per-session mutexes.
const sessionLockStripes = 64

// Engine drives booking conversations. It is safe for concurrent use;
// messages for the same session id are serialized.
type Engine struct {
	store    session.Store
	provider scheduling.Provider
	loc      *time.Location
	logger   *logging.Logger
	metrics  *metrics.ConversationMetrics
	now      func() time.Time

	locks [sessionLockStripes]sync.Mutex
}

// New creates a workflow engine. loc is the clinic timezone used for
// date resolution and slot-hour filtering; nil means UTC.
func New(store session.Store, provider scheduling.Provider, loc *time.Location, logger *logging.Logger, m *metrics.ConversationMetrics) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:    store,
		provider: provider,
		loc:      loc,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// ProcessMessage handles one chat turn and always returns a reply; it
// never surfaces an error to the transport.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) string {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		// Transient store failure. The session, whatever state it holds,
		// stays untouched; the caller can retry the same turn.
		e.logger.Error("workflow: failed to load session", "session_id", sessionID, "error", err)
		e.metrics.ObserveMessage("UNKNOWN", "store_error")
		return fallbackReply
	}
	if err != nil || sess.State == session.StateInit {
		// Brand-new caller, or a session reset by cancellation: either way
		// the message content is discarded and the greeting is returned.
		// (A cancelled caller's next message is swallowed here too; that
		// mirrors the INIT double-duty the flow has always had.)
		if err != nil {
			if _, cerr := e.store.Create(ctx, sessionID); cerr != nil {
				e.logger.Error("workflow: failed to create session", "session_id", sessionID, "error", cerr)
				return fallbackReply
			}
		}
		if uerr := e.store.Update(ctx, sessionID, session.StateAwaitingReason, session.Data{}); uerr != nil {
			e.logger.Error("workflow: failed to commit greeting transition", "session_id", sessionID, "error", uerr)
			return fallbackReply
		}
		e.metrics.ObserveMessage(string(session.StateInit), "greeted")
		return greetingReply
	}

	switch sess.State {
	case session.StateAwaitingReason:
		return e.handleReason(ctx, sess, message)
	case session.StateAwaitingDate:
		return e.handleDate(ctx, sess, message)
	case session.StateSelectingSlot:
		return e.handleSlotSelection(ctx, sess, message)
	case session.StateAwaitingName:
		return e.handleName(ctx, sess, message)
	case session.StateAwaitingEmail:
		return e.handleEmail(ctx, sess, message)
	case session.StateAwaitingConfirmation:
		return e.handleConfirmation(ctx, sess, message)
	case session.StateCompleted:
		e.metrics.ObserveMessage(string(session.StateCompleted), "terminal")
		return completedReply
	default:
		e.metrics.ObserveMessage(string(sess.State), "unknown_state")
		return fallbackReply
	}
}

// sessionLock maps a session id onto a fixed stripe of mutexes. Two
// messages for one session never run their handlers concurrently, and
// the lock set stays bounded however many sessions come and go.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &e.locks[h.Sum32()%sessionLockStripes]
}

// commit writes the next (state, data) pair for the session.
func (e *Engine) commit(ctx context.Context, sessionID string, state session.State, data session.Data) {
	if err := e.store.Update(ctx, sessionID, state, data); err != nil {
		e.logger.Error("workflow: failed to commit transition",
			"session_id", sessionID,
			"state", string(state),
			"error", err,
		)
	}
}
