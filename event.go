package strata

import (
	"time"

	"github.com/google/uuid"
)

// Event is a trigger delivered through the active-state chain. Name
// selects the handler lists consulted during dispatch; Payload carries
// an arbitrary caller value through guards and actions.
//
// The payload is deliberately untyped: a payload/handler type mismatch
// is a caller error surfaced by the handler's own type assertion, never
// a silent coercion by the engine.
type Event struct {
	// ID uniquely identifies this event instance.
	ID string

	// Name is the event identity handlers are registered under.
	Name string

	// Payload is the caller-supplied value, possibly nil.
	Payload any

	// Timestamp records when the event was created.
	Timestamp time.Time
}

// newEvent stamps a fresh event with an instance id and creation time.
func newEvent(name string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Result is the deferred outcome of Machine.Handle. The result resolves
// when the event's turn in the FIFO queue completes, which may be after
// the submitting call returns when a dispatch was already in flight.
type Result struct {
	done    chan struct{}
	handled bool
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolvedResult returns an already-resolved result, used for events
// rejected without queuing.
func resolvedResult(handled bool) *Result {
	r := newResult()
	r.resolve(handled)
	return r
}

func (r *Result) resolve(handled bool) {
	r.handled = handled
	close(r.done)
}

// Done returns a channel closed once the event has been processed (or
// rejected). Use this form from inside guards and actions: the entry for
// an event submitted during a dispatch resolves later in the same drain
// pass, so blocking on Handled there would deadlock.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Handled blocks until the result resolves and reports whether some
// handler's guard passed and the event was processed.
func (r *Result) Handled() bool {
	<-r.done
	return r.handled
}
