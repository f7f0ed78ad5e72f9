package strata

// HandlerBuilder is fluent sugar over State.AddHandler:
//
//	idle.On("start").To(running).When(isReady).Do(logStart).Add()
//
// Nothing is registered until Add is called.
type HandlerBuilder struct {
	state *State
	event string
	h     Handler
}

// On begins a handler registration for the given event on s.
func (s *State) On(event string) *HandlerBuilder {
	return &HandlerBuilder{state: s, event: event}
}

// To sets the transition target. Without a target the handler is an
// internal transition.
func (b *HandlerBuilder) To(target *State) *HandlerBuilder {
	b.h.Target = target
	return b
}

// When guards the handler with the given predicate.
func (b *HandlerBuilder) When(guard Guard) *HandlerBuilder {
	b.h.Guard = guard
	return b
}

// Unless guards the handler with the negation of the given predicate.
func (b *HandlerBuilder) Unless(guard Guard) *HandlerBuilder {
	b.h.Guard = func(e Event) bool { return !guard(e) }
	return b
}

// Do sets the transition action.
func (b *HandlerBuilder) Do(action Action) *HandlerBuilder {
	b.h.Action = action
	return b
}

// External marks the transition external; the default is local.
func (b *HandlerBuilder) External() *HandlerBuilder {
	b.h.Kind = External
	return b
}

// Add appends the handler to the state's table for the event,
// preserving registration order, and returns the state for chaining.
func (b *HandlerBuilder) Add() *State {
	return b.state.AddHandler(b.event, b.h)
}
