// Package strata implements a hierarchical state machine engine with
// UML-statechart semantics: composite states with a single active child,
// parallel regions whose children are all simultaneously active, guarded
// event handlers, and local/external transitions sequenced around the
// lowest common ancestor of source and target.
//
// A machine is assembled as a tree of states before Start is called:
//
//	root := strata.MustState("root", nil)
//	on := strata.MustState("on", root)
//	off := strata.MustState("off", root)
//	root.SetInitial(off)
//	off.On("power").To(on).Add()
//	on.On("power").To(off).Add()
//
//	machine, err := strata.NewMachine(root)
//	machine.Start()
//	machine.Handle("power", nil)
//
// Events are processed one at a time on a single-flight FIFO queue: events
// raised synchronously from a guard or action are queued and drained, in
// arrival order, before the machine returns to quiescence.
package strata

// Guard decides whether a handler is eligible to fire for an event.
// Guards must not mutate machine state.
type Guard func(e Event) bool

// Action is a callback invoked during transitions and state entry/exit.
type Action func(e Event)

// TransitionKind selects the transition discipline. The zero value is
// Local, matching the default of AddHandler.
type TransitionKind int

const (
	// Local transitions between a state and its own ancestor or
	// descendant do not exit and re-enter the shared boundary state.
	Local TransitionKind = iota

	// External transitions always exit and re-enter through the lowest
	// common ancestor, even along direct lineage.
	External
)

// String returns the transition kind name.
func (k TransitionKind) String() string {
	if k == External {
		return "external"
	}
	return "local"
}

// Handler describes one guarded reaction of a state to an event.
//
// A nil Target makes the handler an internal transition: its Action runs
// without any state being exited or entered. Handlers registered for the
// same (state, event) pair are tried in registration order; the first
// whose Guard passes (or that has no Guard) is selected.
type Handler struct {
	Target *State
	Guard  Guard
	Action Action
	Kind   TransitionKind
}
