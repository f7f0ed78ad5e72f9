package strata

import (
	"fmt"
	"strings"
)

// stateKind is the closed two-variant tag distinguishing simple from
// parallel nodes. The traversal algorithms (dispatch, enter, exit) branch
// centrally on this tag.
type stateKind int

const (
	simpleKind stateKind = iota
	parallelKind
)

// State is a node in a machine's state tree. A state owns its ordered
// children; the parent reference is a non-owning back-link used for
// upward navigation only.
//
// Topology is frozen once the owning machine starts. Mutating the tree
// after Start is unsupported and produces undefined active-state
// bookkeeping.
type State struct {
	id       string
	kind     stateKind
	parent   *State
	children []*State
	machine  *Machine

	// initial is the default child entered when the state is entered
	// without an explicit deeper target.
	initial *State

	// active is the currently active child. Valid only for simple
	// (non-parallel) nodes; all children of an active parallel node are
	// active by definition.
	active *State

	entryAction   Action
	exitAction    Action
	initialAction Action

	// handlers maps an event name to its registration-ordered handler
	// list.
	handlers map[string][]Handler

	path []*State
}

// NewState creates a simple state with the given id under parent. A nil
// parent creates a free root that can later be bound to a machine with
// NewMachine.
//
// Creation fails with a ConfigurationError when the id already exists in
// the owning machine's registry.
func NewState(id string, parent *State) (*State, error) {
	return newState(id, parent, simpleKind)
}

// NewParallelState creates a parallel state: all of its children are
// active whenever the state itself is active.
func NewParallelState(id string, parent *State) (*State, error) {
	return newState(id, parent, parallelKind)
}

func newState(id string, parent *State, kind stateKind) (*State, error) {
	s := &State{
		id:       id,
		kind:     kind,
		parent:   parent,
		handlers: make(map[string][]Handler),
	}
	if parent != nil {
		if m := parent.machine; m != nil {
			if err := m.register(s); err != nil {
				return nil, err
			}
		}
		parent.children = append(parent.children, s)
	}
	return s, nil
}

// MustState is NewState that panics on error, for static tree assembly.
func MustState(id string, parent *State) *State {
	s, err := NewState(id, parent)
	if err != nil {
		panic(err)
	}
	return s
}

// MustParallelState is NewParallelState that panics on error.
func MustParallelState(id string, parent *State) *State {
	s, err := NewParallelState(id, parent)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the state identifier.
func (s *State) ID() string {
	return s.id
}

// Parent returns the parent state, or nil for a root.
func (s *State) Parent() *State {
	return s.parent
}

// Children returns the state's children in creation order.
func (s *State) Children() []*State {
	return s.children
}

// Machine returns the machine the state is bound to, or nil.
func (s *State) Machine() *Machine {
	return s.machine
}

// IsParallel reports whether this is a parallel node.
func (s *State) IsParallel() bool {
	return s.kind == parallelKind
}

// Initial returns the default child, or nil.
func (s *State) Initial() *State {
	return s.initial
}

// SetInitial declares the default child entered when this state is
// entered without an explicit deeper target. The child must be a direct
// child of this state.
func (s *State) SetInitial(child *State) *State {
	if child != nil && child.parent != s {
		panic(NewConfigurationError(child.id, fmt.Sprintf("initial state %q is not a child of %q", child.id, s.id)))
	}
	s.initial = child
	return s
}

// WithEntryAction sets the callback invoked when the state is entered.
func (s *State) WithEntryAction(action Action) *State {
	s.entryAction = action
	return s
}

// WithExitAction sets the callback invoked when the state is exited.
func (s *State) WithExitAction(action Action) *State {
	s.exitAction = action
	return s
}

// WithInitialAction sets the callback used as the transition action when
// the state's default child is entered through the initial-state chain.
func (s *State) WithInitialAction(action Action) *State {
	s.initialAction = action
	return s
}

// AddHandler appends a handler for the given event, preserving
// registration order. The zero Handler.Kind is Local.
func (s *State) AddHandler(event string, h Handler) *State {
	s.handlers[event] = append(s.handlers[event], h)
	return s
}

// Path returns the ordered sequence of states from the root down to s.
// The result is cached after the first computation and is valid only
// while the topology is frozen.
func (s *State) Path() []*State {
	if s.path == nil {
		if s.parent == nil {
			s.path = []*State{s}
		} else {
			parentPath := s.parent.Path()
			s.path = make([]*State, len(parentPath)+1)
			copy(s.path, parentPath)
			s.path[len(parentPath)] = s
		}
	}
	return s.path
}

// IsDescendantOf reports whether s lies strictly below other.
func (s *State) IsDescendantOf(other *State) bool {
	for p := s.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether s lies strictly above other.
func (s *State) IsAncestorOf(other *State) bool {
	return other.IsDescendantOf(s)
}

// HasLineage reports whether other is s itself, an ancestor of s, or a
// descendant of s.
func (s *State) HasLineage(other *State) bool {
	return s == other || s.IsAncestorOf(other) || s.IsDescendantOf(other)
}

// LowestCommonAncestor returns the nearest proper ancestor shared by
// left and right, walking both root paths in lock-step. A node is never
// its own proper ancestor: when the deepest shared entry is left or
// right itself, the result moves one step up. It returns nil when the
// two root paths diverge at the root, which means the states belong to
// different trees.
func LowestCommonAncestor(left, right *State) *State {
	lp, rp := left.Path(), right.Path()
	var last *State
	for i := 0; i < len(lp) && i < len(rp) && lp[i] == rp[i]; i++ {
		last = lp[i]
	}
	if last == nil {
		return nil
	}
	if last == left || last == right {
		return last.parent
	}
	return last
}

// IsActive reports whether the state is currently active. Activity is a
// derived predicate, not stored: a state is active iff it is the root of
// a running machine, its parent's active pointer equals it, or its
// parent is an active parallel node.
func (s *State) IsActive() bool {
	switch {
	case s.parent == nil:
		return s.machine != nil && s.machine.running
	case s.parent.kind == parallelKind:
		return s.parent.IsActive()
	default:
		return s.parent.active == s
	}
}

// Describe returns a diagnostic dump of the active tree below s. A
// simple active chain renders as a slash-joined sequence down to the
// deepest active descendant; a parallel node renders as its own id
// followed by a parenthesized, comma-joined list of each child's dump.
func (s *State) Describe() string {
	if s.kind == parallelKind {
		parts := make([]string, len(s.children))
		for i, c := range s.children {
			parts[i] = c.Describe()
		}
		return s.id + "(" + strings.Join(parts, ",") + ")"
	}
	if s.active != nil {
		return s.id + "/" + s.active.Describe()
	}
	return s.id
}

// String returns the state id.
func (s *State) String() string {
	return s.id
}

func (s *State) fireEntry(e Event) {
	if s.entryAction != nil {
		s.entryAction(e)
	}
}

func (s *State) fireExit(e Event) {
	if s.exitAction != nil {
		s.exitAction(e)
	}
}

// bind attaches the subtree rooted at s to machine m, registering every
// node. Called once from NewMachine.
func (s *State) bind(m *Machine) error {
	if err := m.register(s); err != nil {
		return err
	}
	for _, c := range s.children {
		if err := c.bind(m); err != nil {
			return err
		}
	}
	return nil
}
