package strata

import (
	"sync"

	"github.com/google/uuid"
)

// Machine owns a state tree, the id registry, and the single-flight
// event queue that serializes all event processing.
//
// The engine is cooperatively single-threaded: guards, actions, and the
// full exit/entry walk of one event run atomically with respect to other
// events, and the tree is only mutated from inside the queue drain. The
// queue itself is safe for concurrent Handle calls, but Start, Stop, and
// tree inspection are meant to be used from the dispatching goroutine or
// at quiescence.
type Machine struct {
	id       string
	root     *State
	registry map[string]*State
	log      Logger

	mu       sync.Mutex
	running  bool
	inFlight bool
	queue    []pendingEvent
	settled  []chan struct{}
}

// pendingEvent is one FIFO queue entry: the event together with the
// result slot resolved when its turn completes.
type pendingEvent struct {
	event  Event
	result *Result
}

// NewMachine binds the tree rooted at root to a new machine, registering
// every state. It fails with a ConfigurationError when root is not a
// root state, when root is already bound to another machine, or when two
// states in the tree share an id.
func NewMachine(root *State, opts ...Option) (*Machine, error) {
	if root == nil {
		return nil, NewConfigurationError("", "machine requires a root state")
	}
	if root.parent != nil {
		return nil, NewConfigurationError(root.id, "machine root must not have a parent")
	}
	if root.machine != nil {
		return nil, NewRootReboundError(root.id)
	}

	m := &Machine{
		id:       uuid.NewString(),
		root:     root,
		registry: make(map[string]*State),
		log:      NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := root.bind(m); err != nil {
		return nil, err
	}
	m.log.Debugf("machine %s created with %d states, root %q", m.id, len(m.registry), root.id)
	return m, nil
}

// register adds a state to the machine's registry, enforcing id
// uniqueness at construction time.
func (m *Machine) register(s *State) error {
	if _, exists := m.registry[s.id]; exists {
		return NewDuplicateStateError(s.id)
	}
	m.registry[s.id] = s
	s.machine = m
	return nil
}

// ID returns the machine's unique instance id.
func (m *Machine) ID() string {
	return m.id
}

// Root returns the root state.
func (m *Machine) Root() *State {
	return m.root
}

// Lookup returns the state registered under id, or nil.
func (m *Machine) Lookup(id string) *State {
	return m.registry[id]
}

// IsRunning reports whether the machine has been started.
func (m *Machine) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Describe returns the diagnostic dump of the full active tree.
func (m *Machine) Describe() string {
	return m.root.Describe()
}

// Start marks the machine running, invokes the root's entry callback,
// and enters the root, chaining through any default children. It
// returns false without side effects when the machine is already
// running.
//
// Events raised synchronously by entry callbacks are queued and drained
// before Start returns.
func (m *Machine) Start() bool {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return false
	}
	m.running = true
	m.inFlight = true
	m.mu.Unlock()

	m.log.Infof("machine %s starting at %q", m.id, m.root.id)
	e := newEvent("", nil)
	m.root.fireEntry(e)
	// The root is already active once the running flag is set, so the
	// entry walk skips its callback and only chains default children.
	m.enter([]*State{m.root}, e, false)
	m.drain()
	return true
}

// Stop exits the full active subtree, deepest-first, and clears the
// running flag. It returns false when the machine is not running.
// Topology and handler tables survive a stop; a later Start reuses them.
func (m *Machine) Stop() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	// Hold the in-flight flag across the exit walk so events raised by
	// exit callbacks queue instead of dispatching mid-teardown. When Stop
	// runs inside a drain the flag is already held by that drain, which
	// also resolves the leftovers.
	ownsDrain := !m.inFlight
	m.inFlight = true
	m.mu.Unlock()

	m.log.Infof("machine %s stopping", m.id)
	m.exitState(m.root, newEvent("", nil))

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	if ownsDrain {
		m.drain()
	}
	return true
}

// Handle submits an event for processing. When the machine is not
// running the event is dropped without queuing and the result resolves
// false immediately.
//
// Otherwise the event joins the FIFO queue. If no dispatch is in flight
// the queue is drained inline before Handle returns, including any
// events the dispatch itself raised; if a dispatch is in flight the
// entry resolves later, strictly after its turn in arrival order.
func (m *Machine) Handle(name string, payload any) *Result {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.log.Debugf("event %q dropped: machine %s not running", name, m.id)
		return resolvedResult(false)
	}
	e := newEvent(name, payload)
	r := newResult()
	m.queue = append(m.queue, pendingEvent{event: e, result: r})
	if m.inFlight {
		m.mu.Unlock()
		m.log.Debugf("event %q queued behind in-flight dispatch", name)
		return r
	}
	m.inFlight = true
	m.mu.Unlock()

	m.drain()
	return r
}

// Settled returns a channel closed the next time the queue becomes
// empty. If the machine is already quiescent the channel is closed
// before it is returned.
func (m *Machine) Settled() <-chan struct{} {
	ch := make(chan struct{})
	m.mu.Lock()
	if !m.inFlight {
		m.mu.Unlock()
		close(ch)
		return ch
	}
	m.settled = append(m.settled, ch)
	m.mu.Unlock()
	return ch
}

// drain processes queued events head-first until the queue empties,
// then clears the in-flight flag and notifies quiescence observers
// exactly once. Events appended during a dispatch are picked up by the
// same pass.
func (m *Machine) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.inFlight = false
			observers := m.settled
			m.settled = nil
			m.mu.Unlock()
			for _, ch := range observers {
				close(ch)
			}
			m.log.Debugf("machine %s settled", m.id)
			return
		}
		p := m.queue[0]
		m.queue = m.queue[1:]
		running := m.running
		m.mu.Unlock()

		if !running {
			// Stopped mid-drain; remaining entries are dropped.
			p.result.resolve(false)
			continue
		}
		m.log.Debugf("dispatching %q (%s)", p.event.Name, p.event.ID)
		handled := m.dispatch(m.root, p.event)
		if !handled {
			m.log.Debugf("event %q unhandled", p.event.Name)
		}
		p.result.resolve(handled)
	}
}

// dispatch delivers an event to the subtree rooted at s, leaf-first:
// the active descendant is asked before s consults its own handler
// table. A parallel node delivers to every child unconditionally and
// falls back to its own table only when no child handled the event.
func (m *Machine) dispatch(s *State, e Event) bool {
	if s.kind == parallelKind {
		handled := false
		for _, c := range s.children {
			if m.dispatch(c, e) {
				handled = true
			}
		}
		if handled {
			return true
		}
	} else if s.active != nil {
		if m.dispatch(s.active, e) {
			return true
		}
	}

	for _, h := range s.handlers[e.Name] {
		if h.Guard != nil && !h.Guard(e) {
			m.log.Debugf("guard rejected %q at %s", e.Name, s.id)
			continue
		}
		if h.Target == nil {
			if h.Action != nil {
				h.Action(e)
			}
			return true
		}
		m.transition(s, h.Target, h.Kind, h.Action, e)
		return true
	}
	return false
}
