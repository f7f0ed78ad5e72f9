package strata

// transition moves the machine from the configuration owned by src to
// dst, sequencing exit, action, and entry around the lowest common
// ancestor.
//
// The requested locality is honored only when dst lies within src's
// ancestor-or-descendant lineage; otherwise it is silently downgraded to
// external. The absence of a common ancestor between two states of the
// same machine is a fatal topological-invariant violation.
func (m *Machine) transition(src, dst *State, kind TransitionKind, action Action, e Event) {
	if kind == Local && !src.HasLineage(dst) {
		m.log.Debugf("transition %s -> %s: target outside source lineage, downgrading to external", src.id, dst.id)
		kind = External
	}

	var lca *State
	switch {
	case kind == Local && src.IsAncestorOf(dst):
		lca = src
	case kind == Local && src.IsDescendantOf(dst):
		lca = dst
	default:
		lca = LowestCommonAncestor(src, dst)
		if lca == nil {
			panic(NewNoCommonAncestorError(src.id, dst.id))
		}
	}
	m.log.Debugf("transition %s -> %s (%s) via %s", src.id, dst.id, kind, lca.id)

	// Exit phase: tear down the active subtree below the LCA,
	// deepest-first. A parallel LCA has no single active pointer, so
	// nothing is exited here; the entry walk refines the target region
	// instead, exiting whatever configuration it displaces.
	if lca.active != nil {
		m.exitState(lca.active, e)
	}

	// The handler's action runs exactly once, strictly between exit
	// and entry.
	if action != nil {
		action(e)
	}

	// Entry phase: walk the target path segment strictly below the LCA.
	target := dst.Path()
	idx := -1
	for i, n := range target {
		if n == lca {
			idx = i
			break
		}
	}
	if idx >= 0 && idx+1 < len(target) {
		m.enter(target[idx+1:], e, false)
	}
}

// enter walks path in order, rooted at path[0]. Entry callbacks are
// skipped for states that are already active, so re-entering an active
// branch only refines it. When the walk reaches the last path element
// and that state declares a default child that is not yet active, a
// nested transition chains into it with the state's initial action as
// the transition action, repeating until a state with no default child
// is reached.
//
// A parallel node fans out: every child is entered — the child on the
// in-progress path continues the chain, the others self-initialize
// through their own default chains. If no child was the targeted branch
// and the parallel node declares its own default child, a transition
// into it is initiated after all children have entered.
//
// force overrides the already-active skip: the children of a freshly
// entered parallel node read as active through the derived predicate the
// moment their parent does, yet their entry callbacks still have to run.
func (m *Machine) enter(path []*State, e Event, force bool) {
	s := path[0]
	wasActive := s.IsActive() && !force
	if p := s.parent; p != nil && p.kind != parallelKind {
		p.active = s
	}
	if !wasActive {
		m.log.Debugf("enter %s", s.id)
		s.fireEntry(e)
	}

	if s.kind == parallelKind {
		fresh := !wasActive
		onPath := false
		for _, c := range s.children {
			if len(path) > 1 && path[1] == c {
				m.enter(path[1:], e, fresh)
				onPath = true
			} else {
				m.enter([]*State{c}, e, fresh)
			}
		}
		if !onPath && s.initial != nil {
			m.transition(s, s.initial, Local, s.initialAction, e)
		}
		return
	}

	if len(path) > 1 {
		// A cross-region transition reaches here with the region still
		// holding its previous configuration: tear it down, deepest-first,
		// before the new child enters, so every entry stays paired with an
		// exit.
		if s.active != nil && s.active != path[1] {
			m.exitState(s.active, e)
		}
		m.enter(path[1:], e, force)
		return
	}
	if s.initial != nil && !s.initial.IsActive() {
		m.transition(s, s.initial, Local, s.initialAction, e)
	}
}

// exitState exits the subtree rooted at s, children before parents. A
// parallel node exits all of its children, in child order, before its
// own exit callback runs. Exiting a state clears its parent's active
// pointer.
func (m *Machine) exitState(s *State, e Event) {
	if s.kind == parallelKind {
		for _, c := range s.children {
			m.exitState(c, e)
		}
	} else if s.active != nil {
		m.exitState(s.active, e)
	}

	m.log.Debugf("exit %s", s.id)
	s.fireExit(e)
	if p := s.parent; p != nil && p.kind != parallelKind && p.active == s {
		p.active = nil
	}
}
