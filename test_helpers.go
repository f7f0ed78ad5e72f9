package strata

import (
	"strings"
	"testing"
)

// recorder captures callback invocations in order, so tests can assert
// the exact exit/action/entry sequencing of a transition.
type recorder struct {
	calls []string
}

func (r *recorder) mark(label string) Action {
	return func(Event) {
		r.calls = append(r.calls, label)
	}
}

func (r *recorder) markGuard(label string, result bool) Guard {
	return func(Event) bool {
		r.calls = append(r.calls, label)
		return result
	}
}

func (r *recorder) reset() {
	r.calls = nil
}

func assertCalls(t *testing.T, r *recorder, want ...string) {
	t.Helper()
	got := strings.Join(r.calls, " ")
	expected := strings.Join(want, " ")
	if got != expected {
		t.Fatalf("call order mismatch:\n  got  [%s]\n  want [%s]", got, expected)
	}
}

func assertDescribe(t *testing.T, m *Machine, want string) {
	t.Helper()
	if got := m.Describe(); got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

// instrument attaches enter:/exit: marks to every given state.
func instrument(r *recorder, states ...*State) {
	for _, s := range states {
		id := s.id
		s.WithEntryAction(r.mark("enter:" + id))
		s.WithExitAction(r.mark("exit:" + id))
	}
}

// newBranchFixture builds
//
//	root ─ a ─ aa ─ aaa
//	     └ b
//
// with defaults root→a→aa, so a started machine rests at aa. aaa is
// reached through the "dive" event, keeping aa free of a default child.
func newBranchFixture(t *testing.T) (*Machine, *recorder) {
	t.Helper()
	r := &recorder{}

	root := MustState("root", nil)
	a := MustState("a", root)
	aa := MustState("aa", a)
	aaa := MustState("aaa", aa)
	b := MustState("b", root)
	root.SetInitial(a)
	a.SetInitial(aa)
	instrument(r, root, a, aa, aaa, b)

	aa.On("dive").To(aaa).Add()
	aaa.On("up-local").To(aa).Do(r.mark("action:up")).Add()
	aaa.On("up-ext").To(aa).Do(r.mark("action:up")).External().Add()
	a.On("cross").To(b).Do(r.mark("action:cross")).Add()

	m, err := NewMachine(root)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m, r
}

// newWideFixture builds the two-branch tree
//
//	root ─ s1 ─ s11
//	     └ s2 ─ s21
//
// with defaults root→s1→s11 and s2→s21, and a guarded external handler
// taking s11 to s2.
func newWideFixture(t *testing.T) (*Machine, *recorder) {
	t.Helper()
	r := &recorder{}

	root := MustState("root", nil)
	s1 := MustState("s1", root)
	s11 := MustState("s11", s1)
	s2 := MustState("s2", root)
	s21 := MustState("s21", s2)
	root.SetInitial(s1)
	s1.SetInitial(s11)
	s2.SetInitial(s21)
	instrument(r, root, s1, s11, s2, s21)

	s11.On("T1").
		To(s2).
		When(func(Event) bool { return true }).
		Do(r.mark("action:t")).
		External().
		Add()

	m, err := NewMachine(root)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m, r
}

// newParallelFixture builds
//
//	root ─ a
//	     └ b(parallel) ─ ba ─ baa
//	                   └ bb ─ bba, bbb
//
// with defaults root→a, ba→baa, bb→bba. The "cross" handler on baa
// targets bbb in the sibling region.
func newParallelFixture(t *testing.T) (*Machine, *recorder) {
	t.Helper()
	r := &recorder{}

	root := MustState("root", nil)
	a := MustState("a", root)
	b := MustParallelState("b", root)
	ba := MustState("ba", b)
	baa := MustState("baa", ba)
	bb := MustState("bb", b)
	bba := MustState("bba", bb)
	bbb := MustState("bbb", bb)
	root.SetInitial(a)
	ba.SetInitial(baa)
	bb.SetInitial(bba)
	instrument(r, root, a, b, ba, baa, bb, bba, bbb)

	a.On("go").To(b).Add()
	a.On("go-deep").To(baa).Add()
	b.On("leave").To(a).Do(r.mark("action:leave")).Add()
	baa.On("ping").Do(r.mark("ping:baa")).Add()
	bba.On("ping").Do(r.mark("ping:bba")).Add()
	b.On("own").Do(r.mark("own:b")).Add()
	baa.On("cross").To(bbb).Do(r.mark("action:cross")).Add()

	m, err := NewMachine(root)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m, r
}
