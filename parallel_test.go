package strata

import "testing"

func TestParallelEntryFanOut(t *testing.T) {
	m, r := newParallelFixture(t)
	m.Start()
	r.reset()

	m.Handle("go", nil)
	assertCalls(t, r,
		"exit:a",
		"enter:b",
		"enter:ba", "enter:baa",
		"enter:bb", "enter:bba",
	)
	assertDescribe(t, m, "root/b(ba/baa,bb/bba)")
}

func TestParallelEntryTargetingSingleBranch(t *testing.T) {
	// Targeting one branch still enters every sibling region.
	m, r := newParallelFixture(t)
	m.Start()
	r.reset()

	m.Handle("go-deep", nil)
	assertCalls(t, r,
		"exit:a",
		"enter:b",
		"enter:ba", "enter:baa",
		"enter:bb", "enter:bba",
	)
	assertDescribe(t, m, "root/b(ba/baa,bb/bba)")
}

func TestParallelExitFanOut(t *testing.T) {
	m, r := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)
	r.reset()

	m.Handle("leave", nil)
	assertCalls(t, r,
		"exit:baa", "exit:ba",
		"exit:bba", "exit:bb",
		"exit:b",
		"action:leave",
		"enter:a",
	)
	assertDescribe(t, m, "root/a")
}

func TestParallelDispatchBroadcast(t *testing.T) {
	m, r := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)
	r.reset()

	if !m.Handle("ping", nil).Handled() {
		t.Fatal("ping not handled")
	}
	assertCalls(t, r, "ping:baa", "ping:bba")
}

func TestParallelOwnTableFallback(t *testing.T) {
	m, r := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)
	r.reset()

	if !m.Handle("own", nil).Handled() {
		t.Fatal("own not handled")
	}
	assertCalls(t, r, "own:b")
}

func TestParallelCrossRegionTransition(t *testing.T) {
	// A handler in one region targeting a sibling region's descendant
	// exits the displaced configuration before the new child enters, so
	// every entry stays paired with an exit.
	m, r := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)
	r.reset()

	if !m.Handle("cross", nil).Handled() {
		t.Fatal("cross not handled")
	}
	assertCalls(t, r, "action:cross", "exit:bba", "enter:bbb")
	assertDescribe(t, m, "root/b(ba/baa,bb/bbb)")

	if m.Lookup("bba").IsActive() {
		t.Fatal("bba still active after being displaced")
	}
	if !m.Lookup("bbb").IsActive() {
		t.Fatal("bbb not active after cross-region transition")
	}
}

func TestParallelChildrenActiveTogether(t *testing.T) {
	m, _ := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)

	for _, id := range []string{"b", "ba", "baa", "bb", "bba"} {
		if !m.Lookup(id).IsActive() {
			t.Fatalf("%s should be active while the region runs", id)
		}
	}
	if m.Lookup("a").IsActive() {
		t.Fatal("a should be inactive")
	}

	m.Handle("leave", nil)
	for _, id := range []string{"b", "ba", "baa", "bb", "bba"} {
		if m.Lookup(id).IsActive() {
			t.Fatalf("%s should be inactive after leaving the region", id)
		}
	}
}

func TestParallelStopExitsAllRegions(t *testing.T) {
	m, r := newParallelFixture(t)
	m.Start()
	m.Handle("go", nil)
	r.reset()

	m.Stop()
	assertCalls(t, r,
		"exit:baa", "exit:ba",
		"exit:bba", "exit:bb",
		"exit:b",
		"exit:root",
	)
}
