package strata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLogger(&buf, LogWarning)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
}

func TestZapLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLogger(&buf, LogError)

	log.Infof("before")
	log.SetLevel(LogDebug)
	log.Debugf("after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestMachineTracesThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLogger(&buf, LogDebug)

	m, r := buildLoggedFixture(t, log)
	m.Start()
	m.Handle("T1", nil)

	// The logger is observational only: sequencing is unchanged.
	assertCalls(t, r,
		"enter:root", "enter:s1", "enter:s11",
		"exit:s11", "exit:s1", "action:t", "enter:s2", "enter:s21",
	)
	out := buf.String()
	assert.Contains(t, out, "starting")
	assert.Contains(t, out, "dispatching")
	assert.Contains(t, out, "transition s11 -> s2")
}

func buildLoggedFixture(t *testing.T, log Logger) (*Machine, *recorder) {
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
	s11.On("T1").To(s2).Do(r.mark("action:t")).External().Add()

	m, err := NewMachine(root, WithLogger(log))
	require.NoError(t, err)
	return m, r
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NopLogger()
	log.Debugf("x")
	log.Infof("x")
	log.Warnf("x")
	log.Errorf("x")
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	root := MustState("root", nil)
	m, err := NewMachine(root, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, m.log)
}
