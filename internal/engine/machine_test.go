package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/testutil"
)

func newTestMachine(t *testing.T) (*Engine, *Machine) {
	t.Helper()
	eng, err := New(WithLogger(discardLogger()), WithClock(testutil.NewManualClock(0)))
	require.NoError(t, err)
	m, err := eng.NewMachine("lamp", 7)
	require.NoError(t, err)
	return eng, m
}

func TestMachine_AddState(t *testing.T) {
	_, m := newTestMachine(t)
	stay := func(env *Env) error { return env.SetNextState(env.State()) }

	require.NoError(t, m.AddState("off", stay))
	require.NoError(t, m.AddState("on", stay))
	assert.Equal(t, "off", m.Current(), "first state is the initial state")
	assert.Equal(t, []string{"off", "on"}, m.States())

	err := m.AddState("on", stay)
	assert.Equal(t, fault.StateAlreadyExists, fault.CodeOf(err))

	err = m.AddState("", stay)
	assert.Equal(t, fault.InvalidParam, fault.CodeOf(err))

	err = m.AddState("broken", nil)
	assert.Equal(t, fault.InvalidParam, fault.CodeOf(err))
}

func TestMachine_StepWithoutStates(t *testing.T) {
	_, m := newTestMachine(t)

	err := m.Step(&Cycle{Number: 1})
	assert.Equal(t, fault.StateNotFound, fault.CodeOf(err))
}

func TestMachine_Transitions(t *testing.T) {
	_, m := newTestMachine(t)
	var visits []string

	require.NoError(t, m.AddState("off", func(env *Env) error {
		visits = append(visits, "off")
		return env.SetNextState("on")
	}))
	require.NoError(t, m.AddState("on", func(env *Env) error {
		visits = append(visits, "on")
		return env.SetNextState("on")
	}))

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, m.Step(&Cycle{Number: i}))
	}
	assert.Equal(t, []string{"off", "on", "on"}, visits)
	assert.Equal(t, "on", m.Current())
}

func TestMachine_NextStateNotSet(t *testing.T) {
	_, m := newTestMachine(t)
	require.NoError(t, m.AddState("idle", func(env *Env) error { return nil }))

	err := m.Step(&Cycle{Number: 1})
	assert.Equal(t, fault.NextStateHasNotBeenSet, fault.CodeOf(err))
	assert.Equal(t, "idle", m.Current())
}

func TestMachine_UnknownNextState(t *testing.T) {
	_, m := newTestMachine(t)
	require.NoError(t, m.AddState("idle", func(env *Env) error {
		return env.SetNextState("missing")
	}))

	err := m.Step(&Cycle{Number: 1})
	assert.Equal(t, fault.StateNotFound, fault.CodeOf(err))
}

func TestMachine_JournalAccess(t *testing.T) {
	eng, m := newTestMachine(t)
	require.NoError(t, m.RegisterBoolValue("lit", 1))
	require.NoError(t, m.RegisterIntegerValue("switches", 2, 0, 100))
	require.NoError(t, m.RegisterDoubleValue("brightness", 3, 0, 1, 100))
	require.NoError(t, m.AddState("run", func(env *Env) error {
		n, err := env.Integer(2)
		if err != nil {
			return err
		}
		if err := env.SetInteger(2, n+1); err != nil {
			return err
		}
		if err := env.SetBool(1, true); err != nil {
			return err
		}
		if err := env.SetDouble(3, 0.5); err != nil {
			return err
		}
		return env.SetNextState("run")
	}))
	require.NoError(t, eng.Prepare())

	c := &Cycle{Number: 1, Journal: eng.Journal()}
	require.NoError(t, m.Step(c))
	require.NoError(t, m.Step(c))

	n, err := eng.Journal().Integer(7, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	lit, err := eng.Journal().Bool(7, 1)
	require.NoError(t, err)
	assert.True(t, lit)

	b, err := eng.Journal().Double(7, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, b)
}
