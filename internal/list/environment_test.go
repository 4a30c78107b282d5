package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

// funcCommand runs arbitrary checks inside Enter and Poll.
type funcCommand struct {
	enter func(env *Environment) error
	poll  func(env *Environment) (bool, error)
}

func (c *funcCommand) CommandID() uint32 { return 900 }

func (c *funcCommand) Enter(env *Environment) error {
	if c.enter == nil {
		return nil
	}
	return c.enter(env)
}

func (c *funcCommand) Poll(env *Environment) (bool, error) {
	if c.poll == nil {
		return true, nil
	}
	return c.poll(env)
}

func runEntry(t *testing.T, x *Executor, cmd Command, payload protocol.Payload, maxTicks int) error {
	t.Helper()
	_, err := x.BeginList()
	require.NoError(t, err)
	_, err = x.Append(cmd, &payload)
	require.NoError(t, err)
	st, err := x.FinishList()
	require.NoError(t, err)
	_, err = x.ExecuteList(st.ID)
	require.NoError(t, err)

	for i := 0; i < maxTicks && x.Executing() != 0; i++ {
		if err := x.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func TestEnvironment_PayloadAndState(t *testing.T) {
	x, _, clock := newTestExecutor(t, 1, 1)
	clock.Set(42)

	var b protocol.PayloadBuilder
	b.Uint8(7).Uint32(1000).Float64(0.5)

	var firstCycle []bool
	cmd := &funcCommand{
		enter: func(env *Environment) error {
			firstCycle = append(firstCycle, env.IsFirstCycle())
			assert.Equal(t, EntryInitialExecution, env.State())
			assert.Equal(t, uint64(42), env.Now())
			assert.Equal(t, uint32(1), env.ListID())
			assert.Equal(t, uint32(0), env.EntryIndex())

			u8, err := env.PayloadUint8(0)
			require.NoError(t, err)
			assert.Equal(t, uint8(7), u8)
			u32, err := env.PayloadUint32(1)
			require.NoError(t, err)
			assert.Equal(t, uint32(1000), u32)
			f64, err := env.PayloadFloat64(5)
			require.NoError(t, err)
			assert.Equal(t, 0.5, f64)

			_, err = env.PayloadUint8(24)
			assert.True(t, fault.Is(err, fault.InvalidPayloadAddress))
			_, err = env.PayloadFloat64(20)
			assert.True(t, fault.Is(err, fault.InvalidPayloadReadOperation))

			env.SetLifetime(250)
			return nil
		},
		poll: func(env *Environment) (bool, error) {
			firstCycle = append(firstCycle, env.IsFirstCycle())
			assert.Equal(t, EntryCyclicExecution, env.State())
			assert.Equal(t, uint32(250), env.Lifetime())
			return true, nil
		},
	}

	require.NoError(t, runEntry(t, x, cmd, b.Payload(), 10))
	assert.Equal(t, []bool{true, false}, firstCycle)
}

func TestEnvironment_Context(t *testing.T) {
	x, _, _ := newTestExecutor(t, 1, 1)

	polls := 0
	cmd := &funcCommand{
		enter: func(env *Environment) error {
			require.NoError(t, env.SetContextUint32(0, 99))
			require.NoError(t, env.SetContextFloat64(24, 1.25))
			require.NoError(t, env.WriteContext(4, []byte{1, 2, 3}))

			assert.True(t, fault.Is(env.SetContextUint8(32, 1), fault.InvalidContextAddress))
			assert.True(t, fault.Is(env.SetContextUint64(25, 1), fault.InvalidContextWriteOperation))
			_, err := env.ContextUint32(29)
			assert.True(t, fault.Is(err, fault.InvalidContextReadOperation))
			_, err = env.ReadContext(40, 1)
			assert.True(t, fault.Is(err, fault.InvalidContextAddress))
			_, err = env.ReadContext(16, 0xFFFFFFF8)
			assert.True(t, fault.Is(err, fault.InvalidContextReadOperation), "length wrapping past the address is rejected")
			return nil
		},
		poll: func(env *Environment) (bool, error) {
			polls++
			v, err := env.ContextUint32(0)
			require.NoError(t, err)
			assert.Equal(t, uint32(99)+uint32(polls-1), v, "context survives between cycles")
			require.NoError(t, env.SetContextUint32(0, v+1))

			f, err := env.ContextFloat64(24)
			require.NoError(t, err)
			assert.Equal(t, 1.25, f)
			raw, err := env.ReadContext(4, 3)
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3}, raw)
			return polls == 3, nil
		},
	}

	require.NoError(t, runEntry(t, x, cmd, protocol.Payload{}, 10))
	assert.Equal(t, 3, polls)
}

func TestEnvironment_SignalSlots(t *testing.T) {
	x, reg, _ := newTestExecutor(t, 1, 1)
	h := signal.NewHandler("door", x.clock)
	_, err := h.RegisterSignal("releasedoor", 2, 1000)
	require.NoError(t, err)
	require.NoError(t, h.BuildInstances())
	require.NoError(t, reg.Register(h))

	polls := 0
	cmd := &funcCommand{
		enter: func(env *Environment) error {
			_, err := env.Signal(1)
			assert.True(t, fault.Is(err, fault.SignalSlotIsEmpty))
			_, err = env.PrepareSignal(16, "door", "releasedoor")
			assert.True(t, fault.Is(err, fault.InvalidSignalSlotIndex))
			_, err = env.PrepareSignal(2, "gas", "releasedoor")
			assert.True(t, fault.Is(err, fault.SignalHandlerNotFound))
			_, err = env.PrepareSignal(2, "door", "nope")
			assert.True(t, fault.Is(err, fault.SignalDefinitionNotFound))

			s, err := env.PrepareSignal(1, "door", "releasedoor")
			if err != nil {
				return err
			}
			_, err = env.PrepareSignal(1, "door", "releasedoor")
			assert.True(t, fault.Is(err, fault.PayloadSignalSlotAlreadyTaken))
			return s.Trigger()
		},
		poll: func(env *Environment) (bool, error) {
			polls++
			return env.SignalHasBeenProcessed(1)
		},
	}

	_, err = x.BeginList()
	require.NoError(t, err)
	_, err = x.Append(cmd, &protocol.Payload{})
	require.NoError(t, err)
	st, err := x.FinishList()
	require.NoError(t, err)
	_, err = x.ExecuteList(st.ID)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, x.Tick())
	}
	assert.Equal(t, uint32(st.ID), x.Executing(), "waiting for the consumer")

	r, ok, err := h.Check("releasedoor")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, r.Finish())

	require.NoError(t, x.Tick())
	assert.Equal(t, uint32(0), x.Executing())
	status, _ := x.Status(st.ID)
	assert.Equal(t, ExecutionFinished, status.State)
	assert.Equal(t, 3, polls)
}

func TestEnvironment_FailedEntryReturnsPreparedSignal(t *testing.T) {
	x, reg, _ := newTestExecutor(t, 1, 1)
	h := signal.NewHandler("door", x.clock)
	def, err := h.RegisterSignal("releasedoor", 2, 1000)
	require.NoError(t, err)
	require.NoError(t, h.BuildInstances())
	require.NoError(t, reg.Register(h))

	cmd := &funcCommand{
		enter: func(env *Environment) error {
			if _, err := env.PrepareSignal(0, "door", "releasedoor"); err != nil {
				return err
			}
			return fault.New(fault.InvalidParam, "bad door request")
		},
	}

	for round := 0; round < 3; round++ {
		err := runEntry(t, x, cmd, protocol.Payload{}, 10)
		assert.True(t, fault.Is(err, fault.InvalidParam), "round %d: %v", round, err)
		assert.Equal(t, signal.Counts{Unused: 2}, def.Counts(), "round %d", round)
	}

	s, err := def.Prepare()
	require.NoError(t, err)
	assert.True(t, s.Cancel())
}
