package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/testutil"
)

func newBuiltDefinition(t *testing.T, clock *testutil.ManualClock, queueSize int, lifetimeMs uint32) *Definition {
	t.Helper()
	d, err := NewDefinition("move", queueSize, lifetimeMs, clock)
	require.NoError(t, err)
	require.NoError(t, d.AddInt32Parameter("target", -5))
	require.NoError(t, d.AddUint32Parameter("speed", 100))
	require.NoError(t, d.AddDoubleParameter("accel", 1.5))
	require.NoError(t, d.AddBoolParameter("relative", true))
	require.NoError(t, d.AddBoolResult("success", false))
	require.NoError(t, d.AddDoubleResult("position", 0))
	require.NoError(t, d.Build())
	return d
}

func assertCounts(t *testing.T, d *Definition, want Counts) {
	t.Helper()
	got := d.Counts()
	assert.Equal(t, want, got)
	assert.Equal(t, d.QueueSize(), got.Total(), "instances must never be lost or duplicated")
}

func TestNewDefinition_QueueSizeBounds(t *testing.T) {
	clock := testutil.NewManualClock(0)

	for _, size := range []int{0, 65, -1} {
		_, err := NewDefinition("x", size, 10, clock)
		assert.True(t, fault.Is(err, fault.InvalidSignalQueueSize), "size %d", size)
	}
	for _, size := range []int{1, 64} {
		_, err := NewDefinition("x", size, 10, clock)
		assert.NoError(t, err, "size %d", size)
	}
}

func TestDefinition_Layout(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 2, 10)

	fields := d.Fields()
	require.Len(t, fields, 8)

	assert.Equal(t, Field{Name: ActiveParameter, Type: FieldBool, Offset: 0}, fields[0])
	assert.Equal(t, Field{Name: ProcessedResult, Type: FieldBool, Offset: 1, Result: true}, fields[1])
	assert.Equal(t, Field{Name: "target", Type: FieldInt32, Offset: 2}, fields[2])
	assert.Equal(t, Field{Name: "speed", Type: FieldUint32, Offset: 6}, fields[3])
	assert.Equal(t, Field{Name: "accel", Type: FieldDouble, Offset: 10}, fields[4])
	assert.Equal(t, Field{Name: "relative", Type: FieldBool, Offset: 18}, fields[5])
	assert.Equal(t, Field{Name: "success", Type: FieldBool, Offset: 19, Result: true}, fields[6])
	assert.Equal(t, Field{Name: "position", Type: FieldDouble, Offset: 20, Result: true}, fields[7])
	assert.Equal(t, 28, d.BlockSize())
}

func TestDefinition_RegistrationErrors(t *testing.T) {
	d, err := NewDefinition("x", 1, 10, testutil.NewManualClock(0))
	require.NoError(t, err)

	require.NoError(t, d.AddInt32Parameter("a", 0))
	assert.True(t, fault.Is(d.AddBoolParameter("a", false), fault.DuplicateSignalParameterName))
	assert.True(t, fault.Is(d.AddBoolParameter(ActiveParameter, false), fault.DuplicateSignalParameterName))
	assert.True(t, fault.Is(d.AddBoolResult(ProcessedResult, false), fault.DuplicateSignalResultName))

	// Same name may be used once as parameter and once as result.
	require.NoError(t, d.AddInt32Result("a", 0))

	require.NoError(t, d.Build())
	assert.True(t, fault.Is(d.AddBoolParameter("late", false), fault.CannotRegisterParameter))
	assert.True(t, fault.Is(d.AddBoolResult("late", false), fault.CannotRegisterResult))
	assert.True(t, fault.Is(d.Build(), fault.SignalInstancesAlreadyBuilt))
}

func TestDefinition_PrepareBeforeBuild(t *testing.T) {
	d, err := NewDefinition("x", 1, 10, testutil.NewManualClock(0))
	require.NoError(t, err)

	_, err = d.Prepare()
	assert.True(t, fault.Is(err, fault.SignalHasNoInstances))
}

func TestDefinition_FullLifecycle(t *testing.T) {
	clock := testutil.NewManualClock(1_000_000)
	d := newBuiltDefinition(t, clock, 4, 100)
	assertCounts(t, d, Counts{Unused: 4})

	s, err := d.Prepare()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.ID())
	assertCounts(t, d, Counts{Unused: 3, InPreparation: 1})

	require.NoError(t, s.SetInteger("target", -42))
	require.NoError(t, s.SetDouble("accel", 2.25))
	require.NoError(t, s.SetBool("relative", false))

	_, ok := d.Check()
	assert.False(t, ok, "untriggered signals are invisible to consumers")

	require.NoError(t, s.Trigger())
	assertCounts(t, d, Counts{Unused: 3, Active: 1})
	assert.False(t, s.HasBeenProcessed())

	r, ok := d.Check()
	require.True(t, ok)
	assertCounts(t, d, Counts{Unused: 3, InProcess: 1})

	_, ok = d.Check()
	assert.False(t, ok, "a triggered signal is checked exactly once")

	target, err := r.Integer("target")
	require.NoError(t, err)
	assert.Equal(t, int64(-42), target)
	speed, err := r.Integer("speed")
	require.NoError(t, err)
	assert.Equal(t, int64(100), speed, "untouched parameters keep their defaults")
	accel, err := r.Double("accel")
	require.NoError(t, err)
	assert.Equal(t, 2.25, accel)
	relative, err := r.Bool("relative")
	require.NoError(t, err)
	assert.False(t, relative)
	active, err := r.Bool(ActiveParameter)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, r.SetBool("success", true))
	require.NoError(t, r.SetDouble("position", 12.5))
	require.NoError(t, r.Finish())
	assertCounts(t, d, Counts{Unused: 3, Finished: 1})

	assert.True(t, s.HasBeenProcessed())
	success, err := s.Bool("success")
	require.NoError(t, err)
	assert.True(t, success)
	pos, err := s.Double("position")
	require.NoError(t, err)
	assert.Equal(t, 12.5, pos)

	assert.True(t, fault.Is(r.Finish(), fault.SignalIsNotInProcess))
	assert.True(t, fault.Is(s.Trigger(), fault.SignalIsNotInPreparation))
}

func TestDefinition_CheckIsFIFO(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 3, 100)

	var ids []uint32
	for i := 0; i < 3; i++ {
		s, err := d.Prepare()
		require.NoError(t, err)
		require.NoError(t, s.SetInteger("target", int64(i)))
		require.NoError(t, s.Trigger())
		ids = append(ids, s.ID())
	}

	for i := 0; i < 3; i++ {
		r, ok := d.Check()
		require.True(t, ok)
		assert.Equal(t, ids[i], r.ID())
		v, err := r.Integer("target")
		require.NoError(t, err)
		assert.Equal(t, int64(i), v)
	}
}

func TestDefinition_QueueSizeOnePrepareTwice(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 1, 100)

	_, err := d.Prepare()
	require.NoError(t, err)

	_, err = d.Prepare()
	assert.True(t, fault.Is(err, fault.CouldNotPrepareSignal))
	assert.True(t, fault.IsCapacity(err))
	assertCounts(t, d, Counts{InPreparation: 1})
}

func TestDefinition_ReleaseExpired(t *testing.T) {
	clock := testutil.NewManualClock(0)
	d := newBuiltDefinition(t, clock, 2, 10)

	s, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, s.Trigger())
	r, ok := d.Check()
	require.True(t, ok)
	require.NoError(t, r.Finish())
	assertCounts(t, d, Counts{Unused: 1, Finished: 1})

	clock.Advance(9_999)
	require.NoError(t, d.ReleaseExpired())
	assertCounts(t, d, Counts{Unused: 1, Finished: 1})

	clock.Advance(1)
	require.NoError(t, d.ReleaseExpired())
	assertCounts(t, d, Counts{Unused: 2})

	assert.True(t, s.HasBeenProcessed(), "processed flag survives reclamation until the next prepare")
}

func TestDefinition_FinishAfterLifetimeGoesToUnused(t *testing.T) {
	clock := testutil.NewManualClock(0)
	d := newBuiltDefinition(t, clock, 1, 10)

	s, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, s.Trigger())
	r, ok := d.Check()
	require.True(t, ok)

	clock.AdvanceMillis(10)
	require.NoError(t, r.Finish())
	assertCounts(t, d, Counts{Unused: 1})
	assert.True(t, s.HasBeenProcessed())
}

func TestDefinition_TriggerTimeInFuture(t *testing.T) {
	clock := testutil.NewManualClock(5_000)
	d := newBuiltDefinition(t, clock, 1, 10)

	s, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, s.Trigger())
	r, ok := d.Check()
	require.True(t, ok)
	require.NoError(t, r.Finish())

	clock.Set(1_000)
	err = d.ReleaseExpired()
	assert.True(t, fault.Is(err, fault.SignalTriggerTimeIsInFuture))
}

func TestSender_StaleViewAfterReuse(t *testing.T) {
	clock := testutil.NewManualClock(0)
	d := newBuiltDefinition(t, clock, 1, 1)

	first, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, first.Trigger())
	r, ok := d.Check()
	require.True(t, ok)
	clock.AdvanceMillis(1)
	require.NoError(t, r.Finish())

	second, err := d.Prepare()
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID(), "same instance recycled")
	assert.False(t, second.HasBeenProcessed())

	assert.True(t, first.HasBeenProcessed())
	_, err = first.Bool("success")
	assert.True(t, fault.Is(err, fault.SignalDataReadOutOfRange))
	assert.True(t, fault.Is(first.SetInteger("target", 1), fault.SignalDataWriteOutOfRange))
	assert.True(t, fault.Is(first.Trigger(), fault.SignalIsNotInPreparation))
	assert.True(t, fault.Is(r.Finish(), fault.SignalIsNotInProcess))
}

func TestPrepare_ResetsDefaults(t *testing.T) {
	clock := testutil.NewManualClock(0)
	d := newBuiltDefinition(t, clock, 1, 0)

	s, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, s.SetInteger("target", 7))
	require.NoError(t, s.Trigger())
	r, ok := d.Check()
	require.True(t, ok)
	require.NoError(t, r.SetBool("success", true))
	require.NoError(t, r.Finish())

	s, err = d.Prepare()
	require.NoError(t, err)
	require.NoError(t, s.Trigger())
	r, ok = d.Check()
	require.True(t, ok)

	target, err := r.Integer("target")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), target)
	success, err := s.Bool("success")
	require.NoError(t, err)
	assert.False(t, success)
}

func TestAccessors_RangeAndKind(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 1, 10)
	s, err := d.Prepare()
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		code fault.Code
	}{
		{"int32 above range", s.SetInteger("target", 1<<31), fault.ValueIsOutsideOfInteger32Range},
		{"int32 below range", s.SetInteger("target", -(1<<31)-1), fault.ValueIsOutsideOfInteger32Range},
		{"uint32 negative", s.SetInteger("speed", -1), fault.ValueIsOutsideOfUnsignedInteger32Range},
		{"uint32 above range", s.SetInteger("speed", 1<<32), fault.ValueIsOutsideOfUnsignedInteger32Range},
		{"integer into double", s.SetInteger("accel", 1), fault.CouldNotWriteIntegerToParameter},
		{"double into integer", s.SetDouble("target", 1), fault.CouldNotWriteDoubleToParameter},
		{"unknown parameter", s.SetInteger("nope", 1), fault.SignalParameterNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, fault.Is(tt.err, tt.code), "got %v", tt.err)
		})
	}

	assert.NoError(t, s.SetInteger("target", -(1 << 31)))
	assert.NoError(t, s.SetInteger("speed", 1<<32-1))
	assert.NoError(t, s.SetInteger("relative", 5), "integers may be written to bool fields")

	_, err = s.Integer("position")
	assert.True(t, fault.Is(err, fault.CouldNotReadIntegerFromParameter))
	_, err = s.Double("success")
	assert.True(t, fault.Is(err, fault.CouldNotReadDoubleFromParameter))
	_, err = s.Bool("nope")
	assert.True(t, fault.Is(err, fault.SignalResultNotFound))

	require.NoError(t, s.Trigger())
	r, ok := d.Check()
	require.True(t, ok)

	relative, err := r.Integer("relative")
	require.NoError(t, err)
	assert.Equal(t, int64(1), relative)
	speed, err := r.Integer("speed")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<32-1), speed)
	assert.True(t, fault.Is(r.SetInteger("nope", 1), fault.SignalResultNotFound))
}

func TestZeroViews(t *testing.T) {
	var s Sender
	var r Receiver

	assert.True(t, s.IsZero())
	assert.True(t, r.IsZero())
	assert.False(t, s.HasBeenProcessed())
	assert.True(t, fault.Is(s.Trigger(), fault.SignalIsNotInPreparation))
	assert.True(t, fault.Is(r.Finish(), fault.SignalIsNotInProcess))
	_, err := s.Bool("x")
	assert.True(t, fault.Is(err, fault.SignalDataMissingMemory))
}

func TestSender_Cancel(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 2, 100)

	s, err := d.Prepare()
	require.NoError(t, err)
	assertCounts(t, d, Counts{Unused: 1, InPreparation: 1})

	assert.True(t, s.Cancel())
	assertCounts(t, d, Counts{Unused: 2})
	assert.False(t, s.Cancel(), "a cancelled view is stale")
	assert.True(t, fault.Is(s.Trigger(), fault.SignalIsNotInPreparation))

	triggered, err := d.Prepare()
	require.NoError(t, err)
	require.NoError(t, triggered.Trigger())
	assert.False(t, triggered.Cancel(), "triggered instances belong to the consumer")
	assertCounts(t, d, Counts{Unused: 1, Active: 1})

	assert.False(t, Sender{}.Cancel())
}

func TestDefinition_CancelKeepsCapacity(t *testing.T) {
	d := newBuiltDefinition(t, testutil.NewManualClock(0), 2, 100)

	for i := 0; i < 5; i++ {
		s, err := d.Prepare()
		require.NoError(t, err, "round %d", i)
		require.True(t, s.Cancel())
	}
	assertCounts(t, d, Counts{Unused: 2})
}
