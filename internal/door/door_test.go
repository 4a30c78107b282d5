package door

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
	"github.com/DavidWenzler/reAM250-sub000/internal/list"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
	"github.com/DavidWenzler/reAM250-sub000/internal/testutil"
)

type rig struct {
	eng   *engine.Engine
	clock *testutil.ManualClock
	io    *SimulatedIO
	door  *Door
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{clock: testutil.NewManualClock(0), io: NewSimulatedIO()}
	eng, err := engine.New(
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithClock(r.clock),
		engine.WithListCapacity(4, 16),
	)
	require.NoError(t, err)
	r.eng = eng
	r.door, err = Install(eng, r.io)
	require.NoError(t, err)
	require.NoError(t, eng.Prepare())
	return r
}

func (r *rig) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, r.eng.Tick(context.Background()))
		_, failed := r.eng.LastException()
		require.False(t, failed)
	}
}

func (r *rig) trigger(t *testing.T, name string, doorstate *bool) signal.Sender {
	t.Helper()
	s, err := r.door.Machine().Signals().Prepare(name)
	require.NoError(t, err)
	if doorstate != nil {
		require.NoError(t, s.SetBool("doorstate", *doorstate))
	}
	require.NoError(t, s.Trigger())
	return s
}

func (r *rig) journalInt(t *testing.T, entry uint32) int64 {
	t.Helper()
	v, err := r.eng.Journal().Integer(JournalGroup, entry)
	require.NoError(t, err)
	return v
}

func (r *rig) journalBool(t *testing.T, entry uint32) bool {
	t.Helper()
	v, err := r.eng.Journal().Bool(JournalGroup, entry)
	require.NoError(t, err)
	return v
}

func boolPtr(v bool) *bool { return &v }

func TestInstall_Layout(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, StateInit, r.door.State())
	assert.Equal(t, stateOrder, r.door.Machine().States())
	assert.True(t, r.eng.Dispatcher().CanHandle(CommandOpenDoor))
	assert.True(t, r.eng.Dispatcher().CanHandle(CommandLockDoor))

	release, err := r.door.Machine().Signals().Definition(SignalRelease)
	require.NoError(t, err)
	assert.Equal(t, 4, release.QueueSize())
	assert.Equal(t, uint32(1000), release.LifetimeMs())

	assert.Contains(t, string(r.eng.Schema()), `"groupname":"door"`)
}

func TestInit_WaitsForClosedDoor(t *testing.T) {
	r := newRig(t)
	r.io.Open()

	r.tick(t, 3)
	assert.Equal(t, StateInit, r.door.State())
	assert.True(t, r.journalBool(t, EntryOpen))
	assert.Equal(t, int64(0), r.journalInt(t, EntryState))

	r.io.Close()
	r.tick(t, 1)
	assert.Equal(t, StateLockedWaitForRelease, r.door.State())
	assert.Equal(t, int64(1), r.journalInt(t, EntryState))
	assert.True(t, r.journalBool(t, EntryLocked))
	assert.False(t, r.io.Released())
}

func TestRelease_UnlocksForHoldTime(t *testing.T) {
	r := newRig(t)
	r.tick(t, 1)
	require.Equal(t, StateLockedWaitForRelease, r.door.State())

	s := r.trigger(t, SignalRelease, nil)
	r.tick(t, 1)
	assert.Equal(t, StateUnlockedClosed, r.door.State())
	assert.True(t, s.HasBeenProcessed())
	assert.True(t, r.io.Released())
	assert.Equal(t, int64(1), r.journalInt(t, EntryReleases))
	assert.False(t, r.journalBool(t, EntryLocked))

	r.tick(t, 1)
	r.clock.AdvanceMillis(9_999)
	r.tick(t, 1)
	assert.Equal(t, StateUnlockedClosed, r.door.State())
	assert.True(t, r.io.Released())

	r.clock.AdvanceMillis(1)
	r.tick(t, 2)
	assert.Equal(t, StateLockedWaitForRelease, r.door.State())
	assert.False(t, r.io.Released())
}

func TestReleaseButton(t *testing.T) {
	r := newRig(t)
	r.tick(t, 1)

	r.io.PressButton(true)
	r.tick(t, 1)
	r.io.PressButton(false)
	assert.Equal(t, StateUnlockedClosed, r.door.State())
	assert.Equal(t, int64(1), r.journalInt(t, EntryReleases))
}

func TestOpenedWhileUnlocked(t *testing.T) {
	r := newRig(t)
	r.tick(t, 1)
	r.trigger(t, SignalRelease, nil)
	r.tick(t, 1)

	r.io.Open()
	r.tick(t, 1)
	assert.Equal(t, StateUnlockedOpen, r.door.State())
	assert.True(t, r.journalBool(t, EntryOpen))

	r.clock.AdvanceMillis(20_000)
	r.tick(t, 2)
	assert.Equal(t, StateUnlockedOpen, r.door.State())
	assert.False(t, r.io.Released(), "release output drops after the hold time")

	r.io.Close()
	r.tick(t, 1)
	assert.Equal(t, StateLockedWaitForRelease, r.door.State())
	assert.False(t, r.journalBool(t, EntryOpen))
}

func TestLockDoor_PinsDoor(t *testing.T) {
	r := newRig(t)
	r.tick(t, 1)

	lock := r.trigger(t, SignalLock, boolPtr(true))
	r.tick(t, 1)
	assert.Equal(t, StateLockedClosed, r.door.State())
	ok, err := lock.Bool("success")
	require.NoError(t, err)
	assert.True(t, ok)

	// Releases stay queued while pinned.
	release := r.trigger(t, SignalRelease, nil)
	r.tick(t, 3)
	assert.Equal(t, StateLockedClosed, r.door.State())
	assert.False(t, release.HasBeenProcessed())

	r.trigger(t, SignalLock, boolPtr(false))
	r.tick(t, 1)
	assert.Equal(t, StateLockedWaitForRelease, r.door.State())
	r.tick(t, 1)
	assert.Equal(t, StateUnlockedClosed, r.door.State())
	assert.True(t, release.HasBeenProcessed())
}

func TestCommands_ThroughList(t *testing.T) {
	r := newRig(t)
	var replies [][]byte
	send := func(seq, cmd uint32, p protocol.Payload) {
		frame := protocol.NewFrame(protocol.DefaultSignature, 7, seq, cmd, p).Encode()
		require.True(t, r.eng.Enqueue(engine.Request{
			Frame: frame[:],
			Reply: func(b []byte) { replies = append(replies, append([]byte(nil), b...)) },
		}))
	}

	var pin, unpin, exec protocol.PayloadBuilder
	send(1, protocol.CommandBeginList, protocol.Payload{})
	send(2, CommandLockDoor, pin.Uint8(1).Payload())
	send(3, CommandLockDoor, unpin.Uint8(0).Payload())
	send(4, CommandOpenDoor, protocol.Payload{})
	send(5, protocol.CommandFinishList, protocol.Payload{})
	send(6, protocol.CommandExecuteList, exec.Uint32(1).Payload())

	r.tick(t, 1)
	require.Len(t, replies, 6)
	for i, b := range replies {
		h, err := protocol.DecodeResponseHeader(b)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), h.Status, "reply %d", i)
	}
	finish := replies[4][protocol.HeaderSize:]
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(finish[4:]))

	states := map[string]bool{}
	for i := 0; i < 20; i++ {
		r.tick(t, 1)
		states[r.door.State()] = true
		if st, _ := r.eng.Lists().Status(1); st.State == list.ExecutionFinished {
			break
		}
	}
	st, ok := r.eng.Lists().Status(1)
	require.True(t, ok)
	assert.Equal(t, list.ExecutionFinished, st.State)
	assert.True(t, states[StateLockedClosed])
	assert.Equal(t, StateUnlockedClosed, r.door.State())
	assert.Equal(t, int64(1), r.journalInt(t, EntryReleases))
}
