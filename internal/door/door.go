package door

import (
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
)

// Domain is the signal domain and module name of the door machine.
const Domain = "door"

// JournalGroup is the journal group the door publishes into.
const JournalGroup uint32 = 10

// Journal entries of the door group.
const (
	EntryLocked   uint32 = 1
	EntryOpen     uint32 = 2
	EntryState    uint32 = 3
	EntryReleases uint32 = 4
)

// Signals of the door domain.
const (
	SignalRelease = "releasedoor"
	SignalLock    = "lockdoor"

	signalQueueSize  = 4
	signalLifetimeMs = 1000
)

// UnlockHoldMicros is how long a release keeps the door unlocked.
const UnlockHoldMicros = 10_000_000

// States in journal order; the index is the value of the state entry.
const (
	StateInit                 = "init"
	StateLockedWaitForRelease = "locked_waitforrelease"
	StateLockedClosed         = "locked_closed"
	StateUnlockedClosed       = "unlocked_closed"
	StateUnlockedOpen         = "unlocked_open"
)

var stateOrder = []string{
	StateInit,
	StateLockedWaitForRelease,
	StateLockedClosed,
	StateUnlockedClosed,
	StateUnlockedOpen,
}

// Door is the installed door machine.
type Door struct {
	machine *engine.Machine
	io      IO
	hold    offDelay
}

// Install registers the door machine, its journal publisher and the
// OpenDoor and LockDoor commands with eng. eng must not be prepared yet.
func Install(eng *engine.Engine, io IO) (*Door, error) {
	m, err := eng.NewMachine(Domain, JournalGroup)
	if err != nil {
		return nil, err
	}
	d := &Door{
		machine: m,
		io:      io,
		hold:    offDelay{preset: UnlockHoldMicros},
	}

	if _, err := m.RegisterSignal(SignalRelease, signalQueueSize, signalLifetimeMs); err != nil {
		return nil, err
	}
	lock, err := m.RegisterSignal(SignalLock, signalQueueSize, signalLifetimeMs)
	if err != nil {
		return nil, err
	}
	if err := lock.AddBoolParameter("doorstate", false); err != nil {
		return nil, err
	}
	if err := lock.AddBoolResult("success", false); err != nil {
		return nil, err
	}

	if err := m.RegisterBoolValue("locked", EntryLocked); err != nil {
		return nil, err
	}
	if err := m.RegisterBoolValue("open", EntryOpen); err != nil {
		return nil, err
	}
	if err := m.RegisterIntegerValue("state", EntryState, 0, int64(len(stateOrder)-1)); err != nil {
		return nil, err
	}
	if err := m.RegisterIntegerValue("releases", EntryReleases, 0, math.MaxInt32); err != nil {
		return nil, err
	}

	states := map[string]engine.StateFunc{
		StateInit:                 d.init,
		StateLockedWaitForRelease: d.waitForRelease,
		StateLockedClosed:         d.lockedClosed,
		StateUnlockedClosed:       d.unlockedClosed,
		StateUnlockedOpen:         d.unlockedOpen,
	}
	for _, name := range stateOrder {
		if err := m.AddState(name, states[name]); err != nil {
			return nil, err
		}
	}

	if err := eng.Register(publisher{d: d}); err != nil {
		return nil, err
	}
	if err := eng.RegisterBuffered(OpenDoor{}, LockDoor{}); err != nil {
		return nil, err
	}
	return d, nil
}

// State returns the current state name.
func (d *Door) State() string { return d.machine.Current() }

// Machine returns the underlying state machine.
func (d *Door) Machine() *engine.Machine { return d.machine }

func (d *Door) closed() bool {
	return d.io.Closed() && d.io.Latched()
}

func (d *Door) init(env *engine.Env) error {
	d.io.SetRelease(false)
	if d.closed() {
		return env.SetNextState(StateLockedWaitForRelease)
	}
	return env.SetNextState(StateInit)
}

func (d *Door) waitForRelease(env *engine.Env) error {
	release, requested, err := env.CheckSignal(SignalRelease)
	if err != nil {
		return err
	}
	if requested || d.io.ReleaseButton() {
		d.io.SetRelease(true)
		d.hold.update(true, env.Now)
		n, err := env.Integer(EntryReleases)
		if err != nil {
			return err
		}
		if err := env.SetInteger(EntryReleases, n+1); err != nil {
			return err
		}
		if requested {
			if err := release.Finish(); err != nil {
				return err
			}
		}
		return env.SetNextState(StateUnlockedClosed)
	}

	pinned, ok, err := d.checkLock(env)
	if err != nil {
		return err
	}
	if ok && pinned {
		return env.SetNextState(StateLockedClosed)
	}
	return env.SetNextState(StateLockedWaitForRelease)
}

func (d *Door) lockedClosed(env *engine.Env) error {
	pinned, ok, err := d.checkLock(env)
	if err != nil {
		return err
	}
	if ok && !pinned {
		return env.SetNextState(StateLockedWaitForRelease)
	}
	return env.SetNextState(StateLockedClosed)
}

// checkLock takes a pending lock request, acknowledges it and returns the
// requested door state.
func (d *Door) checkLock(env *engine.Env) (pinned, ok bool, err error) {
	r, ok, err := env.CheckSignal(SignalLock)
	if err != nil || !ok {
		return false, false, err
	}
	pinned, err = r.Bool("doorstate")
	if err != nil {
		return false, false, err
	}
	if err := r.SetBool("success", true); err != nil {
		return false, false, err
	}
	if err := r.Finish(); err != nil {
		return false, false, err
	}
	return pinned, true, nil
}

func (d *Door) unlockedClosed(env *engine.Env) error {
	held := d.hold.q
	d.hold.update(false, env.Now)

	switch {
	case !d.io.Closed():
		return env.SetNextState(StateUnlockedOpen)
	case held:
		d.io.SetRelease(true)
		return env.SetNextState(StateUnlockedClosed)
	default:
		d.io.SetRelease(false)
		return env.SetNextState(StateLockedWaitForRelease)
	}
}

func (d *Door) unlockedOpen(env *engine.Env) error {
	held := d.hold.q
	d.hold.update(false, env.Now)
	d.io.SetRelease(held)

	if d.closed() {
		return env.SetNextState(StateLockedWaitForRelease)
	}
	return env.SetNextState(StateUnlockedOpen)
}

// publisher writes the door inputs and the machine state into the journal
// after all machines have stepped.
type publisher struct {
	d *Door
}

func (p publisher) Name() string { return Domain + ".journal" }

func (p publisher) UpdateJournal(c *engine.Cycle) error {
	d := p.d
	if err := c.Journal.SetBool(JournalGroup, EntryOpen, !d.io.Closed()); err != nil {
		return err
	}
	locked := d.State() == StateLockedWaitForRelease || d.State() == StateLockedClosed
	if err := c.Journal.SetBool(JournalGroup, EntryLocked, locked); err != nil {
		return err
	}
	for i, name := range stateOrder {
		if name == d.State() {
			return c.Journal.SetInteger(JournalGroup, EntryState, int64(i))
		}
	}
	return nil
}
