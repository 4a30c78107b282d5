package door

import "github.com/DavidWenzler/reAM250-sub000/internal/list"

// Buffered command ids.
const (
	CommandOpenDoor uint32 = 5001
	CommandLockDoor uint32 = 5002
)

// signalSlot is the list entry slot both door commands use.
const signalSlot = 1

// commandLifetimeMs is the lifetime hint of door command entries.
const commandLifetimeMs = 1000

// OpenDoor requests a release and waits until the door machine took it.
type OpenDoor struct{}

func (OpenDoor) CommandID() uint32 { return CommandOpenDoor }

func (OpenDoor) Enter(env *list.Environment) error {
	env.SetLifetime(commandLifetimeMs)
	s, err := env.PrepareSignal(signalSlot, Domain, SignalRelease)
	if err != nil {
		return err
	}
	return s.Trigger()
}

func (OpenDoor) Poll(env *list.Environment) (bool, error) {
	return env.SignalHasBeenProcessed(signalSlot)
}

// LockDoor pins (payload u8 @0 != 0) or unpins the locked door. The
// acknowledgement is kept in context byte 0.
type LockDoor struct{}

func (LockDoor) CommandID() uint32 { return CommandLockDoor }

func (LockDoor) Enter(env *list.Environment) error {
	env.SetLifetime(commandLifetimeMs)
	pin, err := env.PayloadUint8(0)
	if err != nil {
		return err
	}
	s, err := env.PrepareSignal(signalSlot, Domain, SignalLock)
	if err != nil {
		return err
	}
	if err := s.SetBool("doorstate", pin != 0); err != nil {
		return err
	}
	return s.Trigger()
}

func (LockDoor) Poll(env *list.Environment) (bool, error) {
	done, err := env.SignalHasBeenProcessed(signalSlot)
	if err != nil || !done {
		return false, err
	}
	s, err := env.Signal(signalSlot)
	if err != nil {
		return false, err
	}
	ok, err := s.Bool("success")
	if err != nil {
		return false, err
	}
	var ack uint8
	if ok {
		ack = 1
	}
	return true, env.SetContextUint8(0, ack)
}
