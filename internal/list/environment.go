package list

import (
	"encoding/binary"
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

// Environment is what a buffered command sees while it executes: the
// entry's payload, its scratch context and its signal slots.
//
// An Environment is only valid during the Enter or Poll call it is passed
// to. Commands must not keep it.
type Environment struct {
	x     *Executor
	l     *list
	entry *entry
}

func (env *Environment) bind(l *list, ei int) {
	env.l = l
	env.entry = &env.x.entries[ei]
}

func (env *Environment) unbind() {
	env.l = nil
	env.entry = nil
}

// State returns the entry's execution state.
func (env *Environment) State() EntryState { return env.entry.state }

// IsFirstCycle reports whether the entry is running Enter.
func (env *Environment) IsFirstCycle() bool { return env.entry.state == EntryInitialExecution }

// ListID returns the id of the executing list.
func (env *Environment) ListID() uint32 { return env.l.id }

// EntryIndex returns the entry's index within its list.
func (env *Environment) EntryIndex() uint32 { return env.entry.index }

// Now returns the controller time in microseconds.
func (env *Environment) Now() uint64 { return env.x.clock.NowMicros() }

// SetLifetime stores a lifetime hint for the entry.
func (env *Environment) SetLifetime(ms uint32) { env.entry.lifetimeMs = ms }

// Lifetime returns the entry's lifetime hint.
func (env *Environment) Lifetime() uint32 { return env.entry.lifetimeMs }

func (env *Environment) PayloadUint8(addr uint32) (uint8, error) { return env.entry.payload.Uint8(addr) }

func (env *Environment) PayloadUint16(addr uint32) (uint16, error) {
	return env.entry.payload.Uint16(addr)
}

func (env *Environment) PayloadUint32(addr uint32) (uint32, error) {
	return env.entry.payload.Uint32(addr)
}

func (env *Environment) PayloadInt8(addr uint32) (int8, error) { return env.entry.payload.Int8(addr) }

func (env *Environment) PayloadInt16(addr uint32) (int16, error) {
	return env.entry.payload.Int16(addr)
}

func (env *Environment) PayloadInt32(addr uint32) (int32, error) {
	return env.entry.payload.Int32(addr)
}

func (env *Environment) PayloadFloat32(addr uint32) (float32, error) {
	return env.entry.payload.Float32(addr)
}

func (env *Environment) PayloadFloat64(addr uint32) (float64, error) {
	return env.entry.payload.Float64(addr)
}

// ReadContext copies n bytes of scratch context starting at addr.
func (env *Environment) ReadContext(addr, n uint32) ([]byte, error) {
	b, err := env.contextWindow(addr, n, false)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// WriteContext stores b into the scratch context at addr.
func (env *Environment) WriteContext(addr uint32, b []byte) error {
	dst, err := env.contextWindow(addr, uint32(len(b)), true)
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func (env *Environment) contextWindow(addr, n uint32, write bool) ([]byte, error) {
	if addr >= ContextSize {
		return nil, fault.Newf(fault.InvalidContextAddress, "invalid context address %d", addr)
	}
	if n > ContextSize-addr {
		if write {
			return nil, fault.Newf(fault.InvalidContextWriteOperation, "context write of %d bytes at %d exceeds context", n, addr)
		}
		return nil, fault.Newf(fault.InvalidContextReadOperation, "context read of %d bytes at %d exceeds context", n, addr)
	}
	return env.entry.context[addr : addr+n], nil
}

func (env *Environment) ContextUint8(addr uint32) (uint8, error) {
	b, err := env.contextWindow(addr, 1, false)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (env *Environment) SetContextUint8(addr uint32, v uint8) error {
	b, err := env.contextWindow(addr, 1, true)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (env *Environment) ContextUint32(addr uint32) (uint32, error) {
	b, err := env.contextWindow(addr, 4, false)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (env *Environment) SetContextUint32(addr uint32, v uint32) error {
	b, err := env.contextWindow(addr, 4, true)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (env *Environment) ContextUint64(addr uint32) (uint64, error) {
	b, err := env.contextWindow(addr, 8, false)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (env *Environment) SetContextUint64(addr uint32, v uint64) error {
	b, err := env.contextWindow(addr, 8, true)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

func (env *Environment) ContextFloat64(addr uint32) (float64, error) {
	v, err := env.ContextUint64(addr)
	return math.Float64frombits(v), err
}

func (env *Environment) SetContextFloat64(addr uint32, v float64) error {
	return env.SetContextUint64(addr, math.Float64bits(v))
}

// PrepareSignal prepares a signal of the given domain and stores the
// sender in slot. A slot holds at most one signal per entry.
func (env *Environment) PrepareSignal(slot uint32, domain, name string) (signal.Sender, error) {
	if slot >= SignalSlotCount {
		return signal.Sender{}, fault.Newf(fault.InvalidSignalSlotIndex, "invalid signal slot index %d", slot)
	}
	if !env.entry.slots[slot].IsZero() {
		return signal.Sender{}, fault.Newf(fault.PayloadSignalSlotAlreadyTaken, "signal slot %d already taken", slot)
	}
	h, err := env.x.registry.Find(domain)
	if err != nil {
		return signal.Sender{}, err
	}
	s, err := h.Prepare(name)
	if err != nil {
		return signal.Sender{}, err
	}
	env.entry.slots[slot] = s
	return s, nil
}

// Signal returns the sender stored in slot.
func (env *Environment) Signal(slot uint32) (signal.Sender, error) {
	if slot >= SignalSlotCount {
		return signal.Sender{}, fault.Newf(fault.InvalidSignalSlotIndex, "invalid signal slot index %d", slot)
	}
	s := env.entry.slots[slot]
	if s.IsZero() {
		return signal.Sender{}, fault.Newf(fault.SignalSlotIsEmpty, "signal slot %d is empty", slot)
	}
	return s, nil
}

// SignalHasBeenProcessed reports whether the signal in slot was finished
// by its consumer.
func (env *Environment) SignalHasBeenProcessed(slot uint32) (bool, error) {
	s, err := env.Signal(slot)
	if err != nil {
		return false, err
	}
	return s.HasBeenProcessed(), nil
}
