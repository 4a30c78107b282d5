package engine

import (
	"log/slog"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

// StateFunc is the body of one state. It runs once per cycle while the
// state is current and must choose the next state with SetNextState.
type StateFunc func(env *Env) error

// Machine is a named state machine with its own signal domain and
// journal group.
//
// The first state added is the initial state. Each cycle the engine runs
// the current state once; the state picks the next state (possibly
// itself) through the environment.
type Machine struct {
	name    string
	group   uint32
	signals *signal.Handler
	journal *journal.Journal
	logger  *slog.Logger

	states  map[string]StateFunc
	order   []string
	current string
	env     Env
}

// Name returns the machine name, which is also its signal domain.
func (m *Machine) Name() string { return m.name }

// Group returns the journal group id of the machine.
func (m *Machine) Group() uint32 { return m.group }

// Current returns the name of the current state.
func (m *Machine) Current() string { return m.current }

// States returns the state names in registration order.
func (m *Machine) States() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Signals returns the signal handler of the machine's domain.
func (m *Machine) Signals() *signal.Handler { return m.signals }

// AddState registers a state.
func (m *Machine) AddState(name string, fn StateFunc) error {
	if name == "" || fn == nil {
		return fault.Newf(fault.InvalidParam, "invalid state for machine %s", m.name)
	}
	if _, ok := m.states[name]; ok {
		return fault.Newf(fault.StateAlreadyExists, "state already exists: %s.%s", m.name, name)
	}
	m.states[name] = fn
	m.order = append(m.order, name)
	if m.current == "" {
		m.current = name
	}
	return nil
}

// RegisterSignal adds a signal definition to the machine's domain.
func (m *Machine) RegisterSignal(name string, queueSize int, lifetimeMs uint32) (*signal.Definition, error) {
	return m.signals.RegisterSignal(name, queueSize, lifetimeMs)
}

// RegisterIntegerValue adds an integer entry to the machine's journal group.
func (m *Machine) RegisterIntegerValue(name string, entryID uint32, minimum, maximum int64) error {
	return m.journal.RegisterIntegerValue(name, m.group, entryID, minimum, maximum)
}

// RegisterBoolValue adds a bool entry to the machine's journal group.
func (m *Machine) RegisterBoolValue(name string, entryID uint32) error {
	return m.journal.RegisterBoolValue(name, m.group, entryID)
}

// RegisterDoubleValue adds a double entry to the machine's journal group.
func (m *Machine) RegisterDoubleValue(name string, entryID uint32, minimum, maximum float64, steps int64) error {
	return m.journal.RegisterDoubleValue(name, m.group, entryID, minimum, maximum, steps)
}

// Step runs the current state once and moves to the state it chose.
func (m *Machine) Step(c *Cycle) error {
	fn, ok := m.states[m.current]
	if !ok {
		return fault.Newf(fault.StateNotFound, "machine %s has no states", m.name)
	}
	m.env = Env{Cycle: c, machine: m}
	if err := fn(&m.env); err != nil {
		return err
	}
	if m.env.next == "" {
		return fault.Newf(fault.NextStateHasNotBeenSet, "next state has not been set: %s.%s", m.name, m.current)
	}
	if m.env.next != m.current {
		m.logger.Debug("state change", "machine", m.name, "from", m.current, "to", m.env.next, "cycle", c.Number)
		m.current = m.env.next
	}
	return nil
}

// Env is the environment a state body runs in.
type Env struct {
	*Cycle
	machine *Machine
	next    string
}

// State returns the name of the running state.
func (e *Env) State() string { return e.machine.current }

// SetNextState selects the state for the next cycle.
func (e *Env) SetNextState(name string) error {
	if _, ok := e.machine.states[name]; !ok {
		return fault.Newf(fault.StateNotFound, "state has not been found: %s.%s", e.machine.name, name)
	}
	e.next = name
	return nil
}

// CheckSignal takes the oldest triggered instance of the named signal of
// the machine's domain.
func (e *Env) CheckSignal(name string) (signal.Receiver, bool, error) {
	return e.machine.signals.Check(name)
}

func (e *Env) SetInteger(entryID uint32, v int64) error {
	return e.Journal.SetInteger(e.machine.group, entryID, v)
}

func (e *Env) SetBool(entryID uint32, v bool) error {
	return e.Journal.SetBool(e.machine.group, entryID, v)
}

func (e *Env) SetDouble(entryID uint32, v float64) error {
	return e.Journal.SetDouble(e.machine.group, entryID, v)
}

func (e *Env) Integer(entryID uint32) (int64, error) {
	return e.Journal.Integer(e.machine.group, entryID)
}

func (e *Env) Bool(entryID uint32) (bool, error) {
	return e.Journal.Bool(e.machine.group, entryID)
}

func (e *Env) Double(entryID uint32) (float64, error) {
	return e.Journal.Double(e.machine.group, entryID)
}
