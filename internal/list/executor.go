package list

import (
	"fmt"
	"log/slog"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

// Fixed per-entry sizes.
const (
	SignalSlotCount = 16
	ContextSize     = 32
)

// Default pool sizes.
const (
	DefaultListCount  = 1024
	DefaultEntryCount = 1024
)

const none = -1

// Command is a buffered command: a request that is stored in a list and
// executed over several ticks.
type Command interface {
	CommandID() uint32

	// Enter runs once when the entry starts executing.
	Enter(env *Environment) error

	// Poll runs every following tick until it reports done.
	Poll(env *Environment) (done bool, err error)
}

// SignalRegistry resolves a domain name to its signal handler.
type SignalRegistry interface {
	Find(domain string) (*signal.Handler, error)
}

type entry struct {
	command    Command
	payload    protocol.Payload
	index      uint32
	state      EntryState
	context    [ContextSize]byte
	lifetimeMs uint32
	slots      [SignalSlotCount]signal.Sender
	next       int
}

type list struct {
	id      uint32
	state   State
	count   uint32
	first   int
	last    int
	current int
	cursor  uint32
}

// Status is the externally visible state of one list.
type Status struct {
	ID           uint32
	State        State
	EntryCount   uint32
	CurrentIndex uint32
}

// Counts reports pool usage.
type Counts struct {
	FreeLists   int
	FreeEntries int
	Lists       int
	Entries     int
}

// Executor owns the list and entry pools and advances the executing list.
//
// An Executor is not safe for concurrent use; it is driven by the tick.
type Executor struct {
	lists   []list
	entries []entry

	unusedLists []int
	unusedHead  int
	unusedLen   int
	freeEntry   int
	freeEntries int
	writing     int
	executing   int

	registry SignalRegistry
	clock    signal.Clock
	env      Environment
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger for list transitions.
func WithLogger(l *slog.Logger) Option {
	return func(x *Executor) {
		x.logger = l
	}
}

// NewExecutor creates an executor with listCount lists and entryCount
// entries. List ids are 1..listCount.
func NewExecutor(listCount, entryCount int, registry SignalRegistry, clock signal.Clock, opts ...Option) (*Executor, error) {
	if listCount <= 0 {
		return nil, fault.Newf(fault.InvalidParam, "invalid list count %d", listCount)
	}
	if entryCount <= 0 {
		return nil, fault.Newf(fault.InvalidParam, "invalid list entry count %d", entryCount)
	}
	if registry == nil || clock == nil {
		return nil, fault.New(fault.InvalidParam, "executor needs a signal registry and a clock")
	}

	x := &Executor{
		lists:       make([]list, listCount),
		entries:     make([]entry, entryCount),
		unusedLists: make([]int, listCount),
		freeEntry:   none,
		writing:     none,
		executing:   none,
		registry:    registry,
		clock:       clock,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.env.x = x

	for i := range x.lists {
		x.lists[i] = list{id: uint32(i + 1), first: none, last: none, current: none}
		x.pushUnusedList(i)
	}
	for i := len(x.entries) - 1; i >= 0; i-- {
		x.releaseEntry(i)
	}
	return x, nil
}

// BeginList claims a list from the unused pool and makes it the list being
// written. A list still open from an earlier BeginList is discarded.
func (x *Executor) BeginList() (uint32, error) {
	if x.writing != none {
		abandoned := x.writing
		x.logger.Debug("discarding open list", "list", x.lists[abandoned].id)
		x.releaseEntries(abandoned)
		x.lists[abandoned].state = ListInQueue
		x.pushUnusedList(abandoned)
		x.writing = none
	}

	li, ok := x.popUnusedList()
	if !ok {
		return 0, fault.New(fault.TooManyOpenLists, "too many open lists")
	}
	l := &x.lists[li]
	l.state = ListInCreation
	l.count = 0
	l.cursor = 0
	l.first, l.last, l.current = none, none, none
	x.writing = li
	return l.id, nil
}

// Append adds a buffered command to the list being written and returns the
// entry's index within the list.
func (x *Executor) Append(cmd Command, payload *protocol.Payload) (uint32, error) {
	if cmd == nil || payload == nil {
		return 0, fault.New(fault.InvalidParam, "invalid buffered command")
	}
	if x.writing == none {
		return 0, fault.New(fault.NoListToWriteTo, "no list to write to")
	}
	ei, ok := x.takeEntry()
	if !ok {
		return 0, fault.New(fault.NoListEntriesLeft, "no list entries left")
	}

	l := &x.lists[x.writing]
	e := &x.entries[ei]
	*e = entry{
		command: cmd,
		payload: *payload,
		index:   l.count,
		state:   EntryInQueue,
		next:    none,
	}
	if l.last != none {
		x.entries[l.last].next = ei
	} else {
		l.first = ei
	}
	l.last = ei
	l.count++
	return e.index, nil
}

// FinishList seals the list being written.
func (x *Executor) FinishList() (Status, error) {
	if x.writing == none {
		return Status{}, fault.New(fault.NotWritingToAnyList, "not writing to any list")
	}
	l := &x.lists[x.writing]
	if l.state != ListInCreation {
		return Status{}, fault.New(fault.NotInListCreation, "list is not in creation")
	}
	if l.first == none {
		return Status{}, fault.New(fault.ListIsEmpty, "list is empty")
	}
	l.state = ListFinished
	x.writing = none
	return x.status(l), nil
}

// ExecuteList starts a sealed list. Only one list executes at a time.
func (x *Executor) ExecuteList(id uint32) (Status, error) {
	li, err := x.index(id)
	if err != nil {
		return Status{}, err
	}
	l := &x.lists[li]
	if l.state != ListFinished {
		return Status{}, fault.Newf(fault.ListIsNotFinished, "list %d is not finished", id)
	}
	if l.first == none {
		return Status{}, fault.Newf(fault.ListIsEmpty, "list %d is empty", id)
	}
	if x.executing != none {
		return Status{}, fault.Newf(fault.InvalidRequest, "list %d is still executing", x.lists[x.executing].id)
	}

	l.state = ExecutingList
	l.current = l.first
	l.cursor = 0
	x.executing = li
	x.logger.Debug("executing list", "list", id, "entries", l.count)
	return x.status(l), nil
}

// AbortList stops the executing list with ExecutionError.
func (x *Executor) AbortList(id uint32) (Status, error) {
	li, err := x.index(id)
	if err != nil {
		return Status{}, err
	}
	if li != x.executing {
		return Status{}, fault.Newf(fault.InvalidRequest, "list %d is not executing", id)
	}
	l := &x.lists[li]
	if l.current != none {
		x.entries[l.current].state = EntryExecutionError
	}
	x.retire(li, ExecutionError)
	return x.status(l), nil
}

// DeleteList returns a sealed list that was never executed to the pool.
func (x *Executor) DeleteList(id uint32) error {
	li, err := x.index(id)
	if err != nil {
		return err
	}
	l := &x.lists[li]
	if l.state != ListFinished {
		return fault.Newf(fault.ListIsNotFinished, "list %d is not finished", id)
	}
	x.releaseEntries(li)
	l.state = ListInQueue
	l.count = 0
	x.pushUnusedList(li)
	return nil
}

// Status reports the state of a list. The boolean is false for ids that are
// out of range or have never been used.
func (x *Executor) Status(id uint32) (Status, bool) {
	if id == 0 || int(id) > len(x.lists) {
		return Status{}, false
	}
	l := &x.lists[id-1]
	if l.state == ListInQueue {
		return Status{}, false
	}
	return x.status(l), true
}

// Statuses reports every list that is not in queue, in id order.
func (x *Executor) Statuses() []Status {
	var out []Status
	for i := range x.lists {
		if x.lists[i].state != ListInQueue {
			out = append(out, x.status(&x.lists[i]))
		}
	}
	return out
}

// Executing returns the id of the executing list, or 0.
func (x *Executor) Executing() uint32 {
	if x.executing == none {
		return 0
	}
	return x.lists[x.executing].id
}

// Writing returns the id of the list being written, or 0.
func (x *Executor) Writing() uint32 {
	if x.writing == none {
		return 0
	}
	return x.lists[x.writing].id
}

// Counts reports pool usage.
func (x *Executor) Counts() Counts {
	return Counts{
		FreeLists:   x.unusedLen,
		FreeEntries: x.freeEntries,
		Lists:       len(x.lists),
		Entries:     len(x.entries),
	}
}

// Tick advances the executing list by one step. The returned error is the
// failure that aborted the list, if any; the list has already been retired
// when Tick returns it.
func (x *Executor) Tick() error {
	if x.executing == none {
		return nil
	}
	li := x.executing
	l := &x.lists[li]
	if l.current == none {
		x.retire(li, ExecutionFinished)
		return nil
	}

	ei := l.current
	e := &x.entries[ei]
	switch e.state {
	case EntryInQueue:
		e.state = EntryInitialExecution

	case EntryInitialExecution:
		if err := x.run(l, ei, func(env *Environment) error {
			return e.command.Enter(env)
		}); err != nil {
			return x.fail(li, ei, err)
		}
		e.state = EntryCyclicExecution

	case EntryCyclicExecution:
		done := false
		if err := x.run(l, ei, func(env *Environment) error {
			var err error
			done, err = e.command.Poll(env)
			return err
		}); err != nil {
			return x.fail(li, ei, err)
		}
		if done {
			e.state = EntryFinished
			l.current = e.next
			if l.current == none {
				l.cursor = 0
				x.retire(li, ExecutionFinished)
			} else {
				l.cursor = x.entries[l.current].index
			}
		}

	default:
		err := fault.Newf(fault.InternalListError, "entry %d of list %d in state %s", e.index, l.id, e.state)
		return x.fail(li, ei, err)
	}
	return nil
}

func (x *Executor) run(l *list, ei int, step func(env *Environment) error) (err error) {
	e := &x.entries[ei]
	if e.command == nil {
		return fault.Newf(fault.InternalListError, "entry %d of list %d has no command", e.index, l.id)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fault.Newf(fault.UnhandledException, "panic in command %d: %v", e.command.CommandID(), r)
		}
	}()
	x.env.bind(l, ei)
	defer x.env.unbind()
	return step(&x.env)
}

func (x *Executor) fail(li, ei int, err error) error {
	l := &x.lists[li]
	e := &x.entries[ei]
	e.state = EntryExecutionError
	x.logger.Warn("list entry failed",
		"list", l.id,
		"entry", e.index,
		"command", e.command.CommandID(),
		"error", err)
	x.retire(li, ExecutionError)
	return fmt.Errorf("list %d entry %d: %w", l.id, e.index, err)
}

// retire ends execution of list li in the given final state and gives its
// entries back. The list keeps its id, state, count and cursor until reused.
func (x *Executor) retire(li int, final State) {
	l := &x.lists[li]
	l.state = final
	l.current = none
	x.releaseEntries(li)
	x.pushUnusedList(li)
	if x.executing == li {
		x.executing = none
	}
	x.logger.Debug("list retired", "list", l.id, "state", final.String())
}

func (x *Executor) status(l *list) Status {
	return Status{ID: l.id, State: l.state, EntryCount: l.count, CurrentIndex: l.cursor}
}

func (x *Executor) index(id uint32) (int, error) {
	if id == 0 || int(id) > len(x.lists) {
		return 0, fault.Newf(fault.InvalidListID, "invalid list id %d", id)
	}
	return int(id - 1), nil
}

// releaseEntries returns the entry chain of list li to the entry pool.
func (x *Executor) releaseEntries(li int) {
	l := &x.lists[li]
	for ei := l.first; ei != none; {
		next := x.entries[ei].next
		x.releaseEntry(ei)
		ei = next
	}
	l.first, l.last = none, none
}

// releaseEntry returns one entry to the pool. Signals the entry prepared
// but never triggered go back to their definitions.
func (x *Executor) releaseEntry(ei int) {
	for _, s := range x.entries[ei].slots {
		if s.Cancel() {
			x.logger.Debug("prepared signal cancelled", "signal", s.Name(), "instance", s.ID())
		}
	}
	x.entries[ei] = entry{next: x.freeEntry}
	x.freeEntry = ei
	x.freeEntries++
}

func (x *Executor) takeEntry() (int, bool) {
	if x.freeEntry == none {
		return 0, false
	}
	ei := x.freeEntry
	x.freeEntry = x.entries[ei].next
	x.freeEntries--
	return ei, true
}

func (x *Executor) pushUnusedList(li int) {
	x.unusedLists[(x.unusedHead+x.unusedLen)%len(x.unusedLists)] = li
	x.unusedLen++
}

func (x *Executor) popUnusedList() (int, bool) {
	if x.unusedLen == 0 {
		return 0, false
	}
	li := x.unusedLists[x.unusedHead]
	x.unusedHead = (x.unusedHead + 1) % len(x.unusedLists)
	x.unusedLen--
	return li, true
}
