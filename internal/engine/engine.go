package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
	"github.com/DavidWenzler/reAM250-sub000/internal/list"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

const (
	DefaultCyclePeriod = 10 * time.Millisecond
	DefaultQueueSize   = 256
)

// Module is anything registered with the engine under a unique name.
// What the engine does with a module is decided once, at registration,
// from the capability interfaces it implements.
type Module interface {
	Name() string
}

// StateMachine is a module stepped once per cycle.
type StateMachine interface {
	Module
	Step(c *Cycle) error
}

// JournalSource is a module that publishes values into the journal once
// per cycle, after all state machines have run.
type JournalSource interface {
	Module
	UpdateJournal(c *Cycle) error
}

// Cycle carries the per-tick context handed to modules.
type Cycle struct {
	// Number is the cycle count, starting at 1.
	Number uint64

	// Now is the tick time in microseconds.
	Now uint64

	Journal *journal.Journal
	Logger  *slog.Logger
}

// Engine is the application context of the controller runtime.
//
// It owns the signal registry, the journal, the list executor and the
// command dispatcher, and drives them through Tick.
//
// Thread-safety model:
//   - Enqueue, Snapshot, LastException, Cycles: safe from any goroutine
//   - everything else, including Tick and Run: the tick goroutine only
//
// Lifecycle: New, then modules register signals, journal entries and
// commands, then Prepare freezes all registrations, then Tick or Run.
type Engine struct {
	logger   *slog.Logger
	clock    signal.Clock
	cycles   *CycleClock
	period   time.Duration
	sessions SessionGenerator

	signature  uint32
	checksum   bool
	listCount  int
	entryCount int
	ringSize   int
	queueSize  int
	recorder   func(journal.Record)

	signals    *signal.Registry
	journal    *journal.Journal
	lists      *list.Executor
	dispatcher *protocol.Dispatcher
	queue      *requestQueue
	response   *protocol.Response

	modules  map[string]Module
	machines []StateMachine
	sources  []JournalSource
	prepared bool

	cycle    Cycle
	dropped  atomic.Uint64
	last     atomic.Pointer[Exception]
	snapshot atomic.Pointer[Snapshot]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its components.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source. Tests pass a manual clock.
func WithClock(c signal.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithCyclePeriod sets the tick period used by Run.
func WithCyclePeriod(d time.Duration) Option {
	return func(e *Engine) {
		e.period = d
	}
}

// WithSignature sets the protocol signature expected in request frames.
func WithSignature(sig uint32) Option {
	return func(e *Engine) {
		e.signature = sig
	}
}

// WithChecksumVerification enables CRC checking of request frames.
func WithChecksumVerification(on bool) Option {
	return func(e *Engine) {
		e.checksum = on
	}
}

// WithListCapacity sets the number of lists and list entries.
func WithListCapacity(lists, entries int) Option {
	return func(e *Engine) {
		e.listCount = lists
		e.entryCount = entries
	}
}

// WithJournalRing sets the capacity of the journal history ring.
func WithJournalRing(size int) Option {
	return func(e *Engine) {
		e.ringSize = size
	}
}

// WithQueueSize sets the capacity of the inbound request queue.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// WithRecorder receives every journal change record, e.g. for archiving.
// The callback runs in the tick and must not block.
func WithRecorder(fn func(journal.Record)) Option {
	return func(e *Engine) {
		e.recorder = fn
	}
}

// WithSessionGenerator sets the generator used by NewSession.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessions = g
	}
}

// New creates an engine with the built-in list and journal commands
// registered.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:     slog.Default(),
		cycles:     NewCycleClock(),
		period:     DefaultCyclePeriod,
		sessions:   UUIDv7Generator{},
		signature:  protocol.DefaultSignature,
		listCount:  list.DefaultListCount,
		entryCount: list.DefaultEntryCount,
		ringSize:   journal.DefaultRingSize,
		queueSize:  DefaultQueueSize,
		signals:    signal.NewRegistry(),
		response:   protocol.NewResponse(),
		modules:    make(map[string]Module),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = NewSystemClock()
	}
	if e.period <= 0 {
		return nil, fault.Newf(fault.InvalidParam, "invalid cycle period %s", e.period)
	}
	if e.queueSize <= 0 {
		return nil, fault.Newf(fault.InvalidParam, "invalid request queue size %d", e.queueSize)
	}

	jopts := []journal.Option{journal.WithLogger(e.logger)}
	if e.recorder != nil {
		jopts = append(jopts, journal.WithRecorder(e.recorder))
	}
	j, err := journal.New(e.ringSize, e.clock, jopts...)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	lists, err := list.NewExecutor(e.listCount, e.entryCount, e.signals, e.clock, list.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("create list executor: %w", err)
	}
	e.journal = j
	e.lists = lists
	e.queue = newRequestQueue(e.queueSize)
	e.dispatcher = protocol.NewDispatcher(e.signature,
		protocol.WithChecksumVerification(e.checksum),
		protocol.WithLogger(e.logger),
	)
	if err := e.lists.RegisterCommands(e.dispatcher); err != nil {
		return nil, err
	}
	if err := e.journal.RegisterCommands(e.dispatcher); err != nil {
		return nil, err
	}
	e.cycle = Cycle{Journal: e.journal, Logger: e.logger}
	return e, nil
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Clock returns the engine time source.
func (e *Engine) Clock() signal.Clock { return e.clock }

// Signals returns the signal registry.
func (e *Engine) Signals() *signal.Registry { return e.signals }

// Journal returns the journal.
func (e *Engine) Journal() *journal.Journal { return e.journal }

// Lists returns the list executor.
func (e *Engine) Lists() *list.Executor { return e.lists }

// Dispatcher returns the command dispatcher.
func (e *Engine) Dispatcher() *protocol.Dispatcher { return e.dispatcher }

// Prepared reports whether Prepare has completed.
func (e *Engine) Prepared() bool { return e.prepared }

// NewSignalHandler creates a signal domain and adds it to the registry.
func (e *Engine) NewSignalHandler(domain string) (*signal.Handler, error) {
	if e.prepared {
		return nil, fault.Newf(fault.CannotRegisterSignal, "engine is prepared, cannot add domain %s", domain)
	}
	h := signal.NewHandler(domain, e.clock)
	if err := e.signals.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

// NewMachine creates a state machine with its own signal domain and
// journal group and registers it as a module.
func (e *Engine) NewMachine(name string, journalGroup uint32) (*Machine, error) {
	if e.prepared {
		return nil, fault.Newf(fault.InvalidRequest, "engine is prepared, cannot add state machine %s", name)
	}
	if name == "" {
		return nil, fault.New(fault.InvalidName, "state machine has empty name")
	}
	if _, ok := e.modules[name]; ok {
		return nil, fault.Newf(fault.ModuleAlreadyExists, "duplicate module registration: %s", name)
	}
	if err := e.journal.RegisterGroup(journalGroup, name); err != nil {
		return nil, err
	}
	h, err := e.NewSignalHandler(name)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		name:    name,
		group:   journalGroup,
		signals: h,
		journal: e.journal,
		logger:  e.logger,
		states:  make(map[string]StateFunc),
	}
	if err := e.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds a module and resolves its capabilities.
func (e *Engine) Register(m Module) error {
	if e.prepared {
		return fault.Newf(fault.InvalidRequest, "engine is prepared, cannot register module %s", m.Name())
	}
	name := m.Name()
	if name == "" {
		return fault.New(fault.InvalidName, "module has empty name")
	}
	if _, ok := e.modules[name]; ok {
		return fault.Newf(fault.ModuleAlreadyExists, "duplicate module registration: %s", name)
	}
	sm, isMachine := m.(StateMachine)
	src, isSource := m.(JournalSource)
	if !isMachine && !isSource {
		return fault.Newf(fault.InvalidModuleType, "module %s is neither a state machine nor a journal source", name)
	}
	e.modules[name] = m
	if isMachine {
		e.machines = append(e.machines, sm)
	}
	if isSource {
		e.sources = append(e.sources, src)
	}
	return nil
}

// RegisterCommand adds a direct command.
func (e *Engine) RegisterCommand(h protocol.Handler) error {
	return e.dispatcher.Register(h)
}

// RegisterBuffered adds commands that are queued into the list being
// written.
func (e *Engine) RegisterBuffered(cmds ...list.Command) error {
	return e.lists.RegisterBuffered(e.dispatcher, cmds...)
}

// Prepare builds all signal instances and prepares the journal. No
// registrations are accepted afterwards.
func (e *Engine) Prepare() error {
	if e.prepared {
		return fault.New(fault.InvalidRequest, "engine is already prepared")
	}
	for _, h := range e.signals.Handlers() {
		if err := h.BuildInstances(); err != nil {
			return fmt.Errorf("build signals of %s: %w", h.Name(), err)
		}
	}
	if err := e.journal.Prepare(); err != nil {
		return fmt.Errorf("prepare journal: %w", err)
	}
	e.prepared = true
	e.logger.Info("engine prepared",
		"modules", len(e.modules),
		"domains", len(e.signals.Handlers()),
		"commands", len(e.dispatcher.Commands()),
	)
	e.publish()
	return nil
}

// NewSession returns a fresh session id.
func (e *Engine) NewSession() string {
	return e.sessions.Generate()
}

// Enqueue submits a request frame for the next tick.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the queue is full or the engine has stopped; the
// request is counted as dropped.
func (e *Engine) Enqueue(r Request) bool {
	if !e.queue.Enqueue(r) {
		e.dropped.Add(1)
		return false
	}
	return true
}

// Dropped returns the number of requests rejected by Enqueue.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// Cycles returns the number of completed ticks.
func (e *Engine) Cycles() uint64 { return e.cycles.Current() }

// LastException returns the most recent failure caught by the tick.
func (e *Engine) LastException() (Exception, bool) {
	ex := e.last.Load()
	if ex == nil {
		return Exception{}, false
	}
	return *ex, true
}

// Tick runs one scan cycle:
//
//  1. advance the cycle counter and read the clock
//  2. step every state machine
//  3. release expired signal instances
//  4. let journal sources publish
//  5. dispatch queued request frames
//  6. advance the executing list
//  7. publish the monitor snapshot
//
// A failure in any stage is recorded as the last exception and does not
// stop the remaining stages. Tick only returns an error when the engine
// is not prepared or ctx is done.
func (e *Engine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.prepared {
		return fault.New(fault.InvalidRequest, "engine is not prepared")
	}

	e.cycle.Number = e.cycles.Next()
	e.cycle.Now = e.clock.NowMicros()
	c := &e.cycle

	for _, m := range e.machines {
		e.guard("machine:"+m.Name(), func() error { return m.Step(c) })
	}
	e.guard("signals", e.signals.ReleaseExpired)
	for _, s := range e.sources {
		e.guard("journal:"+s.Name(), func() error { return s.UpdateJournal(c) })
	}
	e.guard("requests", e.drain)
	e.guard("lists", e.lists.Tick)
	e.publish()
	return nil
}

// drain dispatches the requests that were queued when the stage started.
func (e *Engine) drain() error {
	for n := e.queue.Len(); n > 0; n-- {
		r, ok := e.queue.TryDequeue()
		if !ok {
			return nil
		}
		if !e.dispatcher.Dispatch(r.Frame, e.response) {
			e.logger.Debug("dropped frame", "session", r.Session, "bytes", len(r.Frame))
			continue
		}
		if r.Reply != nil {
			r.Reply(e.response.Encode())
		}
	}
	return nil
}

func (e *Engine) guard(stage string, fn func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()
		err = fn()
	}()
	if err == nil {
		return
	}
	ex := newException(stage, e.cycle.Number, err)
	e.last.Store(ex)
	e.logger.Warn("cycle exception",
		"stage", stage,
		"cycle", ex.Cycle,
		"code", ex.Code.String(),
		"error", ex.Message,
	)
}

// Run ticks every cycle period until ctx is cancelled or Stop is called.
//
// Must be called from exactly one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	if !e.prepared {
		return fault.New(fault.InvalidRequest, "engine is not prepared")
	}
	e.logger.Info("engine starting", "period", e.period)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "cycles", e.Cycles())
			e.queue.Close()
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop closes the request queue. Queued requests are still dispatched by
// the following ticks.
func (e *Engine) Stop() {
	e.queue.Close()
}
