package harness

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/DavidWenzler/reAM250-sub000/internal/door"
	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/testutil"
)

// Executor sizes used unless a scenario sets its own.
const (
	DefaultLists       = 8
	DefaultListEntries = 64
)

// EventException is traced when a tick stage fails.
const EventException = "exception"

// domainCommands names the buffered commands of the installed domains.
var domainCommands = map[string]uint32{
	"open_door": door.CommandOpenDoor,
	"lock_door": door.CommandLockDoor,
}

// Harness is one scenario execution: a fresh engine with the door
// installed, a manual clock and simulated door hardware.
type Harness struct {
	engine  *engine.Engine
	door    *door.Door
	io      *door.SimulatedIO
	clock   *testutil.ManualClock
	logger  *slog.Logger
	session string
	cycleUs uint64
	result  *Result

	sequence uint32
	pending  map[uint32]pendingRequest
	states   map[string]string
	lists    map[uint32]string
	release  bool
	lastEx   *engine.Exception
}

type pendingRequest struct {
	step    int
	command string
	expect  *ExpectClause
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh engine, install the door and prepare
// 2. Run steps in order, tracing state, output and list changes per tick
// 3. Check response expectations and report unanswered requests
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, seq := range sortedKeys(h.pending) {
		p := h.pending[seq]
		if p.expect != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: %s was never answered", p.step, p.command))
		}
	}
	h.result.Cycles = h.engine.Cycles()

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, h) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	lists, entries := DefaultLists, DefaultListEntries
	if scenario.Lists > 0 {
		lists = scenario.Lists
	}
	if scenario.ListEntries > 0 {
		entries = scenario.ListEntries
	}
	cycleMs := scenario.CycleMillis
	if cycleMs == 0 {
		cycleMs = DefaultCycleMillis
	}

	h := &Harness{
		clock:   testutil.NewManualClock(0),
		io:      door.NewSimulatedIO(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cycleUs: cycleMs * 1000,
		result:  NewResult(),
		pending: make(map[uint32]pendingRequest),
		states:  make(map[string]string),
		lists:   make(map[uint32]string),
	}

	eng, err := engine.New(
		engine.WithLogger(h.logger),
		engine.WithClock(h.clock),
		engine.WithListCapacity(lists, entries),
		engine.WithSessionGenerator(testutil.NewSequentialSessionGenerator("harness")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	h.engine = eng

	if h.door, err = door.Install(eng, h.io); err != nil {
		return nil, fmt.Errorf("failed to install door: %w", err)
	}
	if err := eng.Prepare(); err != nil {
		return nil, fmt.Errorf("failed to prepare engine: %w", err)
	}
	h.session = eng.NewSession()

	for _, m := range eng.Snapshot().Machines {
		h.states[m.Name] = m.State
	}
	h.release = h.io.Released()
	return h, nil
}

// Engine returns the engine under test.
func (h *Harness) Engine() *engine.Engine { return h.engine }

func (h *Harness) execute(ctx context.Context, index int, step Step) error {
	switch {
	case step.Tick > 0:
		for i := 0; i < step.Tick; i++ {
			h.clock.Advance(h.cycleUs)
			if err := h.engine.Tick(ctx); err != nil {
				return err
			}
			h.observe()
		}
	case step.AdvanceMillis > 0:
		h.clock.AdvanceMillis(step.AdvanceMillis)
	case step.Input != nil:
		h.apply(step.Input)
	case step.Send != nil:
		return h.send(index, step.Send)
	}
	return nil
}

func (h *Harness) apply(in *Input) {
	cycle := h.engine.Cycles()
	if in.Button != nil {
		h.io.PressButton(*in.Button)
		h.result.addEvent(cycle, EventInput, "button", strconv.FormatBool(*in.Button))
	}
	switch in.Door {
	case "open":
		h.io.Open()
		h.result.addEvent(cycle, EventInput, "door", in.Door)
	case "closed":
		h.io.Close()
		h.result.addEvent(cycle, EventInput, "door", in.Door)
	}
}

func (h *Harness) send(index int, req *Request) error {
	id, err := h.resolveCommand(req.Command)
	if err != nil {
		return err
	}
	payload, err := buildPayload(req.Payload)
	if err != nil {
		return err
	}

	h.sequence++
	seq := h.sequence
	h.pending[seq] = pendingRequest{step: index, command: req.Command, expect: req.Expect}

	frame := protocol.NewFrame(protocol.DefaultSignature, 0, seq, id, payload).Encode()
	ok := h.engine.Enqueue(engine.Request{
		Session: h.session,
		Frame:   frame[:],
		Reply:   h.receive,
	})
	if !ok {
		delete(h.pending, seq)
		h.result.AddError(fmt.Sprintf("steps[%d]: request queue full", index))
	}
	return nil
}

// receive runs inside Tick.
func (h *Harness) receive(b []byte) {
	head, err := protocol.DecodeResponseHeader(b)
	if err != nil {
		h.result.AddError(fmt.Sprintf("undecodable response: %v", err))
		return
	}
	p, ok := h.pending[head.SequenceID]
	if !ok {
		h.result.AddError(fmt.Sprintf("response for unknown sequence %d", head.SequenceID))
		return
	}
	delete(h.pending, head.SequenceID)

	body := b[protocol.HeaderSize:]
	words := make([]uint32, 0, len(body)/4)
	for i := 0; i+4 <= len(body); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(body[i:]))
	}
	r := Reply{
		Step:    p.step,
		Command: p.command,
		Cycle:   h.engine.Cycles(),
		Status:  fault.Code(head.Status),
		Words:   words,
	}
	h.result.Replies = append(h.result.Replies, r)
	h.result.addEvent(r.Cycle, EventReply, p.command, statusName(r.Status))

	if p.expect != nil {
		if msg := checkExpect(r, p.expect); msg != "" {
			h.result.AddError(fmt.Sprintf("steps[%d]: %s", p.step, msg))
		}
	}
}

// observe traces what changed during the last tick.
func (h *Harness) observe() {
	snap := h.engine.Snapshot()

	for _, m := range snap.Machines {
		if h.states[m.Name] != m.State {
			h.states[m.Name] = m.State
			h.result.addEvent(snap.Cycle, EventState, m.Name, m.State)
		}
	}

	if released := h.io.Released(); released != h.release {
		h.release = released
		h.result.addEvent(snap.Cycle, EventOutput, "release", strconv.FormatBool(released))
	}

	seen := make(map[uint32]bool)
	for _, st := range h.engine.Lists().Statuses() {
		seen[st.ID] = true
		if state := st.State.String(); h.lists[st.ID] != state {
			h.lists[st.ID] = state
			h.result.addEvent(snap.Cycle, EventList, strconv.FormatUint(uint64(st.ID), 10), state)
		}
	}
	for _, id := range sortedKeys(h.lists) {
		if !seen[id] {
			delete(h.lists, id)
			h.result.addEvent(snap.Cycle, EventList, strconv.FormatUint(uint64(id), 10), "in_queue")
		}
	}

	if ex := snap.Exception; ex != nil && (h.lastEx == nil || *ex != *h.lastEx) {
		h.lastEx = ex
		h.result.addEvent(snap.Cycle, EventException, ex.Stage, ex.Code.String())
	}
}

func (h *Harness) resolveCommand(name string) (uint32, error) {
	if id, err := strconv.ParseUint(name, 10, 32); err == nil {
		return uint32(id), nil
	}
	if id, ok := domainCommands[name]; ok {
		return id, nil
	}
	for _, id := range h.engine.Dispatcher().Commands() {
		if protocol.CommandName(id) == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

func buildPayload(fields []PayloadField) (protocol.Payload, error) {
	var b protocol.PayloadBuilder
	size := 0
	for i, f := range fields {
		width := f.width()
		if size+width > protocol.PayloadSize {
			return protocol.Payload{}, fmt.Errorf("payload[%d]: payload exceeds %d bytes", i, protocol.PayloadSize)
		}
		size += width
		switch {
		case f.U8 != nil:
			b.Uint8(*f.U8)
		case f.U16 != nil:
			b.Uint16(*f.U16)
		case f.U32 != nil:
			b.Uint32(*f.U32)
		case f.I32 != nil:
			b.Int32(*f.I32)
		case f.F64 != nil:
			b.Float64(*f.F64)
		}
	}
	return b.Payload(), nil
}

func checkExpect(r Reply, want *ExpectClause) string {
	code, err := parseStatus(want.Status)
	if err != nil {
		return err.Error()
	}
	if r.Status != code {
		return fmt.Sprintf("%s: expected status %s, got %s", r.Command, statusName(code), statusName(r.Status))
	}
	if len(want.Words) > len(r.Words) {
		return fmt.Sprintf("%s: expected at least %d payload words, got %d", r.Command, len(want.Words), len(r.Words))
	}
	if !slices.Equal(want.Words, r.Words[:len(want.Words)]) {
		return fmt.Sprintf("%s: expected payload words %v, got %v", r.Command, want.Words, r.Words[:len(want.Words)])
	}
	return ""
}

// statusName renders status 0 as "ok" and other codes by name.
func statusName(c fault.Code) string {
	if c == 0 {
		return "ok"
	}
	return c.String()
}

func parseStatus(s string) (fault.Code, error) {
	if s == "ok" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return fault.Code(n), nil
	}
	for c := fault.Code(1); c.String() != fmt.Sprintf("CODE_%d", uint32(c)); c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
