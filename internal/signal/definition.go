package signal

import (
	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Queue size bounds for a definition.
const (
	MinQueueSize = 1
	MaxQueueSize = 64
)

// Names of the implicit fields every definition carries.
const (
	ActiveParameter = "__active"
	ProcessedResult = "__processed"
)

// Clock supplies the controller time in microseconds.
type Clock interface {
	NowMicros() uint64
}

type instanceState uint8

const (
	stateUnused instanceState = iota
	stateInPreparation
	stateActive
	stateInProcess
	stateFinished
)

type instance struct {
	state      instanceState
	trigger    uint64
	generation uint32
}

// Counts reports how many instances sit in each set.
type Counts struct {
	Unused        int
	InPreparation int
	Active        int
	InProcess     int
	Finished      int
}

// Total returns the sum over all sets. It always equals the queue size once
// instances are built.
func (c Counts) Total() int {
	return c.Unused + c.InPreparation + c.Active + c.InProcess + c.Finished
}

// Definition is one kind of signal and the arena of its instances.
//
// Parameters and results share one offset counter, so the block layout is
// the registration order of all fields. After Build the layout is frozen.
//
// A Definition is not safe for concurrent use; it lives inside the tick.
type Definition struct {
	name       string
	queueSize  int
	lifetimeMs uint32
	clock      Clock

	fields     []Field
	parameters map[string]int
	results    map[string]int
	defaults   []byte
	blockSize  int

	built     bool
	memory    []byte
	instances []instance
	unused    fifo
	active    fifo
	finished  fifo

	inPreparation int
	inProcess     int

	activeOffset    int
	processedOffset int
}

// NewDefinition creates an unbuilt definition with the implicit __active
// parameter and __processed result already registered.
func NewDefinition(name string, queueSize int, lifetimeMs uint32, clock Clock) (*Definition, error) {
	if name == "" {
		return nil, fault.New(fault.InvalidParam, "signal name must not be empty")
	}
	if queueSize < MinQueueSize || queueSize > MaxQueueSize {
		return nil, fault.Newf(fault.InvalidSignalQueueSize, "invalid signal queue size %d: %s", queueSize, name)
	}
	if clock == nil {
		return nil, fault.Newf(fault.InvalidParam, "signal %s has no clock", name)
	}

	d := &Definition{
		name:       name,
		queueSize:  queueSize,
		lifetimeMs: lifetimeMs,
		clock:      clock,
		parameters: make(map[string]int),
		results:    make(map[string]int),
	}
	if err := d.AddBoolParameter(ActiveParameter, false); err != nil {
		return nil, err
	}
	if err := d.AddBoolResult(ProcessedResult, false); err != nil {
		return nil, err
	}
	d.activeOffset = d.fields[d.parameters[ActiveParameter]].Offset
	d.processedOffset = d.fields[d.results[ProcessedResult]].Offset
	return d, nil
}

// Name returns the signal name.
func (d *Definition) Name() string { return d.name }

// QueueSize returns the number of instances.
func (d *Definition) QueueSize() int { return d.queueSize }

// LifetimeMs returns the lifetime of a triggered instance in milliseconds.
func (d *Definition) LifetimeMs() uint32 { return d.lifetimeMs }

// BlockSize returns the bytes per instance.
func (d *Definition) BlockSize() int { return d.blockSize }

// Fields returns the layout in registration order.
func (d *Definition) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Built reports whether Build has been called.
func (d *Definition) Built() bool { return d.built }

func (d *Definition) AddBoolParameter(name string, def bool) error {
	var v int64
	if def {
		v = 1
	}
	return d.addField(name, FieldBool, false, func(b []byte) error { return encodeInteger(b, FieldBool, name, v) })
}

func (d *Definition) AddInt32Parameter(name string, def int32) error {
	return d.addField(name, FieldInt32, false, func(b []byte) error { return encodeInteger(b, FieldInt32, name, int64(def)) })
}

func (d *Definition) AddUint32Parameter(name string, def uint32) error {
	return d.addField(name, FieldUint32, false, func(b []byte) error { return encodeInteger(b, FieldUint32, name, int64(def)) })
}

func (d *Definition) AddDoubleParameter(name string, def float64) error {
	return d.addField(name, FieldDouble, false, func(b []byte) error { return encodeDouble(b, FieldDouble, name, def) })
}

func (d *Definition) AddBoolResult(name string, def bool) error {
	var v int64
	if def {
		v = 1
	}
	return d.addField(name, FieldBool, true, func(b []byte) error { return encodeInteger(b, FieldBool, name, v) })
}

func (d *Definition) AddInt32Result(name string, def int32) error {
	return d.addField(name, FieldInt32, true, func(b []byte) error { return encodeInteger(b, FieldInt32, name, int64(def)) })
}

func (d *Definition) AddUint32Result(name string, def uint32) error {
	return d.addField(name, FieldUint32, true, func(b []byte) error { return encodeInteger(b, FieldUint32, name, int64(def)) })
}

func (d *Definition) AddDoubleResult(name string, def float64) error {
	return d.addField(name, FieldDouble, true, func(b []byte) error { return encodeDouble(b, FieldDouble, name, def) })
}

func (d *Definition) addField(name string, t FieldType, result bool, writeDefault func([]byte) error) error {
	index := d.parameters
	if result {
		index = d.results
	}

	if d.built {
		if result {
			return fault.Newf(fault.CannotRegisterResult, "cannot register result %s after build: %s", name, d.name)
		}
		return fault.Newf(fault.CannotRegisterParameter, "cannot register parameter %s after build: %s", name, d.name)
	}
	if name == "" {
		return fault.Newf(fault.InvalidParam, "empty field name: %s", d.name)
	}
	if _, dup := index[name]; dup {
		if result {
			return fault.Newf(fault.DuplicateSignalResultName, "duplicate signal result name %s: %s", name, d.name)
		}
		return fault.Newf(fault.DuplicateSignalParameterName, "duplicate signal parameter name %s: %s", name, d.name)
	}

	f := Field{Name: name, Type: t, Offset: d.blockSize, Result: result}
	d.defaults = append(d.defaults, make([]byte, t.Size())...)
	if err := writeDefault(d.defaults[f.Offset:]); err != nil {
		d.defaults = d.defaults[:f.Offset]
		return err
	}
	d.blockSize += t.Size()
	index[name] = len(d.fields)
	d.fields = append(d.fields, f)
	return nil
}

// Build allocates all instances in one contiguous block and puts them into
// Unused. It can only be called once.
func (d *Definition) Build() error {
	if d.built {
		return fault.Newf(fault.SignalInstancesAlreadyBuilt, "signal instances have already been built: %s", d.name)
	}
	d.memory = make([]byte, d.blockSize*d.queueSize)
	d.instances = make([]instance, d.queueSize)
	d.unused = newFIFO(d.queueSize)
	d.active = newFIFO(d.queueSize)
	d.finished = newFIFO(d.queueSize)
	for i := 0; i < d.queueSize; i++ {
		copy(d.block(i), d.defaults)
		d.unused.push(i)
	}
	d.built = true
	return nil
}

// Prepare claims an unused instance, resets it to the defaults and hands
// the producer a Sender for it.
func (d *Definition) Prepare() (Sender, error) {
	if !d.built {
		return Sender{}, fault.Newf(fault.SignalHasNoInstances, "signal has no instances: %s", d.name)
	}
	i, ok := d.unused.pop()
	if !ok {
		return Sender{}, fault.Newf(fault.CouldNotPrepareSignal, "signal instance queue is full: %s", d.name)
	}

	inst := &d.instances[i]
	inst.generation++
	inst.trigger = 0
	inst.state = stateInPreparation
	d.inPreparation++
	copy(d.block(i), d.defaults)

	return Sender{def: d, index: i, generation: inst.generation}, nil
}

// Check hands the oldest active instance to a consumer. The boolean is
// false when nothing is active.
func (d *Definition) Check() (Receiver, bool) {
	if !d.built {
		return Receiver{}, false
	}
	i, ok := d.active.pop()
	if !ok {
		return Receiver{}, false
	}
	inst := &d.instances[i]
	inst.state = stateInProcess
	d.inProcess++
	return Receiver{def: d, index: i, generation: inst.generation}, true
}

// ReleaseExpired returns finished instances to Unused while the front of
// the finished queue has outlived its lifetime.
func (d *Definition) ReleaseExpired() error {
	for {
		i, ok := d.finished.peek()
		if !ok {
			return nil
		}
		expired, err := d.expired(i)
		if err != nil {
			return err
		}
		if !expired {
			return nil
		}
		d.finished.pop()
		d.instances[i].state = stateUnused
		d.instances[i].trigger = 0
		d.unused.push(i)
	}
}

// Counts reports the current set sizes.
func (d *Definition) Counts() Counts {
	return Counts{
		Unused:        d.unused.len(),
		InPreparation: d.inPreparation,
		Active:        d.active.len(),
		InProcess:     d.inProcess,
		Finished:      d.finished.len(),
	}
}

func (d *Definition) trigger(i int, gen uint32) error {
	inst := &d.instances[i]
	if inst.generation != gen || inst.state != stateInPreparation {
		return fault.Newf(fault.SignalIsNotInPreparation, "signal is not in preparation: %s", d.name)
	}
	inst.state = stateActive
	inst.trigger = d.clock.NowMicros()
	d.inPreparation--
	d.block(i)[d.activeOffset] = 1
	d.active.push(i)
	return nil
}

func (d *Definition) cancel(i int, gen uint32) bool {
	inst := &d.instances[i]
	if inst.generation != gen || inst.state != stateInPreparation {
		return false
	}
	inst.state = stateUnused
	inst.trigger = 0
	d.inPreparation--
	d.unused.push(i)
	return true
}

func (d *Definition) finish(i int, gen uint32) error {
	inst := &d.instances[i]
	if inst.generation != gen || inst.state != stateInProcess {
		return fault.Newf(fault.SignalIsNotInProcess, "signal is not in process: %s", d.name)
	}
	expired, err := d.expired(i)
	if err != nil {
		return err
	}
	d.inProcess--
	d.block(i)[d.processedOffset] = 1
	if expired {
		inst.state = stateUnused
		inst.trigger = 0
		d.unused.push(i)
		return nil
	}
	inst.state = stateFinished
	d.finished.push(i)
	return nil
}

// expired reports whether the lifetime of instance i has elapsed.
func (d *Definition) expired(i int) (bool, error) {
	now := d.clock.NowMicros()
	trigger := d.instances[i].trigger
	if now < trigger {
		return false, fault.Newf(fault.SignalTriggerTimeIsInFuture, "signal trigger time is in the future: %s", d.name)
	}
	return now-trigger >= uint64(d.lifetimeMs)*1000, nil
}

func (d *Definition) block(i int) []byte {
	return d.memory[i*d.blockSize : (i+1)*d.blockSize]
}

func (d *Definition) current(i int, gen uint32) bool {
	return d.instances[i].generation == gen
}

func (d *Definition) lookup(name string, result bool) (*Field, error) {
	if result {
		if idx, ok := d.results[name]; ok {
			return &d.fields[idx], nil
		}
		return nil, fault.Newf(fault.SignalResultNotFound, "signal result not found: %s.%s", d.name, name)
	}
	if idx, ok := d.parameters[name]; ok {
		return &d.fields[idx], nil
	}
	return nil, fault.Newf(fault.SignalParameterNotFound, "signal parameter not found: %s.%s", d.name, name)
}

// slot resolves the bytes of a named field for a view. Stale views are
// rejected with the given code.
func (d *Definition) slot(i int, gen uint32, name string, result bool, stale fault.Code) ([]byte, FieldType, error) {
	f, err := d.lookup(name, result)
	if err != nil {
		return nil, 0, err
	}
	if !d.current(i, gen) {
		return nil, 0, fault.Newf(stale, "signal instance %d of %s has been reused", i+1, d.name)
	}
	b := d.block(i)
	return b[f.Offset : f.Offset+f.Type.Size()], f.Type, nil
}

// fifo is a fixed-capacity ring of instance indices.
type fifo struct {
	buf  []int
	head int
	n    int
}

func newFIFO(capacity int) fifo {
	return fifo{buf: make([]int, capacity)}
}

func (q *fifo) push(i int) {
	q.buf[(q.head+q.n)%len(q.buf)] = i
	q.n++
}

func (q *fifo) pop() (int, bool) {
	if q.n == 0 {
		return 0, false
	}
	i := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return i, true
}

func (q *fifo) peek() (int, bool) {
	if q.n == 0 {
		return 0, false
	}
	return q.buf[q.head], true
}

func (q *fifo) len() int { return q.n }
