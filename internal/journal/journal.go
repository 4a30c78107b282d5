package journal

import (
	"encoding/binary"
	"log/slog"
	"math"
	"slices"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/signal"
)

const (
	MinGroupID      = 1
	MaxGroupID      = 32767
	MinEntryID      = 1
	MaxEntryID      = 32767
	MaxNameLength   = 64
	MaxEntrySize    = 8
	DefaultRingSize = 65536

	// SchemaTag identifies the schema format version.
	SchemaTag = "com.br-automation.brcpp.2023-12"
)

// ValueType is the declared type of a journal entry.
type ValueType int

const (
	TypeInteger ValueType = iota
	TypeDouble
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Size returns the number of bytes an entry of type t occupies.
func (t ValueType) Size() int {
	if t == TypeBool {
		return 1
	}
	return 8
}

// Record is one value change in the history ring.
type Record struct {
	// Timestamp is the clock reading in microseconds.
	Timestamp uint64
	Group     uint16
	Entry     uint16
	// Data holds the new value bytes, zero padded.
	Data [MaxEntrySize]byte
}

type entry struct {
	group  uint32
	id     uint32
	name   string
	typ    ValueType
	min    int64
	max    int64
	dmin   float64
	dmax   float64
	steps  int64
	offset int
}

type group struct {
	id      uint32
	name    string
	entries []*entry
	byID    map[uint32]*entry
	byName  map[string]*entry
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = logger
	}
}

// WithRecorder installs a callback that receives every change record,
// including records dropped from a full ring. The callback runs inside
// the write and must not block.
func WithRecorder(fn func(Record)) Option {
	return func(j *Journal) {
		j.recorder = fn
	}
}

// Journal is the group/entry keyed current-value table with its change
// history. It is not safe for concurrent use.
type Journal struct {
	clock        signal.Clock
	logger       *slog.Logger
	recorder     func(Record)
	initializing bool

	groups []*group
	byID   map[uint32]*group
	byName map[string]*group

	values   []byte
	ring     []Record
	head     int
	count    int
	overflow uint32
	schema   []byte
}

// New returns an initializing journal whose history ring holds exactly
// ringSize records.
func New(ringSize int, clock signal.Clock, opts ...Option) (*Journal, error) {
	if ringSize <= 0 {
		return nil, fault.Newf(fault.InvalidParam, "invalid journal ring buffer size: %d", ringSize)
	}
	if clock == nil {
		return nil, fault.New(fault.InvalidParam, "journal needs a clock")
	}
	j := &Journal{
		clock:        clock,
		logger:       slog.Default(),
		initializing: true,
		byID:         make(map[uint32]*group),
		byName:       make(map[string]*group),
		ring:         make([]Record, ringSize),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Initializing reports whether registration is still open.
func (j *Journal) Initializing() bool { return j.initializing }

// RegisterGroup adds a group.
func (j *Journal) RegisterGroup(id uint32, name string) error {
	if !j.initializing {
		return fault.New(fault.JournalIsNotInitializing, "journal is not initializing")
	}
	if id < MinGroupID || id > MaxGroupID {
		return fault.Newf(fault.InvalidJournalGroupID, "invalid journal group id: %d", id)
	}
	if name == "" {
		return fault.New(fault.EmptyJournalGroupName, "empty journal group name")
	}
	if !validName(name) {
		return fault.Newf(fault.InvalidJournalGroupName, "invalid journal group name: %q", name)
	}
	if _, ok := j.byID[id]; ok {
		return fault.Newf(fault.DuplicateJournalGroupID, "duplicate journal group id: %d", id)
	}
	if _, ok := j.byName[name]; ok {
		return fault.Newf(fault.DuplicateJournalGroupName, "duplicate journal group name: %s", name)
	}
	g := &group{
		id:     id,
		name:   name,
		byID:   make(map[uint32]*entry),
		byName: make(map[string]*entry),
	}
	j.groups = append(j.groups, g)
	j.byID[id] = g
	j.byName[name] = g
	return nil
}

// RegisterIntegerValue adds an integer entry with the inclusive range
// [minimum, maximum]. Status exports carry integers as int32, so the range
// must lie within int32.
func (j *Journal) RegisterIntegerValue(name string, groupID, entryID uint32, minimum, maximum int64) error {
	if minimum > maximum {
		return fault.Newf(fault.InvalidParam, "invalid journal entry range: %s", name)
	}
	if minimum < math.MinInt32 || maximum > math.MaxInt32 {
		return fault.Newf(fault.InvalidParam, "journal entry range exceeds int32: %s [%d, %d]", name, minimum, maximum)
	}
	return j.register(&entry{group: groupID, id: entryID, name: name, typ: TypeInteger, min: minimum, max: maximum})
}

// RegisterDoubleValue adds a double entry. The range and quantization
// steps describe the value for clients; writes are not range-checked.
func (j *Journal) RegisterDoubleValue(name string, groupID, entryID uint32, minimum, maximum float64, steps int64) error {
	return j.register(&entry{group: groupID, id: entryID, name: name, typ: TypeDouble, dmin: minimum, dmax: maximum, steps: steps})
}

// RegisterBoolValue adds a bool entry.
func (j *Journal) RegisterBoolValue(name string, groupID, entryID uint32) error {
	return j.register(&entry{group: groupID, id: entryID, name: name, typ: TypeBool})
}

func (j *Journal) register(e *entry) error {
	if !j.initializing {
		return fault.New(fault.JournalIsNotInitializing, "journal is not initializing")
	}
	g, ok := j.byID[e.group]
	if !ok {
		return fault.Newf(fault.JournalGroupIDNotFound, "journal group id not found: %d", e.group)
	}
	if e.name == "" {
		return fault.New(fault.EmptyJournalEntryName, "empty journal entry name")
	}
	if !validName(e.name) {
		return fault.Newf(fault.InvalidJournalEntryName, "invalid journal entry name: %q", e.name)
	}
	if e.id < MinEntryID || e.id > MaxEntryID {
		return fault.Newf(fault.InvalidJournalEntryID, "invalid journal entry id: %d", e.id)
	}
	if _, ok := g.byID[e.id]; ok {
		return fault.Newf(fault.JournalEntryAlreadyRegistered, "journal entry id already registered: %d (%s)", e.id, g.name)
	}
	if _, ok := g.byName[e.name]; ok {
		return fault.Newf(fault.JournalEntryAlreadyRegistered, "journal entry name already registered: %s (%s)", e.name, g.name)
	}
	g.entries = append(g.entries, e)
	g.byID[e.id] = e
	g.byName[e.name] = e
	return nil
}

// Prepare freezes the layout, allocates the value buffer and builds the
// schema. A journal without entries fails with EmptyJournalNotAllowed.
func (j *Journal) Prepare() error {
	if !j.initializing {
		return fault.New(fault.JournalIsNotInitializing, "journal is not initializing")
	}
	slices.SortFunc(j.groups, func(a, b *group) int { return int(a.id) - int(b.id) })
	size := 0
	for _, g := range j.groups {
		slices.SortFunc(g.entries, func(a, b *entry) int { return int(a.id) - int(b.id) })
		for _, e := range g.entries {
			e.offset = size
			size += e.typ.Size()
		}
	}
	if size == 0 {
		return fault.New(fault.EmptyJournalNotAllowed, "an empty journal is not allowed")
	}
	schema, err := marshalCanonical(j.schemaDocument())
	if err != nil {
		return fault.Wrap(fault.InvalidParam, err, "build journal schema")
	}
	j.values = make([]byte, size)
	j.schema = schema
	j.head, j.count, j.overflow = 0, 0, 0
	j.initializing = false
	j.logger.Debug("journal prepared", "groups", len(j.groups), "bytes", size, "ring", len(j.ring))
	return nil
}

func (j *Journal) lookup(groupID, entryID uint32) (*entry, error) {
	if j.initializing {
		return nil, fault.New(fault.JournalDataBufferOverrun, "journal has not been prepared")
	}
	g, ok := j.byID[groupID]
	if !ok {
		return nil, fault.Newf(fault.JournalGroupIDNotFound, "journal group id not found: %d", groupID)
	}
	e, ok := g.byID[entryID]
	if !ok {
		return nil, fault.Newf(fault.JournalEntryNotFound, "journal entry not found: %d/%d", groupID, entryID)
	}
	return e, nil
}

func (j *Journal) typed(groupID, entryID uint32, typ ValueType) (*entry, error) {
	e, err := j.lookup(groupID, entryID)
	if err != nil {
		return nil, err
	}
	if e.typ != typ {
		return nil, fault.Newf(fault.JournalEntryTypeMismatch, "journal entry is not of type %s: %s", typ, e.name)
	}
	return e, nil
}

// SetInteger stores v. Values outside the declared range are rejected.
func (j *Journal) SetInteger(groupID, entryID uint32, v int64) error {
	e, err := j.typed(groupID, entryID, TypeInteger)
	if err != nil {
		return err
	}
	if v < e.min || v > e.max {
		return fault.Newf(fault.JournalValueOutsideOfRange, "journal value outside of range: %s = %d", e.name, v)
	}
	var b [MaxEntrySize]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	j.write(e, b)
	return nil
}

// SetDouble stores v.
func (j *Journal) SetDouble(groupID, entryID uint32, v float64) error {
	e, err := j.typed(groupID, entryID, TypeDouble)
	if err != nil {
		return err
	}
	var b [MaxEntrySize]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	j.write(e, b)
	return nil
}

// SetBool stores v.
func (j *Journal) SetBool(groupID, entryID uint32, v bool) error {
	e, err := j.typed(groupID, entryID, TypeBool)
	if err != nil {
		return err
	}
	var b [MaxEntrySize]byte
	if v {
		b[0] = 1
	}
	j.write(e, b)
	return nil
}

func (j *Journal) write(e *entry, b [MaxEntrySize]byte) {
	n := e.typ.Size()
	current := j.values[e.offset : e.offset+n]
	if string(current) == string(b[:n]) {
		return
	}
	copy(current, b[:n])

	rec := Record{
		Timestamp: j.clock.NowMicros(),
		Group:     uint16(e.group),
		Entry:     uint16(e.id),
		Data:      b,
	}
	if j.count == len(j.ring) {
		j.overflow++
	} else {
		j.ring[(j.head+j.count)%len(j.ring)] = rec
		j.count++
	}
	if j.recorder != nil {
		j.recorder(rec)
	}
}

// Integer returns the value of an integer entry.
func (j *Journal) Integer(groupID, entryID uint32) (int64, error) {
	e, err := j.typed(groupID, entryID, TypeInteger)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(j.values[e.offset:])), nil
}

func (j *Journal) ranged(groupID, entryID uint32, lo, hi int64) (int64, error) {
	v, err := j.Integer(groupID, entryID)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fault.Newf(fault.JournalValueOutsideOfRange, "journal value outside of range: %d/%d", groupID, entryID)
	}
	return v, nil
}

func (j *Journal) Int32(groupID, entryID uint32) (int32, error) {
	v, err := j.ranged(groupID, entryID, math.MinInt32, math.MaxInt32)
	return int32(v), err
}

func (j *Journal) Int16(groupID, entryID uint32) (int16, error) {
	v, err := j.ranged(groupID, entryID, math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (j *Journal) Int8(groupID, entryID uint32) (int8, error) {
	v, err := j.ranged(groupID, entryID, math.MinInt8, math.MaxInt8)
	return int8(v), err
}

func (j *Journal) Uint64(groupID, entryID uint32) (uint64, error) {
	v, err := j.ranged(groupID, entryID, 0, math.MaxInt64)
	return uint64(v), err
}

func (j *Journal) Uint32(groupID, entryID uint32) (uint32, error) {
	v, err := j.ranged(groupID, entryID, 0, math.MaxUint32)
	return uint32(v), err
}

func (j *Journal) Uint16(groupID, entryID uint32) (uint16, error) {
	v, err := j.ranged(groupID, entryID, 0, math.MaxUint16)
	return uint16(v), err
}

func (j *Journal) Uint8(groupID, entryID uint32) (uint8, error) {
	v, err := j.ranged(groupID, entryID, 0, math.MaxUint8)
	return uint8(v), err
}

// Double returns the value of a double entry.
func (j *Journal) Double(groupID, entryID uint32) (float64, error) {
	e, err := j.typed(groupID, entryID, TypeDouble)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(j.values[e.offset:])), nil
}

// Bool returns the value of a bool entry.
func (j *Journal) Bool(groupID, entryID uint32) (bool, error) {
	e, err := j.typed(groupID, entryID, TypeBool)
	if err != nil {
		return false, err
	}
	return j.values[e.offset] != 0, nil
}

// Buffered returns the number of records waiting in the ring.
func (j *Journal) Buffered() int { return j.count }

// Overflow returns the number of records dropped because the ring was full.
func (j *Journal) Overflow() uint32 { return j.overflow }

// Capacity returns the ring capacity.
func (j *Journal) Capacity() int { return len(j.ring) }

// PopHistory removes and returns up to limit of the oldest records.
func (j *Journal) PopHistory(limit int) []Record {
	n := min(limit, j.count)
	if n <= 0 {
		return nil
	}
	out := make([]Record, n)
	for i := range out {
		out[i] = j.pop()
	}
	return out
}

func (j *Journal) pop() Record {
	rec := j.ring[j.head]
	j.head = (j.head + 1) % len(j.ring)
	j.count--
	return rec
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
