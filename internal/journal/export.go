package journal

import (
	"encoding/binary"
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

// Stream signatures occupy the top nibble of a status word; the low bits
// carry an id or a count.
const (
	SignatureUint8         uint32 = 0x10000000
	SignatureInt8          uint32 = 0x20000000
	SignatureUint16        uint32 = 0x30000000
	SignatureInt16         uint32 = 0x40000000
	SignatureUint32        uint32 = 0x50000000
	SignatureInt32         uint32 = 0x60000000
	SignatureUint64        uint32 = 0x70000000
	SignatureInt64         uint32 = 0x80000000
	SignatureDouble        uint32 = 0x90000000
	SignatureBoolTrue      uint32 = 0xA0000000
	SignatureBoolFalse     uint32 = 0xB0000000
	SignatureGroupListSize uint32 = 0xC0000000
	SignatureEntryListSize uint32 = 0xD0000000
	SignatureGroupID       uint32 = 0xE0000000

	SignatureMask uint32 = 0xF0000000
)

// HistoryBatch is the maximum number of records one history export pops.
const HistoryBatch = 64

// RecordSize is the wire size of one history record.
const RecordSize = 16

// AppendStatus writes the status snapshot of every group and entry.
func (j *Journal) AppendStatus(resp *protocol.Response) error {
	if err := resp.AddUint32(uint32(len(j.groups)) | SignatureGroupListSize); err != nil {
		return err
	}
	for _, g := range j.groups {
		if err := j.appendGroup(resp, g); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) appendGroup(resp *protocol.Response, g *group) error {
	if err := resp.AddUint32(g.id | SignatureGroupID); err != nil {
		return err
	}
	if err := resp.AddUint32(uint32(len(g.entries)) | SignatureEntryListSize); err != nil {
		return err
	}
	for _, e := range g.entries {
		if err := j.appendEntry(resp, e); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) appendEntry(resp *protocol.Response, e *entry) error {
	if j.initializing {
		return fault.New(fault.JournalDataBufferOverrun, "journal has not been prepared")
	}
	switch e.typ {
	case TypeInteger:
		if err := resp.AddUint32(e.id | SignatureInt32); err != nil {
			return err
		}
		return resp.AddInt32(int32(binary.LittleEndian.Uint64(j.values[e.offset:])))
	case TypeDouble:
		if err := resp.AddUint32(e.id | SignatureDouble); err != nil {
			return err
		}
		return resp.AddDouble(math.Float64frombits(binary.LittleEndian.Uint64(j.values[e.offset:])))
	default:
		if j.values[e.offset] != 0 {
			return resp.AddUint32(e.id | SignatureBoolTrue)
		}
		return resp.AddUint32(e.id | SignatureBoolFalse)
	}
}

// AppendVariable writes the status of a single entry, framed like a
// status snapshot with one group holding one entry.
func (j *Journal) AppendVariable(resp *protocol.Response, groupID, entryID uint32) error {
	if err := resp.AddUint32(1); err != nil {
		return err
	}
	g, ok := j.byID[groupID]
	if !ok {
		return fault.Newf(fault.VariableGroupNotFound, "variable group not found: %d", groupID)
	}
	if err := resp.AddUint32(g.id); err != nil {
		return err
	}
	if err := resp.AddUint32(1); err != nil {
		return err
	}
	e, ok := g.byID[entryID]
	if !ok {
		return fault.Newf(fault.InvalidEntryID, "invalid entry id: %d", entryID)
	}
	return j.appendEntry(resp, e)
}

// Schema returns the canonical JSON schema built by Prepare, or nil
// before Prepare. The returned slice must not be modified.
func (j *Journal) Schema() []byte { return j.schema }

// AppendSchema writes the schema document.
func (j *Journal) AppendSchema(resp *protocol.Response) error {
	if j.schema == nil {
		return fault.New(fault.JournalDataBufferOverrun, "journal has not been prepared")
	}
	return resp.AddBytes(j.schema)
}

// AppendHistory writes the buffered record count and the overflow counter,
// then pops up to HistoryBatch records into the response.
func (j *Journal) AppendHistory(resp *protocol.Response) error {
	if err := resp.AddUint32(uint32(j.count)); err != nil {
		return err
	}
	if err := resp.AddUint32(j.overflow); err != nil {
		return err
	}
	for n := 0; n < HistoryBatch && j.count > 0; n++ {
		rec := j.pop()
		if err := resp.AddUint32(uint32(rec.Timestamp)); err != nil {
			return err
		}
		if err := resp.AddUint16(rec.Group); err != nil {
			return err
		}
		if err := resp.AddUint16(rec.Entry); err != nil {
			return err
		}
		if err := resp.AddBytes(rec.Data[:]); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) schemaDocument() map[string]any {
	groups := make([]any, 0, len(j.groups))
	for _, g := range j.groups {
		values := make([]any, 0, len(g.entries))
		for _, e := range g.entries {
			v := map[string]any{
				"type": e.typ.String(),
				"name": e.name,
				"id":   int64(e.id),
				"size": int64(e.typ.Size()),
			}
			switch e.typ {
			case TypeInteger:
				v["minimum"] = e.min
				v["maximum"] = e.max
			case TypeDouble:
				v["minimum"] = e.dmin
				v["maximum"] = e.dmax
				v["quantization"] = e.steps
			}
			values = append(values, v)
		}
		groups = append(groups, map[string]any{
			"groupname": g.name,
			"groupid":   int64(g.id),
			"values":    values,
		})
	}
	return map[string]any{
		"schema": SchemaTag,
		"groups": groups,
	}
}

// Value is one decoded entry of a status snapshot.
type Value struct {
	Group uint32    `json:"group"`
	Entry uint32    `json:"entry"`
	Type  ValueType `json:"type"`
	Value any       `json:"value"`
}

// DecodeStatus parses a status snapshot payload.
func DecodeStatus(b []byte) ([]Value, error) {
	r := reader{b: b}
	word, err := r.signed(SignatureGroupListSize)
	if err != nil {
		return nil, err
	}
	var out []Value
	for i := uint32(0); i < word; i++ {
		gid, err := r.signed(SignatureGroupID)
		if err != nil {
			return nil, err
		}
		n, err := r.signed(SignatureEntryListSize)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < n; j++ {
			w, err := r.u32()
			if err != nil {
				return nil, err
			}
			v := Value{Group: gid, Entry: w &^ SignatureMask}
			switch w & SignatureMask {
			case SignatureInt32:
				raw, err := r.u32()
				if err != nil {
					return nil, err
				}
				v.Type, v.Value = TypeInteger, int64(int32(raw))
			case SignatureDouble:
				lo, err := r.u32()
				if err != nil {
					return nil, err
				}
				hi, err := r.u32()
				if err != nil {
					return nil, err
				}
				v.Type, v.Value = TypeDouble, math.Float64frombits(uint64(hi)<<32|uint64(lo))
			case SignatureBoolTrue:
				v.Type, v.Value = TypeBool, true
			case SignatureBoolFalse:
				v.Type, v.Value = TypeBool, false
			default:
				return nil, fault.Newf(fault.InvalidTCPResponse, "unknown status signature 0x%08x", w&SignatureMask)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// History is a decoded history export.
type History struct {
	Buffered uint32   `json:"buffered"`
	Overflow uint32   `json:"overflow"`
	Records  []Record `json:"records"`
}

// DecodeHistory parses a history export payload. Record timestamps carry
// only the low 32 bits of the clock.
func DecodeHistory(b []byte) (History, error) {
	if len(b) < 8 || (len(b)-8)%RecordSize != 0 {
		return History{}, fault.Newf(fault.InvalidTCPResponse, "invalid journal history length: %d", len(b))
	}
	h := History{
		Buffered: binary.LittleEndian.Uint32(b[0:]),
		Overflow: binary.LittleEndian.Uint32(b[4:]),
	}
	for off := 8; off < len(b); off += RecordSize {
		var rec Record
		rec.Timestamp = uint64(binary.LittleEndian.Uint32(b[off:]))
		rec.Group = binary.LittleEndian.Uint16(b[off+4:])
		rec.Entry = binary.LittleEndian.Uint16(b[off+6:])
		copy(rec.Data[:], b[off+8:off+RecordSize])
		h.Records = append(h.Records, rec)
	}
	return h, nil
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.b) {
		return 0, fault.Newf(fault.InvalidTCPResponse, "journal status truncated at %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) signed(sig uint32) (uint32, error) {
	w, err := r.u32()
	if err != nil {
		return 0, err
	}
	if w&SignatureMask != sig {
		return 0, fault.Newf(fault.InvalidTCPResponse, "expected signature 0x%08x, got 0x%08x", sig, w)
	}
	return w &^ SignatureMask, nil
}
