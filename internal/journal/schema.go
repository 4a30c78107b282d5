package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// SchemaEntry is one value declared in a schema document.
type SchemaEntry struct {
	Group     uint32
	GroupName string
	Entry     uint32
	Name      string
	Type      ValueType
}

// Key returns "group.name", the readable key of the entry.
func (e SchemaEntry) Key() string { return e.GroupName + "." + e.Name }

// Layout indexes the entries of a schema document by group and entry id.
type Layout map[[2]uint32]SchemaEntry

type schemaDoc struct {
	Schema string `json:"schema"`
	Groups []struct {
		ID     uint32 `json:"groupid"`
		Name   string `json:"groupname"`
		Values []struct {
			ID   uint32 `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"values"`
	} `json:"groups"`
}

// ParseSchema reads a schema document as produced by Journal.Schema.
func ParseSchema(b []byte) (Layout, error) {
	var doc schemaDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if doc.Schema != SchemaTag {
		return nil, fmt.Errorf("parse schema: unsupported schema %q", doc.Schema)
	}
	layout := make(Layout)
	for _, g := range doc.Groups {
		for _, v := range g.Values {
			typ, err := parseValueType(v.Type)
			if err != nil {
				return nil, fmt.Errorf("parse schema: %s.%s: %w", g.Name, v.Name, err)
			}
			layout[[2]uint32{g.ID, v.ID}] = SchemaEntry{
				Group:     g.ID,
				GroupName: g.Name,
				Entry:     v.ID,
				Name:      v.Name,
				Type:      typ,
			}
		}
	}
	return layout, nil
}

// Lookup returns the entry a record belongs to.
func (l Layout) Lookup(r Record) (SchemaEntry, bool) {
	e, ok := l[[2]uint32{uint32(r.Group), uint32(r.Entry)}]
	return e, ok
}

// Decode returns the value a record carries. Integers decode as int64.
func (l Layout) Decode(r Record) (Value, bool) {
	e, ok := l.Lookup(r)
	if !ok {
		return Value{}, false
	}
	v := Value{Group: e.Group, Entry: e.Entry, Type: e.Type}
	raw := binary.LittleEndian.Uint64(r.Data[:])
	switch e.Type {
	case TypeBool:
		v.Value = r.Data[0] != 0
	case TypeDouble:
		v.Value = math.Float64frombits(raw)
	default:
		v.Value = int64(raw)
	}
	return v, true
}

func parseValueType(s string) (ValueType, error) {
	for _, t := range []ValueType{TypeInteger, TypeDouble, TypeBool} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}
