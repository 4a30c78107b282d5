// Package journal implements the telemetry store of the controller.
//
// A Journal holds groups of typed entries (integer, double, bool). While
// initializing, groups and entries are registered; Prepare freezes the
// layout, assigns every entry a byte offset in one flat current-value
// buffer (ascending group id, then entry id) and builds the schema.
//
// After Prepare, typed setters write through to the value buffer. A write
// that changes the stored bytes appends a Record to a fixed-capacity ring.
// When the ring is full the record is dropped and the overflow counter
// incremented; the value itself is always stored.
//
// Clients read the journal through four exports: the status snapshot, a
// single variable, the JSON schema and the change history.
package journal
