// Package engine implements the cyclic controller runtime.
//
// The engine is the application context: it owns the signal registry, the
// journal, the list executor and the command dispatcher, and advances all
// of them once per scan cycle.
//
// ARCHITECTURE:
//
// Single-Goroutine Tick:
// Everything inside Tick runs on one goroutine and never blocks. Transport
// goroutines only enqueue raw frames; monitor goroutines only read the
// published snapshot.
//
// Cycle Order:
// 1. Cycle counter advanced, clock read once
// 2. Every state machine steps its current state
// 3. Expired finished signal instances are released in all domains
// 4. Journal sources publish their values
// 5. Queued request frames are dispatched and answered
// 6. The executing list advances by one entry transition
// 7. A snapshot is published for monitors
//
// Modules register once under a unique name. Whether a module is stepped as
// a state machine or called as a journal source is resolved at
// registration from the interfaces it implements.
//
// CRITICAL PATTERNS:
//
// Tick Boundary:
// A failing or panicking stage is recorded as the last exception (code,
// message, stage, cycle). The remaining stages of the cycle still run and
// the next cycle starts normally.
//
// Frozen Layout:
// Prepare builds all signal instances and the journal layout. After that no
// signal, journal entry, command or module can be registered.
package engine
