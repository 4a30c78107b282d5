// Package harness runs controller scenarios.
//
// A scenario drives a fresh engine with the door machine installed, one
// step at a time, against a manual clock and simulated door hardware, and
// then checks assertions on the resulting trace, machine states, journal
// values and list states.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: door_release
//	description: "An OpenDoor list unlocks the door"
//	cycle_ms: 10
//	steps:
//	  - send:
//	      command: begin_list
//	      expect: { status: ok, words: [1] }
//	  - send: { command: open_door }
//	  - send: { command: finish_list }
//	  - send:
//	      command: execute_list
//	      payload: [ { u32: 1 } ]
//	  - tick: 5
//	  - input: { button: true }
//	  - advance_ms: 10000
//	assertions:
//	  - type: machine_state
//	    machine: door
//	    expect: unlocked_closed
//	  - type: journal
//	    group: 10
//	    entry: 4
//	    expect: 1
//
// Requests are queued and answered by the next tick. Every tick advances
// the clock by cycle_ms first.
//
// # Assertion Types
//
//   - machine_state: current state of a machine
//   - journal: current value of a journal entry
//   - list_state: state of a list in the executor
//   - release: the door release output
//   - no_exception: no tick stage failed
//   - exception: the last exception has the given code
//   - trace_contains: an event with kind, subject and value was traced
//   - trace_order: events appear in the given order
//
// # Deterministic Testing
//
// The clock only moves when a step says so and session ids come from a
// fixed generator, so the same scenario always produces the same trace.
// RunWithGolden compares that trace against testdata/golden.
package harness
