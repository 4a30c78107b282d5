// Package monitor serves a read-only HTTP view of a running controller.
//
// Every handler reads the snapshot the engine publishes after each tick,
// so requests never touch live engine state and never stall the cycle.
package monitor
