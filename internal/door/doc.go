// Package door is the reference domain: the chamber door lock.
//
// The door machine keeps the door locked until a release is requested by
// the release button or by the OpenDoor command. A release unlocks the door
// for ten seconds; if the door is not opened in that time it locks again.
// LockDoor pins the door in the locked_closed state so that releases are
// ignored until it is unpinned.
//
// Hardware is reached through the IO interface. SimulatedIO stands in for
// the safety input and digital output modules in tests and in `ream run`.
package door
