package door

import "sync"

// IO is the hardware the door machine reads and drives.
type IO interface {
	// ReleaseButton reports whether the release button is pressed.
	ReleaseButton() bool

	// Closed reports the first safety channel of the door switch.
	Closed() bool

	// Latched reports the second safety channel of the door switch.
	Latched() bool

	// SetRelease drives the lock release output.
	SetRelease(on bool)
}

// SimulatedIO is an in-memory door. It starts closed and latched.
//
// Thread-safety: safe for concurrent use via internal mutex, so a test or
// operator goroutine can move the door while the tick runs.
type SimulatedIO struct {
	mu      sync.Mutex
	button  bool
	closed  bool
	latched bool
	release bool
}

// NewSimulatedIO returns a closed door.
func NewSimulatedIO() *SimulatedIO {
	return &SimulatedIO{closed: true, latched: true}
}

func (s *SimulatedIO) ReleaseButton() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.button
}

func (s *SimulatedIO) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SimulatedIO) Latched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

func (s *SimulatedIO) SetRelease(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release = on
}

// Released reports the state of the release output.
func (s *SimulatedIO) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release
}

// PressButton sets the release button input.
func (s *SimulatedIO) PressButton(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.button = pressed
}

// Open swings the door open. Both safety channels drop.
func (s *SimulatedIO) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	s.latched = false
}

// Close shuts the door. Both safety channels return.
func (s *SimulatedIO) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.latched = true
}
