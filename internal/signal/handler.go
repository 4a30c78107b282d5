package signal

import (
	"fmt"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Handler owns the signal definitions of one domain.
//
// Definitions are registered during initialization. BuildInstances ends
// initialization; from then on signals can be prepared and checked but no
// new definitions are accepted.
type Handler struct {
	name         string
	clock        Clock
	definitions  []*Definition
	byName       map[string]int
	initializing bool
}

// NewHandler creates a handler in initialization mode.
func NewHandler(name string, clock Clock) *Handler {
	return &Handler{
		name:         name,
		clock:        clock,
		byName:       make(map[string]int),
		initializing: true,
	}
}

// Name returns the domain name.
func (h *Handler) Name() string { return h.name }

// Initializing reports whether BuildInstances has not been called yet.
func (h *Handler) Initializing() bool { return h.initializing }

// RegisterSignal adds a definition and returns it for field registration.
func (h *Handler) RegisterSignal(name string, queueSize int, lifetimeMs uint32) (*Definition, error) {
	if !h.initializing {
		return nil, fault.Newf(fault.CannotRegisterSignal, "cannot register signal %s outside of initialization: %s", name, h.name)
	}
	if _, dup := h.byName[name]; dup {
		return nil, fault.Newf(fault.DuplicateSignalDefinition, "duplicate signal definition: %s.%s", h.name, name)
	}
	d, err := NewDefinition(name, queueSize, lifetimeMs, h.clock)
	if err != nil {
		return nil, err
	}
	h.byName[name] = len(h.definitions)
	h.definitions = append(h.definitions, d)
	return d, nil
}

// BuildInstances builds every definition and ends initialization.
func (h *Handler) BuildInstances() error {
	if !h.initializing {
		return fault.Newf(fault.CannotBuildSignalInstances, "signal instances have already been built: %s", h.name)
	}
	for _, d := range h.definitions {
		if err := d.Build(); err != nil {
			return fmt.Errorf("build %s.%s: %w", h.name, d.name, err)
		}
	}
	h.initializing = false
	return nil
}

// Prepare claims an instance of the named signal.
func (h *Handler) Prepare(name string) (Sender, error) {
	if h.initializing {
		return Sender{}, fault.Newf(fault.CouldNotPrepareSignal, "cannot prepare signal %s during initialization: %s", name, h.name)
	}
	d, err := h.Definition(name)
	if err != nil {
		return Sender{}, err
	}
	return d.Prepare()
}

// Check takes the oldest active instance of the named signal.
func (h *Handler) Check(name string) (Receiver, bool, error) {
	if h.initializing {
		return Receiver{}, false, fault.Newf(fault.CouldNotCheckSignal, "cannot check signal %s during initialization: %s", name, h.name)
	}
	d, err := h.Definition(name)
	if err != nil {
		return Receiver{}, false, err
	}
	r, ok := d.Check()
	return r, ok, nil
}

// Definition looks up a definition by signal name.
func (h *Handler) Definition(name string) (*Definition, error) {
	idx, ok := h.byName[name]
	if !ok {
		return nil, fault.Newf(fault.SignalDefinitionNotFound, "signal definition not found: %s.%s", h.name, name)
	}
	return h.definitions[idx], nil
}

// Definitions returns all definitions in registration order.
func (h *Handler) Definitions() []*Definition {
	out := make([]*Definition, len(h.definitions))
	copy(out, h.definitions)
	return out
}

// ReleaseExpired reclaims expired finished instances of every definition.
// All definitions are visited; the first error is returned.
func (h *Handler) ReleaseExpired() error {
	var first error
	for _, d := range h.definitions {
		if err := d.ReleaseExpired(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Registry maps domain names to their handlers.
type Registry struct {
	handlers []*Handler
	byName   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a handler under its domain name.
func (r *Registry) Register(h *Handler) error {
	if _, dup := r.byName[h.name]; dup {
		return fault.Newf(fault.ModuleAlreadyExists, "signal handler already registered: %s", h.name)
	}
	r.byName[h.name] = len(r.handlers)
	r.handlers = append(r.handlers, h)
	return nil
}

// Find returns the handler registered for domain.
func (r *Registry) Find(domain string) (*Handler, error) {
	idx, ok := r.byName[domain]
	if !ok {
		return nil, fault.Newf(fault.SignalHandlerNotFound, "signal handler not found: %s", domain)
	}
	return r.handlers[idx], nil
}

// Handlers returns the handlers in registration order.
func (r *Registry) Handlers() []*Handler {
	out := make([]*Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// ReleaseExpired runs ReleaseExpired on every handler. All handlers are
// visited; the first error is returned.
func (r *Registry) ReleaseExpired() error {
	var first error
	for _, h := range r.handlers {
		if err := h.ReleaseExpired(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
