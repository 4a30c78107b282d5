package protocol

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Handler answers one command id.
//
// HandlePacket writes its answer into resp. A returned error replaces the
// answer with the error's status code and an empty payload.
type Handler interface {
	CommandID() uint32
	HandlePacket(payload *Payload, resp *Response) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	ID uint32
	Fn func(payload *Payload, resp *Response) error
}

func (h HandlerFunc) CommandID() uint32 { return h.ID }

func (h HandlerFunc) HandlePacket(payload *Payload, resp *Response) error {
	return h.Fn(payload, resp)
}

// Dispatcher decodes frames and routes them to registered handlers.
//
// It is the total boundary of request handling: errors and panics in a
// handler become a status code, never a dropped connection.
type Dispatcher struct {
	signature      uint32
	verifyChecksum bool
	handlers       map[uint32]Handler
	logger         *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChecksumVerification turns request checksum checking on or off.
func WithChecksumVerification(on bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.verifyChecksum = on
	}
}

// WithLogger sets the logger used for dropped frames and handler failures.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher that accepts frames carrying signature.
func NewDispatcher(signature uint32, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		signature: signature,
		handlers:  make(map[uint32]Handler),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Signature returns the accepted frame signature.
func (d *Dispatcher) Signature() uint32 { return d.signature }

// Register adds a handler. Each command id can be registered once.
func (d *Dispatcher) Register(h Handler) error {
	if h == nil {
		return fault.New(fault.InvalidParam, "nil packet handler")
	}
	id := h.CommandID()
	if _, dup := d.handlers[id]; dup {
		return fault.Newf(fault.PacketHandlerAlreadyRegistered, "packet handler already registered: %d", id)
	}
	d.handlers[id] = h
	return nil
}

// CanHandle reports whether a handler is registered for id.
func (d *Dispatcher) CanHandle(id uint32) bool {
	_, ok := d.handlers[id]
	return ok
}

// Commands returns the registered command ids in ascending order.
func (d *Dispatcher) Commands() []uint32 {
	ids := make([]uint32, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dispatch handles one raw frame and fills resp.
//
// It returns false when the frame must be dropped without an answer, which
// happens for frames of the wrong size or with a foreign signature.
func (d *Dispatcher) Dispatch(raw []byte, resp *Response) bool {
	frame, err := DecodeFrame(raw)
	if err != nil {
		d.logger.Warn("dropping frame", "error", err)
		return false
	}
	return d.DispatchFrame(frame, resp)
}

// DispatchFrame handles an already decoded frame.
func (d *Dispatcher) DispatchFrame(frame Frame, resp *Response) bool {
	if frame.Signature != d.signature {
		d.logger.Warn("dropping frame with foreign signature",
			"signature", frame.Signature,
			"client", frame.ClientID,
			"seq", frame.SequenceID)
		return false
	}

	resp.Begin(frame.Signature, frame.ClientID, frame.SequenceID)

	if d.verifyChecksum && frame.ComputeChecksum() != frame.Checksum {
		d.logger.Warn("request checksum mismatch", "client", frame.ClientID, "seq", frame.SequenceID)
		resp.Fail(fault.InvalidPayload)
		return true
	}

	h, ok := d.handlers[frame.CommandID]
	if !ok {
		d.logger.Warn("unknown command", "command", frame.CommandID, "client", frame.ClientID)
		resp.Fail(fault.InvalidRequest)
		return true
	}

	if err := d.invoke(h, &frame.Payload, resp); err != nil {
		code := fault.CodeOf(err)
		d.logger.Debug("command failed",
			"command", frame.CommandID,
			"status", code.String(),
			"error", err)
		resp.Fail(code)
	}
	return true
}

func (d *Dispatcher) invoke(h Handler, payload *Payload, resp *Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fault.Newf(fault.UnhandledException, "panic in command %d: %v", h.CommandID(), r)
		}
	}()
	if err := h.HandlePacket(payload, resp); err != nil {
		return fmt.Errorf("command %d: %w", h.CommandID(), err)
	}
	return nil
}
