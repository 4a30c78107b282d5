package protocol

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Wire sizes.
const (
	FrameSize          = 44
	PayloadSize        = 24
	HeaderSize         = 28
	MaxResponsePayload = 256 * 1024
)

// DefaultSignature is the frame signature the controller accepts unless
// configured otherwise.
const DefaultSignature uint32 = 171

// Checksum computes the CRC-32 (IEEE) used on the wire.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// Frame is one decoded request.
type Frame struct {
	Signature  uint32
	ClientID   uint32
	SequenceID uint32
	CommandID  uint32
	Payload    Payload
	Checksum   uint32
}

// NewFrame builds a request with a valid checksum.
func NewFrame(signature, clientID, sequenceID, commandID uint32, payload Payload) Frame {
	f := Frame{
		Signature:  signature,
		ClientID:   clientID,
		SequenceID: sequenceID,
		CommandID:  commandID,
		Payload:    payload,
	}
	f.Checksum = f.ComputeChecksum()
	return f
}

// DecodeFrame parses a 44-byte request.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) != FrameSize {
		return Frame{}, fault.Newf(fault.InvalidPayload, "invalid frame size %d", len(b))
	}
	var f Frame
	f.Signature = binary.LittleEndian.Uint32(b[0:])
	f.ClientID = binary.LittleEndian.Uint32(b[4:])
	f.SequenceID = binary.LittleEndian.Uint32(b[8:])
	f.CommandID = binary.LittleEndian.Uint32(b[12:])
	copy(f.Payload[:], b[16:40])
	f.Checksum = binary.LittleEndian.Uint32(b[40:])
	return f, nil
}

// Encode serializes the frame.
func (f Frame) Encode() [FrameSize]byte {
	var b [FrameSize]byte
	f.put(b[:])
	binary.LittleEndian.PutUint32(b[40:], f.Checksum)
	return b
}

// ComputeChecksum returns the CRC over the first 40 bytes of the frame.
func (f Frame) ComputeChecksum() uint32 {
	var b [FrameSize]byte
	f.put(b[:])
	return Checksum(b[:FrameSize-4])
}

func (f Frame) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], f.Signature)
	binary.LittleEndian.PutUint32(b[4:], f.ClientID)
	binary.LittleEndian.PutUint32(b[8:], f.SequenceID)
	binary.LittleEndian.PutUint32(b[12:], f.CommandID)
	copy(b[16:40], f.Payload[:])
}

// Payload is the fixed request payload.
//
// Reads fail with InvalidPayloadAddress when the address is outside the
// payload and with InvalidPayloadReadOperation when the value would run
// past its end.
type Payload [PayloadSize]byte

func (p *Payload) window(addr uint32, n uint32) ([]byte, error) {
	if addr >= PayloadSize {
		return nil, fault.Newf(fault.InvalidPayloadAddress, "invalid payload address %d", addr)
	}
	if n > PayloadSize-addr {
		return nil, fault.Newf(fault.InvalidPayloadReadOperation, "payload read of %d bytes at %d exceeds payload", n, addr)
	}
	return p[addr : addr+n], nil
}

func (p *Payload) Uint8(addr uint32) (uint8, error) {
	b, err := p.window(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Payload) Int8(addr uint32) (int8, error) {
	v, err := p.Uint8(addr)
	return int8(v), err
}

func (p *Payload) Uint16(addr uint32) (uint16, error) {
	b, err := p.window(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p *Payload) Int16(addr uint32) (int16, error) {
	v, err := p.Uint16(addr)
	return int16(v), err
}

func (p *Payload) Uint32(addr uint32) (uint32, error) {
	b, err := p.window(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p *Payload) Int32(addr uint32) (int32, error) {
	v, err := p.Uint32(addr)
	return int32(v), err
}

func (p *Payload) Float32(addr uint32) (float32, error) {
	v, err := p.Uint32(addr)
	return math.Float32frombits(v), err
}

func (p *Payload) Float64(addr uint32) (float64, error) {
	b, err := p.window(addr, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// PayloadBuilder fills a request payload. Writes past the end panic, as
// they are programming errors on the client side.
type PayloadBuilder struct {
	p   Payload
	pos int
}

func (b *PayloadBuilder) Uint8(v uint8) *PayloadBuilder {
	b.p[b.pos] = v
	b.pos++
	return b
}

func (b *PayloadBuilder) Uint16(v uint16) *PayloadBuilder {
	binary.LittleEndian.PutUint16(b.p[b.pos:], v)
	b.pos += 2
	return b
}

func (b *PayloadBuilder) Uint32(v uint32) *PayloadBuilder {
	binary.LittleEndian.PutUint32(b.p[b.pos:], v)
	b.pos += 4
	return b
}

func (b *PayloadBuilder) Int32(v int32) *PayloadBuilder {
	return b.Uint32(uint32(v))
}

func (b *PayloadBuilder) Float64(v float64) *PayloadBuilder {
	binary.LittleEndian.PutUint64(b.p[b.pos:], math.Float64bits(v))
	b.pos += 8
	return b
}

// Payload returns the built payload.
func (b *PayloadBuilder) Payload() Payload {
	return b.p
}
