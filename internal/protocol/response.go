package protocol

import (
	"encoding/binary"
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Response accumulates the reply to one request.
//
// Handlers append payload values; the dispatcher fills in the header
// fields and the status. A Response can be reused with Begin.
type Response struct {
	Signature  uint32
	ClientID   uint32
	SequenceID uint32
	Status     fault.Code

	payload []byte
}

// NewResponse returns an empty response with room for a typical payload.
func NewResponse() *Response {
	return &Response{payload: make([]byte, 0, 256)}
}

// Begin resets the response for a new request.
func (r *Response) Begin(signature, clientID, sequenceID uint32) {
	r.Signature = signature
	r.ClientID = clientID
	r.SequenceID = sequenceID
	r.Status = 0
	r.payload = r.payload[:0]
}

// Fail records a status code and drops any payload written so far.
func (r *Response) Fail(code fault.Code) {
	r.Status = code
	r.payload = r.payload[:0]
}

// Payload returns the payload bytes written so far.
func (r *Response) Payload() []byte { return r.payload }

// Len returns the payload length.
func (r *Response) Len() int { return len(r.payload) }

// AddBytes appends raw bytes.
func (r *Response) AddBytes(b []byte) error {
	if len(r.payload)+len(b) > MaxResponsePayload {
		return fault.Newf(fault.InvalidParam, "response payload overflow: %d + %d bytes", len(r.payload), len(b))
	}
	r.payload = append(r.payload, b...)
	return nil
}

func (r *Response) AddString(s string) error {
	if len(r.payload)+len(s) > MaxResponsePayload {
		return fault.Newf(fault.InvalidParam, "response payload overflow: %d + %d bytes", len(r.payload), len(s))
	}
	r.payload = append(r.payload, s...)
	return nil
}

func (r *Response) AddUint8(v uint8) error {
	return r.AddBytes([]byte{v})
}

func (r *Response) AddUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return r.AddBytes(b[:])
}

func (r *Response) AddUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return r.AddBytes(b[:])
}

func (r *Response) AddInt32(v int32) error {
	return r.AddUint32(uint32(v))
}

func (r *Response) AddUint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return r.AddBytes(b[:])
}

func (r *Response) AddDouble(v float64) error {
	return r.AddUint64(math.Float64bits(v))
}

// Encode returns header and payload as one byte slice.
func (r *Response) Encode() []byte {
	out := make([]byte, HeaderSize+len(r.payload))
	h := ResponseHeader{
		Signature:     r.Signature,
		ClientID:      r.ClientID,
		SequenceID:    r.SequenceID,
		Status:        uint32(r.Status),
		PayloadLength: uint32(len(r.payload)),
	}
	if len(r.payload) > 0 {
		h.PayloadChecksum = Checksum(r.payload)
	}
	h.put(out)
	h.HeaderChecksum = Checksum(out[:HeaderSize-4])
	binary.LittleEndian.PutUint32(out[24:], h.HeaderChecksum)
	copy(out[HeaderSize:], r.payload)
	return out
}

// ResponseHeader is the decoded fixed part of a response.
type ResponseHeader struct {
	Signature       uint32
	ClientID        uint32
	SequenceID      uint32
	Status          uint32
	PayloadLength   uint32
	PayloadChecksum uint32
	HeaderChecksum  uint32
}

func (h ResponseHeader) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], h.Signature)
	binary.LittleEndian.PutUint32(b[4:], h.ClientID)
	binary.LittleEndian.PutUint32(b[8:], h.SequenceID)
	binary.LittleEndian.PutUint32(b[12:], h.Status)
	binary.LittleEndian.PutUint32(b[16:], h.PayloadLength)
	binary.LittleEndian.PutUint32(b[20:], h.PayloadChecksum)
}

// DecodeResponseHeader parses and verifies a response header.
func DecodeResponseHeader(b []byte) (ResponseHeader, error) {
	if len(b) < HeaderSize {
		return ResponseHeader{}, fault.Newf(fault.InvalidTCPResponse, "response header too short: %d bytes", len(b))
	}
	h := ResponseHeader{
		Signature:       binary.LittleEndian.Uint32(b[0:]),
		ClientID:        binary.LittleEndian.Uint32(b[4:]),
		SequenceID:      binary.LittleEndian.Uint32(b[8:]),
		Status:          binary.LittleEndian.Uint32(b[12:]),
		PayloadLength:   binary.LittleEndian.Uint32(b[16:]),
		PayloadChecksum: binary.LittleEndian.Uint32(b[20:]),
		HeaderChecksum:  binary.LittleEndian.Uint32(b[24:]),
	}
	if Checksum(b[:HeaderSize-4]) != h.HeaderChecksum {
		return ResponseHeader{}, fault.New(fault.InvalidTCPResponse, "response header checksum mismatch")
	}
	if h.PayloadLength > MaxResponsePayload {
		return ResponseHeader{}, fault.Newf(fault.InvalidTCPResponse, "response payload too large: %d bytes", h.PayloadLength)
	}
	return h, nil
}

// VerifyPayload checks payload against the header's length and checksum.
func (h ResponseHeader) VerifyPayload(payload []byte) error {
	if uint32(len(payload)) != h.PayloadLength {
		return fault.Newf(fault.InvalidTCPResponse, "payload length %d, header says %d", len(payload), h.PayloadLength)
	}
	var want uint32
	if len(payload) > 0 {
		want = Checksum(payload)
	}
	if want != h.PayloadChecksum {
		return fault.New(fault.InvalidTCPResponse, "response payload checksum mismatch")
	}
	return nil
}
