package protocol

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

func TestFrame_EncodeDecode(t *testing.T) {
	var b PayloadBuilder
	b.Uint32(7).Uint8(1).Float64(2.5)
	f := NewFrame(DefaultSignature, 3, 99, CommandExecuteList, b.Payload())

	raw := f.Encode()
	assert.Equal(t, uint32(171), binary.LittleEndian.Uint32(raw[0:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[4:]))
	assert.Equal(t, uint32(99), binary.LittleEndian.Uint32(raw[8:]))
	assert.Equal(t, uint32(103), binary.LittleEndian.Uint32(raw[12:]))
	assert.Equal(t, crc32.ChecksumIEEE(raw[:40]), binary.LittleEndian.Uint32(raw[40:]))

	got, err := DecodeFrame(raw[:])
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestDecodeFrame_WrongSize(t *testing.T) {
	_, err := DecodeFrame(make([]byte, 43))
	assert.True(t, fault.Is(err, fault.InvalidPayload))
}

func TestPayload_Reads(t *testing.T) {
	var b PayloadBuilder
	b.Uint8(0xFF).Uint16(0xFFFE).Uint32(0xFFFFFFFD).Int32(-7).Float64(-1.25)
	p := b.Payload()

	u8, err := p.Uint8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), u8)
	i8, err := p.Int8(0)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
	i16, err := p.Int16(1)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)
	u32, err := p.Uint32(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFD), u32)
	i32, err := p.Int32(7)
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i32)
	f64, err := p.Float64(11)
	require.NoError(t, err)
	assert.Equal(t, -1.25, f64)
}

func TestPayload_Bounds(t *testing.T) {
	var p Payload

	_, err := p.Uint8(23)
	assert.NoError(t, err)
	_, err = p.Float64(16)
	assert.NoError(t, err)

	_, err = p.Uint8(24)
	assert.True(t, fault.Is(err, fault.InvalidPayloadAddress))
	_, err = p.Uint32(21)
	assert.True(t, fault.Is(err, fault.InvalidPayloadReadOperation))
	_, err = p.Float64(17)
	assert.True(t, fault.Is(err, fault.InvalidPayloadReadOperation))
	_, err = p.Float32(100)
	assert.True(t, fault.Is(err, fault.InvalidPayloadAddress))
}

func TestResponse_Encode(t *testing.T) {
	r := NewResponse()
	r.Begin(171, 4, 12)
	require.NoError(t, r.AddUint32(5))
	require.NoError(t, r.AddDouble(1.5))

	raw := r.Encode()
	require.Len(t, raw, HeaderSize+12)

	h, err := DecodeResponseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(171), h.Signature)
	assert.Equal(t, uint32(4), h.ClientID)
	assert.Equal(t, uint32(12), h.SequenceID)
	assert.Equal(t, uint32(0), h.Status)
	assert.Equal(t, uint32(12), h.PayloadLength)
	assert.Equal(t, crc32.ChecksumIEEE(raw[HeaderSize:]), h.PayloadChecksum)
	assert.Equal(t, crc32.ChecksumIEEE(raw[:24]), h.HeaderChecksum)
	assert.NoError(t, h.VerifyPayload(raw[HeaderSize:]))
}

func TestResponse_EmptyPayloadHasZeroChecksum(t *testing.T) {
	r := NewResponse()
	r.Begin(171, 1, 1)
	require.NoError(t, r.AddUint32(5))
	r.Fail(fault.ListIsEmpty)

	raw := r.Encode()
	require.Len(t, raw, HeaderSize)
	h, err := DecodeResponseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(fault.ListIsEmpty), h.Status)
	assert.Equal(t, uint32(0), h.PayloadLength)
	assert.Equal(t, uint32(0), h.PayloadChecksum)
}

func TestResponse_Overflow(t *testing.T) {
	r := NewResponse()
	require.NoError(t, r.AddBytes(make([]byte, MaxResponsePayload)))
	assert.True(t, fault.Is(r.AddUint8(1), fault.InvalidParam))
	assert.Equal(t, MaxResponsePayload, r.Len())
}

func TestDecodeResponseHeader_Corrupt(t *testing.T) {
	r := NewResponse()
	r.Begin(171, 1, 1)
	raw := r.Encode()
	raw[3] ^= 0xFF

	_, err := DecodeResponseHeader(raw)
	assert.True(t, fault.Is(err, fault.InvalidTCPResponse))
}
