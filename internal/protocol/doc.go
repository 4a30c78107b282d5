// Package protocol implements the binary request/response framing of the
// command channel and the dispatch of decoded requests to command handlers.
//
// Requests are fixed 44-byte frames, little endian:
//
//	signature u32 | client id u32 | sequence id u32 | command id u32 |
//	payload [24]byte | checksum u32
//
// The checksum is CRC-32 (IEEE) over the first 40 bytes. Responses are a
// 28-byte header followed by up to 256 KiB of payload:
//
//	signature u32 | client id u32 | sequence id u32 | status u32 |
//	payload length u32 | payload checksum u32 | header checksum u32
//
// The package never touches sockets. It turns frames into responses.
package protocol
