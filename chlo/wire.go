package chlo

import (
	"bytes"
	"encoding/binary"

	"github.com/quic-go/quic-go/quicvarint"
)

// PublicHeader is the subset of a gQUIC packet's unencrypted header the
// extractor needs to recover a connection id.
type PublicHeader struct {
	ConnectionID ConnectionID
	Version      Version
	LongHeader   bool
}

const publicHeaderMinLen = 1 + 8 // flags byte + 8-byte connection id

// longHeaderFlag marks a packet as carrying a negotiated-or-proposed
// version immediately after the connection id.
const longHeaderFlag = 0x01

// ParsePublicHeader decodes the fixed-width header fields at the start
// of packet and returns how many bytes it consumed. It returns ok=false
// on any packet too short to hold a connection id.
func ParsePublicHeader(packet []byte) (hdr PublicHeader, consumed int, ok bool) {
	if len(packet) < publicHeaderMinLen {
		return PublicHeader{}, 0, false
	}
	flags := packet[0]
	hdr.ConnectionID = ConnectionID(binary.BigEndian.Uint64(packet[1:9]))
	consumed = 9

	if flags&longHeaderFlag != 0 {
		if len(packet) < consumed+4 {
			return PublicHeader{}, 0, false
		}
		hdr.LongHeader = true
		hdr.Version = Version(binary.BigEndian.Uint32(packet[consumed : consumed+4]))
		consumed += 4
	}
	return hdr, consumed, true
}

// StreamFrame is the subset of a QUIC STREAM frame the extractor
// inspects: which stream it belongs to, its byte offset within that
// stream, and its payload.
type StreamFrame struct {
	StreamID uint64
	Offset   uint64
	Data     []byte
}

const (
	frameTypePadding = 0x00
	frameTypeStream  = 0x01
)

// ParseFrames walks data as a sequence of frames and invokes visit for
// every STREAM frame found. PADDING frames (a single zero byte, used to
// fill out a packet to the minimum size) are skipped. visit returning
// false aborts the walk. ParseFrames returns false on any structural
// decoding error, which the extractor propagates as not-found.
func ParseFrames(data []byte, visit func(StreamFrame) bool) bool {
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		frameType, err := r.ReadByte()
		if err != nil {
			return false
		}
		switch frameType {
		case frameTypePadding:
			continue
		case frameTypeStream:
			streamID, err := quicvarint.Read(r)
			if err != nil {
				return false
			}
			offset, err := quicvarint.Read(r)
			if err != nil {
				return false
			}
			length, err := quicvarint.Read(r)
			if err != nil {
				return false
			}
			if length > uint64(r.Len()) {
				return false
			}
			payload := make([]byte, length)
			if n, err := r.Read(payload); err != nil || uint64(n) != length {
				return false
			}
			if !visit(StreamFrame{StreamID: streamID, Offset: offset, Data: payload}) {
				return false
			}
		default:
			// Unknown frame types are treated as benign; since their
			// length is not self-describing in this simplified wire
			// model, treat the rest of the packet as consumed.
			return true
		}
	}
	return true
}
