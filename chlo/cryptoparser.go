package chlo

import "encoding/binary"

// CryptoParser turns the bytes of a purported CHLO stream frame into a
// HandshakeMessage. The cryptographic parser internals are modelled as
// an abstract frame visitor — this interface is that abstraction.
type CryptoParser interface {
	// Parse attempts to decode data as a (possibly partial) handshake
	// message. ok is false on structural failure, which the extractor
	// propagates as not-found. complete is true once every tag's value
	// is fully present.
	Parse(data []byte) (msg HandshakeMessage, complete bool, ok bool)
}

// defaultCryptoParser decodes the flat tag/end-offset/value table gQUIC
// uses for its handshake messages: a 4-byte tag, a 2-byte entry count,
// 2 bytes of reserved padding, then one (tag, cumulative end offset)
// pair per entry, followed by the concatenated values blob.
type defaultCryptoParser struct{}

const cryptoHeaderLen = 4 + 2 + 2
const cryptoEntryLen = 4 + 4

func (defaultCryptoParser) Parse(data []byte) (HandshakeMessage, bool, bool) {
	if len(data) < cryptoHeaderLen {
		return HandshakeMessage{}, false, false
	}

	var tag QuicTag
	copy(tag[:], data[0:4])
	numEntries := binary.LittleEndian.Uint16(data[4:6])

	tableLen := cryptoHeaderLen + int(numEntries)*cryptoEntryLen
	if len(data) < tableLen {
		// Not even the entry table has arrived yet.
		return HandshakeMessage{Tag: tag, Values: map[QuicTag][]byte{}}, false, true
	}

	values := make(map[QuicTag][]byte, numEntries)
	blobStart := tableLen
	prevEnd := 0
	complete := true
	for i := 0; i < int(numEntries); i++ {
		entryOff := cryptoHeaderLen + i*cryptoEntryLen
		var entryTag QuicTag
		copy(entryTag[:], data[entryOff:entryOff+4])
		endOffset := int(binary.LittleEndian.Uint32(data[entryOff+4 : entryOff+8]))
		if endOffset < prevEnd {
			// Cumulative end offsets must be non-decreasing; a table that
			// violates this is malformed, not merely incomplete.
			return HandshakeMessage{}, false, false
		}

		valueStart := blobStart + prevEnd
		valueEnd := blobStart + endOffset
		if valueEnd > len(data) {
			complete = false
			if valueStart < len(data) {
				values[entryTag] = data[valueStart:len(data)]
			}
			prevEnd = endOffset
			continue
		}
		values[entryTag] = data[valueStart:valueEnd]
		prevEnd = endOffset
	}

	return HandshakeMessage{Tag: tag, Values: values}, complete, true
}
