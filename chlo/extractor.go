package chlo

import "bytes"

// cryptoStreamID is the well-known gQUIC stream reserved for handshake
// messages.
const cryptoStreamID = 0

// Extract is a pure function of its inputs: it walks packet looking for
// a CHLO on the crypto stream at offset 0 and reports it to delegate.
// It never mutates its arguments and produces identical delegate
// invocations and return value for identical inputs.
func Extract(packet []byte, versions []Version, createSessionTagIndicators []QuicTag, delegate Delegate) bool {
	hdr, n, ok := ParsePublicHeader(packet)
	if !ok {
		return false
	}
	if hdr.LongHeader && !versionSupported(hdr.Version, versions) {
		return false
	}

	v := &chloVisitor{
		connectionID: hdr.ConnectionID,
		version:      hdr.Version,
		indicators:   createSessionTagIndicators,
		delegate:     delegate,
		parser:       defaultCryptoParser{},
	}
	if !ParseFrames(packet[n:], v.onStreamFrame) {
		return false
	}
	return v.foundCHLO || v.chloContainsTags
}

func versionSupported(v Version, supported []Version) bool {
	if len(supported) == 0 {
		return true
	}
	for _, s := range supported {
		if s == v {
			return true
		}
	}
	return false
}

// chloVisitor is the stream-frame visitor driving extraction: it
// rejects frames on any stream but the crypto stream as benign, and on
// the crypto stream drives a CryptoParser over the frame's payload once
// it has confirmed the "CHLO" tag prefix.
type chloVisitor struct {
	connectionID ConnectionID
	version      Version
	indicators   []QuicTag
	delegate     Delegate
	parser       CryptoParser

	foundCHLO        bool
	chloContainsTags bool
}

func (v *chloVisitor) onStreamFrame(frame StreamFrame) bool {
	if frame.StreamID != cryptoStreamID || frame.Offset != 0 {
		return true
	}
	if len(frame.Data) < 4 || !bytes.Equal(frame.Data[:4], ChloTag[:]) {
		return true
	}

	msg, complete, ok := v.parser.Parse(frame.Data)
	if !ok {
		return false
	}

	for _, tag := range v.indicators {
		if msg.HasTag(tag) {
			v.chloContainsTags = true
		}
	}

	switch {
	case complete:
		if v.delegate != nil {
			v.delegate.OnChlo(v.version, v.connectionID, msg)
		}
		v.foundCHLO = true
	case v.chloContainsTags && v.delegate != nil:
		// A partial, multi-packet CHLO that already carries an indicator
		// tag: force through whatever handshake material is available so
		// the delegate can react early.
		v.delegate.OnChlo(v.version, v.connectionID, msg)
	}
	return true
}
