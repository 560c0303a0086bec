// Package chlo implements a stateless QUIC-packet framer visitor: given
// an encrypted gQUIC packet, it finds a Client Hello (CHLO) handshake
// message on the crypto stream and hands it to a Delegate. The deeper
// cryptographic parser internals are modelled as an abstract frame
// visitor; CryptoParser below is that abstraction, with one concrete
// implementation good enough to drive the extractor end to end.
package chlo

// Version is a negotiated QUIC transport version.
type Version uint32

// ConnectionID identifies a QUIC connection across packets.
type ConnectionID uint64

// QuicTag is a 4-byte tag identifying a handshake field or message
// type, e.g. the literal bytes "CHLO".
type QuicTag [4]byte

// ChloTag is the tag that opens a Client Hello handshake message.
var ChloTag = QuicTag{'C', 'H', 'L', 'O'}

func (t QuicTag) String() string { return string(t[:]) }

// HandshakeMessage is a decoded crypto handshake message: its message
// tag plus the flat tag -> value table carried in its body.
type HandshakeMessage struct {
	Tag    QuicTag
	Values map[QuicTag][]byte
}

// HasTag reports whether the message carries the given value tag.
func (m HandshakeMessage) HasTag(tag QuicTag) bool {
	_, ok := m.Values[tag]
	return ok
}

// Delegate receives a decoded CHLO: its transport version, connection
// id, and the decoded handshake message itself.
type Delegate interface {
	OnChlo(version Version, connID ConnectionID, msg HandshakeMessage)
}
