package chlo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelegate struct {
	calls []HandshakeMessage
	conns []ConnectionID
}

func (d *recordingDelegate) OnChlo(version Version, connID ConnectionID, msg HandshakeMessage) {
	d.calls = append(d.calls, msg)
	d.conns = append(d.conns, connID)
}

func buildChloPacket(t *testing.T, connID uint64, streamID uint64, chlo []byte) []byte {
	t.Helper()
	packet := buildShortHeaderPacket(connID)
	packet = append(packet, buildStreamFrame(streamID, 0, chlo)...)
	return packet
}

func TestExtractFindsValidChlo(t *testing.T) {
	ver := QuicTag{'V', 'E', 'R', ' '}
	chlo := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{ver: []byte("Q046")}, []QuicTag{ver})
	packet := buildChloPacket(t, 7, cryptoStreamID, chlo)

	d := &recordingDelegate{}
	found := Extract(packet, nil, nil, d)

	assert.True(t, found)
	require.Len(t, d.calls, 1)
	assert.Equal(t, ConnectionID(7), d.conns[0])
	assert.Equal(t, "Q046", string(d.calls[0].Values[ver]))
}

func TestExtractWrongStreamIsNotFound(t *testing.T) {
	chlo := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{}, nil)
	packet := buildChloPacket(t, 7, 1, chlo)

	d := &recordingDelegate{}
	found := Extract(packet, nil, nil, d)

	assert.False(t, found)
	assert.Empty(t, d.calls)
}

func TestExtractShortPacketIsNotFound(t *testing.T) {
	d := &recordingDelegate{}
	found := Extract([]byte{0x00, 0x01}, nil, nil, d)
	assert.False(t, found)
	assert.Empty(t, d.calls)
}

func TestExtractPartialChloWithIndicatorTagStillDispatches(t *testing.T) {
	pad := QuicTag{'P', 'A', 'D', ' '}
	ver := QuicTag{'V', 'E', 'R', ' '}
	full := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{
		pad: []byte("indicator-value"),
		ver: []byte("Q046"),
	}, []QuicTag{pad, ver})
	truncated := full[:len(full)-2] // drop the tail of the "ver" value

	packet := buildChloPacket(t, 3, cryptoStreamID, truncated)

	d := &recordingDelegate{}
	found := Extract(packet, nil, []QuicTag{pad}, d)

	assert.True(t, found)
	require.Len(t, d.calls, 1)
}

func TestExtractIsPureAcrossRepeatedCalls(t *testing.T) {
	ver := QuicTag{'V', 'E', 'R', ' '}
	chlo := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{ver: []byte("Q046")}, []QuicTag{ver})
	packet := buildChloPacket(t, 9, cryptoStreamID, chlo)

	d1, d2 := &recordingDelegate{}, &recordingDelegate{}
	found1 := Extract(packet, nil, nil, d1)
	found2 := Extract(packet, nil, nil, d2)

	assert.Equal(t, found1, found2)
	assert.Equal(t, d1.calls, d2.calls)
}

func TestExtractUnsupportedVersionIsNotFound(t *testing.T) {
	packet := buildShortHeaderPacket(1)
	packet[0] = longHeaderFlag
	packet = append(packet, 0x00, 0x00, 0x00, 0x02)

	d := &recordingDelegate{}
	found := Extract(packet, []Version{1}, nil, d)
	assert.False(t, found)
}
