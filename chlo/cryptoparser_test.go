package chlo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCryptoMessage(t *testing.T, tag QuicTag, entries map[QuicTag][]byte, order []QuicTag) []byte {
	t.Helper()
	require.Len(t, order, len(entries))

	header := make([]byte, cryptoHeaderLen)
	copy(header[0:4], tag[:])
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(order)))

	var table []byte
	var blob []byte
	offset := 0
	for _, et := range order {
		v := entries[et]
		offset += len(v)
		entry := make([]byte, cryptoEntryLen)
		copy(entry[0:4], et[:])
		binary.LittleEndian.PutUint32(entry[4:8], uint32(offset))
		table = append(table, entry...)
		blob = append(blob, v...)
	}

	out := append(header, table...)
	out = append(out, blob...)
	return out
}

func TestDefaultCryptoParserDecodesCompleteMessage(t *testing.T) {
	ver := QuicTag{'V', 'E', 'R', ' '}
	scid := QuicTag{'S', 'C', 'I', 'D'}
	data := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{
		ver:  []byte("Q046"),
		scid: []byte{1, 2, 3, 4},
	}, []QuicTag{ver, scid})

	p := defaultCryptoParser{}
	msg, complete, ok := p.Parse(data)
	require.True(t, ok)
	require.True(t, complete)
	assert.Equal(t, ChloTag, msg.Tag)
	assert.Equal(t, "Q046", string(msg.Values[ver]))
	assert.Equal(t, []byte{1, 2, 3, 4}, msg.Values[scid])
}

func TestDefaultCryptoParserTruncatedBlobIsIncomplete(t *testing.T) {
	ver := QuicTag{'V', 'E', 'R', ' '}
	full := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{ver: []byte("Q046")}, []QuicTag{ver})
	truncated := full[:len(full)-2]

	p := defaultCryptoParser{}
	_, complete, ok := p.Parse(truncated)
	require.True(t, ok)
	assert.False(t, complete)
}

func TestDefaultCryptoParserTooShortForHeaderFails(t *testing.T) {
	p := defaultCryptoParser{}
	_, _, ok := p.Parse([]byte("CH"))
	assert.False(t, ok)
}

func TestDefaultCryptoParserDecreasingOffsetFails(t *testing.T) {
	ver := QuicTag{'V', 'E', 'R', ' '}
	scid := QuicTag{'S', 'C', 'I', 'D'}
	data := buildCryptoMessage(t, ChloTag, map[QuicTag][]byte{
		ver:  []byte("Q046"),
		scid: []byte{1, 2, 3, 4},
	}, []QuicTag{ver, scid})

	// Corrupt the second entry's cumulative end offset to be smaller than
	// the first's, instead of growing monotonically.
	secondEntryOff := cryptoHeaderLen + cryptoEntryLen
	binary.LittleEndian.PutUint32(data[secondEntryOff+4:secondEntryOff+8], 0)

	p := defaultCryptoParser{}
	_, _, ok := p.Parse(data)
	assert.False(t, ok)
}
