package wsframe

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHijackAdapterPrependsLeftoverBytes(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte("after-prelude"))
	}()

	adapter := &hijackAdapter{header: make(map[string][]string), netConn: server, leftover: []byte("buffered-")}
	_, rw, err := adapter.Hijack()
	require.NoError(t, err)

	buf := make([]byte, len("buffered-after-prelude"))
	server.SetReadDeadline(time.Now().Add(time.Second))
	n, err := io.ReadFull(rw.Reader, buf)
	require.NoError(t, err)
	assert.Equal(t, "buffered-after-prelude", string(buf[:n]))
}

func TestHijackAdapterNoLeftover(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte("hello"))
	}()

	adapter := &hijackAdapter{header: make(map[string][]string), netConn: server}
	_, rw, err := adapter.Hijack()
	require.NoError(t, err)

	buf := make([]byte, len("hello"))
	server.SetReadDeadline(time.Now().Add(time.Second))
	n, err := io.ReadFull(rw.Reader, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}
