package base

import (
	"bytes"
	"context"
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenerConnector serves on a listener created by the test
type listenerConnector struct {
	listener net.Listener
}

func (c *listenerConnector) Listen(common.ServerConfig) (net.Listener, error) { return c.listener, nil }
func (c *listenerConnector) GetName() string                                  { return "test" }
func (c *listenerConnector) UpgradeConnection(net.Conn) error                 { return nil }

type dialConnector struct{}

func (dialConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}
func (dialConnector) GetName() string                  { return "test" }
func (dialConnector) UpgradeConnection(net.Conn) error { return nil }

// startServer serves handler until the test ends and returns the address
func startServer(t *testing.T, handler transport.ServerHandleFunc) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	tr := NewBaseServerTransport(&listenerConnector{listener: l}, 4)
	tr.RegisterHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Listen(ctx, common.ServerConfig{TimeoutSecond: 5})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Listen did not return after cancel")
		}
	})
	return l.Addr().String()
}

func newClient(t *testing.T, endpoints ...string) transport.IRPCClientTransport {
	c := NewBaseClientTransport(dialConnector{})
	require.NoError(t, c.Connect(common.ClientConfig{Endpoints: endpoints, TimeoutSecond: 1, RetryCount: 3}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func echo(shardId uint64, req []byte) []byte {
	return append([]byte(fmt.Sprintf("%d:", shardId)), req...)
}

// deadAddr returns an address nothing listens on
func deadAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte("x"), 1000)
	go func() {
		_ = writeFrame(client, 7, 42, payload)
		_ = writeFrame(client, 8, 43, nil)
	}()

	header := make([]byte, headerSize)
	shardID, requestID, data, err := readFrame(server, header)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), shardID)
	assert.Equal(t, uint64(42), requestID)
	assert.Equal(t, payload, data)

	shardID, requestID, data, err = readFrame(server, header)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), shardID)
	assert.Equal(t, uint64(43), requestID)
	assert.Empty(t, data)
}

func TestConcurrentRequests(t *testing.T) {
	c := newClient(t, startServer(t, echo))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []byte(fmt.Sprintf("req-%d", i))
			resp, err := c.Send(uint64(i), req)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d:req-%d", i, i), string(resp))
		}(i)
	}
	wg.Wait()
}

func TestFailoverOnConnectError(t *testing.T) {
	var hits atomic.Int32
	addr := startServer(t, func(shardId uint64, req []byte) []byte {
		hits.Add(1)
		return echo(shardId, req)
	})

	c := newClient(t, deadAddr(t), addr)
	for i := 0; i < 3; i++ {
		resp, err := c.Send(1, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "1:x", string(resp))
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestStaysOnActiveEndpoint(t *testing.T) {
	var hitsA, hitsB atomic.Int32
	a := startServer(t, func(_ uint64, req []byte) []byte { hitsA.Add(1); return req })
	b := startServer(t, func(_ uint64, req []byte) []byte { hitsB.Add(1); return req })

	c := newClient(t, a, b)
	for i := 0; i < 5; i++ {
		_, err := c.Send(1, []byte("x"))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), hitsA.Load())
	assert.Zero(t, hitsB.Load())
}

func TestTimeoutIsNotResent(t *testing.T) {
	var hits atomic.Int32
	addr := startServer(t, func(_ uint64, req []byte) []byte {
		hits.Add(1)
		time.Sleep(1500 * time.Millisecond)
		return req
	})

	c := newClient(t, addr)
	_, err := c.Send(1, []byte("incr"))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), hits.Load())
}

func TestConnectFailsWithoutEndpoint(t *testing.T) {
	c := NewBaseClientTransport(dialConnector{})
	assert.Error(t, c.Connect(common.ClientConfig{}))
	assert.Error(t, c.Connect(common.ClientConfig{Endpoints: []string{deadAddr(t)}, TimeoutSecond: 1}))
}

func TestSendAfterClose(t *testing.T) {
	c := newClient(t, startServer(t, echo))
	require.NoError(t, c.Close())

	_, err := c.Send(1, []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}
