package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultWorkersPerConn is the number of requests of one connection handled at the same time
const DefaultWorkersPerConn = 64

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector         IServerConnector
	handler           transport.ServerHandleFunc
	maxWorkersPerConn int
	conns             *xsync.MapOf[net.Conn, struct{}]
	requests          *metrics.Counter
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with a per-connection worker limit
func NewBaseServerTransport(connector IServerConnector, maxWorkersPerConn int) transport.IRPCServerTransport {
	return &serverTransport{
		connector:         connector,
		maxWorkersPerConn: max(maxWorkersPerConn, 1),
		conns:             xsync.NewMapOf[net.Conn, struct{}](),
		requests:          metrics.GetOrCreateCounter(fmt.Sprintf(`kvcache_rpc_frames_total{transport=%q}`, connector.GetName())),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), listener.Addr(), t.maxWorkersPerConn)

	// stop accepting and close all connections once ctx is done
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			Logger.Infof("Shutting down %s server", t.connector.GetName())
		case <-stopped:
		}
		_ = listener.Close()
		t.conns.Range(func(conn net.Conn, _ struct{}) bool {
			_ = conn.Close()
			return true
		})
	}()

	var wg sync.WaitGroup
	defer func() {
		close(stopped)
		wg.Wait()
	}()

	timeout := config.Timeout()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := t.connector.UpgradeConnection(conn); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		t.conns.Store(conn, struct{}{})
		if ctx.Err() != nil {
			_ = conn.Close()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer t.conns.Delete(conn)
			t.handleConnection(conn, timeout)
		}()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection reads request frames until the connection closes.
// Requests are handled concurrently, responses carry the request ID of their request.
func (t *serverTransport) handleConnection(conn net.Conn, timeout time.Duration) {
	defer conn.Close()

	// counting semaphore limiting the concurrent workers of this connection
	workerSemaphore := make(chan struct{}, t.maxWorkersPerConn)
	var wg sync.WaitGroup
	var writeMu sync.Mutex

	respond := func(shardID, requestID uint64, data []byte) {
		defer func() {
			<-workerSemaphore
			wg.Done()
		}()

		start := time.Now()
		resp := t.handler(shardID, data)
		Logger.Debugf("Processed request %d for shard %d in %s", requestID, shardID, time.Since(start))

		writeMu.Lock()
		defer writeMu.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, shardID, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
		}
	}

	header := make([]byte, headerSize)
	for {
		shardID, requestID, data, err := readFrame(conn, header)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				Logger.Warningf("Error reading request from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}
		t.requests.Inc()

		workerSemaphore <- struct{}{}
		wg.Add(1)
		go respond(shardID, requestID, data)
	}

	// in-flight requests still answer (or fail to) before the connection is closed
	wg.Wait()
}
