package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/cenkalti/backoff/v5"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	defaultTimeout      = 5 * time.Second
	retryInitialBackoff = 10 * time.Millisecond
	retryMaxBackoff     = 500 * time.Millisecond
)

var (
	// ErrClosed is returned by Send after Close
	ErrClosed = errors.New("transport closed")
	// ErrConnectionLost is returned for requests whose connection broke before the response arrived
	ErrConnectionLost = errors.New("connection lost")
	// ErrTimeout is returned if no response arrived within the configured timeout
	ErrTimeout = errors.New("request timed out")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection is one connection with its response reader
type clientConnection struct {
	conn     net.Conn
	endpoint string
	requests *xsync.MapOf[uint64, chan responseResult]
	writeMu  sync.Mutex    // serializes frame writes
	dead     chan struct{} // closed when the reader stopped
	deadOnce sync.Once
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.).
// The endpoints are alternatives: all requests use one connection to the active endpoint
// and only a failed connect moves on to the next endpoint.
type clientTransport struct {
	connector     IClientConnector
	endpoints     []string
	timeout       time.Duration
	retryCount    int
	mu            sync.Mutex // guards conn, active and closed
	conn          *clientConnection
	active        int
	closed        bool
	nextRequestID atomic.Uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}

	timeout := config.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	t.mu.Lock()
	t.dropConnection()
	t.endpoints = config.Endpoints
	t.timeout = timeout
	t.retryCount = max(config.RetryCount, 1)
	t.active = 0
	t.closed = false
	t.mu.Unlock()

	// Try every endpoint once
	var errs []error
	for range config.Endpoints {
		if _, err := t.connection(); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to connect to any endpoint: %w", errors.Join(errs...))
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	requestID := t.nextRequestID.Add(1)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialBackoff
	b.MaxInterval = retryMaxBackoff

	// Only connect errors are retried, once a frame was written the request is never sent again
	return backoff.Retry(context.Background(), func() ([]byte, error) {
		conn, err := t.connection()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		resp, err := conn.roundTrip(shardId, requestID, req, t.timeout)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(t.retryCount, 1))),
	)
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.dropConnection()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// connection returns the connection to the active endpoint and dials it if needed.
// If the dial fails, the next endpoint becomes active.
func (t *clientTransport) connection() (*clientConnection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || len(t.endpoints) == 0 {
		return nil, ErrClosed
	}
	if t.conn != nil && t.conn.alive() {
		return t.conn, nil
	}
	t.dropConnection()

	endpoint := t.endpoints[t.active]
	conn, err := t.connector.Connect(endpoint, t.timeout)
	if err == nil {
		if err = t.connector.UpgradeConnection(conn); err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		next := (t.active + 1) % len(t.endpoints)
		if next != t.active {
			Logger.Warningf("%s endpoint %s unreachable, failing over to %s: %v", t.connector.GetName(), endpoint, t.endpoints[next], err)
		}
		t.active = next
		return nil, err
	}

	c := &clientConnection{
		conn:     conn,
		endpoint: endpoint,
		requests: xsync.NewMapOf[uint64, chan responseResult](),
		dead:     make(chan struct{}),
	}
	go c.readResponses()
	t.conn = c

	Logger.Infof("connected to %s using %s transport", endpoint, t.connector.GetName())
	return c, nil
}

// dropConnection closes the current connection, t.mu must be held
func (t *clientTransport) dropConnection() {
	if t.conn != nil {
		t.conn.close()
		t.conn = nil
	}
}

// roundTrip writes one request frame and waits for the response with the same request ID
func (c *clientConnection) roundTrip(shardId, requestID uint64, req []byte, timeout time.Duration) ([]byte, error) {
	respCh := make(chan responseResult, 1)
	c.requests.Store(requestID, respCh)
	defer c.requests.Delete(requestID)

	c.writeMu.Lock()
	err := c.conn.SetWriteDeadline(time.Now().Add(timeout))
	if err == nil {
		err = writeFrame(c.conn, shardId, requestID, req)
	}
	c.writeMu.Unlock()
	if err != nil {
		// a partially written frame leaves the stream unusable
		c.close()
		return nil, fmt.Errorf("write request to %s: %w", c.endpoint, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-c.dead:
		// the reader may have delivered the response right before it stopped
		select {
		case result := <-respCh:
			return result.data, result.err
		default:
			return nil, fmt.Errorf("%w: %s", ErrConnectionLost, c.endpoint)
		}
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// readResponses reads responses until the connection breaks and hands them to the waiting requests
func (c *clientConnection) readResponses() {
	defer c.close()

	header := make([]byte, headerSize)
	for {
		_, requestID, data, err := readFrame(c.conn, header)
		if err != nil {
			select {
			case <-c.dead:
			default:
				Logger.Warningf("connection to %s lost: %v", c.endpoint, err)
			}
			return
		}

		respCh, found := c.requests.Load(requestID)
		if !found {
			// the request timed out in the meantime
			Logger.Debugf("dropping response for unknown request ID %d from %s", requestID, c.endpoint)
			continue
		}
		respCh <- responseResult{data: data}
	}
}

func (c *clientConnection) alive() bool {
	select {
	case <-c.dead:
		return false
	default:
		return true
	}
}

func (c *clientConnection) close() {
	c.deadOnce.Do(func() {
		close(c.dead)
		_ = c.conn.Close()
	})
}
