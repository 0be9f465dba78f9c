package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/cenkalti/backoff/v5"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout      = 5 * time.Second
	retryInitialBackoff = 10 * time.Millisecond
	retryMaxBackoff     = 500 * time.Millisecond
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	active     atomic.Uint32 // index of the endpoint all requests go to
	retryCount int
	timeout    time.Duration
}

// StatusError is returned by Send if the server answered with a non 200 status
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: %s", e.Status)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}

	// Parse each server URL
	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		if parsedURL.Scheme == "" || parsedURL.Host == "" {
			return fmt.Errorf("invalid endpoint %q: expected http://host:port", server)
		}
		parsedURLs[i] = parsedURL
	}

	timeout := config.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// Create client with its own transport
	t.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.serverURLs = parsedURLs
	t.active.Store(0)
	t.retryCount = max(config.RetryCount, 1)
	t.timeout = timeout

	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	// Check if the transport is initialized
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialBackoff
	b.MaxInterval = retryMaxBackoff

	// All requests go to the active endpoint. Only if it can not be reached the next one becomes active.
	// A request that may have reached a server is never sent again, it could have been applied already.
	return backoff.Retry(context.Background(), func() ([]byte, error) {
		idx := t.active.Load()
		resp, err := t.send(t.serverURLs[idx], shardId, req)
		if err == nil {
			return resp, nil
		}
		if !isConnectError(err) {
			return nil, backoff.Permanent(err)
		}
		next := (idx + 1) % uint32(len(t.serverURLs))
		if t.active.CompareAndSwap(idx, next) && next != idx {
			Logger.Warningf("endpoint %s unreachable, failing over to %s: %v", t.serverURLs[idx], t.serverURLs[next], err)
		}
		return nil, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(t.retryCount)),
		backoff.WithMaxElapsedTime(t.timeout*time.Duration(t.retryCount)),
	)
}

func (t *httpClientTransport) Close() error {
	// Close the client
	if t.client != nil {
		t.client.CloseIdleConnections()
	}

	// Reset the client and server URLs
	t.client = nil
	t.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// send performs a single request
func (t *httpClientTransport) send(serverURL *url.URL, shardId uint64, req []byte) ([]byte, error) {
	requestURL := serverURL.JoinPath(fmt.Sprintf("%d", shardId)).String()

	httpResponse, err := t.client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	// Check if the response status code is OK
	if httpResponse.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: httpResponse.StatusCode, Status: httpResponse.Status}
	}

	// Read the response body
	return io.ReadAll(httpResponse.Body)
}

// isConnectError reports whether err happened before a connection to the server existed
func isConnectError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
