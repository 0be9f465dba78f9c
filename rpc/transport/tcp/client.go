package tcp

import (
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/ValentinKolb/kvcache/rpc/transport/base"
	"net"
	"strings"
	"time"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", strings.TrimPrefix(endpoint, "tcp://"), timeout)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn) error {
	return tune(conn)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPClientTransport creates a new TCP client transport.
// Endpoints are host:port, optionally prefixed with tcp://
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
