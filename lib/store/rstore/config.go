package rstore

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultAddr        = "localhost:6379"
	defaultDialTimeout = 5 * time.Second
	defaultOpTimeout   = 3 * time.Second
)

// Config holds the connection parameters for a Redis server
type Config struct {
	Addr        string        // host:port of the server
	Password    string        // optional password
	DB          int           // logical database (FLUSHDB only clears this one)
	DialTimeout time.Duration // timeout for establishing connections
	OpTimeout   time.Duration // timeout for a single operation
	MaxRetries  int           // retries of the redis client (0 = client default)
}

// withDefaults fills in zero values
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = defaultOpTimeout
	}
	return c
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	sb.WriteString("\nREDIS\n")
	addField("Address", c.Addr)
	addField("Database", fmt.Sprintf("%d", c.DB))
	addField("Password", map[bool]string{true: "set", false: "not set"}[c.Password != ""])
	addField("Dial Timeout", c.DialTimeout.String())
	addField("Operation Timeout", c.OpTimeout.String())

	return sb.String()
}
