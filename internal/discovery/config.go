package discovery

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the UDP port devices listen on for probes
	DefaultPort = 30303

	// DefaultTimeout is how long each receive waits for a reply
	DefaultTimeout = 1 * time.Second

	// DefaultBufferSize bounds a single reply; longer datagrams are truncated
	DefaultBufferSize = 256

	// DefaultListenAddr binds the wildcard address on an ephemeral port
	DefaultListenAddr = "0.0.0.0:0"

	// DefaultMaxReadErrors is how many consecutive non-timeout receive
	// errors end a session
	DefaultMaxReadErrors = 8
)

// probe is the payload of the discovery request
const probe = "D"

// DeadlineMode selects how the receive timeout is applied
type DeadlineMode int

const (
	// DeadlinePerCall gives every receive call the full timeout
	DeadlinePerCall DeadlineMode = iota
	// DeadlineGlobal bounds the whole session by one timeout from the probe
	DeadlineGlobal
)

// String returns a human-readable name for the mode
func (m DeadlineMode) String() string {
	switch m {
	case DeadlinePerCall:
		return "per-call"
	case DeadlineGlobal:
		return "global"
	default:
		return fmt.Sprintf("DeadlineMode(%d)", m)
	}
}

// Config holds the settings for one discovery session
type Config struct {
	// Port is the destination port of the probe
	Port int

	// Timeout is the receive window. Zero ends the session at the first
	// receive.
	Timeout time.Duration

	// Target is the probe destination, 255.255.255.255 when nil
	Target net.IP

	// ListenAddr is the local bind address
	ListenAddr string

	// BufferSize is the receive buffer length in bytes
	BufferSize int

	// Deadline selects per-call or global receive deadlines
	Deadline DeadlineMode

	// MaxReadErrors is the consecutive non-timeout receive error limit
	MaxReadErrors int

	// Logger receives debug and warning output; the package logger when nil
	Logger *zap.Logger

	// Metrics is optional
	Metrics *Metrics
}

// DefaultConfig returns the configuration used when no flags are given
func DefaultConfig() Config {
	return Config{
		Port:          DefaultPort,
		Timeout:       DefaultTimeout,
		Target:        net.IPv4bcast,
		ListenAddr:    DefaultListenAddr,
		BufferSize:    DefaultBufferSize,
		Deadline:      DeadlinePerCall,
		MaxReadErrors: DefaultMaxReadErrors,
	}
}

// WithDefaults fills unset fields. Timeout is left alone since zero is a
// meaningful value.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Target == nil {
		c.Target = net.IPv4bcast
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MaxReadErrors <= 0 {
		c.MaxReadErrors = DefaultMaxReadErrors
	}
	return c
}

// Validate checks the configuration for values the session cannot use
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %v: must not be negative", c.Timeout)
	}
	if c.Target != nil && c.Target.To4() == nil {
		return fmt.Errorf("invalid target %v: must be an IPv4 address", c.Target)
	}
	if c.Deadline != DeadlinePerCall && c.Deadline != DeadlineGlobal {
		return fmt.Errorf("invalid deadline mode %v", c.Deadline)
	}
	return nil
}

// TargetAddr returns the probe destination address
func (c Config) TargetAddr() *net.UDPAddr {
	target := c.Target
	if target == nil {
		target = net.IPv4bcast
	}
	return &net.UDPAddr{IP: target, Port: c.Port}
}
