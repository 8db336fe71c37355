package transport

import (
	"time"

	"github.com/radarmesh/pointstream/reassembly"
	"github.com/radarmesh/pointstream/status"
)

// SessionConfig describes a scoped acquisition of a receive session: the
// UDP port to bind, the per-read timeout, whether to fail fast if no
// packet is observable, and the context array the caller has already
// initialized to route received datagrams into.
type SessionConfig struct {
	// Port is the UDP port to bind; 0 selects an OS-assigned port.
	Port int

	// ReceiveTimeout bounds each ReadFromUDP call; 0 means blocking reads.
	ReceiveTimeout time.Duration

	// ProbeFirst, when true, makes Open fail fast with status.Timeout if
	// no packet is observable within ReceiveTimeout on the first read,
	// instead of leaving the caller to discover that on its own first
	// Receive call.
	ProbeFirst bool

	// Contexts is the pre-initialized array of reassembly contexts that
	// datagrams received on this session will be routed into.
	Contexts []*reassembly.Context
}

// DefaultSessionConfig returns a SessionConfig with OS-assigned port,
// blocking reads, and no probe.
func DefaultSessionConfig(contexts []*reassembly.Context) SessionConfig {
	return SessionConfig{Contexts: contexts}
}

// Validate checks that cfg is acceptable to Open.
func (cfg SessionConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return status.Err(status.Argument, "port %d out of range", cfg.Port)
	}
	if cfg.ReceiveTimeout < 0 {
		return status.Err(status.Argument, "receive timeout must be non-negative, got %v", cfg.ReceiveTimeout)
	}
	if len(cfg.Contexts) == 0 {
		return status.Err(status.Argument, "session requires at least one reassembly context")
	}
	return nil
}
