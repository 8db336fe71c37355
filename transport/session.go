package transport

import (
	"errors"
	"net"
	"time"

	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/reassembly"
	"github.com/radarmesh/pointstream/status"
)

// Session is a scoped, open receive session: one bound UDP socket plus the
// reassembly context array packets are routed into. Every Open must be
// paired with a Close on every exit path.
type Session struct {
	socket UDPSocket
	cfg    SessionConfig
}

// Open acquires a receive session per cfg using factory to create the
// underlying socket. If cfg.ProbeFirst is set, Open performs one read
// attempt and returns status.Timeout if nothing arrives within
// cfg.ReceiveTimeout.
func Open(factory UDPSocketFactory, cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	socket, err := factory.ListenUDP("udp", &net.UDPAddr{Port: cfg.Port})
	if err != nil {
		return nil, status.Err(status.Argument, "open UDP session: %v", err)
	}

	s := &Session{socket: socket, cfg: cfg}

	if cfg.ProbeFirst {
		var probe [protocol.MaxDatagramPayload]byte
		if _, _, err := s.Receive(probe[:]); err != nil {
			if errors.Is(err, status.Timeout) {
				_ = socket.Close()
				return nil, err
			}
		}
	}

	return s, nil
}

// Close releases the session's socket. Safe to call once per Open.
func (s *Session) Close() error {
	return s.socket.Close()
}

// Receive reads one datagram into buf, applying cfg.ReceiveTimeout as the
// read deadline (a zero timeout means blocking). A read that times out is
// reported as status.Timeout.
func (s *Session) Receive(buf []byte) (int, *net.UDPAddr, error) {
	var deadline time.Time
	if s.cfg.ReceiveTimeout > 0 {
		deadline = time.Now().Add(s.cfg.ReceiveTimeout)
	}
	if err := s.socket.SetReadDeadline(deadline); err != nil {
		return 0, nil, status.Err(status.Argument, "set read deadline: %v", err)
	}

	n, addr, err := s.socket.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, status.Err(status.Timeout, "no packet received")
		}
		return 0, nil, err
	}
	return n, addr, nil
}

// ReceiveAndRoute reads one datagram and dispatches it as a point-cloud
// fragment or ego-motion packet into s.cfg.Contexts via the multi-radar
// router: a point-cloud attempt first (its own packet_type check Skips
// cleanly on a type mismatch), falling back to an ego-motion attempt.
func (s *Session) ReceiveAndRoute(buf []byte) (status.Status, error) {
	n, _, err := s.Receive(buf)
	if err != nil {
		if errors.Is(err, status.Timeout) {
			return status.Timeout, err
		}
		return status.Ok, err
	}
	packet := buf[:n]

	result, err := reassembly.HandleFragmentMulti(s.cfg.Contexts, packet)
	if result != status.Skipped || err != nil {
		return result, err
	}
	return reassembly.HandleEgoMotionMulti(s.cfg.Contexts, packet)
}
