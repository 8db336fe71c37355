// Package modecmd implements the mode-change command: a one-shot,
// out-of-band request/acknowledgement exchange that asks a radar (or the
// broadcast address, for a fleet-wide change) to switch operating mode.
// It is not part of the reassembly/accumulation core — it opens its own
// socket, independent of any receive loop already running against the
// core.
package modecmd

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radarmesh/pointstream/internal/sink"
	"github.com/radarmesh/pointstream/internal/timeutil"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
	"github.com/radarmesh/pointstream/transport"
)

const (
	// DefaultRetries is the number of retries after the first attempt,
	// i.e. up to DefaultRetries+1 requests are sent before giving up.
	DefaultRetries = 5
	// DefaultPerAttemptTimeout bounds how long each attempt waits for a
	// matching ACK before retrying.
	DefaultPerAttemptTimeout = 250 * time.Millisecond
)

// Request describes one mode-change command to send.
type Request struct {
	// Addr is the destination "host:port". A substring "255" (e.g.
	// "255.255.255.255:7001") marks it a broadcast address, auto-enabling
	// SO_BROADCAST on the outbound socket.
	Addr string

	MountPosition protocol.MountPosition
	RequestedMode protocol.RadarMode

	// Retries is the number of retries after the first attempt; 0
	// selects DefaultRetries.
	Retries int
	// PerAttemptTimeout bounds each attempt's ACK wait; 0 selects
	// DefaultPerAttemptTimeout.
	PerAttemptTimeout time.Duration
}

func isBroadcastAddr(addr string) bool {
	return strings.Contains(addr, "255")
}

func statusForErrorCode(code protocol.SetModeErrorCode) status.Status {
	switch code {
	case protocol.SetModeNotPermitted:
		return status.NotPermitted
	default:
		return status.Protocol
	}
}

// Send opens a fresh UDP socket via factory, sends req's set-mode request
// to req.Addr, and waits for a matching ACK, retrying on a per-attempt
// timeout up to req.Retries times. It returns the validated ACK on
// success; on the final timeout it returns a status.Timeout error; on an
// ACK with a nonzero error code it returns that ACK alongside an error
// carrying the corresponding status (e.g. status.NotPermitted).
func Send(factory transport.UDPSocketFactory, clock timeutil.Clock, req Request) (protocol.SetModeAck, error) {
	retries := req.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	timeout := req.PerAttemptTimeout
	if timeout <= 0 {
		timeout = DefaultPerAttemptTimeout
	}

	raddr, err := net.ResolveUDPAddr("udp", req.Addr)
	if err != nil {
		return protocol.SetModeAck{}, status.Err(status.Argument, "resolve mode-command address %q: %v", req.Addr, err)
	}

	socket, err := factory.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return protocol.SetModeAck{}, status.Err(status.Argument, "open mode-command socket: %v", err)
	}
	defer socket.Close()

	if isBroadcastAddr(req.Addr) {
		if err := socket.SetBroadcast(true); err != nil {
			return protocol.SetModeAck{}, status.Err(status.Argument, "enable broadcast on mode-command socket: %v", err)
		}
	}

	corrID := uuid.New().String()
	reqPacket := protocol.EncodeSetModeRequest(protocol.SetModeRequest{
		MountPosition: req.MountPosition,
		RequestedMode: req.RequestedMode,
	})

	buf := make([]byte, protocol.MaxDatagramPayload)

	for attempt := 0; attempt <= retries; attempt++ {
		if _, err := socket.WriteToUDP(reqPacket, raddr); err != nil {
			return protocol.SetModeAck{}, status.Err(status.Argument, "send set-mode request: %v", err)
		}
		sink.Warnf("mode-command %s: sent set-mode request, mount %s -> mode %s, attempt %d/%d",
			corrID, req.MountPosition, req.RequestedMode, attempt+1, retries+1)

		deadline := clock.Now().Add(timeout)
		if err := socket.SetReadDeadline(deadline); err != nil {
			return protocol.SetModeAck{}, status.Err(status.Argument, "set read deadline: %v", err)
		}

		ack, matched, err := waitForAck(socket, buf, req, corrID)
		if err != nil {
			return protocol.SetModeAck{}, err
		}
		if !matched {
			continue
		}
		if ack.ErrorCode != protocol.SetModeSuccess {
			return ack, status.Err(statusForErrorCode(ack.ErrorCode), "set-mode rejected for mount %s: error code %d", req.MountPosition, ack.ErrorCode)
		}
		return ack, nil
	}

	return protocol.SetModeAck{}, status.Err(status.Timeout, "mode-command %s: no ack for mount %s after %d attempt(s)", corrID, req.MountPosition, retries+1)
}

// waitForAck reads datagrams on socket until either a matching ACK
// arrives (matched=true) or the socket's current read deadline elapses
// (matched=false, err=nil). Datagrams that are too short, carry another
// packet_type or fail to decode are skipped silently; stale ACKs (wrong
// protocol version, mount, or mode) are logged and skipped. Neither ends
// the wait.
func waitForAck(socket transport.UDPSocket, buf []byte, req Request, corrID string) (protocol.SetModeAck, bool, error) {
	for {
		n, _, err := socket.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return protocol.SetModeAck{}, false, nil
			}
			return protocol.SetModeAck{}, false, err
		}

		packet := buf[:n]
		if len(packet) < protocol.SetModeAckSize {
			continue
		}
		hdr, err := protocol.DecodeHeader(packet)
		if err != nil || hdr.PacketType != protocol.PacketTypeEgoOrMode {
			continue
		}
		ack, err := protocol.DecodeSetModeAck(packet)
		if err != nil {
			continue
		}
		if ack.ProtocolVersion != 1 || ack.MountPosition != req.MountPosition || ack.Mode != req.RequestedMode {
			sink.Warnf("mode-command %s: ignoring stale ack (mount %s, mode %s)", corrID, ack.MountPosition, ack.Mode)
			continue
		}
		return ack, true, nil
	}
}
