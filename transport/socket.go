// Package transport supplies the datagram transport the core is decoupled
// from: UDP socket open/recv/close, the mode-command's request socket, and
// the scoped-session configuration (§6.5) that pairs an acquire with its
// release. None of this is part of the reassembly/accumulation core; it
// exists so that core can be driven end-to-end in tests without a real
// network stack, and so a caller can swap in any transport that supplies
// byte slices of bounded length.
package transport

import (
	"net"
	"syscall"
	"time"
)

// UDPSocket is the surface the core's transport layer needs from a UDP
// connection: the receive path used by the reassembly pipeline plus the
// send/broadcast path used by the mode-command's request/ack exchange.
type UDPSocket interface {
	// ReadFromUDP reads one UDP packet into b.
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)

	// WriteToUDP sends b to addr.
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)

	// SetReadBuffer sets the OS receive buffer size.
	SetReadBuffer(bytes int) error

	// SetReadDeadline sets the deadline for future ReadFromUDP calls; a
	// zero time.Time disables the deadline (blocking reads).
	SetReadDeadline(t time.Time) error

	// SetBroadcast enables sending to a broadcast address. Required on
	// most platforms before WriteToUDP to 255.255.255.255 will succeed.
	SetBroadcast(enable bool) error

	// Close closes the socket.
	Close() error

	// LocalAddr returns the bound local address.
	LocalAddr() net.Addr
}

// UDPSocketFactory creates UDPSocket instances, so tests can substitute a
// mock factory without touching the real network stack.
type UDPSocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// RealUDPSocket wraps *net.UDPConn to implement UDPSocket.
type RealUDPSocket struct {
	conn *net.UDPConn
}

// NewRealUDPSocket wraps an already-open *net.UDPConn.
func NewRealUDPSocket(conn *net.UDPConn) *RealUDPSocket {
	return &RealUDPSocket{conn: conn}
}

// ReadFromUDP reads from the underlying connection.
func (r *RealUDPSocket) ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error) {
	return r.conn.ReadFromUDP(b)
}

// WriteToUDP sends b to addr over the underlying connection.
func (r *RealUDPSocket) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	return r.conn.WriteToUDP(b, addr)
}

// SetBroadcast sets SO_BROADCAST on the underlying socket's file
// descriptor, via SyscallConn since net.UDPConn exposes no direct
// method for it.
func (r *RealUDPSocket) SetBroadcast(enable bool) error {
	raw, err := r.conn.SyscallConn()
	if err != nil {
		return err
	}
	value := 0
	if enable {
		value = 1
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, value)
	}); err != nil {
		return err
	}
	return sockErr
}

// SetReadBuffer sets the receive buffer size.
func (r *RealUDPSocket) SetReadBuffer(bytes int) error {
	return r.conn.SetReadBuffer(bytes)
}

// SetReadDeadline sets the read deadline.
func (r *RealUDPSocket) SetReadDeadline(t time.Time) error {
	return r.conn.SetReadDeadline(t)
}

// Close closes the underlying connection.
func (r *RealUDPSocket) Close() error {
	return r.conn.Close()
}

// LocalAddr returns the bound local address.
func (r *RealUDPSocket) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// RealUDPSocketFactory creates sockets via net.ListenUDP.
type RealUDPSocketFactory struct{}

// NewRealUDPSocketFactory returns a factory backed by the real network
// stack.
func NewRealUDPSocketFactory() *RealUDPSocketFactory {
	return &RealUDPSocketFactory{}
}

// ListenUDP opens a real UDP socket.
func (f *RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return NewRealUDPSocket(conn), nil
}

// MockUDPPacket is one packet a MockUDPSocket will hand back from
// ReadFromUDP.
type MockUDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// MockUDPSocket implements UDPSocket over an in-memory packet queue, for
// driving the reassembly pipeline end-to-end without a real socket.
type MockUDPSocket struct {
	Packets            []MockUDPPacket
	ReadIndex          int
	Closed             bool
	ReadBufferSize     int
	ReadDeadline       time.Time
	LocalAddress       *net.UDPAddr
	ReadError          error
	SetReadBufferError error

	// Written records every WriteToUDP call, in order.
	Written         []MockUDPPacket
	WriteError      error
	Broadcast       bool
	SetBroadcastErr error
}

// NewMockUDPSocket returns a mock socket that will hand back packets, in
// order, from ReadFromUDP.
func NewMockUDPSocket(packets []MockUDPPacket) *MockUDPSocket {
	return &MockUDPSocket{
		Packets: packets,
		LocalAddress: &net.UDPAddr{
			IP:   net.ParseIP("127.0.0.1"),
			Port: 0,
		},
	}
}

// ReadFromUDP returns the next queued packet, or a simulated timeout once
// the queue is drained.
func (m *MockUDPSocket) ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error) {
	if m.Closed {
		return 0, nil, net.ErrClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, nil, err
	}
	if m.ReadIndex >= len(m.Packets) {
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: &mockTimeoutError{}}
	}
	pkt := m.Packets[m.ReadIndex]
	m.ReadIndex++
	n = copy(b, pkt.Data)
	return n, pkt.Addr, nil
}

// WriteToUDP records the write and returns len(b), or WriteError if set.
func (m *MockUDPSocket) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	if m.WriteError != nil {
		err := m.WriteError
		m.WriteError = nil
		return 0, err
	}
	data := append([]byte(nil), b...)
	m.Written = append(m.Written, MockUDPPacket{Data: data, Addr: addr})
	return len(b), nil
}

// SetBroadcast records the requested broadcast flag.
func (m *MockUDPSocket) SetBroadcast(enable bool) error {
	if m.SetBroadcastErr != nil {
		return m.SetBroadcastErr
	}
	m.Broadcast = enable
	return nil
}

// SetReadBuffer records the requested buffer size.
func (m *MockUDPSocket) SetReadBuffer(bytes int) error {
	if m.SetReadBufferError != nil {
		return m.SetReadBufferError
	}
	m.ReadBufferSize = bytes
	return nil
}

// SetReadDeadline records the requested deadline.
func (m *MockUDPSocket) SetReadDeadline(t time.Time) error {
	m.ReadDeadline = t
	return nil
}

// Close marks the socket closed; subsequent reads return net.ErrClosed.
func (m *MockUDPSocket) Close() error {
	m.Closed = true
	return nil
}

// LocalAddr returns the mock local address.
func (m *MockUDPSocket) LocalAddr() net.Addr {
	return m.LocalAddress
}

// Reset restores the mock to its just-constructed read state, so the
// same packet fixture can be replayed across subtests.
func (m *MockUDPSocket) Reset() {
	m.ReadIndex = 0
	m.Closed = false
	m.ReadBufferSize = 0
	m.ReadDeadline = time.Time{}
	m.ReadError = nil
	m.Written = nil
	m.WriteError = nil
	m.Broadcast = false
}

// MockListenCall records one ListenUDP invocation against a
// MockUDPSocketFactory.
type MockListenCall struct {
	Network string
	Addr    *net.UDPAddr
}

// MockUDPSocketFactory hands back a fixed MockUDPSocket from ListenUDP.
type MockUDPSocketFactory struct {
	Socket      *MockUDPSocket
	Error       error
	ListenCalls []MockListenCall
}

// NewMockUDPSocketFactory returns a factory that always hands back socket.
func NewMockUDPSocketFactory(socket *MockUDPSocket) *MockUDPSocketFactory {
	return &MockUDPSocketFactory{Socket: socket}
}

// ListenUDP records the call and returns the configured mock socket.
func (f *MockUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	f.ListenCalls = append(f.ListenCalls, MockListenCall{Network: network, Addr: laddr})
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Socket, nil
}

type mockTimeoutError struct{}

func (e *mockTimeoutError) Error() string   { return "i/o timeout" }
func (e *mockTimeoutError) Timeout() bool   { return true }
func (e *mockTimeoutError) Temporary() bool { return true }
