// Package wire implements the pointstream binary protocol's primitive field
// codec: reading and writing unsigned integers and floats at an arbitrary
// byte offset inside a packet buffer.
//
// Multi-byte integers are big-endian on the wire. Floats are written in the
// producer's native byte order, which in practice is little-endian — a
// quirk of the wire protocol that this package preserves rather than
// "fixes", since changing it would be a protocol-breaking change.
//
// Go byte slices never fault on misaligned multi-byte access, so every
// Get/Set below is safe at any offset; the API still takes an explicit
// byte offset rather than exposing the wire layout as an in-memory
// struct, avoiding the packed-struct-cast-from-void* pattern this wire
// format would otherwise invite.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when buf does not have enough bytes at offset
// to satisfy the requested field.
type ErrShortBuffer struct {
	Offset, Need, Have int
}

func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("wire: need %d bytes at offset %d, have %d", e.Need, e.Offset, e.Have)
}

func checkSpace(buf []byte, offset, size int) error {
	if offset < 0 || offset+size > len(buf) {
		return &ErrShortBuffer{Offset: offset, Need: size, Have: len(buf) - offset}
	}
	return nil
}

// GetU8 reads a single byte at offset.
func GetU8(buf []byte, offset int) (uint8, error) {
	if err := checkSpace(buf, offset, 1); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// SetU8 writes a single byte at offset.
func SetU8(buf []byte, offset int, v uint8) error {
	if err := checkSpace(buf, offset, 1); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

// GetU16 reads a big-endian uint16 at offset.
func GetU16(buf []byte, offset int) (uint16, error) {
	if err := checkSpace(buf, offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[offset : offset+2]), nil
}

// SetU16 writes a big-endian uint16 at offset.
func SetU16(buf []byte, offset int, v uint16) error {
	if err := checkSpace(buf, offset, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[offset:offset+2], v)
	return nil
}

// GetU32 reads a big-endian uint32 at offset.
func GetU32(buf []byte, offset int) (uint32, error) {
	if err := checkSpace(buf, offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[offset : offset+4]), nil
}

// SetU32 writes a big-endian uint32 at offset.
func SetU32(buf []byte, offset int, v uint32) error {
	if err := checkSpace(buf, offset, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[offset:offset+4], v)
	return nil
}

// GetU64 reads a big-endian uint64 at offset.
func GetU64(buf []byte, offset int) (uint64, error) {
	if err := checkSpace(buf, offset, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[offset : offset+8]), nil
}

// SetU64 writes a big-endian uint64 at offset.
func SetU64(buf []byte, offset int, v uint64) error {
	if err := checkSpace(buf, offset, 8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(buf[offset:offset+8], v)
	return nil
}

// GetF32 reads a 4-byte IEEE-754 float at offset, in the producer's native
// (little-endian) byte order. See the package doc for why this differs from
// the big-endian integer fields.
func GetF32(buf []byte, offset int) (float32, error) {
	if err := checkSpace(buf, offset, 4); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint32(buf[offset : offset+4])
	return math.Float32frombits(bits), nil
}

// SetF32 writes a 4-byte IEEE-754 float at offset, in the producer's native
// (little-endian) byte order.
func SetF32(buf []byte, offset int, v float32) error {
	if err := checkSpace(buf, offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v))
	return nil
}
