// Package testutil provides shared test helpers: error assertions and a
// raw-datagram builder for constructing wire packets in table-driven tests
// without hand-indexing byte offsets everywhere.
package testutil

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radarmesh/pointstream/status"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
}

// AssertStatusIs fails the test unless err wraps want as reported by
// errors.Is (via status.Status's own Is-compatible error chain).
func AssertStatusIs(t *testing.T, err error, want status.Status) {
	t.Helper()
	require.ErrorIs(t, err, want)
}

// DatagramBuilder assembles a raw UDP payload byte-by-byte for feeding
// directly into decode/validate functions under test.
type DatagramBuilder struct {
	buf []byte
}

// NewDatagramBuilder returns an empty builder.
func NewDatagramBuilder() *DatagramBuilder {
	return &DatagramBuilder{}
}

// PutU8 appends a single byte.
func (b *DatagramBuilder) PutU8(v uint8) *DatagramBuilder {
	b.buf = append(b.buf, v)
	return b
}

// PutU16 appends v big-endian.
func (b *DatagramBuilder) PutU16(v uint16) *DatagramBuilder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// PutU32 appends v big-endian.
func (b *DatagramBuilder) PutU32(v uint32) *DatagramBuilder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// PutU64 appends v big-endian.
func (b *DatagramBuilder) PutU64(v uint64) *DatagramBuilder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// PutF32 appends v in the producer's native (little-endian) byte order.
func (b *DatagramBuilder) PutF32(v float32) *DatagramBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// Pad appends n zero bytes.
func (b *DatagramBuilder) Pad(n int) *DatagramBuilder {
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

// Bytes returns the accumulated buffer.
func (b *DatagramBuilder) Bytes() []byte {
	return b.buf
}
