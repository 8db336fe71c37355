package wire

import (
	"math"
	"testing"
)

func TestU16RoundTripAtEveryOffset(t *testing.T) {
	for offset := 0; offset < 4; offset++ {
		buf := make([]byte, 8)
		want := uint16(0xBEEF)
		if err := SetU16(buf, offset, want); err != nil {
			t.Fatalf("SetU16 at %d: %v", offset, err)
		}
		got, err := GetU16(buf, offset)
		if err != nil {
			t.Fatalf("GetU16 at %d: %v", offset, err)
		}
		if got != want {
			t.Errorf("offset %d: got %#x, want %#x", offset, got, want)
		}
	}
}

func TestU32RoundTrip(t *testing.T) {
	buf := make([]byte, 9)
	want := uint32(0xDEADBEEF)
	for offset := 0; offset < 5; offset++ {
		if err := SetU32(buf, offset, want); err != nil {
			t.Fatalf("SetU32 at %d: %v", offset, err)
		}
		got, err := GetU32(buf, offset)
		if err != nil || got != want {
			t.Errorf("offset %d: got %#x, err %v, want %#x", offset, got, err, want)
		}
	}
}

func TestU64RoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	want := uint64(0x0123456789ABCDEF)
	for offset := 0; offset < 8; offset++ {
		if err := SetU64(buf, offset, want); err != nil {
			t.Fatalf("SetU64 at %d: %v", offset, err)
		}
		got, err := GetU64(buf, offset)
		if err != nil || got != want {
			t.Errorf("offset %d: got %#x, err %v, want %#x", offset, got, err, want)
		}
	}
}

func TestF32RoundTripNativeOrder(t *testing.T) {
	buf := make([]byte, 9)
	want := float32(12.33)
	for offset := 0; offset < 5; offset++ {
		if err := SetF32(buf, offset, want); err != nil {
			t.Fatalf("SetF32 at %d: %v", offset, err)
		}
		got, err := GetF32(buf, offset)
		if err != nil {
			t.Fatalf("GetF32 at %d: %v", offset, err)
		}
		if math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("offset %d: got %v, want %v", offset, got, want)
		}
	}
}

func TestU8RoundTrip(t *testing.T) {
	buf := make([]byte, 1)
	if err := SetU8(buf, 0, 0xAB); err != nil {
		t.Fatal(err)
	}
	got, err := GetU8(buf, 0)
	if err != nil || got != 0xAB {
		t.Fatalf("got %#x, err %v", got, err)
	}
}

func TestShortBufferErrors(t *testing.T) {
	buf := make([]byte, 2)
	if _, err := GetU32(buf, 0); err == nil {
		t.Fatal("expected error reading u32 from a 2-byte buffer")
	}
	if err := SetU64(buf, 0, 1); err == nil {
		t.Fatal("expected error writing u64 into a 2-byte buffer")
	}
	if _, err := GetU16(buf, -1); err == nil {
		t.Fatal("expected error for negative offset")
	}
}
