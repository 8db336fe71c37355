package testutil

import (
	"errors"
	"testing"

	"github.com/radarmesh/pointstream/status"
)

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	if fakeT.Failed() {
		t.Error("expected no failure for nil error")
	}
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	if fakeT.Failed() {
		t.Error("expected no failure when error is present")
	}
}

func TestAssertStatusIs_Matching(t *testing.T) {
	fakeT := &testing.T{}
	AssertStatusIs(fakeT, status.Err(status.NotPermitted, "rebind"), status.NotPermitted)
	if fakeT.Failed() {
		t.Error("expected no failure for matching status")
	}
}

func TestDatagramBuilder_PutF32(t *testing.T) {
	got := NewDatagramBuilder().PutF32(1.0).Bytes()
	want := []byte{0x00, 0x00, 0x80, 0x3f} // little-endian IEEE754 for 1.0
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestDatagramBuilder_PutU64(t *testing.T) {
	got := NewDatagramBuilder().PutU64(1).Bytes()
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
