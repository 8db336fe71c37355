package reassembly

import (
	"errors"
	"testing"

	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
)

func TestAssignStickyBinding(t *testing.T) {
	ctx := NewContext(nil, nil)

	if err := ctx.Assign(protocol.MountFrontLeft); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	if err := ctx.Assign(protocol.MountFrontLeft); err != nil {
		t.Fatalf("re-assigning the same mount should succeed: %v", err)
	}
	err := ctx.Assign(protocol.MountFrontRight)
	if !errors.Is(err, status.NotPermitted) {
		t.Fatalf("rebinding to a different mount: got %v, want NotPermitted", err)
	}

	mount, ok := ctx.MountPosition()
	if !ok || mount != protocol.MountFrontLeft {
		t.Fatalf("MountPosition() = %v, %v, want MountFrontLeft, true", mount, ok)
	}
}

func TestAssignRejectsUnknownMount(t *testing.T) {
	ctx := NewContext(nil, nil)
	err := ctx.Assign(protocol.MountUnknown)
	if !errors.Is(err, status.Argument) {
		t.Fatalf("got %v, want Argument", err)
	}
}

func TestResetPreservesBinding(t *testing.T) {
	ctx := NewContext(nil, nil)
	if err := ctx.Assign(protocol.MountRearCenter); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	ctx.latestFrameIndex = 42
	ctx.latestFrameIndexSet = true

	ctx.Reset()

	mount, ok := ctx.MountPosition()
	if !ok || mount != protocol.MountRearCenter {
		t.Fatalf("binding lost across Reset: %v, %v", mount, ok)
	}
	if _, ok := ctx.LatestFrameIndex(); ok {
		t.Fatal("LatestFrameIndex should be cleared by Reset")
	}
}

func TestNewContextsAreIndependent(t *testing.T) {
	ctxs := NewContexts(3, nil, nil)
	if len(ctxs) != 3 {
		t.Fatalf("len(ctxs) = %d, want 3", len(ctxs))
	}
	if err := ctxs[0].Assign(protocol.MountFrontLeft); err != nil {
		t.Fatalf("Assign on ctxs[0]: %v", err)
	}
	if _, ok := ctxs[1].MountPosition(); ok {
		t.Fatal("binding ctxs[0] should not bind ctxs[1]")
	}
	if err := ctxs[1].Assign(protocol.MountFrontRight); err != nil {
		t.Fatalf("Assign on ctxs[1]: %v", err)
	}
}

func TestIsWraparound(t *testing.T) {
	cases := []struct {
		incoming, last uint32
		want           bool
	}{
		{incoming: 3, last: 0xFFFFFFF0, want: true},
		{incoming: 0x0000FFFE, last: 0xFFFFFFFF, want: true},
		{incoming: 100, last: 50, want: false},
		{incoming: 0x00010000, last: 0xFFFFFFF0, want: false},
		{incoming: 3, last: 0xFFFF0000, want: false},
	}
	for _, c := range cases {
		if got := isWraparound(c.incoming, c.last); got != c.want {
			t.Errorf("isWraparound(%#x, %#x) = %v, want %v", c.incoming, c.last, got, c.want)
		}
	}
}
