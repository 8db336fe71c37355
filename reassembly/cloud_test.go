package reassembly

import (
	"testing"

	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
	"github.com/radarmesh/pointstream/wire"
)

func buildFragment(frameIndex uint32, mount protocol.MountPosition, expected, inPacket uint16, pointOffset int) []byte {
	buf := make([]byte, protocol.FragmentBodySize(inPacket, 2))
	_ = wire.SetU16(buf, 0, uint16(protocol.PacketTypePointCloud))
	_ = wire.SetU16(buf, 2, 2)
	_ = wire.SetU32(buf, 4, frameIndex)
	_ = wire.SetU64(buf, 8, 1000)
	_ = wire.SetU16(buf, 16, uint16(mount))
	_ = wire.SetU16(buf, 18, expected)
	_ = wire.SetU16(buf, 20, inPacket)
	_ = wire.SetU16(buf, 22, uint16(protocol.RangeMedium))
	for i := 0; i < int(inPacket); i++ {
		off := protocol.PointCloudHeaderSize + i*protocol.PointRecordSizeV2
		x := float32(pointOffset + i)
		_ = wire.SetF32(buf, off+0, x)
		_ = wire.SetF32(buf, off+4, x)
		_ = wire.SetF32(buf, off+8, x)
		_ = wire.SetF32(buf, off+12, x)
		_ = wire.SetF32(buf, off+16, x)
		_ = wire.SetF32(buf, off+20, x)
	}
	return buf
}

func TestHandleFragmentSinglePacketCompletesImmediately(t *testing.T) {
	var got []protocol.Cloud
	ctx := NewContext(PointCloudSinkFunc(func(c protocol.Cloud) { got = append(got, c) }), nil)

	pkt := buildFragment(1, protocol.MountFrontCenter, 2, 2, 0)
	result, err := HandleFragment(ctx, pkt)
	if err != nil || result != status.Ok {
		t.Fatalf("HandleFragment: %v, %v", result, err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 completed cloud, got %d", len(got))
	}
	if got[0].NumPointsReceived != 2 || len(got[0].Points) != 2 {
		t.Errorf("unexpected cloud: %+v", got[0])
	}
}

func TestHandleFragmentAcrossTwoPacketsCompletes(t *testing.T) {
	var got []protocol.Cloud
	ctx := NewContext(PointCloudSinkFunc(func(c protocol.Cloud) { got = append(got, c) }), nil)

	p1 := buildFragment(1, protocol.MountFrontCenter, 4, 2, 0)
	p2 := buildFragment(1, protocol.MountFrontCenter, 4, 2, 2)

	if result, err := HandleFragment(ctx, p1); err != nil || result != status.Ok {
		t.Fatalf("fragment 1: %v, %v", result, err)
	}
	if len(got) != 0 {
		t.Fatalf("should not complete after first fragment, got %d clouds", len(got))
	}

	if result, err := HandleFragment(ctx, p2); err != nil || result != status.Ok {
		t.Fatalf("fragment 2: %v, %v", result, err)
	}
	if len(got) != 1 || len(got[0].Points) != 4 {
		t.Fatalf("expected 1 completed cloud with 4 points, got %+v", got)
	}
}

func TestHandleFragmentEvictsOlderInFlightSlot(t *testing.T) {
	var got []protocol.Cloud
	ctx := NewContext(PointCloudSinkFunc(func(c protocol.Cloud) { got = append(got, c) }), nil)

	// Start two frames, both partial, filling both slots.
	f1 := buildFragment(1, protocol.MountFrontCenter, 4, 1, 0)
	f2 := buildFragment(2, protocol.MountFrontCenter, 4, 1, 0)
	f3 := buildFragment(3, protocol.MountFrontCenter, 4, 1, 0)

	mustOk(t)(HandleFragment(ctx, f1))
	mustOk(t)(HandleFragment(ctx, f2))
	if len(got) != 0 {
		t.Fatalf("no completions expected yet, got %d", len(got))
	}

	// Frame 3 needs a third slot: frame 1 (smallest frame index of the two
	// in-flight slots) is evicted and emitted as a partial frame.
	mustOk(t)(HandleFragment(ctx, f3))
	if len(got) != 1 {
		t.Fatalf("expected 1 partial emission from eviction, got %d", len(got))
	}
	if got[0].FrameIndex != 1 || got[0].NumPointsReceived != 1 || got[0].NumPointsExpected != 4 {
		t.Errorf("unexpected evicted cloud: %+v", got[0])
	}
}

func TestHandleFragmentWraparoundResetsState(t *testing.T) {
	var got []protocol.Cloud
	ctx := NewContext(PointCloudSinkFunc(func(c protocol.Cloud) { got = append(got, c) }), nil)

	mustOk(t)(HandleFragment(ctx, buildFragment(0xFFFFFFF0, protocol.MountFrontCenter, 1, 1, 0)))
	if len(got) != 1 {
		t.Fatalf("expected frame 0xFFFFFFF0 to complete, got %d clouds", len(got))
	}

	result, err := HandleFragment(ctx, buildFragment(3, protocol.MountFrontCenter, 1, 1, 0))
	if err != nil || result != status.Ok {
		t.Fatalf("post-wraparound fragment: %v, %v", result, err)
	}
	if len(got) != 2 || got[1].FrameIndex != 3 {
		t.Fatalf("expected wraparound frame to be admitted, got %+v", got)
	}
}

func TestHandleFragmentObsoleteFrameIsSkipped(t *testing.T) {
	ctx := NewContext(nil, nil)
	mustOk(t)(HandleFragment(ctx, buildFragment(10, protocol.MountFrontCenter, 1, 1, 0)))

	result, err := HandleFragment(ctx, buildFragment(5, protocol.MountFrontCenter, 1, 1, 0))
	if err != nil || result != status.Skipped {
		t.Fatalf("obsolete frame: got %v, %v, want Skipped, nil", result, err)
	}
}

func TestHandleFragmentMountConflictSkipped(t *testing.T) {
	ctx := NewContext(nil, nil)
	mustOk(t)(HandleFragment(ctx, buildFragment(1, protocol.MountFrontCenter, 1, 1, 0)))

	result, err := HandleFragment(ctx, buildFragment(2, protocol.MountFrontLeft, 1, 1, 0))
	if err != nil || result != status.Skipped {
		t.Fatalf("conflicting mount: got %v, %v, want Skipped, nil", result, err)
	}
}

func TestHandleFragmentOverrunIsProtocolError(t *testing.T) {
	ctx := NewContext(nil, nil)
	// Frame 1 expects 2 points; the first fragment carries 1, so the frame
	// stays in flight and a second fragment carrying 2 more overruns it.
	mustOk(t)(HandleFragment(ctx, buildFragment(1, protocol.MountFrontCenter, 2, 1, 0)))

	result, err := HandleFragment(ctx, buildFragment(1, protocol.MountFrontCenter, 2, 2, 1))
	if result != status.Protocol || err == nil {
		t.Fatalf("overrun: got %v, %v, want Protocol error", result, err)
	}
}

func TestHandleFragmentSkipsWrongPacketType(t *testing.T) {
	ctx := NewContext(nil, nil)
	pkt := buildFragment(1, protocol.MountFrontCenter, 1, 1, 0)
	_ = wire.SetU16(pkt, 0, uint16(protocol.PacketTypeEgoOrMode))

	result, err := HandleFragment(ctx, pkt)
	if err != nil || result != status.Skipped {
		t.Fatalf("wrong packet type: got %v, %v, want Skipped, nil", result, err)
	}
}

func TestHandleFragmentMultiRoutesAndReportsOutOfContexts(t *testing.T) {
	a := NewContext(nil, nil)
	if err := a.Assign(protocol.MountFrontLeft); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	pkt := buildFragment(1, protocol.MountFrontRight, 1, 1, 0)
	result, err := HandleFragmentMulti([]*Context{a}, pkt)
	if err != nil || result != status.OutOfContexts {
		t.Fatalf("got %v, %v, want OutOfContexts, nil", result, err)
	}
}

// mustOk returns a checker that takes a handler's (status, error) pair
// directly, so it can wrap a call: mustOk(t)(HandleFragment(ctx, pkt)).
func mustOk(t *testing.T) func(result status.Status, err error) {
	return func(result status.Status, err error) {
		t.Helper()
		if err != nil || result != status.Ok {
			t.Fatalf("expected Ok, got %v, %v", result, err)
		}
	}
}
