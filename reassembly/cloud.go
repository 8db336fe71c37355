package reassembly

import (
	"github.com/radarmesh/pointstream/internal/sink"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
)

// HandleFragment admits one point-cloud fragment into ctx, decoding it,
// merging it into the matching in-flight slot, and invoking ctx.CloudSink
// for any frame that completes or is displaced.
func HandleFragment(ctx *Context, packet []byte) (status.Status, error) {
	hdr, result, err := validateFragment(packet)
	if result != status.Ok {
		return result, err
	}
	return ctx.admitFragment(hdr, packet)
}

// HandleFragmentMulti routes packet to whichever context in ctxs is bound
// to (or claims) the packet's mount position, then admits it there.
func HandleFragmentMulti(ctxs []*Context, packet []byte) (status.Status, error) {
	hdr, result, err := validateFragment(packet)
	if result != status.Ok {
		return result, err
	}
	ctx, found := RouteByMount(ctxs, hdr.MountPosition)
	if !found {
		return status.OutOfContexts, nil
	}
	return ctx.admitFragment(hdr, packet)
}

// validateFragment runs the validation sequence against a raw datagram
// and, on success, returns its decoded header. A packet_type mismatch is
// Skipped without error; everything else that fails is a ProtocolError,
// except the mount-unknown and empty-frame cases which are also Skipped.
func validateFragment(packet []byte) (protocol.PointCloudFragmentHeader, status.Status, error) {
	if len(packet) < protocol.ProtocolHeaderSize {
		return protocol.PointCloudFragmentHeader{}, status.Protocol,
			protocolError("packet too small to carry a header: %d bytes", len(packet))
	}
	h, err := protocol.DecodeHeader(packet)
	if err != nil {
		return protocol.PointCloudFragmentHeader{}, status.Protocol, err
	}
	if h.PacketType != protocol.PacketTypePointCloud {
		return protocol.PointCloudFragmentHeader{}, status.Skipped, nil
	}
	if h.ProtocolVersion > protocol.MaxSupportedProtocolVersion {
		return protocol.PointCloudFragmentHeader{}, status.Protocol,
			protocolError("unsupported protocol_version %d", h.ProtocolVersion)
	}
	if len(packet) < protocol.PointCloudHeaderSize {
		return protocol.PointCloudFragmentHeader{}, status.Protocol,
			protocolError("fragment too small for point-cloud header: %d bytes", len(packet))
	}
	hdr, err := protocol.DecodePointCloudFragmentHeader(packet)
	if err != nil {
		return protocol.PointCloudFragmentHeader{}, status.Protocol, err
	}
	if hdr.NumPointsInPacket > protocol.MaxPointsPerPacket {
		return hdr, status.Protocol,
			protocolError("num_points_in_packet %d exceeds MAX_POINTS_PER_PACKET %d", hdr.NumPointsInPacket, protocol.MaxPointsPerPacket)
	}
	if wantLen := protocol.FragmentBodySize(hdr.NumPointsInPacket, hdr.ProtocolVersion); len(packet) != wantLen {
		return hdr, status.Protocol,
			protocolError("fragment length %d does not match header+points size %d", len(packet), wantLen)
	}
	if hdr.MountPosition == protocol.MountUnknown {
		return hdr, status.Skipped, nil
	}
	if hdr.NumPointsExpected == 0 {
		return hdr, status.Skipped, nil
	}
	return hdr, status.Ok, nil
}

// admitFragment merges an already-validated fragment into ctx's in-flight
// slots, handling mount binding, wraparound recovery, slot allocation and
// eviction, consistency checks, overrun detection, and completion.
func (c *Context) admitFragment(hdr protocol.PointCloudFragmentHeader, packet []byte) (status.Status, error) {
	if !c.tryBind(hdr.MountPosition) {
		return status.Skipped, nil
	}

	if c.lastFrameIndexSet && isWraparound(hdr.FrameIndex, c.lastFrameIndex) {
		sink.Warnf("mount %s: frame index wraparound %d -> %d, resetting reassembly state", c.mount, c.lastFrameIndex, hdr.FrameIndex)
		c.Reset()
	} else if c.latestFrameIndexSet && hdr.FrameIndex <= c.latestFrameIndex {
		return status.Skipped, nil
	}
	c.noteFrameIndex(hdr.FrameIndex)

	slotIdx := c.findSlot(hdr.FrameIndex)
	if slotIdx < 0 {
		var err error
		slotIdx, err = c.allocateSlot(hdr)
		if err != nil {
			return status.Ok, err
		}
	} else {
		c.checkConsistency(&c.slots[slotIdx], hdr)
	}

	slot := &c.slots[slotIdx]

	if int(slot.cloud.NumPointsReceived)+int(hdr.NumPointsInPacket) > int(slot.cloud.NumPointsExpected) {
		return status.Protocol, protocolError("too many points received for frame %d: %d + %d > %d",
			hdr.FrameIndex, slot.cloud.NumPointsReceived, hdr.NumPointsInPacket, slot.cloud.NumPointsExpected)
	}

	recordSize := protocol.PointRecordSizeV2
	if hdr.ProtocolVersion == 1 {
		recordSize = protocol.PointRecordSizeV1
	}
	for i := 0; i < int(hdr.NumPointsInPacket); i++ {
		offset := protocol.PointCloudHeaderSize + i*recordSize
		p, err := protocol.DecodePoint(packet, offset, hdr.ProtocolVersion)
		if err != nil {
			return status.Protocol, err
		}
		slot.cloud.Points = append(slot.cloud.Points, p)
	}
	slot.cloud.NumPointsReceived += hdr.NumPointsInPacket

	if slot.cloud.NumPointsReceived == slot.cloud.NumPointsExpected {
		c.emitComplete(slotIdx)
	}

	return status.Ok, nil
}

// findSlot returns the index of the in-flight slot already tracking
// frameIndex, or -1 if none does.
func (c *Context) findSlot(frameIndex uint32) int {
	for i := range c.slots {
		if c.slots[i].state == slotInProgress && c.slots[i].cloud.FrameIndex == frameIndex {
			return i
		}
	}
	return -1
}

// allocateSlot finds a free slot for a new frame index, evicting the
// older in-flight slot (emitting it as a partial frame first) when both
// are occupied.
func (c *Context) allocateSlot(hdr protocol.PointCloudFragmentHeader) (int, error) {
	for i := range c.slots {
		if c.slots[i].state == slotEmpty {
			c.startSlot(i, hdr)
			return i, nil
		}
	}

	oldest := 0
	for i := 1; i < len(c.slots); i++ {
		if c.slots[i].cloud.FrameIndex < c.slots[oldest].cloud.FrameIndex {
			oldest = i
		}
	}
	c.evictSlot(oldest)
	c.startSlot(oldest, hdr)
	return oldest, nil
}

// startSlot initializes a slot to track a freshly seen frame index, using
// hdr's fields as the first-seen values referenced by checkConsistency.
func (c *Context) startSlot(idx int, hdr protocol.PointCloudFragmentHeader) {
	c.slots[idx] = frameSlot{
		state: slotInProgress,
		cloud: protocol.Cloud{
			FrameIndex:        hdr.FrameIndex,
			Timestamp:         hdr.Timestamp,
			MountPosition:     hdr.MountPosition,
			NumPointsExpected: hdr.NumPointsExpected,
			Range:             hdr.Range,
			Mode:              hdr.Mode,
			Points:            make([]protocol.Point, 0, hdr.NumPointsExpected),
		},
	}
}

// checkConsistency compares hdr against the first-seen values of an
// already-tracked slot. Mismatches on expected count or mode are logged
// and otherwise ignored: the fragment is merged using the first-seen
// values.
func (c *Context) checkConsistency(slot *frameSlot, hdr protocol.PointCloudFragmentHeader) {
	if hdr.NumPointsExpected != slot.cloud.NumPointsExpected {
		sink.Warnf("frame %d: num_points_expected mismatch, first-seen %d, fragment declared %d",
			hdr.FrameIndex, slot.cloud.NumPointsExpected, hdr.NumPointsExpected)
	}
	if hdr.Mode != slot.cloud.Mode {
		sink.Warnf("frame %d: mode mismatch, first-seen %v, fragment declared %v",
			hdr.FrameIndex, slot.cloud.Mode, hdr.Mode)
	}
}

// evictSlot emits an in-flight slot as a best-effort partial frame (if it
// has not already completed — callers only evict in-flight slots) and
// clears it.
func (c *Context) evictSlot(idx int) {
	slot := &c.slots[idx]
	if slot.state == slotInProgress {
		c.deliverCloud(slot.cloud)
	}
	*slot = frameSlot{}
}

// emitComplete delivers a fully received frame to the sink, records it as
// the latest completed frame index, and frees the slot.
func (c *Context) emitComplete(idx int) {
	slot := &c.slots[idx]
	c.deliverCloud(slot.cloud)
	c.latestFrameIndex = slot.cloud.FrameIndex
	c.latestFrameIndexSet = true
	*slot = frameSlot{}
}

func (c *Context) deliverCloud(cloud protocol.Cloud) {
	if c.CloudSink != nil {
		c.CloudSink.OnCloud(cloud)
	}
}
