package reassembly

import (
	"github.com/radarmesh/pointstream/internal/sink"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
)

// HandleEgoMotion admits one ego-motion packet into ctx, applying the same
// mount binding and frame-index wraparound rules as HandleFragment.
func HandleEgoMotion(ctx *Context, packet []byte) (status.Status, error) {
	ego, result, err := validateEgoMotion(packet)
	if result != status.Ok {
		return result, err
	}
	return ctx.admitEgoMotion(ego)
}

// HandleEgoMotionMulti routes packet to whichever context in ctxs is bound
// to (or claims) its mount position, then admits it there.
func HandleEgoMotionMulti(ctxs []*Context, packet []byte) (status.Status, error) {
	ego, result, err := validateEgoMotion(packet)
	if result != status.Ok {
		return result, err
	}
	ctx, found := RouteByMount(ctxs, ego.MountPosition)
	if !found {
		return status.OutOfContexts, nil
	}
	return ctx.admitEgoMotion(ego)
}

// validateEgoMotion decodes and validates a raw datagram as an ego-motion
// packet: wrong packet_type is Skipped without error,
// undersized buffers and unknown mount positions are errors/Skipped
// respectively, mirroring validateFragment's structure for the simpler
// fixed-size ego-motion wire shape.
func validateEgoMotion(packet []byte) (protocol.EgoMotion, status.Status, error) {
	if len(packet) < protocol.ProtocolHeaderSize {
		return protocol.EgoMotion{}, status.Protocol,
			protocolError("packet too small to carry a header: %d bytes", len(packet))
	}
	h, err := protocol.DecodeHeader(packet)
	if err != nil {
		return protocol.EgoMotion{}, status.Protocol, err
	}
	if h.PacketType != protocol.PacketTypeEgoOrMode {
		return protocol.EgoMotion{}, status.Skipped, nil
	}
	if h.ProtocolVersion > protocol.MaxSupportedProtocolVersion {
		return protocol.EgoMotion{}, status.Protocol,
			protocolError("unsupported protocol_version %d", h.ProtocolVersion)
	}
	if len(packet) != protocol.EgoMotionPacketSize {
		return protocol.EgoMotion{}, status.Protocol,
			protocolError("ego-motion packet size %d, want %d", len(packet), protocol.EgoMotionPacketSize)
	}
	ego, err := protocol.DecodeEgoMotion(packet)
	if err != nil {
		return protocol.EgoMotion{}, status.Protocol, err
	}
	if ego.MountPosition == protocol.MountUnknown {
		return ego, status.Skipped, nil
	}
	return ego, status.Ok, nil
}

// admitEgoMotion applies mount binding and wraparound recovery before
// storing ego as ctx's latest snapshot. Acceptance is gated on
// context.latest_ego_motion.frame_index per spec: only a frame_index
// strictly greater than the last-accepted ego-motion snapshot is admitted.
// A wraparound reset clears the point-cloud slots too: frame_index is a
// single counter namespace shared by both packet kinds, so a rollover
// discovered via an ego-motion packet implies the same in-flight clouds
// are stale.
func (c *Context) admitEgoMotion(ego protocol.EgoMotion) (status.Status, error) {
	if !c.tryBind(ego.MountPosition) {
		return status.Skipped, nil
	}

	if c.lastFrameIndexSet && isWraparound(ego.FrameIndex, c.lastFrameIndex) {
		sink.Warnf("mount %s: frame index wraparound %d -> %d on ego-motion packet, resetting reassembly state", c.mount, c.lastFrameIndex, ego.FrameIndex)
		c.Reset()
	} else if c.latestEgoSet && ego.FrameIndex <= c.latestEgo.FrameIndex {
		return status.Skipped, nil
	}
	c.noteFrameIndex(ego.FrameIndex)

	c.latestEgo = ego
	c.latestEgoSet = true
	if c.EgoSink != nil {
		c.EgoSink.OnEgo(ego)
	}
	return status.Ok, nil
}
