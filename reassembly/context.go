// Package reassembly implements the per-radar frame reassembly state
// machine: turning an unordered stream of
// point-cloud fragments and ego-motion packets into completed Cloud and
// EgoMotion values, demultiplexed across a fleet of radars by mount
// position.
//
// Completed frames and ego-motion snapshots are delivered through the
// PointCloudSink and EgoMotionSink interfaces: small, single-method
// collaborators the caller owns and that outlive the Context.
package reassembly

import (
	"github.com/radarmesh/pointstream/protocol"
)

// PointCloudSink receives completed (or best-effort partial) frames.
type PointCloudSink interface {
	OnCloud(cloud protocol.Cloud)
}

// PointCloudSinkFunc adapts a plain function to PointCloudSink.
type PointCloudSinkFunc func(cloud protocol.Cloud)

// OnCloud calls f.
func (f PointCloudSinkFunc) OnCloud(cloud protocol.Cloud) { f(cloud) }

// EgoMotionSink receives each accepted ego-motion snapshot.
type EgoMotionSink interface {
	OnEgo(ego protocol.EgoMotion)
}

// EgoMotionSinkFunc adapts a plain function to EgoMotionSink.
type EgoMotionSinkFunc func(ego protocol.EgoMotion)

// OnEgo calls f.
func (f EgoMotionSinkFunc) OnEgo(ego protocol.EgoMotion) { f(ego) }

// numSlots is the fixed number of in-flight frame slots a Context holds.
const numSlots = 2

type slotState int

const (
	slotEmpty slotState = iota
	slotInProgress
)

type frameSlot struct {
	state slotState
	cloud protocol.Cloud
}

// Context holds all per-radar reassembly state: the mount binding, the two
// in-flight frame slots, the latest completed frame index, the latest
// ego-motion snapshot, and the sinks that receive completed data.
//
// Context is not safe for concurrent use; each receive loop should own a
// dedicated Context per radar.
type Context struct {
	bound bool
	mount protocol.MountPosition

	slots [numSlots]frameSlot

	latestFrameIndexSet bool
	latestFrameIndex    uint32

	latestEgoSet bool
	latestEgo    protocol.EgoMotion

	// lastFrameIndexSet/lastFrameIndex track the most recent frame_index
	// admitted through either HandleFragment or HandleEgoMotion -
	// frame_index is a single counter namespace shared by both packet
	// kinds on the wire, so wraparound detection must see both, not just
	// completed clouds or just ego-motion snapshots.
	lastFrameIndexSet bool
	lastFrameIndex    uint32

	CloudSink PointCloudSink
	EgoSink   EgoMotionSink
}

// NewContext returns an unbound Context delivering completed clouds to
// cloudSink and ego-motion snapshots to egoSink. Either sink may be nil.
func NewContext(cloudSink PointCloudSink, egoSink EgoMotionSink) *Context {
	c := &Context{CloudSink: cloudSink, EgoSink: egoSink}
	c.Reset()
	return c
}

// NewContexts returns n unbound Contexts sharing the same sinks, for
// callers managing a fleet of radars with RouteByMount. Each Context is
// independent: binding one does not affect the others.
func NewContexts(n int, cloudSink PointCloudSink, egoSink EgoMotionSink) []*Context {
	ctxs := make([]*Context, n)
	for i := range ctxs {
		ctxs[i] = NewContext(cloudSink, egoSink)
	}
	return ctxs
}

// MountPosition reports the context's current binding. ok is false for an
// unbound context.
func (c *Context) MountPosition() (mount protocol.MountPosition, ok bool) {
	if !c.bound {
		return protocol.MountUnknown, false
	}
	return c.mount, true
}

// Assign explicitly binds the context to mount. Re-assigning the same
// mount a context is already bound to succeeds; assigning a different
// mount to an already-bound context fails with NotPermitted.
func (c *Context) Assign(mount protocol.MountPosition) error {
	if mount == protocol.MountUnknown {
		return argumentError("cannot assign the unknown mount position")
	}
	if c.bound && c.mount != mount {
		return notPermittedError("context already bound to mount %s, cannot rebind to %s", c.mount, mount)
	}
	c.bound = true
	c.mount = mount
	return nil
}

// tryBind binds an unbound context to mount, or confirms an existing
// binding matches. It returns false when mount conflicts with an existing
// binding, in which case the caller must treat the packet as Skipped.
func (c *Context) tryBind(mount protocol.MountPosition) bool {
	if !c.bound {
		c.bound = true
		c.mount = mount
		return true
	}
	return c.mount == mount
}

// Reset clears all reassembly state: both frame slots, the latest
// completed frame index, and the latest ego-motion snapshot. The mount
// binding is preserved, since Reset models the wraparound recovery rule,
// not context re-initialization. Use a fresh Context (or explicitly
// unbind by discarding and recreating one) to change mount.
func (c *Context) Reset() {
	c.slots[0] = frameSlot{}
	c.slots[1] = frameSlot{}
	c.latestFrameIndexSet = false
	c.latestFrameIndex = 0
	c.latestEgoSet = false
	c.latestEgo = protocol.EgoMotion{}
	c.lastFrameIndexSet = false
	c.lastFrameIndex = 0
}

// noteFrameIndex records frameIndex as the most recently admitted
// frame_index, for cross-stream wraparound detection.
func (c *Context) noteFrameIndex(frameIndex uint32) {
	c.lastFrameIndex = frameIndex
	c.lastFrameIndexSet = true
}

// LatestFrameIndex returns the most recently completed frame index, if
// any.
func (c *Context) LatestFrameIndex() (uint32, bool) {
	return c.latestFrameIndex, c.latestFrameIndexSet
}

// LatestEgoMotion returns the most recently accepted ego-motion snapshot,
// if any.
func (c *Context) LatestEgoMotion() (protocol.EgoMotion, bool) {
	return c.latestEgo, c.latestEgoSet
}

// isWraparound reports whether incoming is a u32 counter rollover relative
// to last.
func isWraparound(incoming, last uint32) bool {
	const lowThreshold = 0x0000FFFF
	const highThreshold = 0xFFFF0000
	return incoming < lowThreshold && last > highThreshold
}
