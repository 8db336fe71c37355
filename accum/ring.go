// Package accum implements the fixed-capacity accumulation ring that holds
// recent point clouds alongside the pose each was captured under, and the
// newest-to-oldest iterator over it. It is a fixed-capacity circular
// buffer that overwrites its oldest entry; the newest entry is not stored
// as a field but located on each call by scanning the entries.
package accum

import (
	"github.com/radarmesh/pointstream/internal/sink"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/spatial"
	"github.com/radarmesh/pointstream/status"
)

// AccumulatedCloud is one ring entry: a captured cloud and the pose the
// radar held at capture time. It is "valid" iff PoseAtCapture's orientation
// passes the unit-norm check.
type AccumulatedCloud struct {
	Cloud         protocol.Cloud
	PoseAtCapture spatial.EnuFix
}

func (a AccumulatedCloud) valid() bool {
	return a.PoseAtCapture.Valid()
}

// Filter selects which of an incoming cloud's points are retained in the
// ring. It sees the ring as it stood before this accumulate call (the new
// slot's header is already copied in but its pose is not yet set, so the
// new slot itself never reads as valid) so it can consult prior entries
// — e.g. to estimate ego velocity — without seeing its own output. A nil
// Filter is equivalent to one that copies every point.
type Filter func(ring *Ring, newIndex int, points []protocol.Point) []protocol.Point

// CopyAllFilter retains every incoming point unchanged. It is equivalent to
// passing a nil Filter to Accumulate; it exists as an explicit, named value
// for callers that want to be explicit about "no filtering" in a table of
// named filters (e.g. alongside staticfilter.Filter).
func CopyAllFilter(_ *Ring, _ int, points []protocol.Point) []protocol.Point {
	return append([]protocol.Point(nil), points...)
}

// Ring is the fixed-capacity circular store of AccumulatedCloud entries.
type Ring struct {
	entries  []AccumulatedCloud
	capacity int
}

// NewRing zeros a ring of the given capacity. A
// zeroed entry's quaternion is the zero quaternion, which fails the
// unit-norm check, so every entry starts invalid.
func NewRing(capacity int) *Ring {
	return &Ring{entries: make([]AccumulatedCloud, capacity), capacity: capacity}
}

// Capacity returns the ring's fixed entry capacity.
func (r *Ring) Capacity() int { return r.capacity }

// locateHead scans forward from slot 0 while entries are valid and their
// frame_index is strictly increasing, returning the index of the newest
// entry, or -1 if the ring is empty.
func (r *Ring) locateHead() int {
	if r.capacity == 0 || !r.entries[0].valid() {
		return -1
	}
	head := 0
	for i := 1; i < r.capacity; i++ {
		if !r.entries[i].valid() || r.entries[i].Cloud.FrameIndex <= r.entries[head].Cloud.FrameIndex {
			break
		}
		head = i
	}
	return head
}

// isWraparound mirrors the frame-index wraparound rule used by
// reassembly.Context.
func isWraparound(incoming, last uint32) bool {
	const lowThreshold = 0x0000FFFF
	const highThreshold = 0xFFFF0000
	return incoming < lowThreshold && last > highThreshold
}

// Accumulate admits cloud, captured under pose, into the ring, filtering
// its points through filter (or copying all if filter is nil), and returns
// an Iterator pointing at the new entry's first point. A frame index that
// has wrapped around the u32 counter clears every entry of the ring before
// the cloud is admitted.
func (r *Ring) Accumulate(cloud protocol.Cloud, pose spatial.EnuFix, filter Filter) (*Iterator, error) {
	if r.capacity <= 0 {
		err := status.Err(status.Argument, "ring capacity must be positive")
		sink.Errorf("%v", err)
		return endIterator(r), err
	}
	if !pose.Valid() {
		err := status.Err(status.Argument, "pose_at_capture orientation is not a valid rotation")
		sink.Errorf("%v", err)
		return endIterator(r), err
	}
	if len(cloud.Points) == 0 {
		return endIterator(r), nil
	}

	head := r.locateHead()
	if head >= 0 {
		headFrame := r.entries[head].Cloud.FrameIndex
		if cloud.FrameIndex <= headFrame {
			if !isWraparound(cloud.FrameIndex, headFrame) {
				err := status.Err(status.Argument, "can't accumulate older cloud after newer: frame %d after frame %d", cloud.FrameIndex, headFrame)
				sink.Errorf("%v", err)
				return endIterator(r), err
			}
			sink.Warnf("frame index wraparound %d -> %d, resetting accumulation ring", headFrame, cloud.FrameIndex)
			for i := range r.entries {
				r.entries[i] = AccumulatedCloud{}
			}
			head = -1
		}
	}

	newIndex := (head + 1) % r.capacity

	header := cloud
	header.Points = nil
	r.entries[newIndex] = AccumulatedCloud{Cloud: header}

	var filtered []protocol.Point
	if filter != nil {
		filtered = filter(r, newIndex, cloud.Points)
	} else {
		filtered = append([]protocol.Point(nil), cloud.Points...)
	}

	if len(filtered) == 0 {
		sink.Warnf("frame %d: filter emptied a cloud, keeping its first point", cloud.FrameIndex)
		filtered = cloud.Points[:1]
	}

	r.entries[newIndex].Cloud.Points = filtered
	r.entries[newIndex].Cloud.NumPointsReceived = uint16(len(filtered))
	r.entries[newIndex].PoseAtCapture = pose

	return &Iterator{ring: r, cloudIndex: newIndex, pointIndex: 0}, nil
}

// Head returns an iterator positioned at the ring's newest entry, for
// callers (e.g. a Filter) that need to walk history during an Accumulate
// call. The result is an end iterator if the ring holds nothing yet.
func (r *Ring) Head() *Iterator {
	head := r.locateHead()
	if head < 0 && r.capacity > 0 && r.entries[r.capacity-1].valid() {
		// An Accumulate that has wrapped back to slot 0 leaves slot 0
		// invalid while its filter runs; the newest stored entry is then
		// the last slot.
		head = r.capacity - 1
	}
	if head < 0 {
		return endIterator(r)
	}
	return &Iterator{ring: r, cloudIndex: head}
}

// CountClouds scans backward from the newest entry, counting valid entries
// until an invalid one is found or the full capacity has been counted.
func (r *Ring) CountClouds() int {
	head := r.locateHead()
	if head < 0 {
		return 0
	}
	count := 0
	idx := head
	for count < r.capacity {
		if !r.entries[idx].valid() {
			break
		}
		count++
		idx = (idx - 1 + r.capacity) % r.capacity
	}
	return count
}

// CountPoints scans forward from slot 0 while entries are valid, summing
// NumPointsReceived.
func (r *Ring) CountPoints() int {
	total := 0
	for i := 0; i < r.capacity; i++ {
		if !r.entries[i].valid() {
			break
		}
		total += int(r.entries[i].Cloud.NumPointsReceived)
	}
	return total
}
