package accum

import (
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/spatial"
)

// Iterator walks a Ring from newest to oldest, by whole cloud or by
// individual point, re-projecting on the fly to a queried current pose.
type Iterator struct {
	ring       *Ring
	cloudIndex int
	pointIndex int
}

func endIterator(r *Ring) *Iterator {
	return &Iterator{ring: r, cloudIndex: r.capacity}
}

// IsEnd reports whether the iterator has run off the ring: cloud_index is
// out of range, or the entry it points at is invalid.
func (it *Iterator) IsEnd() bool {
	if it.cloudIndex < 0 || it.cloudIndex >= it.ring.capacity {
		return true
	}
	return !it.ring.entries[it.cloudIndex].valid()
}

// NextPointCloud moves to the previous slot (mod capacity). Iteration
// terminates — becomes end — when the newly pointed slot is invalid or has
// a frame_index at or above the previously visited cloud's, which signals
// the scan has looped all the way around the ring.
func (it *Iterator) NextPointCloud() {
	if it.IsEnd() {
		return
	}
	prevFrame := it.ring.entries[it.cloudIndex].Cloud.FrameIndex
	next := (it.cloudIndex - 1 + it.ring.capacity) % it.ring.capacity

	if !it.ring.entries[next].valid() || it.ring.entries[next].Cloud.FrameIndex >= prevFrame {
		it.cloudIndex = it.ring.capacity
		it.pointIndex = 0
		return
	}
	it.cloudIndex = next
	it.pointIndex = 0
}

// NextPoint advances to the next point of the current cloud, rolling over
// to the previous cloud when the current one is exhausted.
func (it *Iterator) NextPoint() {
	if it.IsEnd() {
		return
	}
	it.pointIndex++
	if it.pointIndex >= int(it.ring.entries[it.cloudIndex].Cloud.NumPointsReceived) {
		it.pointIndex = 0
		it.NextPointCloud()
	}
}

// Cloud returns the raw accumulated cloud the iterator currently points
// at. ok is false at end.
func (it *Iterator) Cloud() (protocol.Cloud, bool) {
	if it.IsEnd() {
		return protocol.Cloud{}, false
	}
	return it.ring.entries[it.cloudIndex].Cloud, true
}

// Pose returns the pose the iterator's current cloud was captured under.
// ok is false at end.
func (it *Iterator) Pose() (spatial.EnuFix, bool) {
	if it.IsEnd() {
		return spatial.EnuFix{}, false
	}
	return it.ring.entries[it.cloudIndex].PoseAtCapture, true
}

// TransformedCloud returns the current cloud re-projected into currentPose,
// along with the 4x4 matrix used to do it.
func (it *Iterator) TransformedCloud(currentPose spatial.EnuFix) (protocol.Cloud, spatial.Matrix4x4, bool) {
	if it.IsEnd() {
		return protocol.Cloud{}, spatial.Matrix4x4{}, false
	}
	entry := it.ring.entries[it.cloudIndex]
	m := spatial.TransformMatrix(entry.PoseAtCapture, currentPose)
	return spatial.TransformCloud(entry.Cloud, entry.PoseAtCapture, currentPose), m, true
}

// Point returns the raw point the iterator currently points at within its
// current cloud.
func (it *Iterator) Point() (protocol.Point, bool) {
	if it.IsEnd() {
		return protocol.Point{}, false
	}
	return it.ring.entries[it.cloudIndex].Cloud.Points[it.pointIndex], true
}

// TransformedPoint returns the current point re-projected into
// currentPose, along with the cloud-level 4x4 matrix.
func (it *Iterator) TransformedPoint(currentPose spatial.EnuFix) (protocol.Point, spatial.Matrix4x4, bool) {
	if it.IsEnd() {
		return protocol.Point{}, spatial.Matrix4x4{}, false
	}
	entry := it.ring.entries[it.cloudIndex]
	m := spatial.TransformMatrix(entry.PoseAtCapture, currentPose)
	p := spatial.TransformPoint(entry.Cloud.Points[it.pointIndex], entry.PoseAtCapture, currentPose)
	return p, m, true
}
