package staticfilter

import (
	"math"
	"sort"

	"github.com/radarmesh/pointstream/accum"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/spatial"
	"gonum.org/v1/gonum/stat"
)

const (
	historyWindowSeconds   = 3.0
	minHistorySeconds      = 1.0
	headingDisplacementM   = 1.5
	histogramBins          = 50
	minHistogramBinWidth   = 0.3
	verticalMotionEpsilonM = 1e-6
)

// estimateForwardVelocity computes v_f, the radar's own forward velocity
// along its boresight, either from pose history in ring or (when history
// is too short) from the histogram fallback over points.
func estimateForwardVelocity(ring *accum.Ring, points []protocol.Point) float64 {
	head := ring.Head()
	newestCloud, ok := head.Cloud()
	newestPose, okPose := head.Pose()
	if !ok || !okPose {
		return histogramFallback(points)
	}

	totalTimeNanos := uint64(0)
	totalDistance := 0.0
	prevCloud, prevPose := newestCloud, newestPose

	cursor := ring.Head()
	for {
		cursor.NextPointCloud()
		if cursor.IsEnd() {
			break
		}
		c, _ := cursor.Cloud()
		p, _ := cursor.Pose()
		totalTimeNanos += prevCloud.Timestamp - c.Timestamp
		totalDistance += spatial.EnuDistance(prevPose.Position, p.Position)
		prevCloud, prevPose = c, p
		if totalTimeNanos >= uint64(historyWindowSeconds*1e9) {
			break
		}
	}

	if totalTimeNanos < uint64(minHistorySeconds*1e9) {
		return histogramFallback(points)
	}

	avgSpeed := totalDistance / (float64(totalTimeNanos) / 1e9)
	egoOrientation := estimateHeadingOrientation(ring, newestPose)
	worldVel := egoOrientation.Rotate(spatial.Vector3{X: avgSpeed})
	radarVel := newestPose.Orientation.Conjugate().Rotate(worldVel)
	return radarVel.X
}

// estimateHeadingOrientation walks back from the newest pose until the
// displacement vector from some earlier pose to the newest exceeds
// headingDisplacementM, then builds a yaw-then-pitch quaternion from that
// displacement.
func estimateHeadingOrientation(ring *accum.Ring, newestPose spatial.EnuFix) spatial.Quaternion {
	it := ring.Head()
	if it.IsEnd() {
		return spatial.IdentityQuaternion()
	}
	var disp spatial.Vector3
	it.NextPointCloud()
	for !it.IsEnd() {
		pose, _ := it.Pose()
		disp = newestPose.Position.Sub(pose.Position)
		if disp.Norm() > headingDisplacementM {
			break
		}
		it.NextPointCloud()
	}
	return headingFromDisplacement(disp)
}

func headingFromDisplacement(disp spatial.Vector3) spatial.Quaternion {
	horizontal := math.Hypot(disp.X, disp.Y)
	if horizontal < verticalMotionEpsilonM {
		pitch := math.Pi / 2
		if disp.Z < 0 {
			pitch = -pitch
		}
		return spatial.FromEuler(0, pitch, 0)
	}
	yaw := math.Atan2(disp.Y, disp.X)
	pitch := math.Atan2(disp.Z, horizontal)
	return spatial.FromEuler(yaw, pitch, 0)
}

// histogramFallback estimates v_f from a 50-bin histogram of the incoming
// points' radial velocities: bin width max(0.3, (vmax-vmin)/50), returning
// the negative of the mode bin's center, under the assumption that most
// returns are world-static.
func histogramFallback(points []protocol.Point) float64 {
	if len(points) == 0 {
		return 0
	}

	vmin, vmax := float64(points[0].VRadial), float64(points[0].VRadial)
	radial := make([]float64, len(points))
	for i, p := range points {
		v := float64(p.VRadial)
		radial[i] = v
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	// stat.Histogram requires x in increasing order.
	sort.Float64s(radial)

	binWidth := (vmax - vmin) / histogramBins
	if binWidth < minHistogramBinWidth {
		binWidth = minHistogramBinWidth
	}

	dividers := make([]float64, histogramBins+1)
	for i := range dividers {
		dividers[i] = vmin + float64(i)*binWidth
	}
	if dividers[histogramBins] <= vmax {
		dividers[histogramBins] = vmax + 1e-9
	}

	counts := make([]float64, histogramBins)
	counts = stat.Histogram(counts, dividers, radial, nil)

	modeBin := 0
	for i, c := range counts {
		if c > counts[modeBin] {
			modeBin = i
		}
	}
	modeCenter := dividers[modeBin] + binWidth/2
	return -modeCenter
}
