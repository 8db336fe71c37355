package spatial

import (
	"math"
	"testing"

	"github.com/radarmesh/pointstream/protocol"
)

func TestTransformIdentityPosesIsNoOp(t *testing.T) {
	fix := EnuFix{Orientation: IdentityQuaternion(), Position: Vector3{X: 1, Y: 2, Z: 3}}
	p := Vector3{X: 5, Y: -1, Z: 0.5}
	got := Transform(p, fix, fix)
	if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 || math.Abs(got.Z-p.Z) > 1e-9 {
		t.Errorf("Transform with identical poses: got %+v, want %+v", got, p)
	}
}

func TestTransformMatrixMatchesPointTransform(t *testing.T) {
	from := EnuFix{Orientation: FromEuler(0.3, 0.1, -0.2), Position: Vector3{X: 10, Y: -5, Z: 2}}
	to := EnuFix{Orientation: FromEuler(-0.4, 0.2, 0.1), Position: Vector3{X: 1, Y: 1, Z: 1}}
	p := Vector3{X: 3, Y: -2, Z: 0.7}

	want := Transform(p, from, to)
	m := TransformMatrix(from, to)
	got := m.Apply(p)

	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
		t.Errorf("matrix transform = %+v, want %+v", got, want)
	}
}

func TestTransformCloudPreservesHeaderAndVelocity(t *testing.T) {
	from := EnuFix{Orientation: IdentityQuaternion(), Position: Vector3{}}
	to := EnuFix{Orientation: IdentityQuaternion(), Position: Vector3{X: 1}}

	cloud := protocol.Cloud{
		FrameIndex:        7,
		NumPointsReceived: 1,
		Points:            []protocol.Point{{X: 2, Y: 0, Z: 0, VRadial: 3.5, SNR: 9, VGround: 1}},
	}

	out := TransformCloud(cloud, from, to)
	if out.FrameIndex != cloud.FrameIndex || out.NumPointsReceived != cloud.NumPointsReceived {
		t.Errorf("header not preserved: %+v", out)
	}
	if out.Points[0].VRadial != 3.5 || out.Points[0].SNR != 9 || out.Points[0].VGround != 1 {
		t.Errorf("velocity/SNR fields should pass through unchanged: %+v", out.Points[0])
	}
	if out.Points[0].X != 1 {
		t.Errorf("expected translated X=1, got %v", out.Points[0].X)
	}
}
