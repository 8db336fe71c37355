package accum

import (
	"math"
	"testing"

	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/spatial"
)

func TestTransformedCloudReprojectsPosition(t *testing.T) {
	r := NewRing(2)
	cloud := protocol.Cloud{FrameIndex: 1, NumPointsExpected: 1, NumPointsReceived: 1,
		Points: []protocol.Point{{X: 1, Y: 0, Z: 0, VRadial: 2}}}

	it, err := r.Accumulate(cloud, fixAt(0), nil)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}

	out, m, ok := it.TransformedCloud(fixAt(1))
	if !ok {
		t.Fatal("expected a valid transformed cloud")
	}
	if math.Abs(float64(out.Points[0].X)-0) > 1e-6 {
		t.Errorf("expected X translated to 0, got %v", out.Points[0].X)
	}
	if out.Points[0].VRadial != 2 {
		t.Errorf("velocity should pass through, got %v", out.Points[0].VRadial)
	}

	want := m.Apply(spatial.Vector3{X: 1})
	if math.Abs(want.X) > 1e-6 {
		t.Errorf("matrix application mismatch: %v", want)
	}
}

func TestEndIteratorReturnsFalseFromAccessors(t *testing.T) {
	r := NewRing(1)
	it := endIterator(r)
	if _, ok := it.Cloud(); ok {
		t.Fatal("Cloud() should report false at end")
	}
	if _, ok := it.Point(); ok {
		t.Fatal("Point() should report false at end")
	}
	if _, _, ok := it.TransformedCloud(fixAt(0)); ok {
		t.Fatal("TransformedCloud() should report false at end")
	}
}

func TestNextPointRollsOverToPreviousCloud(t *testing.T) {
	r := NewRing(2)
	if _, err := r.Accumulate(cloudFrame(1, 2), fixAt(0), nil); err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	it, err := r.Accumulate(cloudFrame(2, 1), fixAt(1), nil)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}

	// Single point in the newest cloud; NextPoint should roll into frame 1.
	it.NextPoint()
	c, ok := it.Cloud()
	if !ok || c.FrameIndex != 1 {
		t.Fatalf("expected roll-over to frame 1, got %+v, %v", c, ok)
	}
}
