package spatial

import "github.com/radarmesh/pointstream/protocol"

// Matrix4x4 is a column-major 4x4 matrix: Matrix4x4[col*4+row]. M applied
// to (x,y,z,1) reproduces Transform's point result.
type Matrix4x4 [16]float64

// rotationMatrix returns q's rotation as a 3x3 matrix such that
// rotationMatrix(q) * v equals q.Rotate(v).
func rotationMatrix(q Quaternion) [3][3]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return r
}

func apply3(m [3][3]float64, v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transform moves point P, captured under pose from, into the frame of
// pose to: rotate by from.orientation, translate into world
// ENU by from.position, subtract to.position, rotate by the conjugate of
// to.orientation.
func Transform(p Vector3, from, to EnuFix) Vector3 {
	world := from.Orientation.Rotate(p).Add(from.Position)
	relative := world.Sub(to.Position)
	return to.Orientation.Conjugate().Rotate(relative)
}

// TransformMatrix builds the column-major 4x4 matrix equivalent to
// Transform for a fixed (from, to) pose pair, composing the same four
// operations right-to-left so that M·(x,y,z,1)ᵀ yields Transform's result.
func TransformMatrix(from, to EnuFix) Matrix4x4 {
	r0 := rotationMatrix(from.Orientation)
	r1c := rotationMatrix(to.Orientation.Conjugate())
	r := mul3(r1c, r0)
	t := apply3(r1c, from.Position.Sub(to.Position))

	var m Matrix4x4
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] = r[row][col]
		}
	}
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	m[15] = 1
	return m
}

// Apply multiplies m by the homogeneous point (x,y,z,1) and returns the
// transformed position.
func (m Matrix4x4) Apply(p Vector3) Vector3 {
	return Vector3{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformPoint transforms a single protocol.Point's position from pose
// from to pose to. VRadial, SNR, and VGround pass through unchanged — a
// documented limitation: velocities are radar-frame
// measurements the kernel does not re-project.
func TransformPoint(p protocol.Point, from, to EnuFix) protocol.Point {
	v := Transform(Vector3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}, from, to)
	out := p
	out.X, out.Y, out.Z = float32(v.X), float32(v.Y), float32(v.Z)
	return out
}

// TransformCloud applies the (from, to) transform to every point of cloud,
// computing the matrix once and reusing it across points. The header
// (counts, timestamps, identity) is copied verbatim.
func TransformCloud(cloud protocol.Cloud, from, to EnuFix) protocol.Cloud {
	m := TransformMatrix(from, to)
	out := cloud
	out.Points = make([]protocol.Point, len(cloud.Points))
	for i, p := range cloud.Points {
		v := m.Apply(Vector3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)})
		out.Points[i] = p
		out.Points[i].X, out.Points[i].Y, out.Points[i].Z = float32(v.X), float32(v.Y), float32(v.Z)
	}
	return out
}
