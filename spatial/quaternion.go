// Package spatial implements the quaternion/ENU pose primitives and the
// rigid-body transform kernel used to move accumulated point clouds between
// poses.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// UnitNormTolerance is the allowed deviation of a quaternion's squared norm
// from 1 for it to count as a valid rotation.
const UnitNormTolerance = 1e-4

// Quaternion is a w,x,y,z orientation value.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion returns the identity rotation.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// FromEuler builds a quaternion from intrinsic Euler angles (radians)
// applied in order Z then Y then X — yaw, pitch, roll — by the standard
// half-angle formula. The result is not renormalized.
func FromEuler(rz, ry, rx float64) Quaternion {
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)

	return Quaternion{
		W: cx*cy*cz + sx*sy*sz,
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
	}
}

// IsValidRotation reports whether q's squared norm lies within
// UnitNormTolerance of 1.
func (q Quaternion) IsValidRotation() bool {
	n := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	return n >= 1-UnitNormTolerance && n <= 1+UnitNormTolerance
}

func (q Quaternion) toGonum() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromGonum(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// Mul composes q then r (q applied first, matching quaternion composition
// order r*q for active rotations): the result rotates a vector the way
// applying q's rotation followed by r's rotation would.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return fromGonum(quat.Mul(r.toGonum(), q.toGonum()))
}

// Conjugate returns q's conjugate (w,-x,-y,-z), the inverse rotation for a
// unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return fromGonum(quat.Conj(q.toGonum()))
}

// Rotate applies q as an active rotation to vector v: v' = q * v * conj(q), with v embedded as a pure quaternion.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q.toGonum(), vq), quat.Conj(q.toGonum()))
	return Vector3{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// Vector3 is a plain Euclidean 3-vector, used for ENU positions and
// displacements.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// EnuDistance is the Euclidean norm of the component-wise difference
// between two ENU positions.
func EnuDistance(a, b Vector3) float64 {
	return a.Sub(b).Norm()
}
