package spatial

// EnuFix is a world-frame pose: an orientation paired with a position in
// local-tangent-plane (East, North, Up) meters relative to an arbitrary
// but journey-invariant reference point.
type EnuFix struct {
	Orientation Quaternion
	Position    Vector3
}

// Valid reports whether f's orientation passes the unit-norm check; a
// zeroed EnuFix (zero quaternion) is always invalid, which is how the
// accumulation ring marks an empty slot.
func (f EnuFix) Valid() bool {
	return f.Orientation.IsValidRotation()
}
