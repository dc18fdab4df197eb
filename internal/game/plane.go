package game

import "math"

// Ray is a half-line from Origin along Direction.
type Ray struct {
	Origin    Vec3 `json:"origin"`
	Direction Vec3 `json:"direction"`
}

// Plane is the set of points P with Normal·(P − Point) = 0.
type Plane struct {
	Normal Vec3
	Point  Vec3
}

// ReferencePlane returns the horizontal plane at the given height that drag
// input is resolved against.
func ReferencePlane(height float64) Plane {
	return Plane{Normal: WorldUp, Point: Vec3{Y: height}}
}

const parallelEpsilon = 1e-9

// IntersectPlane returns where the ray meets the plane. It reports false when
// the ray is parallel to the plane, the plane lies behind the ray origin, or
// the hit is too far away to represent.
func IntersectPlane(r Ray, pl Plane) (Vec3, bool) {
	dir := r.Direction.Normalize()
	if dir.IsZero() {
		return Vec3{}, false
	}

	denom := pl.Normal.Dot(dir)
	if math.Abs(denom) < parallelEpsilon {
		return Vec3{}, false
	}

	t := pl.Normal.Dot(pl.Point.Minus(r.Origin)) / denom
	if t < 0 {
		return Vec3{}, false
	}

	hit := r.Origin.Plus(dir.Times(t))
	if !hit.IsFinite() {
		return Vec3{}, false
	}
	return hit, true
}

// horizontalDistance measures distance in the board plane, ignoring height.
func horizontalDistance(a, b Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}
