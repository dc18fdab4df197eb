package game

import "math"

// ScreenPoint is a pointer position in CSS pixels, origin top-left.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the size of the canvas the screen point refers to.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Camera is a perspective look-at camera. The renderer reports its pose after
// orbiting so that pointer events without a ray can still be resolved here.
type Camera struct {
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
	FovY     float64 `json:"fov"` // vertical field of view, degrees
}

// DefaultCamera matches the renderer's initial view of the board.
func DefaultCamera() Camera {
	return Camera{
		Position: Vec3{X: 0, Y: 8, Z: 8},
		Target:   Vec3{},
		FovY:     50,
	}
}

// ScreenRay converts a screen coordinate into a world-space ray through the
// camera. It reports false for an empty viewport or a degenerate camera.
func (c Camera) ScreenRay(p ScreenPoint, vp Viewport) (Ray, bool) {
	if vp.Width <= 0 || vp.Height <= 0 || c.FovY <= 0 || c.FovY >= 180 {
		return Ray{}, false
	}

	forward := c.Target.Minus(c.Position).Normalize()
	if forward.IsZero() {
		return Ray{}, false
	}
	right := forward.Cross(WorldUp).Normalize()
	if right.IsZero() {
		// looking straight down or up; pick a stable right axis
		right = Vec3{X: 1}
	}
	up := right.Cross(forward)

	ndcX := 2*p.X/vp.Width - 1
	ndcY := 1 - 2*p.Y/vp.Height
	tanHalf := math.Tan(c.FovY * math.Pi / 360)
	aspect := vp.Width / vp.Height

	dir := forward.
		Plus(right.Times(ndcX * tanHalf * aspect)).
		Plus(up.Times(ndcY * tanHalf))

	return Ray{Origin: c.Position, Direction: dir.Normalize()}, true
}
