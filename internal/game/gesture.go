package game

import "math"

// DragState is the gesture controller state of one puck.
type DragState string

const (
	DragIdle     DragState = "IDLE"
	DragDragging DragState = "DRAGGING"
)

// Indicator is the pull line shown while dragging.
type Indicator struct {
	Visible bool   `json:"visible"`
	Start   Vec3   `json:"start"`
	End     Vec3   `json:"end"`
	Color   string `json:"color,omitempty"`
}

// Gesture holds the drag fields of a puck. Anchor, lastPoint and force are
// only meaningful while State is DragDragging.
type Gesture struct {
	State     DragState
	PointerID int
	Anchor    *Vec3
	lastPoint Vec3
	Force     float64
	Indicator Indicator
}

// ForceColor maps a force magnitude to the indicator color band.
func ForceColor(force float64) string {
	switch {
	case force < ForceLowBand:
		return "green"
	case force <= ForceHighBand:
		return "yellow"
	default:
		return "red"
	}
}

// LaunchSpeed converts a force magnitude into a launch speed in units per
// reference frame.
func LaunchSpeed(force float64) float64 {
	return math.Min(force*LaunchSpeedScale, MaxLaunchSpeed)
}

// Dragging reports whether a pointer currently holds this puck.
func (p *Puck) Dragging() bool {
	return p.gesture.State == DragDragging
}

// Gesture returns a copy of the puck's gesture state.
func (p *Puck) Gesture() Gesture {
	g := p.gesture
	if g.Anchor != nil {
		a := *g.Anchor
		g.Anchor = &a
	}
	return g
}

// BeginDrag starts a drag for pointerID if the puck is idle, still, and the
// ray meets the puck's reference plane. Orbit input is suspended on success.
func (p *Puck) BeginDrag(pointerID int, r Ray, orbit OrbitControl) bool {
	if p.Dragging() || p.IsMoving() {
		return false
	}

	anchor, ok := IntersectPlane(r, ReferencePlane(p.Position.Y))
	if !ok {
		return false
	}

	p.gesture = Gesture{
		State:     DragDragging,
		PointerID: pointerID,
		Anchor:    &anchor,
		lastPoint: anchor,
	}
	if orbit != nil {
		orbit.Suspend()
	}
	return true
}

// DragTo updates the pull from a move event. Events from other pointers, rays
// that miss the reference plane and pulls too long to represent are ignored.
func (p *Puck) DragTo(pointerID int, r Ray) bool {
	if !p.Dragging() || p.gesture.PointerID != pointerID {
		return false
	}

	point, ok := IntersectPlane(r, ReferencePlane(p.gesture.Anchor.Y))
	if !ok {
		return false
	}
	direction := p.gesture.Anchor.Minus(point)
	if !direction.IsFinite() {
		return false
	}
	p.gesture.lastPoint = point

	distance := math.Min(direction.Magnitude(), MaxDragDistance)
	p.gesture.Force = distance / MaxDragDistance
	p.gesture.Indicator = Indicator{
		Visible: true,
		Start:   p.Position,
		End:     p.Position.Plus(direction.Normalize().Times(distance)),
		Color:   ForceColor(p.gesture.Force),
	}
	return true
}

// EndDrag finishes the drag held by pointerID and resumes orbit input. When
// launch is set and the pull is long enough, the puck is given its launch
// velocity, which is returned with true.
func (p *Puck) EndDrag(pointerID int, orbit OrbitControl, launch bool) (Vec3, bool) {
	if !p.Dragging() || p.gesture.PointerID != pointerID {
		return Vec3{}, false
	}

	direction := p.pull()
	force := p.gesture.Force
	p.gesture = Gesture{State: DragIdle}
	if orbit != nil {
		orbit.Resume()
	}

	if !launch || !direction.IsFinite() || direction.MagnitudeSquared() <= StillnessThreshold {
		return Vec3{}, false
	}

	p.Velocity = direction.Normalize().Times(LaunchSpeed(force))
	return p.Velocity, true
}

// pull is the vector from the current drag point back to the anchor.
func (p *Puck) pull() Vec3 {
	return p.gesture.Anchor.Minus(p.gesture.lastPoint)
}
