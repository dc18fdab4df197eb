package game

import "math"

// PuckKind distinguishes the striker from the carrom men and the queen.
type PuckKind string

const (
	KindStriker PuckKind = "striker"
	KindWhite   PuckKind = "white"
	KindBlack   PuckKind = "black"
	KindQueen   PuckKind = "queen"
)

// Puck is a single disk's physical state plus its gesture state.
type Puck struct {
	ID       int      `json:"id"`
	Kind     PuckKind `json:"kind"`
	Color    string   `json:"color"`
	Radius   float64  `json:"radius"`
	Height   float64  `json:"height"`
	Position Vec3     `json:"position"`
	Velocity Vec3     `json:"velocity"`

	gesture Gesture
}

// NewPuck places a puck at (x, z) resting on the board.
func NewPuck(id int, kind PuckKind, color string, x, z, radius, height float64) *Puck {
	return &Puck{
		ID:       id,
		Kind:     kind,
		Color:    color,
		Radius:   radius,
		Height:   height,
		Position: NewVec3(x, height/2, z),
	}
}

// IsMoving is the derived "not stopped" predicate.
func (p *Puck) IsMoving() bool {
	return p.Velocity.MagnitudeSquared() > StillnessThreshold
}

// Step advances the puck by frames reference frames: move, decay, then reflect
// off the square boundary. A still puck is left untouched.
func (p *Puck) Step(frames float64) {
	if frames <= 0 || !p.IsMoving() {
		return
	}

	p.Position = p.Position.Plus(p.Velocity.Times(frames))
	p.Velocity = p.Velocity.Times(math.Pow(Friction, frames))
	p.reflect()
}

// reflect handles each horizontal axis on its own, so a corner hit flips both.
func (p *Puck) reflect() {
	if math.Abs(p.Position.X) > BoundaryHalfExtent {
		p.Position.X = math.Copysign(BoundaryHalfExtent, p.Position.X)
		p.Velocity.X *= -WallRestitution
	}
	if math.Abs(p.Position.Z) > BoundaryHalfExtent {
		p.Position.Z = math.Copysign(BoundaryHalfExtent, p.Position.Z)
		p.Velocity.Z *= -WallRestitution
	}
}

// Contains reports whether a board-plane point lies on the puck's face.
func (p *Puck) Contains(point Vec3) bool {
	return horizontalDistance(p.Position, point) <= p.Radius
}
