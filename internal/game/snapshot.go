package game

// PuckSnapshot is what the renderer needs to draw one puck.
type PuckSnapshot struct {
	ID        int        `json:"id"`
	Kind      PuckKind   `json:"kind"`
	Color     string     `json:"color"`
	Radius    float64    `json:"radius"`
	Height    float64    `json:"height"`
	Position  Vec3       `json:"position"`
	Velocity  Vec3       `json:"velocity"`
	Moving    bool       `json:"moving"`
	DragState DragState  `json:"drag_state"`
	Force     float64    `json:"force,omitempty"`
	Indicator *Indicator `json:"indicator,omitempty"`
}

// BoardSnapshot is the per-frame state broadcast to viewers.
type BoardSnapshot struct {
	Token        string         `json:"token"`
	Frame        int            `json:"frame"`
	OrbitEnabled bool           `json:"orbit_enabled"`
	Moving       bool           `json:"moving"`
	Pucks        []PuckSnapshot `json:"pucks"`
}

// Snapshot copies the board state for serialization.
func (b *Board) Snapshot() BoardSnapshot {
	snap := BoardSnapshot{
		Token:        b.Token,
		Frame:        b.frame,
		OrbitEnabled: b.orbit.Enabled(),
		Pucks:        make([]PuckSnapshot, 0, len(b.pucks)),
	}

	for _, p := range b.pucks {
		ps := PuckSnapshot{
			ID:        p.ID,
			Kind:      p.Kind,
			Color:     p.Color,
			Radius:    p.Radius,
			Height:    p.Height,
			Position:  p.Position,
			Velocity:  p.Velocity,
			Moving:    p.IsMoving(),
			DragState: DragIdle,
		}
		if p.Dragging() {
			ps.DragState = DragDragging
			ps.Force = p.gesture.Force
			if p.gesture.Indicator.Visible {
				ind := p.gesture.Indicator
				ps.Indicator = &ind
			}
		}
		if ps.Moving {
			snap.Moving = true
		}
		snap.Pucks = append(snap.Pucks, ps)
	}
	return snap
}
