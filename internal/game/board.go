package game

import (
	"log"
	"time"
)

// PointerKind names the pointer lifecycle events a board understands.
type PointerKind string

const (
	PointerDown   PointerKind = "pointer_down"
	PointerMove   PointerKind = "pointer_move"
	PointerUp     PointerKind = "pointer_up"
	PointerLeave  PointerKind = "pointer_leave"
	PointerCancel PointerKind = "pointer_cancel"
)

// PointerEvent is one pointer event from the renderer. Ray is the renderer's
// own camera ray for the pointer; when absent the board's camera is used.
// PuckID is set when the renderer already resolved which mesh was hit.
type PointerEvent struct {
	Kind      PointerKind `json:"kind"`
	PointerID int         `json:"pointer_id"`
	Screen    ScreenPoint `json:"screen"`
	Viewport  Viewport    `json:"viewport"`
	Ray       *Ray        `json:"ray,omitempty"`
	PuckID    *int        `json:"puck_id,omitempty"`
}

// Board is the set of pucks sharing one frame clock and one input surface.
// A Board is not safe for concurrent use; Session serializes access to it.
type Board struct {
	Token string

	pucks    []*Puck
	dispatch *Dispatcher
	orbit    *OrbitLock
	camera   Camera
	frame    int
	moving   bool
	events   []Event
	now      func() time.Time
}

// NewBoard builds a board from a layout.
func NewBoard(token string, layout Layout) *Board {
	return &Board{
		Token:    token,
		pucks:    layout.Build(),
		dispatch: NewDispatcher(),
		orbit:    &OrbitLock{},
		camera:   DefaultCamera(),
		now:      time.Now,
	}
}

func (b *Board) Pucks() []*Puck {
	return b.pucks
}

func (b *Board) Puck(id int) (*Puck, bool) {
	if id < 0 || id >= len(b.pucks) {
		return nil, false
	}
	return b.pucks[id], true
}

func (b *Board) Frame() int {
	return b.frame
}

func (b *Board) OrbitEnabled() bool {
	return b.orbit.Enabled()
}

func (b *Board) SetCamera(c Camera) {
	b.camera = c
}

// Moving reports whether any puck is above the stillness threshold.
func (b *Board) Moving() bool {
	for _, p := range b.pucks {
		if p.IsMoving() {
			return true
		}
	}
	return false
}

// HandlePointer routes a pointer event by kind. It reports whether the event
// changed gesture state.
func (b *Board) HandlePointer(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		return b.PointerDown(ev)
	case PointerMove:
		return b.PointerMove(ev)
	case PointerUp, PointerLeave:
		return b.release(ev.PointerID, true)
	case PointerCancel:
		return b.release(ev.PointerID, false)
	default:
		return false
	}
}

// PointerDown starts a drag on the puck under the pointer.
func (b *Board) PointerDown(ev PointerEvent) bool {
	if _, held := b.dispatch.Claimed(ev.PointerID); held {
		return false
	}

	ray, ok := b.resolveRay(ev)
	if !ok {
		return false
	}

	var p *Puck
	if ev.PuckID != nil {
		p, ok = b.Puck(*ev.PuckID)
	} else {
		p, ok = b.pick(ray)
	}
	if !ok || p.Dragging() {
		return false
	}

	if !p.BeginDrag(ev.PointerID, ray, b.orbit) {
		return false
	}
	if !b.dispatch.Claim(ev.PointerID, p) {
		p.EndDrag(ev.PointerID, b.orbit, false)
		return false
	}
	return true
}

// PointerMove updates the drag held by the event's pointer.
func (b *Board) PointerMove(ev PointerEvent) bool {
	p, ok := b.dispatch.Claimed(ev.PointerID)
	if !ok {
		return false
	}
	ray, ok := b.resolveRay(ev)
	if !ok {
		return false
	}
	return p.DragTo(ev.PointerID, ray)
}

// PointerUp and PointerLeave end a drag and launch the puck.
func (b *Board) PointerUp(ev PointerEvent) bool {
	return b.release(ev.PointerID, true)
}

func (b *Board) PointerLeave(ev PointerEvent) bool {
	return b.release(ev.PointerID, true)
}

// PointerCancel ends a drag without launching.
func (b *Board) PointerCancel(ev PointerEvent) bool {
	return b.release(ev.PointerID, false)
}

// ReleaseAll ends every drag without launching. Used when the input source
// goes away mid-drag.
func (b *Board) ReleaseAll() int {
	released := 0
	for _, id := range b.dispatch.Pointers() {
		if b.release(id, false) {
			released++
		}
	}
	return released
}

func (b *Board) release(pointerID int, launch bool) bool {
	p, ok := b.dispatch.Release(pointerID)
	if !ok {
		return false
	}

	force := p.gesture.Force
	velocity, launched := p.EndDrag(pointerID, b.orbit, launch)
	if launched {
		b.moving = true
		b.emit(LaunchEvent{
			BoardToken: b.Token,
			PuckID:     p.ID,
			PointerID:  pointerID,
			Direction:  velocity.Normalize(),
			Speed:      velocity.Magnitude(),
			Force:      force,
			Frame:      b.frame,
			At:         b.now(),
		})
		log.Printf("[BOARD] %s puck %d launched speed=%.3f force=%.2f", b.Token, p.ID, velocity.Magnitude(), force)
	}
	return true
}

// Advance steps every puck by frames reference frames.
func (b *Board) Advance(frames float64) {
	b.frame++
	for _, p := range b.pucks {
		p.Step(frames)
	}

	if b.moving && !b.Moving() {
		b.moving = false
		b.emit(SettledEvent{BoardToken: b.Token, Frame: b.frame, At: b.now()})
	}
}

// DrainEvents returns and clears the events produced since the last call.
func (b *Board) DrainEvents() []Event {
	ev := b.events
	b.events = nil
	return ev
}

func (b *Board) emit(ev Event) {
	b.events = append(b.events, ev)
}

// resolveRay returns the event's own ray, or projects the screen point through
// the board camera. Rays with non-finite parts are refused.
func (b *Board) resolveRay(ev PointerEvent) (Ray, bool) {
	if ev.Ray != nil {
		if !ev.Ray.Origin.IsFinite() || !ev.Ray.Direction.IsFinite() {
			return Ray{}, false
		}
		return Ray{Origin: ev.Ray.Origin, Direction: ev.Ray.Direction}, true
	}
	return b.camera.ScreenRay(ev.Screen, ev.Viewport)
}

// pick finds the puck whose face the ray hits, nearest center first.
func (b *Board) pick(r Ray) (*Puck, bool) {
	var best *Puck
	bestDist := 0.0
	for _, p := range b.pucks {
		point, ok := IntersectPlane(r, ReferencePlane(p.Position.Y))
		if !ok || !p.Contains(point) {
			continue
		}
		d := horizontalDistance(point, p.Position)
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, best != nil
}
