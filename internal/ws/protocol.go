package ws

import (
	"encoding/json"

	"github.com/playmatatu/carrom/internal/game"
)

// WSMessage is the envelope of every message in both directions
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PointerData carries one pointer event from the renderer
type PointerData struct {
	PointerID int              `json:"pointer_id"`
	Screen    game.ScreenPoint `json:"screen"`
	Viewport  game.Viewport    `json:"viewport"`
	Ray       *game.Ray        `json:"ray,omitempty"`
	PuckID    *int             `json:"puck_id,omitempty"`
}

// CameraData is the renderer's camera pose after orbiting
type CameraData struct {
	Position game.Vec3 `json:"position"`
	Target   game.Vec3 `json:"target"`
	Fov      float64   `json:"fov"`
}

// WelcomeData is sent once a viewer is attached to a board
type WelcomeData struct {
	BoardToken string             `json:"board_token"`
	ViewerID   string             `json:"viewer_id"`
	Board      game.BoardSnapshot `json:"board"`
}

var pointerKinds = map[string]game.PointerKind{
	"pointer_down":   game.PointerDown,
	"pointer_move":   game.PointerMove,
	"pointer_up":     game.PointerUp,
	"pointer_leave":  game.PointerLeave,
	"pointer_cancel": game.PointerCancel,
}

func (d PointerData) event(kind game.PointerKind) game.PointerEvent {
	return game.PointerEvent{
		Kind:      kind,
		PointerID: d.PointerID,
		Screen:    d.Screen,
		Viewport:  d.Viewport,
		Ray:       d.Ray,
		PuckID:    d.PuckID,
	}
}

func (d CameraData) camera() (game.Camera, bool) {
	if d.Fov <= 0 || d.Fov >= 180 || d.Position.IsEqualTo(d.Target) {
		return game.Camera{}, false
	}
	return game.Camera{Position: d.Position, Target: d.Target, FovY: d.Fov}, true
}
