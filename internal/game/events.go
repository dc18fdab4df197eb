package game

import "time"

// Event is something a board reports to the outside after a step or input.
type Event interface {
	EventType() string
}

// LaunchEvent is emitted when a released drag sets a puck moving.
type LaunchEvent struct {
	BoardToken string    `json:"board_token"`
	PuckID     int       `json:"puck_id"`
	PointerID  int       `json:"pointer_id"`
	Direction  Vec3      `json:"direction"`
	Speed      float64   `json:"speed"`
	Force      float64   `json:"force"`
	Frame      int       `json:"frame"`
	At         time.Time `json:"at"`
}

func (LaunchEvent) EventType() string { return "launch" }

// SettledEvent is emitted when the last moving puck on a board comes to rest.
type SettledEvent struct {
	BoardToken string    `json:"board_token"`
	Frame      int       `json:"frame"`
	At         time.Time `json:"at"`
}

func (SettledEvent) EventType() string { return "settled" }

// EventSink receives board events. Implementations must not block the frame loop.
type EventSink interface {
	HandleBoardEvent(ev Event)
}
