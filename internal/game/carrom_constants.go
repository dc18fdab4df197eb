package game

import "time"

// Physics and board constants for the carrom board.
// The renderer mirrors BoundaryHalfExtent, PuckRadius and PuckHeight when it
// builds the board mesh.

const (
	// StillnessThreshold is the |velocity|² cutoff below which a puck counts as
	// stopped. It gates both integration and drag start.
	StillnessThreshold = 0.001

	MaxDragDistance  = 2.0
	LaunchSpeedScale = 0.4 // units per reference frame at full force
	MaxLaunchSpeed   = 0.4

	Friction           = 0.98 // velocity multiplier per reference frame
	BoundaryHalfExtent = 5.0
	WallRestitution    = 0.8

	PuckRadius    = 0.3
	PuckHeight    = 0.2
	StrikerRadius = 0.4

	// Force magnitude bands for the drag indicator.
	ForceLowBand  = 0.3
	ForceHighBand = 0.7
)

// ReferenceFrame is the step the per-frame constants above are tuned for.
const ReferenceFrame = time.Second / 60

// MaxFramesPerTick caps how far one tick may advance after a stall.
const MaxFramesPerTick = 4.0
