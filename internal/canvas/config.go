package canvas

import "time"

// Config holds the interaction engine's tuning knobs. Distances are in
// screen pixels unless noted; the defaults were tuned against classroom
// tablets with active styluses.
type Config struct {
	// Viewport
	MinScale     float64 // zoom lower bound
	MaxScale     float64 // zoom upper bound
	FitScaleCap  float64 // CenterOnBounds never zooms in past this
	FitPadding   float64 // screen margin around fitted bounds
	WheelZoomRate float64 // deltaY units per doubling-ish step

	// Palm rejection
	MaxContactSize   float64       // contact width/height above this is a palm
	MinPressure      float64       // non-pen contacts below this are rejected
	ClusterDistance  float64       // radius for the palm+fingers cluster test
	ClusterCount     int           // other pointers within radius to trigger rejection
	RejectCooldown   time.Duration // reject new non-pen pointers after a rejection
	GestureCooldown  time.Duration // suppress drawing after a gesture ends

	// Two-finger disambiguation: commit zoom once |dist-initial| exceeds
	// PinchThreshold, commit pan once the center has moved that far first.
	PinchThreshold float64

	// Hit testing and selection (world units)
	HitTolerance  float64 // extra radius around strokes
	LinePadding   float64 // per-line bounds padding beyond strokeWidth/2
	GroupPadding  float64 // outer padding on group bounds
	DragThreshold float64 // movement before a click becomes a marquee drag
	MinObjectSize float64 // resize floor per axis
	RotationSnap  float64 // snap increment in degrees under the modifier
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinScale:      0.1,
		MaxScale:      5.0,
		FitScaleCap:   2.0,
		FitPadding:    40,
		WheelZoomRate: 0.001,

		MaxContactSize:  40,
		MinPressure:     0.05,
		ClusterDistance: 120,
		ClusterCount:    2,
		RejectCooldown:  500 * time.Millisecond,
		GestureCooldown: 150 * time.Millisecond,

		PinchThreshold: 10,

		HitTolerance:  5,
		LinePadding:   4,
		GroupPadding:  8,
		DragThreshold: 5,
		MinObjectSize: 10,
		RotationSnap:  15,
	}
}
