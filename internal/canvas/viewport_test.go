package canvas

import (
	"math"
	"testing"
)

const floatTol = 1e-9

func TestZoomKeepsCursorPointFixed(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(v *Viewport)
		delta   float64
		screenX float64
		screenY float64
	}{
		{name: "zoom in at origin", delta: 0.5, screenX: 0, screenY: 0},
		{name: "zoom in off center", delta: 0.2, screenX: 400, screenY: 300},
		{name: "zoom out off center", delta: -0.3, screenX: 123, screenY: 456},
		{
			name: "zoom from panned viewport",
			setup: func(v *Viewport) {
				v.Pan(-250, 80)
				v.Zoom(0.7, 100, 100)
			},
			delta: 0.4, screenX: 640, screenY: 360,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(DefaultConfig())
			if tt.setup != nil {
				tt.setup(v)
			}

			before := v.ScreenToWorld(Point{X: tt.screenX, Y: tt.screenY})
			v.Zoom(tt.delta, tt.screenX, tt.screenY)
			after := v.ScreenToWorld(Point{X: tt.screenX, Y: tt.screenY})

			if math.Abs(before.X-after.X) > floatTol || math.Abs(before.Y-after.Y) > floatTol {
				t.Errorf("world point under cursor moved: before (%v, %v), after (%v, %v)",
					before.X, before.Y, after.X, after.Y)
			}
		})
	}
}

func TestZoomClampsScale(t *testing.T) {
	cfg := DefaultConfig()

	v := NewViewport(cfg)
	for i := 0; i < 50; i++ {
		v.Zoom(1.0, 0, 0)
	}
	if v.Scale != cfg.MaxScale {
		t.Errorf("scale = %v, want clamped to %v", v.Scale, cfg.MaxScale)
	}

	v = NewViewport(cfg)
	for i := 0; i < 50; i++ {
		v.Zoom(-0.5, 0, 0)
	}
	if v.Scale != cfg.MinScale {
		t.Errorf("scale = %v, want clamped to %v", v.Scale, cfg.MinScale)
	}
}

func TestPinchZoomScenario(t *testing.T) {
	// Pinch from scale 1.0 with factor 1.2 centered at (400, 300): scale
	// becomes 1.2 and the world point under the center stays put.
	v := NewViewport(DefaultConfig())
	before := v.ScreenToWorld(Point{X: 400, Y: 300})

	v.Zoom(0.2, 400, 300)

	if math.Abs(v.Scale-1.2) > floatTol {
		t.Fatalf("scale = %v, want 1.2", v.Scale)
	}
	after := v.ScreenToWorld(Point{X: 400, Y: 300})
	if math.Abs(before.X-after.X) > floatTol || math.Abs(before.Y-after.Y) > floatTol {
		t.Errorf("world point under pinch center moved: %+v -> %+v", before, after)
	}
}

func TestPanAccumulates(t *testing.T) {
	v := NewViewport(DefaultConfig())
	deltas := [][2]float64{{10, -5}, {0.5, 0.25}, {-30, 12}, {100, 100}, {-80.5, -107.25}}

	var sumX, sumY float64
	for _, d := range deltas {
		v.Pan(d[0], d[1])
		sumX += d[0]
		sumY += d[1]
	}

	if math.Abs(v.X-sumX) > floatTol || math.Abs(v.Y-sumY) > floatTol {
		t.Errorf("pan total = (%v, %v), want (%v, %v)", v.X, v.Y, sumX, sumY)
	}
}

func TestScreenWorldRoundTrip(t *testing.T) {
	v := NewViewport(DefaultConfig())
	v.Zoom(0.85, 200, 150)
	v.Pan(-40, 66)

	pts := []Point{{X: 0, Y: 0}, {X: 512, Y: 384}, {X: -100, Y: 2000}}
	for _, p := range pts {
		got := v.WorldToScreen(v.ScreenToWorld(p))
		if math.Abs(got.X-p.X) > floatTol || math.Abs(got.Y-p.Y) > floatTol {
			t.Errorf("round trip of %+v = %+v", p, got)
		}
	}
}

func TestCenterOnBounds(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("centers bounds in viewport", func(t *testing.T) {
		v := NewViewport(cfg)
		bounds := Rect{X: 100, Y: 200, Width: 400, Height: 300}
		v.CenterOnBounds(bounds, 800, 600)

		center := bounds.Center()
		screen := v.WorldToScreen(center)
		if math.Abs(screen.X-400) > floatTol || math.Abs(screen.Y-300) > floatTol {
			t.Errorf("bounds center maps to (%v, %v), want (400, 300)", screen.X, screen.Y)
		}
	})

	t.Run("small bounds capped at fit scale", func(t *testing.T) {
		v := NewViewport(cfg)
		v.CenterOnBounds(Rect{X: 0, Y: 0, Width: 10, Height: 10}, 800, 600)
		if v.Scale != cfg.FitScaleCap {
			t.Errorf("scale = %v, want cap %v", v.Scale, cfg.FitScaleCap)
		}
	})

	t.Run("empty bounds is a no-op", func(t *testing.T) {
		v := NewViewport(cfg)
		v.Pan(11, 22)
		v.CenterOnBounds(Rect{}, 800, 600)
		if v.X != 11 || v.Y != 22 || v.Scale != 1 {
			t.Errorf("viewport changed on empty bounds: %+v", v)
		}
	})
}
