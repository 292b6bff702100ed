package canvas

// Viewport maps world coordinates to screen coordinates through a pan
// offset and a uniform zoom scale:
//
//	screen = world*Scale + (X, Y)
//
// It is owned by the engine and mutated only from input event handlers.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`

	cfg Config
}

// NewViewport returns a viewport at the origin with scale 1.
func NewViewport(cfg Config) *Viewport {
	return &Viewport{Scale: 1, cfg: cfg}
}

// ScreenToWorld converts a screen point to world coordinates.
func (v *Viewport) ScreenToWorld(p Point) Point {
	return Point{
		X: (p.X - v.X) / v.Scale,
		Y: (p.Y - v.Y) / v.Scale,
	}
}

// WorldToScreen converts a world point to screen coordinates.
func (v *Viewport) WorldToScreen(p Point) Point {
	return Point{
		X: p.X*v.Scale + v.X,
		Y: p.Y*v.Scale + v.Y,
	}
}

// Zoom scales the viewport by (1 + delta), clamped to the configured scale
// range, keeping the world point under (screenX, screenY) fixed on screen.
func (v *Viewport) Zoom(delta, screenX, screenY float64) {
	// Resolve the anchored world point before the scale changes.
	worldX := (screenX - v.X) / v.Scale
	worldY := (screenY - v.Y) / v.Scale

	newScale := v.clampScale(v.Scale * (1 + delta))

	v.Scale = newScale
	v.X = screenX - worldX*newScale
	v.Y = screenY - worldY*newScale
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.X += dx
	v.Y += dy
}

// CenterOnBounds fits the given world bounds into a viewport of the given
// screen size and centers them. The fit never zooms in past FitScaleCap;
// callers that want a smooth transition interpolate toward the result
// themselves.
func (v *Viewport) CenterOnBounds(bounds Rect, viewportW, viewportH float64) {
	if bounds.IsEmpty() || viewportW <= 0 || viewportH <= 0 {
		return
	}

	availW := viewportW - 2*v.cfg.FitPadding
	availH := viewportH - 2*v.cfg.FitPadding
	if availW <= 0 {
		availW = viewportW
	}
	if availH <= 0 {
		availH = viewportH
	}

	scale := min(availW/bounds.Width, availH/bounds.Height)
	scale = min(scale, v.cfg.FitScaleCap)
	scale = v.clampScale(scale)

	center := bounds.Center()
	v.Scale = scale
	v.X = viewportW/2 - center.X*scale
	v.Y = viewportH/2 - center.Y*scale
}

func (v *Viewport) clampScale(s float64) float64 {
	if s < v.cfg.MinScale {
		return v.cfg.MinScale
	}
	if s > v.cfg.MaxScale {
		return v.cfg.MaxScale
	}
	return s
}
