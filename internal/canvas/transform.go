package canvas

import (
	"math"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

// TransformMode distinguishes resize and rotate sessions.
type TransformMode int

const (
	TransformResize TransformMode = iota
	TransformRotate
)

// Handle names the anchor a transform session pivots from: one of the
// eight resize handles or the rotation handle.
type Handle string

const (
	HandleNW     Handle = "nw"
	HandleN      Handle = "n"
	HandleNE     Handle = "ne"
	HandleE      Handle = "e"
	HandleSE     Handle = "se"
	HandleS      Handle = "s"
	HandleSW     Handle = "sw"
	HandleW      Handle = "w"
	HandleRotate Handle = "rotate"
)

// TransformMatrix is the per-frame transform derived from the initial vs
// current bounds and the rotation delta. It only exists during an active
// transform session.
type TransformMatrix struct {
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	Rotation   float64 `json:"rotation"` // degrees
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// IsPureRotation reports a matrix that only rotates.
func (m TransformMatrix) IsPureRotation() bool {
	return m.ScaleX == 1 && m.ScaleY == 1 && m.TranslateX == 0 && m.TranslateY == 0
}

// CalculateTransformMatrix derives the matrix mapping the initial group
// bounds onto the current ones, with the given rotation delta.
func CalculateTransformMatrix(initial, current Rect, rotation float64) TransformMatrix {
	return TransformMatrix{
		ScaleX:     current.Width / initial.Width,
		ScaleY:     current.Height / initial.Height,
		Rotation:   rotation,
		TranslateX: current.X - initial.X,
		TranslateY: current.Y - initial.Y,
	}
}

// TransformPoint applies the matrix to a world point, pivoting on the
// group center: translate relative to the center, scale, rotate, translate
// back, then add the matrix translation. For a pure rotation the bounds
// translation is skipped entirely so successive rotation frames cannot
// accumulate positional drift from roundoff.
func TransformPoint(p Point, centerX, centerY float64, m TransformMatrix) Point {
	dx := (p.X - centerX) * m.ScaleX
	dy := (p.Y - centerY) * m.ScaleY

	if m.Rotation != 0 {
		rad := m.Rotation * math.Pi / 180.0
		cos := math.Cos(rad)
		sin := math.Sin(rad)
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos
	}

	out := Point{X: centerX + dx, Y: centerY + dy}
	if !m.IsPureRotation() {
		out.X += m.TranslateX
		out.Y += m.TranslateY
	}
	return out
}

// GeometryChange is one proposed object update emitted by a transform.
// The engine never writes the board; callers persist proposals through the
// sync layer.
type GeometryChange struct {
	Ref   ObjectRef            `json:"ref"`
	Line  *document.LineObject `json:"line,omitempty"`
	Image *document.ImageObject `json:"image,omitempty"`
}

// TransformEngine turns a resize/rotate handle drag into a transform
// matrix and applies it to every selected object's geometry, pivoting on
// the group center. It holds no rollback snapshot of committed geometry;
// callers that need true cancel-to-previous must keep their own copy.
type TransformEngine struct {
	cfg Config

	active          bool
	mode            TransformMode
	handle          Handle
	initialBounds   Rect
	initialRotation float64
	currentBounds   Rect
	rotationDelta   float64
}

// NewTransformEngine creates an idle transform engine.
func NewTransformEngine(cfg Config) *TransformEngine {
	return &TransformEngine{cfg: cfg}
}

// Start opens a transform session from a handle grab, snapshotting the
// pre-transform bounds and group rotation. Zero-size bounds are brought up
// to the minimum so later scale divisions cannot produce NaN or infinity.
func (t *TransformEngine) Start(mode TransformMode, handle Handle, bounds Rect, groupRotation float64) {
	bounds.Width = math.Max(bounds.Width, t.cfg.MinObjectSize)
	bounds.Height = math.Max(bounds.Height, t.cfg.MinObjectSize)

	t.active = true
	t.mode = mode
	t.handle = handle
	t.initialBounds = bounds
	t.initialRotation = groupRotation
	t.currentBounds = bounds
	t.rotationDelta = 0
}

// Update advances the session. The caller derives newBounds from the
// grabbed handle and the pointer position; relativeRotation is the angle
// delta since the gesture started, snapped to the configured increment
// when snap is set.
func (t *TransformEngine) Update(newBounds Rect, relativeRotation float64, snap bool) {
	if !t.active {
		return
	}

	switch t.mode {
	case TransformResize:
		t.currentBounds = t.clampBounds(newBounds)
	case TransformRotate:
		if snap && t.cfg.RotationSnap > 0 {
			relativeRotation = math.Round(relativeRotation/t.cfg.RotationSnap) * t.cfg.RotationSnap
		}
		t.rotationDelta = relativeRotation
	}
}

// Matrix returns the transform for the current frame.
func (t *TransformEngine) Matrix() TransformMatrix {
	if !t.active {
		return TransformMatrix{ScaleX: 1, ScaleY: 1}
	}
	return CalculateTransformMatrix(t.initialBounds, t.currentBounds, t.rotationDelta)
}

// Apply runs the current matrix over the selected objects and returns the
// proposed geometry, pivoting on the initial group center.
func (t *TransformEngine) Apply(board *document.Board, selection []ObjectRef) []GeometryChange {
	if !t.active || board == nil || len(selection) == 0 {
		return nil
	}

	m := t.Matrix()
	center := t.initialBounds.Center()

	var changes []GeometryChange
	for _, ref := range selection {
		switch ref.Type {
		case ObjectLine:
			line, ok := board.Lines[ref.ID]
			if !ok {
				continue
			}
			updated := transformLine(line, center, m)
			changes = append(changes, GeometryChange{Ref: ref, Line: &updated})
		case ObjectImage:
			img, ok := board.Images[ref.ID]
			if !ok || img.Locked {
				continue
			}
			updated := transformImage(img, center, m)
			changes = append(changes, GeometryChange{Ref: ref, Image: &updated})
		}
	}
	return changes
}

// End commits the session (the caller persists the result) and clears it.
func (t *TransformEngine) End() {
	t.reset()
}

// Cancel discards the in-progress transform session.
func (t *TransformEngine) Cancel() {
	t.reset()
}

// Active reports whether a transform session is open.
func (t *TransformEngine) Active() bool {
	return t.active
}

// Mode returns the session mode. Only meaningful while active.
func (t *TransformEngine) Mode() TransformMode {
	return t.mode
}

// Bounds returns the session's current bounds.
func (t *TransformEngine) Bounds() Rect {
	return t.currentBounds
}

// RotationDelta returns the accumulated rotation delta in degrees.
func (t *TransformEngine) RotationDelta() float64 {
	return t.rotationDelta
}

func (t *TransformEngine) reset() {
	t.active = false
	t.rotationDelta = 0
	t.initialBounds = Rect{}
	t.currentBounds = Rect{}
}

// clampBounds keeps both axes at or above the minimum object size. The
// edge opposite the grabbed handle stays put, so clamping feels like the
// drag hit a wall instead of the box jumping.
func (t *TransformEngine) clampBounds(b Rect) Rect {
	if b.Width < t.cfg.MinObjectSize {
		if t.handle == HandleNW || t.handle == HandleW || t.handle == HandleSW {
			b.X = b.X + b.Width - t.cfg.MinObjectSize
		}
		b.Width = t.cfg.MinObjectSize
	}
	if b.Height < t.cfg.MinObjectSize {
		if t.handle == HandleNW || t.handle == HandleN || t.handle == HandleNE {
			b.Y = b.Y + b.Height - t.cfg.MinObjectSize
		}
		b.Height = t.cfg.MinObjectSize
	}
	return b
}

// transformLine moves the stroke's anchor through the matrix and then
// every vertex through absolute coordinates, converting back to the
// stroke's local frame. Stroke width scales by min(sx, sy) so anisotropic
// resizes do not distort the stroke.
func transformLine(line document.LineObject, center Point, m TransformMatrix) document.LineObject {
	updated := line
	updated.Points = make([]float64, len(line.Points))

	anchor := TransformPoint(Point{X: line.X, Y: line.Y}, center.X, center.Y, m)
	updated.X = anchor.X
	updated.Y = anchor.Y

	for i := 0; i < line.PointCount(); i++ {
		ax, ay := line.Point(i)
		abs := TransformPoint(Point{X: ax, Y: ay}, center.X, center.Y, m)
		updated.Points[2*i] = abs.X - anchor.X
		updated.Points[2*i+1] = abs.Y - anchor.Y
	}

	updated.StrokeWidth = line.StrokeWidth * math.Min(m.ScaleX, m.ScaleY)
	return updated
}

// transformImage applies the matrix to an image. A pure rotation only
// advances the rotation field, re-centering the position around the
// unchanged center; scale/move runs the center through the matrix and
// scales the dimensions. Either way the new rotation is the prior rotation
// plus the delta: rotations compose additively, never reset.
func transformImage(img document.ImageObject, center Point, m TransformMatrix) document.ImageObject {
	updated := img

	if m.IsPureRotation() {
		cx, cy := img.Center()
		updated.Rotation = img.Rotation + m.Rotation
		updated.X = cx - img.Width/2
		updated.Y = cy - img.Height/2
		return updated
	}

	oldCX, oldCY := img.Center()
	newCenter := TransformPoint(Point{X: oldCX, Y: oldCY}, center.X, center.Y, m)

	updated.Width = img.Width * m.ScaleX
	updated.Height = img.Height * m.ScaleY
	updated.X = newCenter.X - updated.Width/2
	updated.Y = newCenter.Y - updated.Height/2
	updated.Rotation = img.Rotation + m.Rotation
	return updated
}
