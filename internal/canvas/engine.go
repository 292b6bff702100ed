package canvas

import (
	"encoding/json"
	"time"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

// Engine is the canvas interaction engine. It owns the viewport, gesture
// classification, selection and transform state, reads the current board
// as an immutable snapshot, and emits proposed geometry changes for the
// caller to persist through the sync layer.
//
// Everything runs synchronously on the caller's thread in direct response
// to input events; the engine starts no goroutines and needs no locking.
type Engine struct {
	cfg Config

	board     *document.Board
	viewport  *Viewport
	gestures  *GestureClassifier
	selection *Selection
	transform *TransformEngine

	// Object drag session (moving the selected objects).
	dragging   bool
	dragStart  Point
	dragOffset Point
}

// NewEngine creates an engine with the given configuration. A nil clock
// uses time.Now.
func NewEngine(cfg Config, now func() time.Time) *Engine {
	vp := NewViewport(cfg)
	return &Engine{
		cfg:       cfg,
		viewport:  vp,
		gestures:  NewGestureClassifier(cfg, vp, now),
		selection: NewSelection(cfg, nil),
		transform: NewTransformEngine(cfg),
	}
}

// --- Commands ---

// LoadBoard replaces the board snapshot from JSON and resets interaction
// state.
func (e *Engine) LoadBoard(jsonData string) error {
	var board document.Board
	if err := json.Unmarshal([]byte(jsonData), &board); err != nil {
		return err
	}

	e.board = &board
	e.selection = NewSelection(e.cfg, &board)
	e.transform.Cancel()
	e.gestures.Reset()
	e.dragging = false
	return nil
}

// UpdateBoard swaps in a newer snapshot (e.g. after a remote operation)
// while preserving viewport, selection and gesture state where possible.
func (e *Engine) UpdateBoard(jsonData string) error {
	var board document.Board
	if err := json.Unmarshal([]byte(jsonData), &board); err != nil {
		return err
	}

	e.board = &board
	e.selection.SetBoard(&board)
	return nil
}

// SetBoard installs an in-memory snapshot directly (native callers).
func (e *Engine) SetBoard(board *document.Board) {
	e.board = board
	e.selection.SetBoard(board)
}

// HandleWheel zooms about the cursor.
func (e *Engine) HandleWheel(ev WheelEvent) {
	e.viewport.Zoom(-ev.DeltaY*e.cfg.WheelZoomRate, ev.ClientX, ev.ClientY)
}

// HandlePointerDown feeds a pointer press through palm rejection and
// gesture tracking. Returns whether the pointer was accepted; rejected
// pointers must not draw or select.
func (e *Engine) HandlePointerDown(ev PointerEvent) bool {
	return e.gestures.PointerDown(ev)
}

// HandlePointerMove feeds a pointer move.
func (e *Engine) HandlePointerMove(ev PointerEvent) {
	e.gestures.PointerMove(ev)
}

// HandlePointerUp feeds a pointer release.
func (e *Engine) HandlePointerUp(ev PointerEvent) {
	e.gestures.PointerUp(ev)
}

// HandleTouchStart feeds a touchstart event.
func (e *Engine) HandleTouchStart(ev TouchEvent) {
	e.gestures.TouchStart(ev)
}

// HandleTouchMove feeds a touchmove event.
func (e *Engine) HandleTouchMove(ev TouchEvent) {
	e.gestures.TouchMove(ev)
}

// HandleTouchEnd feeds a touchend event.
func (e *Engine) HandleTouchEnd(ev TouchEvent) {
	e.gestures.TouchEnd(ev)
}

// SelectPointerDown routes a select-tool press (screen space) into the
// selection state machine.
func (e *Engine) SelectPointerDown(screenX, screenY float64, multiSelect bool) {
	p := e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.selection.PointerDown(p, multiSelect)
}

// SelectPointerMove routes a select-tool move.
func (e *Engine) SelectPointerMove(screenX, screenY float64) {
	p := e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.selection.PointerMove(p)
}

// SelectPointerUp routes a select-tool release.
func (e *Engine) SelectPointerUp(screenX, screenY float64, multiSelect bool) {
	p := e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.selection.PointerUp(p, multiSelect)
}

// Hover updates hover feedback from a screen position.
func (e *Engine) Hover(screenX, screenY float64) {
	p := e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.selection.Hover(p)
}

// ClearSelection empties the selection (and closes its context menu).
func (e *Engine) ClearSelection() {
	e.selection.Clear()
}

// CenterOnSelection fits the viewport to the current selection bounds.
func (e *Engine) CenterOnSelection(viewportW, viewportH float64) {
	if b := e.selection.Bounds(); b != nil {
		e.viewport.CenterOnBounds(*b, viewportW, viewportH)
	}
}

// BeginObjectDrag starts moving the selected objects from a screen point.
func (e *Engine) BeginObjectDrag(screenX, screenY float64) {
	if e.selection.Bounds() == nil {
		return
	}
	e.dragging = true
	e.dragStart = e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.dragOffset = Point{}
}

// UpdateObjectDrag advances the drag to a new screen point.
func (e *Engine) UpdateObjectDrag(screenX, screenY float64) {
	if !e.dragging {
		return
	}
	p := e.viewport.ScreenToWorld(Point{X: screenX, Y: screenY})
	e.dragOffset = Point{X: p.X - e.dragStart.X, Y: p.Y - e.dragStart.Y}
}

// EndObjectDrag commits the drag, returning proposed geometry for every
// movable selected object.
func (e *Engine) EndObjectDrag() []GeometryChange {
	if !e.dragging {
		return nil
	}
	offset := e.dragOffset
	e.dragging = false
	e.dragOffset = Point{}

	if e.board == nil || (offset.X == 0 && offset.Y == 0) {
		return nil
	}

	var changes []GeometryChange
	for _, ref := range e.selection.Selected() {
		switch ref.Type {
		case ObjectLine:
			line, ok := e.board.Lines[ref.ID]
			if !ok {
				continue
			}
			line.X += offset.X
			line.Y += offset.Y
			changes = append(changes, GeometryChange{Ref: ref, Line: &line})
		case ObjectImage:
			img, ok := e.board.Images[ref.ID]
			if !ok || img.Locked {
				continue
			}
			img.X += offset.X
			img.Y += offset.Y
			changes = append(changes, GeometryChange{Ref: ref, Image: &img})
		}
	}
	return changes
}

// CancelObjectDrag discards the in-progress drag.
func (e *Engine) CancelObjectDrag() {
	e.dragging = false
	e.dragOffset = Point{}
}

// StartTransform opens a resize/rotate session anchored at the given
// handle, from the current selection bounds and group rotation. Any
// in-progress object drag is cancelled so the two gestures cannot
// interleave.
func (e *Engine) StartTransform(mode TransformMode, handle Handle) {
	bounds := e.selection.Bounds()
	if bounds == nil {
		return
	}
	e.CancelObjectDrag()
	e.transform.Start(mode, handle, *bounds, e.selection.Rotation())
}

// UpdateTransform advances the session with caller-derived world bounds
// and the rotation delta since gesture start.
func (e *Engine) UpdateTransform(newBounds Rect, relativeRotation float64, snap bool) {
	e.transform.Update(newBounds, relativeRotation, snap)
}

// EndTransform commits the session, returning the proposed geometry.
func (e *Engine) EndTransform() []GeometryChange {
	changes := e.transform.Apply(e.board, e.selection.Selected())
	e.transform.End()
	return changes
}

// CancelTransform discards the session. The engine keeps no snapshot of
// committed geometry; rollback is the caller's job.
func (e *Engine) CancelTransform() {
	e.transform.Cancel()
}

// --- Queries ---

// Viewport returns the live viewport.
func (e *Engine) Viewport() *Viewport {
	return e.viewport
}

// SelectionBounds returns the group bounds, nil iff nothing is selected.
func (e *Engine) SelectionBounds() *Rect {
	return e.selection.Bounds()
}

// SelectionRotation returns the group handle-frame rotation in degrees.
func (e *Engine) SelectionRotation() float64 {
	return e.selection.Rotation()
}

// Selected returns the current selection.
func (e *Engine) Selected() []ObjectRef {
	return e.selection.Selected()
}

// Selection exposes the selection state machine.
func (e *Engine) Selection() *Selection {
	return e.selection
}

// TransformMatrix returns the active session's matrix (identity when idle).
func (e *Engine) TransformMatrix() TransformMatrix {
	return e.transform.Matrix()
}

// TransformPreview returns the proposed geometry for the session's current
// frame without committing, for live feedback while dragging a handle.
func (e *Engine) TransformPreview() []GeometryChange {
	return e.transform.Apply(e.board, e.selection.Selected())
}

// HoveredObjectID returns the ID under the pointer, or "".
func (e *Engine) HoveredObjectID() string {
	return e.selection.HoveredID()
}

// IsGestureActive reports an active pan/zoom gesture or its trailing
// cooldown; the frontend suppresses stroke creation while it is true.
func (e *Engine) IsGestureActive() bool {
	return e.gestures.IsGestureActive()
}

// ContextMenuAnchor returns the screen point the selection context menu
// attaches to (top-right corner of the group bounds), and whether there is
// a selection to anchor to.
func (e *Engine) ContextMenuAnchor() (Point, bool) {
	b := e.selection.Bounds()
	if b == nil {
		return Point{}, false
	}
	return e.viewport.WorldToScreen(Point{X: b.X + b.Width, Y: b.Y}), true
}
