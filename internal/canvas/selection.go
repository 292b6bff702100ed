package canvas

import "github.com/slateboard/slateboard/backend-go/internal/document"

// SelectionState names the phases of the selection state machine.
type SelectionState int

const (
	SelectionIdle SelectionState = iota
	SelectionPotentialDrag
	SelectionRectangle
	SelectionObject
)

// Selection owns the current selection set, the marquee state machine and
// the derived group bounds/rotation. It reads board snapshots through the
// hit tester and never mutates them.
//
// State flow: Idle → PotentialDrag → RectangleSelection → Idle for marquee
// drags, Idle → ObjectSelected → Idle for direct hits.
type Selection struct {
	cfg   Config
	board *document.Board

	state    SelectionState
	selected []ObjectRef

	dragStart Point
	marquee   Rect

	bounds   *Rect
	rotation float64

	hoveredID   string
	menuVisible bool
}

// NewSelection creates an empty selection over the given board snapshot.
func NewSelection(cfg Config, board *document.Board) *Selection {
	return &Selection{cfg: cfg, board: board}
}

// SetBoard swaps the board snapshot, keeping selected IDs that still
// resolve and dropping the rest.
func (s *Selection) SetBoard(board *document.Board) {
	s.board = board
	if board == nil {
		s.clear()
		return
	}

	kept := s.selected[:0]
	for _, ref := range s.selected {
		switch ref.Type {
		case ObjectLine:
			if _, ok := board.Lines[ref.ID]; ok {
				kept = append(kept, ref)
			}
		case ObjectImage:
			if _, ok := board.Images[ref.ID]; ok {
				kept = append(kept, ref)
			}
		}
	}
	s.selected = kept
	s.recompute()
}

// PointerDown starts an interaction at a world point. A hit selects the
// topmost object (or toggles it under the multi-select modifier); a miss
// clears the selection (unless multi-select) and arms a potential marquee
// drag.
func (s *Selection) PointerDown(p Point, multiSelect bool) {
	hits := FindObjectsAtPoint(s.board, p, s.cfg.HitTolerance)
	if len(hits) > 0 {
		top := hits[0]
		if multiSelect {
			s.toggle(top)
		} else if !s.contains(top) {
			s.selected = []ObjectRef{top}
		}
		s.state = SelectionObject
		s.recompute()
		return
	}

	if !multiSelect {
		s.Clear()
	}
	s.state = SelectionPotentialDrag
	s.dragStart = p
	s.marquee = Rect{X: p.X, Y: p.Y}
}

// PointerMove advances a potential or active marquee drag.
func (s *Selection) PointerMove(p Point) {
	switch s.state {
	case SelectionPotentialDrag:
		if p.Distance(s.dragStart) > s.cfg.DragThreshold {
			s.state = SelectionRectangle
			s.marquee = RectFromPoints(s.dragStart, p)
		}
	case SelectionRectangle:
		s.marquee = RectFromPoints(s.dragStart, p)
	}
}

// PointerUp finishes the interaction. A completed marquee replaces the
// selection with everything in its final rect; a drag that never crossed
// the threshold re-runs the point hit test as a safety net for a plain
// click, so a near-stationary tap still selects.
func (s *Selection) PointerUp(p Point, multiSelect bool) {
	switch s.state {
	case SelectionRectangle:
		found := FindObjectsInBounds(s.board, RectFromPoints(s.dragStart, p))
		s.selected = found
		s.recompute()

	case SelectionPotentialDrag:
		hits := FindObjectsAtPoint(s.board, p, s.cfg.HitTolerance)
		if len(hits) > 0 {
			if multiSelect {
				s.toggle(hits[0])
			} else {
				s.selected = []ObjectRef{hits[0]}
			}
			s.recompute()
		}
	}

	s.state = SelectionIdle
	s.marquee = Rect{}
}

// Hover updates the hovered object ID for hover feedback.
func (s *Selection) Hover(p Point) {
	hits := FindObjectsAtPoint(s.board, p, s.cfg.HitTolerance)
	if len(hits) > 0 {
		s.hoveredID = hits[0].ID
	} else {
		s.hoveredID = ""
	}
}

// Clear empties the selection. Any context menu anchored to it goes away
// with it.
func (s *Selection) Clear() {
	s.clear()
}

// Select replaces the selection with the given refs (used by external
// commands such as select-all or sync-driven selection).
func (s *Selection) Select(refs []ObjectRef) {
	s.selected = append([]ObjectRef(nil), refs...)
	s.recompute()
}

// Refresh recomputes bounds and rotation after object geometry changed.
func (s *Selection) Refresh() {
	s.recompute()
}

// Selected returns the current selection, topmost-hit order preserved.
func (s *Selection) Selected() []ObjectRef {
	return s.selected
}

// Bounds returns the padded group bounds, nil iff the selection is empty.
func (s *Selection) Bounds() *Rect {
	return s.bounds
}

// Rotation returns the group handle-frame rotation in degrees.
func (s *Selection) Rotation() float64 {
	return s.rotation
}

// State returns the current state-machine phase.
func (s *Selection) State() SelectionState {
	return s.state
}

// Marquee returns the active selection rectangle (zero when not dragging).
func (s *Selection) Marquee() Rect {
	return s.marquee
}

// HoveredID returns the ID under the pointer, or "".
func (s *Selection) HoveredID() string {
	return s.hoveredID
}

// ShowMenu marks the selection context menu visible.
func (s *Selection) ShowMenu() {
	if len(s.selected) > 0 {
		s.menuVisible = true
	}
}

// MenuVisible reports whether the selection context menu is open.
func (s *Selection) MenuVisible() bool {
	return s.menuVisible
}

func (s *Selection) clear() {
	s.selected = nil
	s.bounds = nil
	s.rotation = 0
	s.menuVisible = false
}

func (s *Selection) contains(ref ObjectRef) bool {
	for _, r := range s.selected {
		if r.ID == ref.ID && r.Type == ref.Type {
			return true
		}
	}
	return false
}

func (s *Selection) toggle(ref ObjectRef) {
	for i, r := range s.selected {
		if r.ID == ref.ID && r.Type == ref.Type {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, ref)
}

func (s *Selection) recompute() {
	s.bounds = GroupBounds(s.board, s.selected, s.cfg)
	s.rotation = GroupRotation(s.board, s.selected)
	if s.bounds == nil {
		s.menuVisible = false
	}
}
