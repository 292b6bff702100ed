package canvas

import (
	"testing"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

func selectionBoard() *document.Board {
	b := document.NewEmptyBoard("b", "b")
	b.AddLine(document.LineObject{ID: "dot", Points: []float64{25, 25}, StrokeWidth: 2})
	b.AddLine(document.LineObject{ID: "stroke", X: 500, Y: 0, Points: []float64{0, 0, 100, 0}, StrokeWidth: 8})
	b.AddImage(document.ImageObject{ID: "img", X: 200, Y: 200, Width: 100, Height: 100})
	b.AddImage(document.ImageObject{ID: "lockedImg", X: 700, Y: 700, Width: 50, Height: 50, Locked: true})
	return b
}

func TestSelectionClickSelectsTopmost(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 250, Y: 250}, false)
	if s.State() != SelectionObject {
		t.Fatalf("state = %v, want object-selected", s.State())
	}
	s.PointerUp(Point{X: 250, Y: 250}, false)

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "img" {
		t.Fatalf("selected = %+v, want [img]", sel)
	}
	if s.Bounds() == nil {
		t.Error("bounds nil for non-empty selection")
	}
	if s.State() != SelectionIdle {
		t.Errorf("state = %v after release, want idle", s.State())
	}
}

func TestSelectionMissClearsAndArmsDrag(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())
	s.Select([]ObjectRef{{ID: "img", Type: ObjectImage}})
	s.ShowMenu()

	s.PointerDown(Point{X: 1000, Y: 1000}, false)
	if len(s.Selected()) != 0 {
		t.Error("miss did not clear selection")
	}
	if s.Bounds() != nil {
		t.Error("bounds not nil after clear")
	}
	if s.MenuVisible() {
		t.Error("context menu survived a cleared selection")
	}
	if s.State() != SelectionPotentialDrag {
		t.Errorf("state = %v, want potential-drag", s.State())
	}
}

func TestSelectionMissKeepsSelectionUnderMultiSelect(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())
	s.Select([]ObjectRef{{ID: "img", Type: ObjectImage}})

	s.PointerDown(Point{X: 1000, Y: 1000}, true)
	if len(s.Selected()) != 1 {
		t.Error("multi-select miss cleared the selection")
	}
}

func TestSelectionMultiSelectToggles(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 250, Y: 250}, false)
	s.PointerUp(Point{X: 250, Y: 250}, false)
	s.PointerDown(Point{X: 725, Y: 725}, true)
	s.PointerUp(Point{X: 725, Y: 725}, true)

	if len(s.Selected()) != 2 {
		t.Fatalf("selected = %+v, want 2 objects", s.Selected())
	}

	// Toggling the same object again removes it.
	s.PointerDown(Point{X: 725, Y: 725}, true)
	s.PointerUp(Point{X: 725, Y: 725}, true)
	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "img" {
		t.Errorf("selected = %+v, want [img]", sel)
	}
}

func TestMarqueeRequiresThreshold(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 0, Y: 0}, false)
	s.PointerMove(Point{X: 3, Y: 3}) // under the 5-unit threshold
	if s.State() != SelectionPotentialDrag {
		t.Errorf("state = %v, want still potential-drag", s.State())
	}

	s.PointerMove(Point{X: 10, Y: 10})
	if s.State() != SelectionRectangle {
		t.Errorf("state = %v, want rectangle-selection", s.State())
	}
}

func TestMarqueeSelectsVertexInRect(t *testing.T) {
	// Drag from (0,0) to (50,50) selects the line whose sole point is
	// (25,25).
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 0, Y: 0}, false)
	s.PointerMove(Point{X: 50, Y: 50})
	s.PointerUp(Point{X: 50, Y: 50}, false)

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "dot" {
		t.Fatalf("selected = %+v, want [dot]", sel)
	}
	if s.State() != SelectionIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestMarqueeNormalizesDragDirection(t *testing.T) {
	// Dragging up-left gives the same rect as down-right.
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 50, Y: 50}, false)
	s.PointerMove(Point{X: 0, Y: 0})
	if r := s.Marquee(); r.X != 0 || r.Y != 0 || r.Width != 50 || r.Height != 50 {
		t.Errorf("marquee = %+v, want {0 0 50 50}", r)
	}
	s.PointerUp(Point{X: 0, Y: 0}, false)

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "dot" {
		t.Errorf("selected = %+v, want [dot]", sel)
	}
}

func TestClickSafetyNetOnSubThresholdDrag(t *testing.T) {
	// A press that wobbles under the threshold still selects on release.
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 1000, Y: 1000}, false)
	s.PointerMove(Point{X: 1002, Y: 1001})
	s.PointerUp(Point{X: 252, Y: 252}, false)

	// Release re-runs the point hit test at the release position.
	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "img" {
		t.Errorf("selected = %+v, want [img]", sel)
	}
}

func TestLockedImageSelectable(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.PointerDown(Point{X: 725, Y: 725}, false)
	s.PointerUp(Point{X: 725, Y: 725}, false)

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "lockedImg" {
		t.Fatalf("selected = %+v, want [lockedImg]", sel)
	}
	if s.Bounds() == nil {
		t.Error("locked image excluded from group bounds")
	}
}

func TestHover(t *testing.T) {
	s := NewSelection(DefaultConfig(), selectionBoard())

	s.Hover(Point{X: 250, Y: 250})
	if s.HoveredID() != "img" {
		t.Errorf("hovered = %q, want img", s.HoveredID())
	}
	s.Hover(Point{X: 1000, Y: 1000})
	if s.HoveredID() != "" {
		t.Errorf("hovered = %q, want empty", s.HoveredID())
	}
}

func TestSetBoardDropsStaleSelection(t *testing.T) {
	b := selectionBoard()
	s := NewSelection(DefaultConfig(), b)
	s.Select([]ObjectRef{
		{ID: "img", Type: ObjectImage},
		{ID: "dot", Type: ObjectLine},
	})

	next := document.NewEmptyBoard("b", "b")
	next.AddImage(b.Images["img"])
	s.SetBoard(next)

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID != "img" {
		t.Errorf("selected = %+v, want only the surviving img", sel)
	}
}
