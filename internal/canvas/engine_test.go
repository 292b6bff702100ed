package canvas

import (
	"math"
	"testing"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

func TestEngineLoadBoardFromJSON(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	err := e.LoadBoard(`{
		"id": "board_1",
		"name": "Fractions",
		"lines": {"l1": {"id": "l1", "x": 0, "y": 0, "points": [0,0,10,10], "strokeWidth": 3}},
		"images": {},
		"lineOrder": ["l1"],
		"imageOrder": []
	}`)
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}

	e.SelectPointerDown(5, 5, false)
	e.SelectPointerUp(5, 5, false)
	sel := e.Selected()
	if len(sel) != 1 || sel[0].ID != "l1" {
		t.Errorf("selected = %+v, want [l1]", sel)
	}
}

func TestEngineLoadBoardRejectsBadJSON(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	if err := e.LoadBoard(`{not json`); err == nil {
		t.Error("expected error for malformed board JSON")
	}
}

func TestEngineWheelZoom(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	before := e.Viewport().ScreenToWorld(Point{X: 640, Y: 360})
	e.HandleWheel(WheelEvent{DeltaY: -240, ClientX: 640, ClientY: 360})
	after := e.Viewport().ScreenToWorld(Point{X: 640, Y: 360})

	if e.Viewport().Scale <= 1 {
		t.Errorf("scroll up should zoom in, scale = %v", e.Viewport().Scale)
	}
	if math.Abs(before.X-after.X) > floatTol || math.Abs(before.Y-after.Y) > floatTol {
		t.Error("wheel zoom moved the world point under the cursor")
	}
}

func TestEngineContextMenuAnchor(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	b := document.NewEmptyBoard("b", "b")
	b.AddImage(document.ImageObject{ID: "i", X: 100, Y: 100, Width: 50, Height: 50})
	e.SetBoard(b)

	if _, ok := e.ContextMenuAnchor(); ok {
		t.Error("anchor reported with empty selection")
	}

	e.Selection().Select([]ObjectRef{{ID: "i", Type: ObjectImage}})
	e.Viewport().Pan(10, 20)

	anchor, ok := e.ContextMenuAnchor()
	if !ok {
		t.Fatal("no anchor for selected object")
	}
	bounds := e.SelectionBounds()
	want := e.Viewport().WorldToScreen(Point{X: bounds.X + bounds.Width, Y: bounds.Y})
	if anchor != want {
		t.Errorf("anchor = %+v, want %+v", anchor, want)
	}
}

func TestEngineGestureGatesDrawing(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	if e.IsGestureActive() {
		t.Error("gesture active on a fresh engine")
	}

	e.HandleTouchStart(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 100, ClientY: 100},
		{Identifier: 2, ClientX: 300, ClientY: 100},
	}})
	if !e.IsGestureActive() {
		t.Error("two-finger contact should gate drawing")
	}
}
