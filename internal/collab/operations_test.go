package collab

import (
	"encoding/json"
	"testing"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

func testBoard() *document.Board {
	b := document.NewEmptyBoard("board_test", "Test board")
	b.AddLine(document.LineObject{
		ID:          "line_1",
		X:           10,
		Y:           10,
		Points:      []float64{0, 0, 50, 50},
		StrokeWidth: 4,
		Color:       "#000000",
	})
	b.AddImage(document.ImageObject{
		ID:      "img_1",
		AssetID: "asset_1",
		X:       100,
		Y:       100,
		Width:   80,
		Height:  60,
	})
	b.AddImage(document.ImageObject{
		ID:      "img_locked",
		AssetID: "asset_2",
		X:       300,
		Y:       300,
		Width:   40,
		Height:  40,
		Locked:  true,
	})
	return b
}

func TestApplyLineAddAndDelete(t *testing.T) {
	state := NewBoardState(testBoard())

	lineJSON, _ := json.Marshal(document.LineObject{
		ID:          "line_2",
		Points:      []float64{0, 0, 10, 10},
		StrokeWidth: 2,
		Color:       "#ff0000",
	})

	seq, err := state.ApplyOperation(Operation{ID: "op1", Type: OpLineAdd, Line: lineJSON})
	if err != nil {
		t.Fatalf("line.add failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("serverSeq = %d, want 1", seq)
	}
	if _, ok := state.board.Lines["line_2"]; !ok {
		t.Fatal("line_2 not added to board")
	}
	if state.board.LineOrder[len(state.board.LineOrder)-1] != "line_2" {
		t.Error("line_2 should be last in render order")
	}

	// Adding the same ID again must be rejected.
	if _, err := state.ApplyOperation(Operation{ID: "op2", Type: OpLineAdd, Line: lineJSON}); err == nil {
		t.Error("duplicate line.add should fail")
	}

	seq, err = state.ApplyOperation(Operation{ID: "op3", Type: OpLineDelete, ObjectID: "line_2"})
	if err != nil {
		t.Fatalf("line.delete failed: %v", err)
	}
	if seq != 2 {
		t.Errorf("serverSeq = %d, want 2 (failed op must not advance it)", seq)
	}
	if _, ok := state.board.Lines["line_2"]; ok {
		t.Error("line_2 still present after delete")
	}
}

func TestApplyTransformLine(t *testing.T) {
	state := NewBoardState(testBoard())

	changes, _ := json.Marshal(map[string]any{
		"x": 40.0, "y": 60.0, "strokeWidth": 8.0,
	})
	_, err := state.ApplyOperation(Operation{
		ID: "op1", Type: OpObjectTransform, ObjectID: "line_1", Changes: changes,
	})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	line := state.board.Lines["line_1"]
	if line.X != 40 || line.Y != 60 {
		t.Errorf("offset = (%v, %v), want (40, 60)", line.X, line.Y)
	}
	if line.StrokeWidth != 8 {
		t.Errorf("strokeWidth = %v, want 8", line.StrokeWidth)
	}
	// Untouched fields keep their values.
	if line.Color != "#000000" {
		t.Errorf("color changed unexpectedly: %q", line.Color)
	}
	if len(line.Points) != 4 {
		t.Errorf("points changed unexpectedly: %v", line.Points)
	}
}

func TestApplyTransformRejectsUnknownField(t *testing.T) {
	state := NewBoardState(testBoard())

	changes, _ := json.Marshal(map[string]any{"rotation": 45.0})
	_, err := state.ApplyOperation(Operation{
		ID: "op1", Type: OpObjectTransform, ObjectID: "line_1", Changes: changes,
	})
	if err == nil {
		t.Error("rotation on a line should be rejected")
	}
}

func TestLockedImageRejectsTransformAndDelete(t *testing.T) {
	state := NewBoardState(testBoard())

	changes, _ := json.Marshal(map[string]any{"x": 0.0})
	_, err := state.ApplyOperation(Operation{
		ID: "op1", Type: OpObjectTransform, ObjectID: "img_locked", Changes: changes,
	})
	if err == nil {
		t.Error("transform of locked image should be rejected")
	}

	_, err = state.ApplyOperation(Operation{ID: "op2", Type: OpObjectDelete, ObjectID: "img_locked"})
	if err == nil {
		t.Error("delete of locked image should be rejected")
	}

	// Unlock, then the same operations succeed.
	locked := false
	_, err = state.ApplyOperation(Operation{ID: "op3", Type: OpImageLocked, ObjectID: "img_locked", Locked: &locked})
	if err != nil {
		t.Fatalf("image.locked failed: %v", err)
	}
	if _, err := state.ApplyOperation(Operation{ID: "op4", Type: OpObjectDelete, ObjectID: "img_locked"}); err != nil {
		t.Errorf("delete after unlock failed: %v", err)
	}
}

func TestApplyImageAddAndTransform(t *testing.T) {
	state := NewBoardState(testBoard())

	imgJSON, _ := json.Marshal(document.ImageObject{
		ID: "img_2", AssetID: "asset_3", X: 0, Y: 0, Width: 100, Height: 100,
	})
	if _, err := state.ApplyOperation(Operation{ID: "op1", Type: OpImageAdd, Image: imgJSON}); err != nil {
		t.Fatalf("image.add failed: %v", err)
	}

	changes, _ := json.Marshal(map[string]any{"rotation": 30.0, "width": 200.0})
	if _, err := state.ApplyOperation(Operation{
		ID: "op2", Type: OpObjectTransform, ObjectID: "img_2", Changes: changes,
	}); err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	img := state.board.Images["img_2"]
	if img.Rotation != 30 || img.Width != 200 {
		t.Errorf("got rotation=%v width=%v, want 30 and 200", img.Rotation, img.Width)
	}
	if img.Height != 100 {
		t.Errorf("height changed unexpectedly: %v", img.Height)
	}
}

func TestBoardClearAndRename(t *testing.T) {
	state := NewBoardState(testBoard())

	if _, err := state.ApplyOperation(Operation{ID: "op1", Type: OpBoardRename, Name: "Renamed"}); err != nil {
		t.Fatalf("board.rename failed: %v", err)
	}
	if state.board.Name != "Renamed" {
		t.Errorf("name = %q, want %q", state.board.Name, "Renamed")
	}

	if _, err := state.ApplyOperation(Operation{ID: "op2", Type: OpBoardClear}); err != nil {
		t.Fatalf("board.clear failed: %v", err)
	}
	if len(state.board.Lines) != 0 || len(state.board.Images) != 0 {
		t.Error("board not empty after clear")
	}
	if len(state.board.LineOrder) != 0 || len(state.board.ImageOrder) != 0 {
		t.Error("render order not empty after clear")
	}
}

func TestUnknownOperationDoesNotAdvanceSeq(t *testing.T) {
	state := NewBoardState(testBoard())

	if _, err := state.ApplyOperation(Operation{ID: "op1", Type: "bogus.op"}); err == nil {
		t.Fatal("unknown op should fail")
	}

	seq, err := state.ApplyOperation(Operation{ID: "op2", Type: OpBoardRename, Name: "x"})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("serverSeq = %d, want 1", seq)
	}
}

func TestSnapshotResetsDirtyCounter(t *testing.T) {
	state := NewBoardState(testBoard())

	if _, err := state.ApplyOperation(Operation{ID: "op1", Type: OpBoardRename, Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if state.DirtyOps() != 1 {
		t.Errorf("dirtyOps = %d, want 1", state.DirtyOps())
	}

	doc, seq, err := state.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("snapshot seq = %d, want 1", seq)
	}
	if state.DirtyOps() != 0 {
		t.Errorf("dirtyOps = %d after snapshot, want 0", state.DirtyOps())
	}

	var decoded document.Board
	if err := json.Unmarshal(doc, &decoded); err != nil {
		t.Fatalf("snapshot is not a valid board: %v", err)
	}
	if decoded.Name != "A" {
		t.Errorf("snapshot name = %q, want %q", decoded.Name, "A")
	}
}
