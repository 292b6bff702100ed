//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/slateboard/slateboard/backend-go/internal/canvas"
	"github.com/slateboard/slateboard/backend-go/internal/document"
)

var eng *canvas.Engine

func main() {
	eng = canvas.NewEngine(canvas.DefaultConfig(), time.Now)

	// Create the engine API object
	slateEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	slateEngine.Set("loadBoard", js.FuncOf(loadBoard))
	slateEngine.Set("updateBoard", js.FuncOf(updateBoard))
	slateEngine.Set("loadSampleBoard", js.FuncOf(loadSampleBoard))
	slateEngine.Set("handleWheel", js.FuncOf(handleWheel))
	slateEngine.Set("handlePointerDown", js.FuncOf(handlePointerDown))
	slateEngine.Set("handlePointerMove", js.FuncOf(handlePointerMove))
	slateEngine.Set("handlePointerUp", js.FuncOf(handlePointerUp))
	slateEngine.Set("handleTouchStart", js.FuncOf(handleTouchStart))
	slateEngine.Set("handleTouchMove", js.FuncOf(handleTouchMove))
	slateEngine.Set("handleTouchEnd", js.FuncOf(handleTouchEnd))
	slateEngine.Set("selectPointerDown", js.FuncOf(selectPointerDown))
	slateEngine.Set("selectPointerMove", js.FuncOf(selectPointerMove))
	slateEngine.Set("selectPointerUp", js.FuncOf(selectPointerUp))
	slateEngine.Set("hover", js.FuncOf(hover))
	slateEngine.Set("clearSelection", js.FuncOf(clearSelection))
	slateEngine.Set("centerOnSelection", js.FuncOf(centerOnSelection))
	slateEngine.Set("beginObjectDrag", js.FuncOf(beginObjectDrag))
	slateEngine.Set("updateObjectDrag", js.FuncOf(updateObjectDrag))
	slateEngine.Set("endObjectDrag", js.FuncOf(endObjectDrag))
	slateEngine.Set("cancelObjectDrag", js.FuncOf(cancelObjectDrag))
	slateEngine.Set("startTransform", js.FuncOf(startTransform))
	slateEngine.Set("updateTransform", js.FuncOf(updateTransform))
	slateEngine.Set("endTransform", js.FuncOf(endTransform))
	slateEngine.Set("cancelTransform", js.FuncOf(cancelTransform))

	// --- Queries (frontend ← backend) ---
	slateEngine.Set("getViewport", js.FuncOf(getViewport))
	slateEngine.Set("getSelection", js.FuncOf(getSelection))
	slateEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	slateEngine.Set("getSelectionRotation", js.FuncOf(getSelectionRotation))
	slateEngine.Set("getTransformMatrix", js.FuncOf(getTransformMatrix))
	slateEngine.Set("getTransformPreview", js.FuncOf(getTransformPreview))
	slateEngine.Set("getHoveredObjectId", js.FuncOf(getHoveredObjectID))
	slateEngine.Set("isGestureActive", js.FuncOf(isGestureActive))
	slateEngine.Set("getContextMenuAnchor", js.FuncOf(getContextMenuAnchor))

	// Register on global scope
	js.Global().Set("slateEngine", slateEngine)

	// Signal that WASM is ready
	js.Global().Set("slateWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadBoard(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing board JSON"})
	}

	jsonData := args[0].String()
	if err := eng.LoadBoard(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateBoard(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing board JSON"})
	}

	jsonData := args[0].String()
	if err := eng.UpdateBoard(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleBoard(this js.Value, args []js.Value) interface{} {
	boardID := "board_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		boardID = args[0].String()
	}

	eng.SetBoard(document.NewSampleBoard(boardID))
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func handleWheel(this js.Value, args []js.Value) interface{} {
	var ev canvas.WheelEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandleWheel(ev)
	return nil
}

func handlePointerDown(this js.Value, args []js.Value) interface{} {
	var ev canvas.PointerEvent
	if !decodeArg(args, &ev) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.HandlePointerDown(ev))
}

func handlePointerMove(this js.Value, args []js.Value) interface{} {
	var ev canvas.PointerEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandlePointerMove(ev)
	return nil
}

func handlePointerUp(this js.Value, args []js.Value) interface{} {
	var ev canvas.PointerEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandlePointerUp(ev)
	return nil
}

func handleTouchStart(this js.Value, args []js.Value) interface{} {
	var ev canvas.TouchEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandleTouchStart(ev)
	return nil
}

func handleTouchMove(this js.Value, args []js.Value) interface{} {
	var ev canvas.TouchEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandleTouchMove(ev)
	return nil
}

func handleTouchEnd(this js.Value, args []js.Value) interface{} {
	var ev canvas.TouchEvent
	if !decodeArg(args, &ev) {
		return nil
	}
	eng.HandleTouchEnd(ev)
	return nil
}

func selectPointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SelectPointerDown(args[0].Float(), args[1].Float(), args[2].Bool())
	return nil
}

func selectPointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SelectPointerMove(args[0].Float(), args[1].Float())
	return nil
}

func selectPointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SelectPointerUp(args[0].Float(), args[1].Float(), args[2].Bool())
	return nil
}

func hover(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Hover(args[0].Float(), args[1].Float())
	return nil
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	eng.ClearSelection()
	return nil
}

func centerOnSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.CenterOnSelection(args[0].Float(), args[1].Float())
	return nil
}

func beginObjectDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.BeginObjectDrag(args[0].Float(), args[1].Float())
	return nil
}

func updateObjectDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.UpdateObjectDrag(args[0].Float(), args[1].Float())
	return nil
}

func endObjectDrag(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.EndObjectDrag())
}

func cancelObjectDrag(this js.Value, args []js.Value) interface{} {
	eng.CancelObjectDrag()
	return nil
}

func startTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}

	handle := canvas.Handle(args[0].String())
	mode := canvas.TransformResize
	if handle == canvas.HandleRotate {
		mode = canvas.TransformRotate
	}
	eng.StartTransform(mode, handle)
	return nil
}

func updateTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}

	var bounds canvas.Rect
	if err := json.Unmarshal([]byte(args[0].String()), &bounds); err != nil {
		return nil
	}
	eng.UpdateTransform(bounds, args[1].Float(), args[2].Bool())
	return nil
}

func endTransform(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.EndTransform())
}

func cancelTransform(this js.Value, args []js.Value) interface{} {
	eng.CancelTransform()
	return nil
}

// --- Query Handlers ---

func getViewport(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.Viewport())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.Selected())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	bounds := eng.SelectionBounds()
	if bounds == nil {
		return js.ValueOf("null")
	}
	return marshalJSON(bounds)
}

func getSelectionRotation(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SelectionRotation())
}

func getTransformMatrix(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.TransformMatrix())
}

func getTransformPreview(this js.Value, args []js.Value) interface{} {
	return marshalJSON(eng.TransformPreview())
}

func getHoveredObjectID(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.HoveredObjectID())
}

func isGestureActive(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsGestureActive())
}

func getContextMenuAnchor(this js.Value, args []js.Value) interface{} {
	anchor, ok := eng.ContextMenuAnchor()
	if !ok {
		return js.ValueOf("null")
	}
	return marshalJSON(anchor)
}

// decodeArg unmarshals the first argument (a JSON string) into v.
func decodeArg(args []js.Value, v interface{}) bool {
	if len(args) < 1 {
		return false
	}
	return json.Unmarshal([]byte(args[0].String()), v) == nil
}

// marshalJSON returns v as a JSON string for the JS side.
func marshalJSON(v interface{}) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}
