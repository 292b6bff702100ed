package collab

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

// BoardState holds the authoritative board document for a room
type BoardState struct {
	mu        sync.RWMutex
	board     *document.Board
	serverSeq int64
	dirtyOps  int // operations applied since the last snapshot
}

// NewBoardState creates a new board state from an initial document
func NewBoardState(board *document.Board) *BoardState {
	return &BoardState{
		board:     board,
		serverSeq: 0,
	}
}

// Snapshot returns the current board encoded as JSON along with the
// server sequence it reflects, and resets the dirty-operation counter.
func (bs *BoardState) Snapshot() (json.RawMessage, int64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	data, err := json.Marshal(bs.board)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal board: %w", err)
	}
	bs.dirtyOps = 0
	return data, bs.serverSeq, nil
}

// Document returns the current board encoded as JSON without touching
// the dirty counter.
func (bs *BoardState) Document() (json.RawMessage, int64, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	data, err := json.Marshal(bs.board)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal board: %w", err)
	}
	return data, bs.serverSeq, nil
}

// DirtyOps reports how many operations have been applied since the last
// snapshot.
func (bs *BoardState) DirtyOps() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.dirtyOps
}

// ApplyOperation applies an operation to the board and returns the server sequence
func (bs *BoardState) ApplyOperation(op Operation) (int64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if err := bs.applyOperationLocked(op); err != nil {
		return 0, err
	}

	bs.serverSeq++
	bs.dirtyOps++

	return bs.serverSeq, nil
}

// applyOperationLocked applies the operation without locking (caller must hold lock)
func (bs *BoardState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case OpLineAdd:
		return bs.applyLineAdd(op)
	case OpLineDelete:
		return bs.applyLineDelete(op)
	case OpImageAdd:
		return bs.applyImageAdd(op)
	case OpImageLocked:
		return bs.applyImageLocked(op)
	case OpObjectTransform:
		return bs.applyTransform(op)
	case OpObjectDelete:
		return bs.applyObjectDelete(op)
	case OpBoardClear:
		bs.board.Clear()
		return nil
	case OpBoardRename:
		bs.board.Name = op.Name
		return nil
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (bs *BoardState) applyLineAdd(op Operation) error {
	var line document.LineObject
	if err := json.Unmarshal(op.Line, &line); err != nil {
		return fmt.Errorf("invalid line: %w", err)
	}
	if line.ID == "" {
		return fmt.Errorf("line is missing an id")
	}
	if _, exists := bs.board.Lines[line.ID]; exists {
		return fmt.Errorf("line already exists: %s", line.ID)
	}
	bs.board.AddLine(line)
	return nil
}

func (bs *BoardState) applyLineDelete(op Operation) error {
	if _, ok := bs.board.Lines[op.ObjectID]; !ok {
		return fmt.Errorf("line not found: %s", op.ObjectID)
	}
	bs.board.RemoveLine(op.ObjectID)
	return nil
}

func (bs *BoardState) applyImageAdd(op Operation) error {
	var img document.ImageObject
	if err := json.Unmarshal(op.Image, &img); err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}
	if img.ID == "" {
		return fmt.Errorf("image is missing an id")
	}
	if _, exists := bs.board.Images[img.ID]; exists {
		return fmt.Errorf("image already exists: %s", img.ID)
	}
	bs.board.AddImage(img)
	return nil
}

func (bs *BoardState) applyImageLocked(op Operation) error {
	img, ok := bs.board.Images[op.ObjectID]
	if !ok {
		return fmt.Errorf("image not found: %s", op.ObjectID)
	}
	if op.Locked != nil {
		img.Locked = *op.Locked
	}
	bs.board.Images[op.ObjectID] = img
	return nil
}

// applyTransform overwrites geometry fields on a line or image. Changes
// is a partial object; absent fields keep their values.
func (bs *BoardState) applyTransform(op Operation) error {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(op.Changes, &changes); err != nil {
		return fmt.Errorf("invalid transform changes: %w", err)
	}

	if line, ok := bs.board.Lines[op.ObjectID]; ok {
		if err := applyLineChanges(&line, changes); err != nil {
			return err
		}
		bs.board.Lines[op.ObjectID] = line
		return nil
	}

	if img, ok := bs.board.Images[op.ObjectID]; ok {
		if img.Locked {
			return fmt.Errorf("image is locked: %s", op.ObjectID)
		}
		if err := applyImageChanges(&img, changes); err != nil {
			return err
		}
		bs.board.Images[op.ObjectID] = img
		return nil
	}

	return fmt.Errorf("object not found: %s", op.ObjectID)
}

func applyLineChanges(line *document.LineObject, changes map[string]json.RawMessage) error {
	for key, raw := range changes {
		var err error
		switch key {
		case "x":
			err = json.Unmarshal(raw, &line.X)
		case "y":
			err = json.Unmarshal(raw, &line.Y)
		case "points":
			err = json.Unmarshal(raw, &line.Points)
		case "strokeWidth":
			err = json.Unmarshal(raw, &line.StrokeWidth)
		case "color":
			err = json.Unmarshal(raw, &line.Color)
		default:
			return fmt.Errorf("unknown line field: %s", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

func applyImageChanges(img *document.ImageObject, changes map[string]json.RawMessage) error {
	for key, raw := range changes {
		var err error
		switch key {
		case "x":
			err = json.Unmarshal(raw, &img.X)
		case "y":
			err = json.Unmarshal(raw, &img.Y)
		case "width":
			err = json.Unmarshal(raw, &img.Width)
		case "height":
			err = json.Unmarshal(raw, &img.Height)
		case "rotation":
			err = json.Unmarshal(raw, &img.Rotation)
		default:
			return fmt.Errorf("unknown image field: %s", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

func (bs *BoardState) applyObjectDelete(op Operation) error {
	if _, ok := bs.board.Lines[op.ObjectID]; ok {
		bs.board.RemoveLine(op.ObjectID)
		return nil
	}
	if img, ok := bs.board.Images[op.ObjectID]; ok {
		if img.Locked {
			return fmt.Errorf("image is locked: %s", op.ObjectID)
		}
		bs.board.RemoveImage(op.ObjectID)
		return nil
	}
	return fmt.Errorf("object not found: %s", op.ObjectID)
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
