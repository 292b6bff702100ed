package canvas

import (
	"math"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

// ObjectType tags a selected or hit object with its collection.
type ObjectType string

const (
	ObjectLine  ObjectType = "line"
	ObjectImage ObjectType = "image"
)

// ObjectRef identifies one board object.
type ObjectRef struct {
	ID   string     `json:"id"`
	Type ObjectType `json:"type"`
}

// IsPointOnLine tests a world point against a stroke. Each consecutive
// vertex pair is treated as a segment; the point hits if its distance to
// any segment is within strokeWidth/2 plus the tolerance.
func IsPointOnLine(p Point, line document.LineObject, tolerance float64) bool {
	n := line.PointCount()
	if n == 0 {
		return false
	}

	radius := line.StrokeWidth/2 + tolerance

	if n == 1 {
		x, y := line.Point(0)
		return p.Distance(Point{X: x, Y: y}) <= radius
	}

	for i := 0; i < n-1; i++ {
		ax, ay := line.Point(i)
		bx, by := line.Point(i + 1)
		if distanceToSegment(p, Point{X: ax, Y: ay}, Point{X: bx, Y: by}) <= radius {
			return true
		}
	}
	return false
}

// distanceToSegment projects p onto segment ab, clamping the projection
// parameter to [0, 1], and returns the distance to the closest point.
func distanceToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Distance(a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.Distance(closest)
}

// IsPointOnImage tests a world point against an image rectangle. Rotated
// images are handled by rotating the point into the image's local frame
// with the inverse rotation and testing against the unrotated rect.
func IsPointOnImage(p Point, img document.ImageObject) bool {
	rect := Rect{X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}
	if img.Rotation == 0 {
		return rect.Contains(p.X, p.Y)
	}

	cx, cy := img.Center()
	local := rotatePointAround(p, cx, cy, -img.Rotation)
	return rect.Contains(local.X, local.Y)
}

// FindObjectsAtPoint returns all objects under a world point, topmost
// first. Images render above lines, so they are tested first; within each
// collection later objects render on top and are tested first.
func FindObjectsAtPoint(board *document.Board, p Point, tolerance float64) []ObjectRef {
	if board == nil {
		return nil
	}

	var hits []ObjectRef
	for i := len(board.ImageOrder) - 1; i >= 0; i-- {
		id := board.ImageOrder[i]
		img, ok := board.Images[id]
		if !ok {
			continue
		}
		if IsPointOnImage(p, img) {
			hits = append(hits, ObjectRef{ID: id, Type: ObjectImage})
		}
	}
	for i := len(board.LineOrder) - 1; i >= 0; i-- {
		id := board.LineOrder[i]
		line, ok := board.Lines[id]
		if !ok {
			continue
		}
		if IsPointOnLine(p, line, tolerance) {
			hits = append(hits, ObjectRef{ID: id, Type: ObjectLine})
		}
	}
	return hits
}

// FindObjectsInBounds returns all objects intersecting a world rect.
//
// Unrotated images use plain AABB overlap. Rotated images accept if any
// rotated corner lies in the rect or any rect corner lies inside the
// rotated image, covering both containment directions. Lines accept if any
// vertex lies in the rect; this is a coarse test that skips full
// segment/rectangle intersection.
func FindObjectsInBounds(board *document.Board, rect Rect) []ObjectRef {
	if board == nil {
		return nil
	}

	var found []ObjectRef
	for _, id := range board.ImageOrder {
		img, ok := board.Images[id]
		if !ok {
			continue
		}
		if imageIntersectsRect(img, rect) {
			found = append(found, ObjectRef{ID: id, Type: ObjectImage})
		}
	}
	for _, id := range board.LineOrder {
		line, ok := board.Lines[id]
		if !ok {
			continue
		}
		if lineIntersectsRect(line, rect) {
			found = append(found, ObjectRef{ID: id, Type: ObjectLine})
		}
	}
	return found
}

func imageIntersectsRect(img document.ImageObject, rect Rect) bool {
	imgRect := Rect{X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}
	if img.Rotation == 0 {
		return rect.Overlaps(imgRect)
	}

	cx, cy := img.Center()
	for _, corner := range imgRect.Corners() {
		rotated := rotatePointAround(corner, cx, cy, img.Rotation)
		if rect.Contains(rotated.X, rotated.Y) {
			return true
		}
	}
	for _, corner := range rect.Corners() {
		if IsPointOnImage(corner, img) {
			return true
		}
	}
	return false
}

func lineIntersectsRect(line document.LineObject, rect Rect) bool {
	for i := 0; i < line.PointCount(); i++ {
		x, y := line.Point(i)
		if rect.Contains(x, y) {
			return true
		}
	}
	return false
}

// GroupBounds computes the padded world-space box enclosing the given
// objects. Line boxes span all vertices plus strokeWidth/2 plus the line
// padding; rotated image boxes span the four rotated corners. The union
// gets one extra outer padding so handles are easier to grab. Returns nil
// for an empty or unresolvable selection.
func GroupBounds(board *document.Board, selection []ObjectRef, cfg Config) *Rect {
	if board == nil || len(selection) == 0 {
		return nil
	}

	var bounds Rect
	have := false
	for _, ref := range selection {
		var objBounds Rect
		switch ref.Type {
		case ObjectLine:
			line, ok := board.Lines[ref.ID]
			if !ok || line.PointCount() == 0 {
				continue
			}
			objBounds = lineBounds(line, cfg)
		case ObjectImage:
			img, ok := board.Images[ref.ID]
			if !ok {
				continue
			}
			objBounds = imageBounds(img)
		default:
			continue
		}

		if !have {
			bounds = objBounds
			have = true
		} else {
			bounds = bounds.Union(objBounds)
		}
	}

	if !have {
		return nil
	}
	padded := bounds.Pad(cfg.GroupPadding)
	return &padded
}

func lineBounds(line document.LineObject, cfg Config) Rect {
	x0, y0 := line.Point(0)
	minX, minY := x0, y0
	maxX, maxY := x0, y0
	for i := 1; i < line.PointCount(); i++ {
		x, y := line.Point(i)
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}

	pad := line.StrokeWidth/2 + cfg.LinePadding
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}.Pad(pad)
}

func imageBounds(img document.ImageObject) Rect {
	rect := Rect{X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}
	if img.Rotation == 0 {
		return rect
	}

	cx, cy := img.Center()
	return AboutCenter(RotateDegrees(img.Rotation), cx, cy).TransformRect(rect)
}

// GroupRotation returns the rotation to use for the selection's handle
// frame. A single selected image reports its own rotation; otherwise the
// arithmetic mean of the selected images' rotations is used (0 if none).
// The mean is an approximation with no single correct geometric answer for
// independently rotated members, but it keeps the handles stable.
func GroupRotation(board *document.Board, selection []ObjectRef) float64 {
	if board == nil {
		return 0
	}

	var rotations []float64
	for _, ref := range selection {
		if ref.Type != ObjectImage {
			continue
		}
		if img, ok := board.Images[ref.ID]; ok {
			rotations = append(rotations, img.Rotation)
		}
	}

	if len(rotations) == 0 {
		return 0
	}
	if len(rotations) == 1 && len(selection) == 1 {
		return rotations[0]
	}

	sum := 0.0
	for _, r := range rotations {
		sum += r
	}
	return sum / float64(len(rotations))
}
