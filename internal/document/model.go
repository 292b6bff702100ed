package document

// Board is the authoritative drawing surface document for one classroom
// session. Object geometry is stored in world coordinates; the interaction
// engine reads boards as immutable snapshots and never mutates them in place.
type Board struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Background string                 `json:"background"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	Lines      map[string]LineObject  `json:"lines"`
	Images     map[string]ImageObject `json:"images"`

	// Render order, back to front. Hit testing walks these in reverse.
	LineOrder  []string `json:"lineOrder"`
	ImageOrder []string `json:"imageOrder"`
}

// LineObject is a freehand polyline stroke. Points are stored relative to
// the (X, Y) offset so the whole stroke can be moved by updating the offset.
type LineObject struct {
	ID          string    `json:"id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Points      []float64 `json:"points"` // flat x0,y0,x1,y1,...
	StrokeWidth float64   `json:"strokeWidth"`
	Color       string    `json:"color"`
}

// ImageObject is a placed raster image: an axis-aligned rectangle rotated
// by Rotation degrees about its own center. Locked gates editing downstream,
// not selection or hit testing.
type ImageObject struct {
	ID       string  `json:"id"`
	AssetID  string  `json:"assetId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Locked   bool    `json:"locked"`
}

// Center returns the rotation pivot of the image in world coordinates.
func (img ImageObject) Center() (float64, float64) {
	return img.X + img.Width/2, img.Y + img.Height/2
}

// PointCount returns the number of vertices in the stroke.
func (l LineObject) PointCount() int {
	return len(l.Points) / 2
}

// Point returns vertex i in world coordinates (offset applied).
func (l LineObject) Point(i int) (float64, float64) {
	return l.X + l.Points[2*i], l.Y + l.Points[2*i+1]
}

// NewEmptyBoard creates a blank board for a new session.
func NewEmptyBoard(boardID, name string) *Board {
	return &Board{
		ID:         boardID,
		Name:       name,
		Background: "#ffffff",
		Width:      1920,
		Height:     1080,
		Lines:      map[string]LineObject{},
		Images:     map[string]ImageObject{},
		LineOrder:  []string{},
		ImageOrder: []string{},
	}
}

// AddLine appends a line to the board and its render order.
func (b *Board) AddLine(l LineObject) {
	b.Lines[l.ID] = l
	b.LineOrder = append(b.LineOrder, l.ID)
}

// AddImage appends an image to the board and its render order.
func (b *Board) AddImage(img ImageObject) {
	b.Images[img.ID] = img
	b.ImageOrder = append(b.ImageOrder, img.ID)
}

// RemoveLine deletes a line and its render-order entry. Unknown IDs are a no-op.
func (b *Board) RemoveLine(id string) {
	if _, ok := b.Lines[id]; !ok {
		return
	}
	delete(b.Lines, id)
	b.LineOrder = removeID(b.LineOrder, id)
}

// RemoveImage deletes an image and its render-order entry. Unknown IDs are a no-op.
func (b *Board) RemoveImage(id string) {
	if _, ok := b.Images[id]; !ok {
		return
	}
	delete(b.Images, id)
	b.ImageOrder = removeID(b.ImageOrder, id)
}

// Clear removes all objects but keeps board metadata.
func (b *Board) Clear() {
	b.Lines = map[string]LineObject{}
	b.Images = map[string]ImageObject{}
	b.LineOrder = []string{}
	b.ImageOrder = []string{}
}

func removeID(order []string, id string) []string {
	out := make([]string, 0, len(order))
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
