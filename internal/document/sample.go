package document

// NewSampleBoard builds the board seeded into the public playground room.
// It gives new users something to select and move around immediately.
func NewSampleBoard(boardID string) *Board {
	b := NewEmptyBoard(boardID, "Playground")
	b.Background = "#f5f2e8"

	b.AddLine(LineObject{
		ID: "line_sample_wave",
		X:  200, Y: 300,
		Points: []float64{
			0, 0, 40, -30, 80, 0, 120, 30, 160, 0, 200, -30, 240, 0,
		},
		StrokeWidth: 6,
		Color:       "#2d6cdf",
	})
	b.AddLine(LineObject{
		ID: "line_sample_check",
		X:  600, Y: 250,
		Points:      []float64{0, 0, 30, 40, 90, -40},
		StrokeWidth: 8,
		Color:       "#1f9d55",
	})
	b.AddImage(ImageObject{
		ID:      "img_sample_card",
		AssetID: "asset_sample_card",
		X:       880, Y: 180,
		Width: 320, Height: 240,
		Rotation: 0,
	})
	b.AddImage(ImageObject{
		ID:      "img_sample_tilted",
		AssetID: "asset_sample_tilted",
		X:       420, Y: 520,
		Width: 260, Height: 180,
		Rotation: 15,
		Locked:   true,
	})

	return b
}
