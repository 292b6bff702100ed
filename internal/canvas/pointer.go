package canvas

import "fmt"

// ContactKind distinguishes input devices on the normalized pointer path.
type ContactKind int

const (
	ContactTouch ContactKind = iota
	ContactPen
	ContactMouse
)

// Contact is the normalized form of one active input point. The gesture
// classifier operates only on Contacts; the platform-specific PointerEvent
// and TouchEvent shapes are flattened into them by the adapters below.
type Contact struct {
	ID       string
	Kind     ContactKind
	X        float64 // screen space
	Y        float64
	Pressure float64
	Width    float64 // reported contact patch size
	Height   float64
}

// PointerEvent mirrors the browser PointerEvent fields the engine consumes.
type PointerEvent struct {
	PointerID   int     `json:"pointerId"`
	PointerType string  `json:"pointerType"` // "pen", "touch", "mouse"
	ClientX     float64 `json:"clientX"`
	ClientY     float64 `json:"clientY"`
	Pressure    float64 `json:"pressure"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// TouchPoint is one entry of a TouchEvent's touch lists.
type TouchPoint struct {
	Identifier int     `json:"identifier"`
	ClientX    float64 `json:"clientX"`
	ClientY    float64 `json:"clientY"`
}

// TouchEvent mirrors the legacy browser TouchEvent shape.
type TouchEvent struct {
	Touches        []TouchPoint `json:"touches"`
	ChangedTouches []TouchPoint `json:"changedTouches"`
}

// WheelEvent mirrors the browser wheel event fields the engine consumes.
type WheelEvent struct {
	DeltaY  float64 `json:"deltaY"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// contactFromPointer normalizes a pointer event into a Contact.
func contactFromPointer(ev PointerEvent) Contact {
	kind := ContactTouch
	switch ev.PointerType {
	case "pen":
		kind = ContactPen
	case "mouse":
		kind = ContactMouse
	}
	return Contact{
		ID:       fmt.Sprintf("ptr:%d", ev.PointerID),
		Kind:     kind,
		X:        ev.ClientX,
		Y:        ev.ClientY,
		Pressure: ev.Pressure,
		Width:    ev.Width,
		Height:   ev.Height,
	}
}

// contactFromTouch normalizes one touch point. Legacy touch events carry no
// pressure or contact-size data, so those checks see permissive values.
func contactFromTouch(t TouchPoint) Contact {
	return Contact{
		ID:       fmt.Sprintf("touch:%d", t.Identifier),
		Kind:     ContactTouch,
		X:        t.ClientX,
		Y:        t.ClientY,
		Pressure: 1,
	}
}
