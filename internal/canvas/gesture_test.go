package canvas

import (
	"math"
	"testing"
	"time"
)

// testClock is a manually advanced clock for cooldown checks.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClassifier() (*GestureClassifier, *Viewport, *testClock) {
	cfg := DefaultConfig()
	vp := NewViewport(cfg)
	clock := newTestClock()
	return NewGestureClassifier(cfg, vp, clock.now), vp, clock
}

func TestPalmRejection(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		prior   []Contact // accepted contacts already down
		want    bool
	}{
		{
			name:    "pen always accepted",
			contact: Contact{ID: "p1", Kind: ContactPen, Pressure: 0, Width: 500, Height: 500},
			want:    true,
		},
		{
			name:    "normal finger accepted",
			contact: Contact{ID: "t1", Kind: ContactTouch, X: 100, Y: 100, Pressure: 0.8, Width: 12, Height: 14},
			want:    true,
		},
		{
			name:    "oversized contact rejected",
			contact: Contact{ID: "t1", Kind: ContactTouch, Pressure: 0.8, Width: 18, Height: 60},
			want:    false,
		},
		{
			name:    "low pressure rejected",
			contact: Contact{ID: "t1", Kind: ContactTouch, Pressure: 0.01, Width: 10, Height: 10},
			want:    false,
		},
		{
			name:    "clustered contact rejected",
			contact: Contact{ID: "t3", Kind: ContactTouch, X: 105, Y: 105, Pressure: 0.8, Width: 10, Height: 10},
			prior: []Contact{
				{ID: "t1", Kind: ContactTouch, X: 100, Y: 100, Pressure: 0.8, Width: 10, Height: 10},
				{ID: "t2", Kind: ContactTouch, X: 130, Y: 120, Pressure: 0.8, Width: 10, Height: 10},
			},
			want: false,
		},
		{
			name:    "distant contact not clustered",
			contact: Contact{ID: "t3", Kind: ContactTouch, X: 900, Y: 900, Pressure: 0.8, Width: 10, Height: 10},
			prior: []Contact{
				{ID: "t1", Kind: ContactTouch, X: 100, Y: 100, Pressure: 0.8, Width: 10, Height: 10},
				{ID: "t2", Kind: ContactTouch, X: 130, Y: 120, Pressure: 0.8, Width: 10, Height: 10},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestClassifier()
			for _, c := range tt.prior {
				if !g.Begin(c) {
					t.Fatalf("prior contact %s unexpectedly rejected", c.ID)
				}
			}
			if got := g.Begin(tt.contact); got != tt.want {
				t.Errorf("Begin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRejectionCooldown(t *testing.T) {
	g, _, clock := newTestClassifier()
	cfg := DefaultConfig()

	// A palm-sized contact trips the cooldown.
	if g.Begin(Contact{ID: "palm", Kind: ContactTouch, Pressure: 0.9, Width: 90, Height: 90}) {
		t.Fatal("palm contact accepted")
	}

	// A perfectly good finger right after is still rejected.
	good := Contact{ID: "t1", Kind: ContactTouch, X: 400, Y: 400, Pressure: 0.9, Width: 10, Height: 10}
	if g.Begin(good) {
		t.Error("finger accepted during rejection cooldown")
	}

	// A pen bypasses the cooldown entirely.
	if !g.Begin(Contact{ID: "pen", Kind: ContactPen, Pressure: 0.5}) {
		t.Error("pen rejected during cooldown")
	}

	clock.advance(cfg.RejectCooldown + time.Millisecond)
	good.ID = "t2"
	if !g.Begin(good) {
		t.Error("finger rejected after cooldown expired")
	}
}

func TestTwoFingerPanClassification(t *testing.T) {
	g, vp, _ := newTestClassifier()

	g.TouchStart(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 100, ClientY: 300},
		{Identifier: 2, ClientX: 300, ClientY: 300},
	}})
	if !g.IsGestureActive() {
		t.Fatal("two touches down should read as an active gesture")
	}

	// Both fingers translate together: spread constant, center moving.
	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 120, ClientY: 300},
		{Identifier: 2, ClientX: 320, ClientY: 300},
	}})
	if g.mode != gesturePan {
		t.Fatalf("mode = %v, want pan", g.mode)
	}
	// The commit itself starts panning from the current center: no jump.
	if vp.X != 0 || vp.Y != 0 {
		t.Errorf("viewport moved on pan commit: (%v, %v)", vp.X, vp.Y)
	}

	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 135, ClientY: 310},
		{Identifier: 2, ClientX: 335, ClientY: 310},
	}})
	if math.Abs(vp.X-15) > floatTol || math.Abs(vp.Y-10) > floatTol {
		t.Errorf("pan delta = (%v, %v), want (15, 10)", vp.X, vp.Y)
	}

	// Once committed, a later spread change must not flip the mode.
	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 50, ClientY: 310},
		{Identifier: 2, ClientX: 500, ClientY: 310},
	}})
	if g.mode != gesturePan {
		t.Errorf("mode flipped to %v after pan commit", g.mode)
	}
}

func TestTwoFingerZoomClassification(t *testing.T) {
	g, vp, _ := newTestClassifier()

	g.TouchStart(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 100, ClientY: 300},
		{Identifier: 2, ClientX: 300, ClientY: 300},
	}})

	// Spread grows past the threshold: zoom.
	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 90, ClientY: 300},
		{Identifier: 2, ClientX: 310, ClientY: 300},
	}})
	if g.mode != gestureZoom {
		t.Fatalf("mode = %v, want zoom", g.mode)
	}
	if vp.Scale != 1 {
		t.Errorf("scale changed on zoom commit frame: %v", vp.Scale)
	}

	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 80, ClientY: 300},
		{Identifier: 2, ClientX: 320, ClientY: 300},
	}})
	want := 240.0 / 220.0
	if math.Abs(vp.Scale-want) > floatTol {
		t.Errorf("scale = %v, want %v", vp.Scale, want)
	}
}

func TestDroppingToOneTouchEndsGesture(t *testing.T) {
	g, vp, clock := newTestClassifier()
	cfg := DefaultConfig()

	g.TouchStart(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 100, ClientY: 300},
		{Identifier: 2, ClientX: 300, ClientY: 300},
	}})
	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 120, ClientY: 300},
		{Identifier: 2, ClientX: 320, ClientY: 300},
	}})

	g.TouchEnd(TouchEvent{ChangedTouches: []TouchPoint{{Identifier: 2, ClientX: 320, ClientY: 300}}})
	if g.mode != gestureNone {
		t.Fatal("gesture should end when touch count drops below two")
	}

	// The surviving touch must not start single-touch panning.
	vx, vy := vp.X, vp.Y
	g.TouchMove(TouchEvent{ChangedTouches: []TouchPoint{{Identifier: 1, ClientX: 500, ClientY: 500}}})
	if vp.X != vx || vp.Y != vy {
		t.Error("single surviving touch panned the viewport")
	}

	// Trailing cooldown still reads as gesture-active, then expires.
	if !g.IsGestureActive() {
		t.Error("expected trailing cooldown after gesture end")
	}
	clock.advance(cfg.GestureCooldown + time.Millisecond)
	if g.IsGestureActive() {
		t.Error("gesture still active after cooldown expired")
	}
}

func TestUntrackedTouchEndResets(t *testing.T) {
	g, _, _ := newTestClassifier()

	g.TouchStart(TouchEvent{ChangedTouches: []TouchPoint{
		{Identifier: 1, ClientX: 100, ClientY: 300},
		{Identifier: 2, ClientX: 300, ClientY: 300},
	}})

	// A touchend for an id the classifier never saw degrades to a full
	// reset instead of leaving stuck gesture state.
	g.TouchEnd(TouchEvent{ChangedTouches: []TouchPoint{{Identifier: 99}}})
	if g.ActiveContacts() != 0 || g.mode != gestureNone {
		t.Errorf("expected full reset, got %d contacts, mode %v", g.ActiveContacts(), g.mode)
	}
}

func TestPointerAdapterDrivesGesture(t *testing.T) {
	g, vp, _ := newTestClassifier()

	down := func(id int, x, y float64) bool {
		return g.PointerDown(PointerEvent{PointerID: id, PointerType: "touch", ClientX: x, ClientY: y, Pressure: 0.8, Width: 10, Height: 10})
	}
	move := func(id int, x, y float64) {
		g.PointerMove(PointerEvent{PointerID: id, PointerType: "touch", ClientX: x, ClientY: y})
	}

	if !down(1, 100, 300) || !down(2, 300, 300) {
		t.Fatal("pointer contacts rejected")
	}

	// Pointer events arrive one pointer at a time; small per-event deltas
	// stay under the pinch threshold until the pan commit.
	move(1, 104, 300)
	move(2, 304, 300)
	move(1, 108, 300)
	move(2, 308, 300)
	move(1, 112, 300)
	move(2, 312, 300)
	if g.mode != gesturePan {
		t.Fatalf("mode = %v, want pan", g.mode)
	}

	move(1, 120, 300)
	move(2, 328, 300)
	if vp.X == 0 {
		t.Error("committed pan did not move the viewport")
	}
}
