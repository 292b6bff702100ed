package canvas

import (
	"math"
	"time"
)

// gestureMode is the classified state of a two-contact interaction.
type gestureMode int

const (
	gestureNone    gestureMode = iota
	gesturePending             // two contacts down, not yet committed
	gesturePan
	gestureZoom
)

// GestureClassifier consumes normalized Contacts, decides between
// single-finger drawing, two-finger pan, two-finger pinch-zoom and palm
// noise, and drives the viewport for the committed gesture.
//
// All cooldowns are polled expiry timestamps checked inline when the next
// event arrives; a timestamp that is only noticed late merely keeps a
// boolean true a little longer.
type GestureClassifier struct {
	cfg      Config
	viewport *Viewport
	now      func() time.Time

	contacts map[string]*Contact
	rejected map[string]bool

	// Two-contact gesture session. firstID/secondID are the pair the
	// session was anchored on; extra contacts are tracked but ignored.
	mode          gestureMode
	firstID       string
	secondID      string
	initialDist   float64
	initialCenter Point
	prevDist      float64
	panAnchor     Point

	rejectCooldownUntil  time.Time
	gestureCooldownUntil time.Time
}

// NewGestureClassifier creates a classifier driving the given viewport.
func NewGestureClassifier(cfg Config, vp *Viewport, now func() time.Time) *GestureClassifier {
	if now == nil {
		now = time.Now
	}
	return &GestureClassifier{
		cfg:      cfg,
		viewport: vp,
		now:      now,
		contacts: make(map[string]*Contact),
		rejected: make(map[string]bool),
	}
}

// Begin registers a new contact. The return value reports whether the
// contact was accepted; rejected contacts are palm noise and must not
// start strokes.
func (g *GestureClassifier) Begin(c Contact) bool {
	if c.Kind != ContactPen && !g.acceptContact(c) {
		g.rejected[c.ID] = true
		return false
	}

	stored := c
	g.contacts[c.ID] = &stored

	if len(g.contacts) == 2 && g.mode == gestureNone {
		var ids [2]string
		i := 0
		for id := range g.contacts {
			ids[i] = id
			i++
		}
		// Keep the pre-existing contact as the first of the pair.
		if ids[0] == c.ID {
			ids[0], ids[1] = ids[1], ids[0]
		}
		g.firstID, g.secondID = ids[0], ids[1]
		g.mode = gesturePending
		g.initialDist = g.pairDistance()
		g.initialCenter = g.pairCenter()
	}

	return true
}

// Move updates a contact's position and advances the gesture session.
func (g *GestureClassifier) Move(id string, x, y float64) {
	if !g.setPosition(id, x, y) {
		return
	}
	g.evaluate()
}

// setPosition records a contact's new position without evaluating the
// gesture. Returns whether the contact is tracked.
func (g *GestureClassifier) setPosition(id string, x, y float64) bool {
	if g.rejected[id] {
		return false
	}
	c, ok := g.contacts[id]
	if !ok {
		return false
	}
	c.X = x
	c.Y = y
	return true
}

// evaluate advances the two-contact session from the current positions.
// It runs once per platform event, after all positions in that event have
// been applied, so a simultaneous move of both fingers cannot look like a
// transient pinch halfway through.
func (g *GestureClassifier) evaluate() {
	if g.mode == gestureNone {
		return
	}
	if _, ok := g.contacts[g.firstID]; !ok {
		return
	}
	if _, ok := g.contacts[g.secondID]; !ok {
		return
	}

	dist := g.pairDistance()
	center := g.pairCenter()

	switch g.mode {
	case gesturePending:
		if math.Abs(dist-g.initialDist) > g.cfg.PinchThreshold {
			// Distance change dominates: this is a pinch.
			g.mode = gestureZoom
			g.prevDist = dist
		} else if center.Distance(g.initialCenter) > g.cfg.PinchThreshold {
			// Center moved while the spread stayed stable: pan, starting
			// from here so the commit itself causes no jump.
			g.mode = gesturePan
			g.panAnchor = center
		}

	case gestureZoom:
		if g.prevDist > 0 {
			g.viewport.Zoom(dist/g.prevDist-1, center.X, center.Y)
		}
		g.prevDist = dist

	case gesturePan:
		g.viewport.Pan(center.X-g.panAnchor.X, center.Y-g.panAnchor.Y)
		g.panAnchor = center
	}
}

// End removes a contact. An id the classifier never tracked degrades to a
// full reset rather than risking stuck gesture state.
func (g *GestureClassifier) End(id string) {
	if g.rejected[id] {
		delete(g.rejected, id)
		return
	}
	if _, ok := g.contacts[id]; !ok {
		g.Reset()
		return
	}

	delete(g.contacts, id)

	if g.mode != gestureNone && (id == g.firstID || id == g.secondID) {
		// Dropping below two contacts ends the gesture. The surviving
		// contact must not start single-touch panning: single touch is
		// reserved for drawing.
		g.endGesture()
	}

	if len(g.contacts) == 0 {
		g.resetSession()
	}
}

// Reset unconditionally clears all contact and gesture state.
func (g *GestureClassifier) Reset() {
	g.contacts = make(map[string]*Contact)
	g.rejected = make(map[string]bool)
	g.resetSession()
}

// IsGestureActive reports whether a gesture is in progress or its trailing
// cooldown has not yet expired. Callers use it to suppress stroke creation.
func (g *GestureClassifier) IsGestureActive() bool {
	return g.mode != gestureNone || g.now().Before(g.gestureCooldownUntil)
}

// ActiveContacts returns the number of tracked (accepted) contacts.
func (g *GestureClassifier) ActiveContacts() int {
	return len(g.contacts)
}

// --- Platform adapters ---

// PointerDown feeds a pointer event's press through palm rejection and
// gesture tracking. Returns whether the pointer was accepted.
func (g *GestureClassifier) PointerDown(ev PointerEvent) bool {
	return g.Begin(contactFromPointer(ev))
}

// PointerMove feeds a pointer move.
func (g *GestureClassifier) PointerMove(ev PointerEvent) {
	c := contactFromPointer(ev)
	g.Move(c.ID, c.X, c.Y)
}

// PointerUp feeds a pointer release.
func (g *GestureClassifier) PointerUp(ev PointerEvent) {
	g.End(contactFromPointer(ev).ID)
}

// TouchStart feeds the new touches of a touchstart event.
func (g *GestureClassifier) TouchStart(ev TouchEvent) {
	for _, t := range ev.ChangedTouches {
		g.Begin(contactFromTouch(t))
	}
}

// TouchMove feeds the moved touches of a touchmove event. All positions
// are applied before the gesture is evaluated once.
func (g *GestureClassifier) TouchMove(ev TouchEvent) {
	moved := false
	for _, t := range ev.ChangedTouches {
		c := contactFromTouch(t)
		if g.setPosition(c.ID, c.X, c.Y) {
			moved = true
		}
	}
	if moved {
		g.evaluate()
	}
}

// TouchEnd feeds the lifted touches of a touchend event.
func (g *GestureClassifier) TouchEnd(ev TouchEvent) {
	for _, t := range ev.ChangedTouches {
		g.End(contactFromTouch(t).ID)
	}
}

// --- Palm rejection ---

// acceptContact applies the palm heuristics to a non-pen contact.
func (g *GestureClassifier) acceptContact(c Contact) bool {
	now := g.now()

	// A recent rejection means a palm is probably still nearby; reject
	// outright so a lifting palm does not flicker in and out.
	if now.Before(g.rejectCooldownUntil) {
		return false
	}

	if max(c.Width, c.Height) > g.cfg.MaxContactSize {
		g.rejectCooldownUntil = now.Add(g.cfg.RejectCooldown)
		return false
	}

	if c.Pressure < g.cfg.MinPressure {
		g.rejectCooldownUntil = now.Add(g.cfg.RejectCooldown)
		return false
	}

	// A palm touching alongside fingers shows up as several contacts
	// clustered together.
	near := 0
	for _, other := range g.contacts {
		dx := other.X - c.X
		dy := other.Y - c.Y
		if dx*dx+dy*dy <= g.cfg.ClusterDistance*g.cfg.ClusterDistance {
			near++
		}
	}
	if near >= g.cfg.ClusterCount {
		g.rejectCooldownUntil = now.Add(g.cfg.RejectCooldown)
		return false
	}

	return true
}

// --- Internals ---

func (g *GestureClassifier) endGesture() {
	g.mode = gestureNone
	g.firstID = ""
	g.secondID = ""
	g.gestureCooldownUntil = g.now().Add(g.cfg.GestureCooldown)
}

func (g *GestureClassifier) resetSession() {
	g.mode = gestureNone
	g.firstID = ""
	g.secondID = ""
	g.initialDist = 0
	g.prevDist = 0
}

func (g *GestureClassifier) pairDistance() float64 {
	a := g.contacts[g.firstID]
	b := g.contacts[g.secondID]
	if a == nil || b == nil {
		return 0
	}
	return Point{X: a.X, Y: a.Y}.Distance(Point{X: b.X, Y: b.Y})
}

func (g *GestureClassifier) pairCenter() Point {
	a := g.contacts[g.firstID]
	b := g.contacts[g.secondID]
	if a == nil || b == nil {
		return Point{}
	}
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
