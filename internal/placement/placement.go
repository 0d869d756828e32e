// Package placement translates pointer gestures into element geometry
// updates on the editor store.
//
// Screen coordinates arrive in pixels relative to the canvas origin; the
// tracker divides deltas by the current zoom so element geometry stays in
// document units. Every move recomputes absolute geometry from the snapshot
// taken at press time, so dropped or repeated pointer events cannot
// accumulate drift.
package placement

import (
	"fmt"
	"math"

	"github.com/quillsign/esign/internal/editor"
)

// Corner names a resize handle
type Corner string

const (
	CornerNW Corner = "nw"
	CornerNE Corner = "ne"
	CornerSW Corner = "sw"
	CornerSE Corner = "se"
)

// state is the per-gesture machine: idle -> pressed -> dragging -> idle,
// or idle -> resizing -> idle
type state int

const (
	stateIdle state = iota
	statePressed
	stateDragging
	stateResizing
)

// OutcomeType classifies what a completed gesture meant
type OutcomeType int

const (
	// OutcomeNone: release without a preceding press
	OutcomeNone OutcomeType = iota

	// OutcomeClick: press and release with pointer travel under the click
	// threshold. The session opens the element's content editor, or
	// toggles it for checkboxes.
	OutcomeClick

	// OutcomeGestureEnd: a drag or resize finished
	OutcomeGestureEnd
)

// Outcome is the result of releasing the pointer
type Outcome struct {
	Type      OutcomeType
	ElementID string
}

// CanvasAction is the result of clicking empty canvas
type CanvasAction struct {
	// ClearSelection is set for clicks in select mode
	ClearSelection bool

	// Place holds the element kind to create for clicks in a placement
	// mode, anchored at Position (document units)
	Place    editor.Kind
	Position editor.Point
}

// Tracker runs one pointer gesture at a time against a store
type Tracker struct {
	store *editor.Store

	state     state
	elementID string
	corner    Corner

	// press-time snapshot
	startScreenX float64
	startScreenY float64
	startPos     editor.Point
	startSize    editor.Size
}

// NewTracker creates a gesture tracker bound to a store
func NewTracker(store *editor.Store) *Tracker {
	return &Tracker{store: store}
}

// PressElement starts a potential drag on an element body and selects it.
// Whether this becomes a drag or a click is decided by pointer travel.
func (t *Tracker) PressElement(id string, screenX, screenY float64) error {
	el, ok := t.store.ElementByID(id)
	if !ok {
		return fmt.Errorf("unknown element %s", id)
	}

	t.store.SelectElement(id)

	t.state = statePressed
	t.elementID = id
	t.startScreenX = screenX
	t.startScreenY = screenY
	t.startPos = el.Position
	t.startSize = el.Size
	return nil
}

// PressHandle starts a resize on one of the four corner handles
func (t *Tracker) PressHandle(id string, corner Corner, screenX, screenY float64) error {
	el, ok := t.store.ElementByID(id)
	if !ok {
		return fmt.Errorf("unknown element %s", id)
	}

	switch corner {
	case CornerNW, CornerNE, CornerSW, CornerSE:
	default:
		return fmt.Errorf("unknown resize corner %q", corner)
	}

	t.store.SelectElement(id)

	t.state = stateResizing
	t.elementID = id
	t.corner = corner
	t.startScreenX = screenX
	t.startScreenY = screenY
	t.startPos = el.Position
	t.startSize = el.Size
	return nil
}

// MoveTo processes a pointer move. Calling it repeatedly with the same
// coordinates is idempotent.
func (t *Tracker) MoveTo(screenX, screenY float64) {
	switch t.state {
	case statePressed:
		if t.travel(screenX, screenY) <= t.store.Config().ClickThreshold {
			return
		}
		t.state = stateDragging
		t.applyDrag(screenX, screenY)
	case stateDragging:
		t.applyDrag(screenX, screenY)
	case stateResizing:
		t.applyResize(screenX, screenY)
	}
}

// Release ends the gesture and reports what it was
func (t *Tracker) Release(screenX, screenY float64) Outcome {
	defer t.resetGesture()

	switch t.state {
	case statePressed:
		return Outcome{Type: OutcomeClick, ElementID: t.elementID}
	case stateDragging:
		t.applyDrag(screenX, screenY)
		return Outcome{Type: OutcomeGestureEnd, ElementID: t.elementID}
	case stateResizing:
		t.applyResize(screenX, screenY)
		return Outcome{Type: OutcomeGestureEnd, ElementID: t.elementID}
	}
	return Outcome{Type: OutcomeNone}
}

// Cancel abandons the gesture and restores the press-time geometry
func (t *Tracker) Cancel() {
	if t.state == stateDragging || t.state == stateResizing {
		pos, size := t.startPos, t.startSize
		t.store.UpdateElement(t.elementID, editor.Patch{Position: &pos, Size: &size})
	}
	t.resetGesture()
}

// ClickCanvas handles a click on empty canvas. In select mode it clears the
// selection; in a placement mode it reports the element kind to create at
// the click position converted to document units.
func (t *Tracker) ClickCanvas(screenX, screenY float64) CanvasAction {
	mode := t.store.Mode()

	if kind, ok := mode.PlacementKind(); ok {
		zoom := t.store.Zoom()
		return CanvasAction{
			Place:    kind,
			Position: editor.Point{X: screenX / zoom, Y: screenY / zoom},
		}
	}

	t.store.SelectElement("")
	return CanvasAction{ClearSelection: true}
}

// Active reports whether a gesture is in progress
func (t *Tracker) Active() bool {
	return t.state != stateIdle
}

func (t *Tracker) resetGesture() {
	t.state = stateIdle
	t.elementID = ""
	t.corner = ""
}

// travel is the screen-space distance from the press point
func (t *Tracker) travel(screenX, screenY float64) float64 {
	dx := screenX - t.startScreenX
	dy := screenY - t.startScreenY
	return math.Hypot(dx, dy)
}

// applyDrag moves the element by the pointer delta scaled to document
// units. Position clamps to non-negative on every intermediate update;
// there is intentionally no upper bound.
func (t *Tracker) applyDrag(screenX, screenY float64) {
	zoom := t.store.Zoom()
	dx := (screenX - t.startScreenX) / zoom
	dy := (screenY - t.startScreenY) / zoom

	pos := editor.Point{
		X: math.Max(0, t.startPos.X+dx),
		Y: math.Max(0, t.startPos.Y+dy),
	}
	t.store.UpdateElement(t.elementID, editor.Patch{Position: &pos})
}

// applyResize grows or shrinks from the grabbed corner. East and south
// handles adjust the size directly; west and north handles also shift the
// position so the opposite edge stays fixed, including when the size floor
// clamps the delta.
func (t *Tracker) applyResize(screenX, screenY float64) {
	cfg := t.store.Config()
	zoom := t.store.Zoom()
	dx := (screenX - t.startScreenX) / zoom
	dy := (screenY - t.startScreenY) / zoom

	width := t.startSize.Width
	height := t.startSize.Height
	x := t.startPos.X
	y := t.startPos.Y

	switch t.corner {
	case CornerNE, CornerSE:
		width = math.Max(cfg.MinElementWidth, t.startSize.Width+dx)
	case CornerNW, CornerSW:
		width = math.Max(cfg.MinElementWidth, t.startSize.Width-dx)
		x = t.startPos.X + (t.startSize.Width - width)
	}

	switch t.corner {
	case CornerSW, CornerSE:
		height = math.Max(cfg.MinElementHeight, t.startSize.Height+dy)
	case CornerNW, CornerNE:
		height = math.Max(cfg.MinElementHeight, t.startSize.Height-dy)
		y = t.startPos.Y + (t.startSize.Height - height)
	}

	pos := editor.Point{X: math.Max(0, x), Y: math.Max(0, y)}
	size := editor.Size{Width: width, Height: height}
	t.store.UpdateElement(t.elementID, editor.Patch{Position: &pos, Size: &size})
}
