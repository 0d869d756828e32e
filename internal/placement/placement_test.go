package placement

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/editor"
)

func newStoreWithElement(t *testing.T) (*editor.Store, string) {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 400))); err != nil {
		t.Fatalf("failed to build test PNG: %v", err)
	}

	store := editor.NewStore(config.Default())
	if _, err := store.LoadDocument("img.png", buf.Bytes(), "image/png"); err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}

	id, err := store.AddElement(editor.NewElement{
		Kind:     editor.KindText,
		Text:     "hello",
		Position: &editor.Point{X: 100, Y: 100},
		Size:     &editor.Size{Width: 150, Height: 40},
	})
	if err != nil {
		t.Fatalf("AddElement() error = %v", err)
	}
	return store, id
}

func TestDrag_MovesByZoomScaledDelta(t *testing.T) {
	store, id := newStoreWithElement(t)
	store.SetZoom(2)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 500, 500); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}

	// 40 screen pixels right at zoom 2 is 20 document units.
	tr.MoveTo(540, 520)

	el, _ := store.ElementByID(id)
	if el.Position.X != 120 || el.Position.Y != 110 {
		t.Errorf("expected (120,110), got (%v,%v)", el.Position.X, el.Position.Y)
	}
}

// Property: position stays non-negative after every intermediate move,
// not just at release.
func TestDrag_NonNegativeAtEveryStep(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 0, 0); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}

	moves := [][2]float64{{-50, -50}, {-500, -10}, {-120, -700}, {30, -400}, {-1000, 25}}
	for _, m := range moves {
		tr.MoveTo(m[0], m[1])
		el, _ := store.ElementByID(id)
		if el.Position.X < 0 || el.Position.Y < 0 {
			t.Fatalf("position went negative mid-drag: (%v,%v)", el.Position.X, el.Position.Y)
		}
	}
}

// Property: repeated identical moves do not accumulate; every move computes
// from the press-time snapshot.
func TestDrag_IdempotentMoves(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 0, 0); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		tr.MoveTo(30, 10)
	}

	el, _ := store.ElementByID(id)
	if el.Position.X != 130 || el.Position.Y != 110 {
		t.Errorf("expected (130,110) after repeated moves, got (%v,%v)", el.Position.X, el.Position.Y)
	}
}

func TestClickVsDrag_Threshold(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 200, 200); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}

	// Travel below the threshold: still a click.
	tr.MoveTo(202, 201)
	outcome := tr.Release(202, 201)

	if outcome.Type != OutcomeClick {
		t.Errorf("expected OutcomeClick for sub-threshold travel, got %v", outcome.Type)
	}
	if outcome.ElementID != id {
		t.Errorf("outcome element = %s, want %s", outcome.ElementID, id)
	}

	// The element must not have moved.
	el, _ := store.ElementByID(id)
	if el.Position.X != 100 || el.Position.Y != 100 {
		t.Errorf("click moved the element to (%v,%v)", el.Position.X, el.Position.Y)
	}
}

func TestDrag_EndsAsGesture(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 200, 200); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}

	tr.MoveTo(260, 200)
	outcome := tr.Release(260, 200)

	if outcome.Type != OutcomeGestureEnd {
		t.Errorf("expected OutcomeGestureEnd, got %v", outcome.Type)
	}

	el, _ := store.ElementByID(id)
	if el.Position.X != 160 {
		t.Errorf("expected x=160 after drag, got %v", el.Position.X)
	}
	if tr.Active() {
		t.Error("tracker should be idle after release")
	}
}

// Property: size floors hold after every intermediate resize update.
func TestResize_FloorsAtEveryStep(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressHandle(id, CornerSE, 250, 140); err != nil {
		t.Fatalf("PressHandle() error = %v", err)
	}

	moves := [][2]float64{{200, 130}, {50, 50}, {-400, -400}, {240, 100}, {0, 0}}
	for _, m := range moves {
		tr.MoveTo(m[0], m[1])
		el, _ := store.ElementByID(id)
		if el.Size.Width < 40 || el.Size.Height < 20 {
			t.Fatalf("size dropped below floor mid-resize: %vx%v", el.Size.Width, el.Size.Height)
		}
	}
}

func TestResize_EastGrowsWidth(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressHandle(id, CornerSE, 0, 0); err != nil {
		t.Fatalf("PressHandle() error = %v", err)
	}
	tr.MoveTo(50, 30)

	el, _ := store.ElementByID(id)
	if el.Size.Width != 200 || el.Size.Height != 70 {
		t.Errorf("expected 200x70, got %vx%v", el.Size.Width, el.Size.Height)
	}
	// South-east resize never moves the origin.
	if el.Position.X != 100 || el.Position.Y != 100 {
		t.Errorf("origin moved to (%v,%v)", el.Position.X, el.Position.Y)
	}
}

func TestResize_WestKeepsOppositeEdgeFixed(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressHandle(id, CornerNW, 0, 0); err != nil {
		t.Fatalf("PressHandle() error = %v", err)
	}
	tr.MoveTo(30, 10)

	el, _ := store.ElementByID(id)
	// Width shrinks by 30, x shifts right by 30: right edge stays at 250.
	if el.Size.Width != 120 {
		t.Errorf("expected width 120, got %v", el.Size.Width)
	}
	if el.Position.X+el.Size.Width != 250 {
		t.Errorf("right edge moved: x=%v width=%v", el.Position.X, el.Size.Width)
	}
	// Height shrinks by 10, bottom edge stays at 140.
	if el.Position.Y+el.Size.Height != 140 {
		t.Errorf("bottom edge moved: y=%v height=%v", el.Position.Y, el.Size.Height)
	}
}

func TestResize_WestClampKeepsOppositeEdge(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressHandle(id, CornerNW, 0, 0); err != nil {
		t.Fatalf("PressHandle() error = %v", err)
	}
	// Pull far past the floor: width clamps to 40 and x compensates so the
	// right edge still does not move.
	tr.MoveTo(400, 300)

	el, _ := store.ElementByID(id)
	if el.Size.Width != 40 || el.Size.Height != 20 {
		t.Errorf("expected clamped 40x20, got %vx%v", el.Size.Width, el.Size.Height)
	}
	if el.Position.X+el.Size.Width != 250 {
		t.Errorf("right edge moved under clamp: x=%v width=%v", el.Position.X, el.Size.Width)
	}
	if el.Position.Y+el.Size.Height != 140 {
		t.Errorf("bottom edge moved under clamp: y=%v height=%v", el.Position.Y, el.Size.Height)
	}
}

func TestCancel_RestoresSnapshot(t *testing.T) {
	store, id := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement(id, 0, 0); err != nil {
		t.Fatalf("PressElement() error = %v", err)
	}
	tr.MoveTo(300, 300)
	tr.Cancel()

	el, _ := store.ElementByID(id)
	if el.Position.X != 100 || el.Position.Y != 100 {
		t.Errorf("cancel should restore (100,100), got (%v,%v)", el.Position.X, el.Position.Y)
	}
	if tr.Active() {
		t.Error("tracker should be idle after cancel")
	}
}

func TestClickCanvas_SelectModeClearsSelection(t *testing.T) {
	store, id := newStoreWithElement(t)
	store.SelectElement(id)

	tr := NewTracker(store)
	action := tr.ClickCanvas(10, 10)

	if !action.ClearSelection {
		t.Error("expected ClearSelection in select mode")
	}
	if store.Selected() != "" {
		t.Error("selection should be cleared")
	}
}

func TestClickCanvas_PlacementModeReportsDocPosition(t *testing.T) {
	store, _ := newStoreWithElement(t)
	store.SetMode(editor.ModePlaceCheckbox)
	store.SetZoom(2)

	tr := NewTracker(store)
	action := tr.ClickCanvas(100, 60)

	if action.Place != editor.KindCheckbox {
		t.Errorf("expected checkbox placement, got %q", action.Place)
	}
	if action.Position.X != 50 || action.Position.Y != 30 {
		t.Errorf("expected doc position (50,30) at zoom 2, got (%v,%v)", action.Position.X, action.Position.Y)
	}
}

func TestRelease_WithoutPress(t *testing.T) {
	store, _ := newStoreWithElement(t)

	tr := NewTracker(store)
	outcome := tr.Release(10, 10)
	if outcome.Type != OutcomeNone {
		t.Errorf("expected OutcomeNone, got %v", outcome.Type)
	}
}

func TestPress_UnknownElement(t *testing.T) {
	store, _ := newStoreWithElement(t)

	tr := NewTracker(store)
	if err := tr.PressElement("missing", 0, 0); err == nil {
		t.Error("pressing an unknown element must error")
	}
	if err := tr.PressHandle("missing", CornerSE, 0, 0); err == nil {
		t.Error("grabbing a handle on an unknown element must error")
	}
}
