// Package editor holds the in-memory editing session state: the loaded
// source document, the placed annotation elements, and view state (page,
// zoom, tool mode, selection).
//
// The store is the single owner of this state. The placement layer and the
// compositor read and mutate it only through the operations below, so no
// component ever holds a second copy that could drift.
package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/logger"
)

var (
	// ErrNoDocument indicates an operation that needs a loaded document
	// was called on an empty session
	ErrNoDocument = errors.New("no document loaded")

	// ErrPageOutOfRange indicates a page navigation outside [1, PageCount].
	// The UI disables navigation at the boundaries, so hitting this is a
	// programming error upstream; callers treat it as a no-op.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Store is the editing session state container
type Store struct {
	mu sync.RWMutex

	cfg *config.Config
	log *logger.Logger

	doc         *document.SourceDocument
	elements    []Element
	currentPage int
	zoom        float64
	selected    string
	mode        Mode
}

// NewStore creates an empty editing session
func NewStore(cfg *config.Config) *Store {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Store{
		cfg:         cfg,
		log:         logger.Get(),
		currentPage: 1,
		zoom:        1,
		mode:        ModeSelect,
	}
}

// LoadDocument parses an uploaded file and makes it the session document.
// Any previous document, elements, and selection are discarded.
func (s *Store) LoadDocument(name string, data []byte, mimeType string) (*document.SourceDocument, error) {
	doc, err := document.Load(name, data, mimeType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc
	s.elements = nil
	s.currentPage = 1
	s.selected = ""
	s.mode = ModeSelect

	return doc, nil
}

// Document returns the loaded source document, or nil
func (s *Store) Document() *document.SourceDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// AddElement inserts a new element anchored to the current page, selects it,
// and reverts the tool mode to select. Position and size fall back to
// per-kind defaults when omitted.
func (s *Store) AddElement(spec NewElement) (string, error) {
	if !spec.Kind.Valid() {
		return "", fmt.Errorf("unknown element kind %q", spec.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return "", ErrNoDocument
	}

	el := Element{
		ID:        uuid.NewString(),
		Kind:      spec.Kind,
		Position:  Point{X: config.DefaultPlacementX, Y: config.DefaultPlacementY},
		Size:      defaultSize(spec.Kind),
		Page:      s.currentPage,
		Image:     spec.Image,
		Text:      spec.Text,
		Checked:   spec.Checked,
		Rotation:  spec.Rotation,
		FontSize:  spec.FontSize,
		FontName:  spec.FontName,
		Color:     spec.Color,
		CreatedAt: time.Now(),
	}

	if spec.Position != nil {
		el.Position = clampPoint(*spec.Position)
	}
	if spec.Size != nil {
		el.Size = *spec.Size
	}
	if el.FontSize == 0 {
		el.FontSize = config.DefaultFontSize
	}
	if el.Color == "" {
		el.Color = config.DefaultColor
	}

	s.elements = append(s.elements, el)
	s.selected = el.ID
	s.mode = ModeSelect

	s.log.WithElementID(el.ID).WithPage(el.Page).
		WithFields("kind", el.Kind).Debug("Element added")

	return el.ID, nil
}

// UpdateElement applies a partial update to an element. Updating an unknown
// id is a deliberate no-op: the UI can race a delete against a late drag
// event, and resurrecting or erroring would both be wrong.
func (s *Store) UpdateElement(id string, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.elements {
		if s.elements[i].ID != id {
			continue
		}
		applyPatch(&s.elements[i], patch)
		return
	}
}

// RemoveElement deletes an element and clears the selection if it pointed
// at the removed element
func (s *Store) RemoveElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.elements {
		if s.elements[i].ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			if s.selected == id {
				s.selected = ""
			}
			s.log.WithElementID(id).Debug("Element removed")
			return
		}
	}
}

// SelectElement sets the selection; pass an empty id to clear it
func (s *Store) SelectElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Selected returns the selected element id, or an empty string
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// ElementByID returns a copy of the element with the given id
func (s *Store) ElementByID(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.elements {
		if s.elements[i].ID == id {
			return s.elements[i], true
		}
	}
	return Element{}, false
}

// Elements returns a copy of all elements in insertion order. Insertion
// order is z-order: later elements draw on top.
func (s *Store) Elements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// PageElements returns a copy of the elements anchored to the given page,
// in insertion order
func (s *Store) PageElements(page int) []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Element
	for i := range s.elements {
		if s.elements[i].Page == page {
			out = append(out, s.elements[i])
		}
	}
	return out
}

// SetCurrentPage navigates to a 1-based page. Navigation clears the
// selection: selection is scoped to the visible page by design.
func (s *Store) SetCurrentPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("%w: no document", ErrPageOutOfRange)
	}
	if page < 1 || page > s.doc.PageCount {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, s.doc.PageCount)
	}

	s.currentPage = page
	s.selected = ""
	return nil
}

// CurrentPage returns the 1-based current page
func (s *Store) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

// SetZoom stores the zoom factor clamped into the configured bounds and
// returns the value actually stored. Out-of-range input is not an error.
func (s *Store) SetZoom(zoom float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zoom < s.cfg.ZoomMin {
		zoom = s.cfg.ZoomMin
	}
	if zoom > s.cfg.ZoomMax {
		zoom = s.cfg.ZoomMax
	}
	s.zoom = zoom
	return zoom
}

// Zoom returns the current zoom factor
func (s *Store) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// SetMode switches the active tool and clears the selection; entering a
// placement tool deselects whatever was selected
func (s *Store) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.selected = ""
}

// Mode returns the active tool mode
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// RestoreElements replaces the element list wholesale, used when resuming a
// saved draft. Every element must sit on a page the document has.
func (s *Store) RestoreElements(elements []Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNoDocument
	}
	for _, el := range elements {
		if el.Page < 1 || el.Page > s.doc.PageCount {
			return fmt.Errorf("%w: element %s on page %d", ErrPageOutOfRange, el.ID, el.Page)
		}
	}
	s.elements = append([]Element(nil), elements...)
	s.selected = ""
	return nil
}

// ClearAll removes every element but keeps the loaded document
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = nil
	s.selected = ""
}

// Reset returns the session to its initial empty state
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = nil
	s.elements = nil
	s.currentPage = 1
	s.zoom = 1
	s.selected = ""
	s.mode = ModeSelect
}

// Config returns the session configuration
func (s *Store) Config() *config.Config {
	return s.cfg
}

// applyPatch copies the non-nil patch fields onto el
func applyPatch(el *Element, patch Patch) {
	if patch.Position != nil {
		el.Position = clampPoint(*patch.Position)
	}
	if patch.Size != nil {
		el.Size = *patch.Size
	}
	if patch.Image != nil {
		el.Image = patch.Image
	}
	if patch.Text != nil {
		el.Text = *patch.Text
	}
	if patch.Checked != nil {
		el.Checked = *patch.Checked
	}
	if patch.Rotation != nil {
		el.Rotation = *patch.Rotation
	}
	if patch.FontSize != nil {
		el.FontSize = *patch.FontSize
	}
	if patch.FontName != nil {
		el.FontName = *patch.FontName
	}
	if patch.Color != nil {
		el.Color = *patch.Color
	}
}

// clampPoint keeps positions non-negative. There is deliberately no upper
// clamp: an element may be parked past the page edge while the user
// rearranges things.
func clampPoint(p Point) Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

// defaultSize returns the per-kind default bounding box. See the geometry
// constants in the config package for the rationale.
func defaultSize(kind Kind) Size {
	switch kind {
	case KindSignature:
		return Size{Width: config.DefaultSignatureWidth, Height: config.DefaultSignatureHeight}
	case KindCheckbox:
		return Size{Width: config.DefaultCheckboxSize, Height: config.DefaultCheckboxSize}
	default:
		return Size{Width: config.DefaultElementWidth, Height: config.DefaultElementHeight}
	}
}
