// Package session ties the editor together: it owns the element store, the
// gesture tracker, the page viewport, and the capture dialog, and exposes
// the operations a front end drives.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/quillsign/esign/internal/capture"
	"github.com/quillsign/esign/internal/compositor"
	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/draft"
	"github.com/quillsign/esign/internal/editor"
	"github.com/quillsign/esign/internal/logger"
	"github.com/quillsign/esign/internal/placement"
	"github.com/quillsign/esign/internal/renderer"
)

var (
	// ErrNoElements indicates a download was requested with nothing
	// placed. The document would come back unchanged, so the session
	// declines instead.
	ErrNoElements = errors.New("no elements to burn")

	// ErrCompositeInProgress indicates a download started while another
	// is still running, usually a double click on the download control.
	ErrCompositeInProgress = errors.New("composite already in progress")
)

// ZoomPresets are the zoom factors offered directly in the toolbar.
var ZoomPresets = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}

// DateFormat is the layout burned into date elements.
const DateFormat = "January 2, 2006"

// Session is one editing session over one document. It is not safe for
// concurrent use except for Download, which guards itself.
type Session struct {
	cfg *config.Config
	log *logger.Logger

	store    *editor.Store
	tracker  *placement.Tracker
	viewport *renderer.Viewport
	comp     *compositor.Compositor

	dialog  *capture.Dialog
	pending *pendingPlacement

	compositing atomic.Bool

	now func() time.Time
}

// pendingPlacement remembers where a captured element goes once its dialog
// is confirmed.
type pendingPlacement struct {
	kind editor.Kind
	pos  *editor.Point
}

// New creates an empty session.
func New(cfg *config.Config) *Session {
	store := editor.NewStore(cfg)
	return &Session{
		cfg:      cfg,
		log:      logger.Get(),
		store:    store,
		tracker:  placement.NewTracker(store),
		viewport: renderer.NewViewport(renderer.New(cfg)),
		comp:     compositor.New(cfg),
		now:      time.Now,
	}
}

// LoadDocument replaces the session's document. Element state and any open
// capture dialog are discarded.
func (s *Session) LoadDocument(name string, data []byte, mimeType string) (*document.SourceDocument, error) {
	doc, err := s.store.LoadDocument(name, data, mimeType)
	if err != nil {
		return nil, err
	}
	s.dialog = nil
	s.pending = nil
	return doc, nil
}

// Store exposes the element store for direct edits.
func (s *Session) Store() *editor.Store { return s.store }

// Tracker exposes the pointer gesture tracker.
func (s *Session) Tracker() *placement.Tracker { return s.tracker }

// CaptureOpen reports whether a capture dialog is showing.
func (s *Session) CaptureOpen() bool { return s.dialog != nil }

// Dialog returns the open capture dialog, or nil.
func (s *Session) Dialog() *capture.Dialog { return s.dialog }

// HandleKey processes a keyboard shortcut. It reports whether the key was
// consumed. While a capture dialog is open only escape is handled; anything
// else belongs to the dialog's own inputs.
func (s *Session) HandleKey(key string) bool {
	if s.dialog != nil {
		if key == "escape" {
			s.CancelCapture()
			return true
		}
		return false
	}

	switch key {
	case "v":
		s.store.SetMode(editor.ModeSelect)
	case "s":
		s.store.SetMode(editor.ModePlaceSignature)
	case "i":
		s.store.SetMode(editor.ModePlaceInitials)
	case "t":
		s.store.SetMode(editor.ModePlaceText)
	case "d":
		s.store.SetMode(editor.ModePlaceDate)
	case "c":
		s.store.SetMode(editor.ModePlaceCheckbox)
	case "delete", "backspace":
		if id := s.store.Selected(); id != "" {
			s.store.RemoveElement(id)
		}
	case "escape":
		if s.tracker.Active() {
			s.tracker.Cancel()
		} else {
			s.store.SetMode(editor.ModeSelect)
		}
	default:
		return false
	}
	return true
}

// ReleasePointer finishes the active gesture. A click on a checkbox toggles
// it; clicks on other kinds just leave the element selected for editing.
func (s *Session) ReleasePointer(screenX, screenY float64) placement.Outcome {
	outcome := s.tracker.Release(screenX, screenY)
	if outcome.Type != placement.OutcomeClick {
		return outcome
	}
	if el, ok := s.store.ElementByID(outcome.ElementID); ok && el.Kind == editor.KindCheckbox {
		checked := !el.Checked
		s.store.UpdateElement(el.ID, editor.Patch{Checked: &checked})
	}
	return outcome
}

// ClickCanvas handles a click on empty canvas. In a placement mode this
// creates the element, or opens a capture dialog for kinds that need
// content first.
func (s *Session) ClickCanvas(screenX, screenY float64) error {
	action := s.tracker.ClickCanvas(screenX, screenY)
	if action.Place == "" {
		return nil
	}
	pos := action.Position
	return s.placeAt(action.Place, &pos)
}

// PlaceDefault creates an element of the given kind at the default
// position, the toolbar path that skips canvas clicking.
func (s *Session) PlaceDefault(kind editor.Kind) error {
	return s.placeAt(kind, nil)
}

func (s *Session) placeAt(kind editor.Kind, pos *editor.Point) error {
	switch kind {
	case editor.KindSignature, editor.KindInitials:
		// Content comes from the capture dialog; the element is created
		// on confirm.
		s.dialog = capture.NewDialog(s.cfg)
		s.pending = &pendingPlacement{kind: kind, pos: pos}
		return nil
	case editor.KindDate:
		_, err := s.store.AddElement(editor.NewElement{
			Kind:     kind,
			Text:     s.now().Format(DateFormat),
			Position: pos,
		})
		return err
	default:
		_, err := s.store.AddElement(editor.NewElement{Kind: kind, Position: pos})
		return err
	}
}

// ConfirmCapture saves the open dialog and creates the pending element. On
// ErrEmptyCapture the dialog stays open.
func (s *Session) ConfirmCapture() (string, error) {
	if s.dialog == nil || s.pending == nil {
		return "", errors.New("no capture in progress")
	}
	data, err := s.dialog.Save()
	if err != nil {
		return "", err
	}
	id, err := s.store.AddElement(editor.NewElement{
		Kind:     s.pending.kind,
		Image:    data,
		Position: s.pending.pos,
	})
	if err != nil {
		return "", err
	}
	s.dialog = nil
	s.pending = nil
	return id, nil
}

// CancelCapture closes the dialog without creating an element.
func (s *Session) CancelCapture() {
	s.dialog = nil
	s.pending = nil
}

// RenderPage rasterizes the current page at native resolution for display.
// Zoom is applied by the presentation layer as a visual transform.
func (s *Session) RenderPage(ctx context.Context) (*renderer.Frame, error) {
	return s.viewport.Render(ctx, s.store.Document(), s.store.CurrentPage())
}

// ZoomIn bumps zoom by one step and returns the stored value.
func (s *Session) ZoomIn() float64 {
	return s.store.SetZoom(s.store.Zoom() + s.cfg.ZoomStep)
}

// ZoomOut drops zoom by one step and returns the stored value.
func (s *Session) ZoomOut() float64 {
	return s.store.SetZoom(s.store.Zoom() - s.cfg.ZoomStep)
}

// SetZoom applies a preset or arbitrary zoom, clamped to the configured
// range.
func (s *Session) SetZoom(zoom float64) float64 {
	return s.store.SetZoom(zoom)
}

// SaveDraft writes the current layout to the draft store so the session can
// be resumed later.
func (s *Session) SaveDraft(store *draft.Store) error {
	doc := s.store.Document()
	if doc == nil {
		return compositor.ErrNoDocument
	}
	return store.Save(&draft.Draft{
		DocumentName: doc.Name,
		PageCount:    doc.PageCount,
		CurrentPage:  s.store.CurrentPage(),
		Zoom:         s.store.Zoom(),
		Elements:     s.store.Elements(),
	})
}

// RestoreDraft loads a saved layout over the current document. The draft
// must have been written for the same document name and page count. A
// missing draft file is not an error and restores nothing.
func (s *Session) RestoreDraft(store *draft.Store) (bool, error) {
	doc := s.store.Document()
	if doc == nil {
		return false, compositor.ErrNoDocument
	}
	d, err := store.Load()
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, nil
	}
	if d.DocumentName != doc.Name || d.PageCount != doc.PageCount {
		return false, fmt.Errorf("draft was saved for %q (%d pages), not %q (%d pages)",
			d.DocumentName, d.PageCount, doc.Name, doc.PageCount)
	}
	if err := s.store.RestoreElements(d.Elements); err != nil {
		return false, err
	}
	if d.CurrentPage >= 1 && d.CurrentPage <= doc.PageCount {
		_ = s.store.SetCurrentPage(d.CurrentPage)
	}
	s.store.SetZoom(d.Zoom)
	s.log.WithDocumentID(doc.ID).WithFields("elements", len(d.Elements)).Info("draft restored")
	return true, nil
}

// Download burns all elements into the document and returns the output. It
// declines when nothing is placed and refuses to run two composites at
// once.
func (s *Session) Download(ctx context.Context) (*compositor.Result, error) {
	doc := s.store.Document()
	if doc == nil {
		return nil, compositor.ErrNoDocument
	}
	elements := s.store.Elements()
	if len(elements) == 0 {
		s.log.WithDocumentID(doc.ID).Warn("download requested with no elements placed")
		return nil, ErrNoElements
	}

	if !s.compositing.CompareAndSwap(false, true) {
		return nil, ErrCompositeInProgress
	}
	defer s.compositing.Store(false)

	return s.comp.Composite(ctx, doc, elements)
}
