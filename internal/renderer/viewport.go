package renderer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/quillsign/esign/internal/document"
)

// Frame is a displayed render of one page.
type Frame struct {
	Page       int
	Image      image.Image
	Generation uint64
}

// Viewport serializes page renders for display. Every request bumps a
// generation counter and cancels the previous request's context; a result
// whose generation is no longer current is discarded, so a slow render can
// never overwrite a newer page on screen.
type Viewport struct {
	renderer *Renderer

	gen atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	frame  *Frame
}

// NewViewport returns a viewport drawing through r.
func NewViewport(r *Renderer) *Viewport {
	return &Viewport{renderer: r}
}

// Render rasterizes a page and installs it as the current frame. If another
// Render call starts before this one commits, this one returns ErrCancelled
// and the frame is left for the newer call.
func (v *Viewport) Render(ctx context.Context, doc *document.SourceDocument, page int) (*Frame, error) {
	gen := v.gen.Add(1)

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()
	defer cancel()

	img, err := v.renderer.RenderPage(rctx, doc, page)
	if err != nil {
		return nil, err
	}

	frame := &Frame{Page: page, Image: img, Generation: gen}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen.Load() {
		return nil, fmt.Errorf("%w: superseded by a newer render", ErrCancelled)
	}
	v.frame = frame
	return frame, nil
}

// Current returns the most recently committed frame, or nil before the
// first successful render.
func (v *Viewport) Current() *Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}
