// Package renderer rasterizes document pages for on-screen display. Paginated
// documents go through unipdf's image device; raster documents are decoded
// directly.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/unidoc/unipdf/v3/common"
	unipdf "github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"

	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/logger"
)

// init quiets unidoc's default logger; rendering errors surface through
// error returns instead.
func init() {
	common.SetLogger(common.NewConsoleLogger(common.LogLevelError))
}

var (
	// ErrRenderFailed indicates a page could not be rasterized. The
	// previous frame stays on screen.
	ErrRenderFailed = errors.New("page render failed")

	// ErrCancelled indicates a render was superseded or its context ended
	// before the result could be displayed.
	ErrCancelled = errors.New("render cancelled")
)

// RenderFunc rasterizes one page of a document.
type RenderFunc func(ctx context.Context, doc *document.SourceDocument, page int) (image.Image, error)

// Renderer turns document pages into images at native resolution, one pixel
// per document unit. Zoom is a display transform applied by the presentation
// layer, never by re-rendering.
type Renderer struct {
	cfg        *config.Config
	log        *logger.Logger
	renderPage RenderFunc
}

// New returns a renderer using the built-in page rasterizers.
func New(cfg *config.Config) *Renderer {
	r := &Renderer{cfg: cfg, log: logger.Get()}
	r.renderPage = r.renderNative
	return r
}

// newWithRenderFunc substitutes the rasterizer, used by tests to exercise
// viewport sequencing without real PDF rendering.
func newWithRenderFunc(cfg *config.Config, fn RenderFunc) *Renderer {
	return &Renderer{cfg: cfg, log: logger.Get(), renderPage: fn}
}

// RenderPage rasterizes one page. The page number is 1-based.
func (r *Renderer) RenderPage(ctx context.Context, doc *document.SourceDocument, page int) (image.Image, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", ErrRenderFailed)
	}
	if page < 1 || page > doc.PageCount {
		return nil, fmt.Errorf("%w: page %d out of range 1..%d", ErrRenderFailed, page, doc.PageCount)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	img, err := r.renderPage(ctx, doc, page)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return img, nil
}

func (r *Renderer) renderNative(ctx context.Context, doc *document.SourceDocument, page int) (image.Image, error) {
	switch doc.Kind {
	case document.KindPaginated:
		return r.renderPDFPage(doc, page)
	case document.KindRaster:
		return r.renderRasterPage(doc)
	default:
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrRenderFailed, doc.Kind)
	}
}

// renderPDFPage rasterizes a PDF page with unipdf's image device. Document
// units are points, so the output is one pixel per point.
func (r *Renderer) renderPDFPage(doc *document.SourceDocument, pageNum int) (image.Image, error) {
	pdfReader, err := unipdf.NewPdfReaderLazy(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: creating reader: %v", ErrRenderFailed, err)
	}

	page, err := pdfReader.GetPage(pageNum)
	if err != nil {
		return nil, fmt.Errorf("%w: getting page %d: %v", ErrRenderFailed, pageNum, err)
	}

	mediaBox, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("%w: reading media box: %v", ErrRenderFailed, err)
	}
	pageWidth := mediaBox.Urx - mediaBox.Llx

	device := render.NewImageDevice()
	device.OutputWidth = int(pageWidth)

	img, err := device.Render(page)
	if err != nil {
		return nil, fmt.Errorf("%w: rasterizing page %d: %v", ErrRenderFailed, pageNum, err)
	}

	r.log.WithPage(pageNum).WithFields("width", img.Bounds().Dx(), "height", img.Bounds().Dy()).Debug("rendered pdf page")
	return img, nil
}

// renderRasterPage decodes the source image. The decoded pixels are the
// native resolution.
func (r *Renderer) renderRasterPage(doc *document.SourceDocument) (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrRenderFailed, err)
	}
	return src, nil
}
