// Package document loads uploaded files into source documents for the editor.
//
// A source document is an immutable byte buffer plus the geometry the rest of
// the editor needs: page count and per-page dimensions in document units.
// Annotations are kept separately and never merged into the buffer until
// compositing.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	// Register decoders for the supported raster upload types.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/quillsign/esign/internal/logger"
)

// ErrInvalidFormat indicates the uploaded bytes could not be parsed as the
// declared type. The editor stays on the upload screen when this happens.
var ErrInvalidFormat = errors.New("invalid document format")

// Kind distinguishes the two source document variants
type Kind string

const (
	// KindPaginated is a vector document with one or more pages (PDF)
	KindPaginated Kind = "paginated"

	// KindRaster is a single bitmap image (PNG/JPEG/WebP)
	KindRaster Kind = "raster"
)

// Dim holds a page size in document units (PDF points for paginated
// documents, pixels for raster documents)
type Dim struct {
	Width  float64
	Height float64
}

// SourceDocument is an uploaded file plus its parsed geometry.
// The Data buffer is owned by the document and never mutated in place.
type SourceDocument struct {
	ID        string
	Name      string
	Kind      Kind
	Data      []byte
	PageCount int
	PageDims  []Dim
	LoadedAt  time.Time
}

// mimeFormats maps accepted MIME types to the format name reported by
// image.DecodeConfig. application/pdf is handled separately.
var mimeFormats = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

// Load parses an uploaded file into a SourceDocument.
//
// The MIME type decides the variant: application/pdf produces a paginated
// document, the supported image types produce a raster document. For PDFs the
// byte stream is parsed far enough to determine the page count and per-page
// media boxes without rendering any page content.
func Load(name string, data []byte, mimeType string) (*SourceDocument, error) {
	log := logger.Get().WithOperation("load_document").WithFields("name", name, "mime", mimeType)

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFormat)
	}

	var (
		kind  Kind
		count int
		dims  []Dim
		err   error
	)

	switch {
	case mimeType == "application/pdf":
		kind = KindPaginated
		count, dims, err = parsePDF(data)
	case mimeFormats[mimeType] != "":
		kind = KindRaster
		count, dims, err = parseImage(data, mimeFormats[mimeType])
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidFormat, mimeType)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to parse uploaded document")
		return nil, err
	}

	doc := &SourceDocument{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Data:      data,
		PageCount: count,
		PageDims:  dims,
		LoadedAt:  time.Now(),
	}

	log.WithDocumentID(doc.ID).WithFields("kind", kind, "page_count", count).Info("Document loaded")
	return doc, nil
}

// PageDim returns the dimensions of a 1-based page
func (d *SourceDocument) PageDim(page int) (Dim, error) {
	if page < 1 || page > len(d.PageDims) {
		return Dim{}, fmt.Errorf("page %d out of range (document has %d pages)", page, len(d.PageDims))
	}
	return d.PageDims[page-1], nil
}

// parsePDF reads the PDF cross-reference and page tree to extract page
// count and media-box dimensions
func parsePDF(data []byte) (int, []Dim, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if ctx.PageCount < 1 {
		return 0, nil, fmt.Errorf("%w: document has no pages", ErrInvalidFormat)
	}

	pageDims, err := ctx.PageDims()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	dims := make([]Dim, len(pageDims))
	for i, d := range pageDims {
		dims[i] = Dim{Width: d.Width, Height: d.Height}
	}

	return ctx.PageCount, dims, nil
}

// parseImage decodes just the image header and checks the declared type
// matches the actual encoding
func parseImage(data []byte, wantFormat string) (int, []Dim, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if format != wantFormat {
		return 0, nil, fmt.Errorf("%w: declared %s but decoded %s", ErrInvalidFormat, wantFormat, format)
	}

	if cfg.Width < 1 || cfg.Height < 1 {
		return 0, nil, fmt.Errorf("%w: degenerate image %dx%d", ErrInvalidFormat, cfg.Width, cfg.Height)
	}

	return 1, []Dim{{Width: float64(cfg.Width), Height: float64(cfg.Height)}}, nil
}
