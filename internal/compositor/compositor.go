// Package compositor burns placed elements into a copy of the source
// document, producing a flattened PDF or PNG. The source bytes are never
// modified.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/editor"
	"github.com/quillsign/esign/internal/logger"
)

var (
	// ErrNoDocument indicates compositing was requested with no document
	// loaded.
	ErrNoDocument = errors.New("no document to composite")

	// ErrUnsupportedContent indicates an element whose content cannot be
	// burned, such as an image element with an undecodable payload.
	ErrUnsupportedContent = errors.New("unsupported element content")

	// ErrEncodingFailure indicates the output document could not be
	// serialized.
	ErrEncodingFailure = errors.New("output encoding failed")
)

// Placed records where an element landed in the output. For PDF output the
// origin is in PDF user space, which is bottom-up; for PNG output it is the
// top-left pixel origin.
type Placed struct {
	ElementID string
	Page      int
	X         float64
	Y         float64
	Width     float64
	Height    float64
}

// Skipped records an element that could not be burned when the compositor
// is configured to continue past bad elements.
type Skipped struct {
	ElementID string
	Page      int
	Reason    string
}

// Result is a finished composite.
type Result struct {
	// Data is the output document, PDF or PNG per Format.
	Data []byte

	// Format is "pdf" or "png".
	Format string

	// Filename is the suggested download name, the source name prefixed
	// with "signed_" and the extension adjusted to Format.
	Filename string

	Placed  []Placed
	Skipped []Skipped
}

// Compositor flattens elements into documents.
type Compositor struct {
	cfg *config.Config
	log *logger.Logger
}

// New returns a compositor configured from cfg.
func New(cfg *config.Config) *Compositor {
	return &Compositor{cfg: cfg, log: logger.Get()}
}

// Composite burns the given elements into the document and returns the
// flattened output. Elements are drawn in slice order, so later elements
// stack on top of earlier ones. By default a bad element is skipped and
// recorded in the result; with AbortOnBadElement set the first bad element
// fails the whole composite.
func (c *Compositor) Composite(ctx context.Context, doc *document.SourceDocument, elements []editor.Element) (res *Result, err error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := c.log.WithDocumentID(doc.ID).WithOperation("composite")
	log.WithFields("elements", len(elements), "kind", string(doc.Kind)).Info("compositing document")

	// The PDF libraries panic on inputs they cannot parse instead of
	// returning an error. A bad document must fail the composite, not
	// the process.
	defer func() {
		if r := recover(); r != nil {
			log.WithFields("panic", fmt.Sprint(r)).Error("composite panicked")
			res = nil
			err = fmt.Errorf("%w: %v", ErrEncodingFailure, r)
		}
	}()

	switch doc.Kind {
	case document.KindPaginated:
		res, err = c.compositePDF(ctx, doc, elements)
	case document.KindRaster:
		res, err = c.compositeRaster(ctx, doc, elements)
	default:
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrUnsupportedContent, doc.Kind)
	}
	if err != nil {
		return nil, err
	}

	res.Filename = outputFilename(doc.Name, res.Format)
	log.WithFields("placed", len(res.Placed), "skipped", len(res.Skipped), "bytes", len(res.Data)).Info("composite complete")
	return res, nil
}

// pdfSpaceY converts a top-left layout origin to the PDF user-space origin
// of the burned rectangle. Layout measures y downward from the top edge; PDF
// user space measures upward from the bottom edge, so the rectangle's bottom
// edge anchors the converted coordinate.
func pdfSpaceY(pageHeight, y, height float64) float64 {
	return pageHeight - y - height
}

// outputFilename derives the suggested download name from the source name.
func outputFilename(source, format string) string {
	name := "signed_" + source
	if format != "png" {
		return name
	}
	if ext := strings.LastIndex(name, "."); ext > 0 {
		name = name[:ext]
	}
	return name + ".png"
}

// skipOrFail applies the bad-element policy. It returns a non-nil error when
// the compositor should abort.
func (c *Compositor) skipOrFail(res *Result, el editor.Element, err error) error {
	if c.cfg.AbortOnBadElement {
		return fmt.Errorf("element %s on page %d: %w", el.ID, el.Page, err)
	}
	c.log.WithElementID(el.ID).WithPage(el.Page).WithError(err).Warn("skipping element")
	res.Skipped = append(res.Skipped, Skipped{ElementID: el.ID, Page: el.Page, Reason: err.Error()})
	return nil
}
