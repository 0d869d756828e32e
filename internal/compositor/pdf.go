package compositor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/signintech/gopdf"

	"github.com/quillsign/esign/internal/capture"
	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/editor"
)

// compositePDF stamps each page's elements onto a copy of the source. The
// elements are drawn into a one-page overlay PDF sized to the target page,
// and pdfcpu stamps that overlay on top of the original page. The source
// pages are never re-encoded, so page count, sizes and content survive
// untouched. gopdf positions draws from the top-left corner, matching
// element layout coordinates; the recorded placement converts to PDF user
// space.
func (c *Compositor) compositePDF(ctx context.Context, doc *document.SourceDocument, elements []editor.Element) (*Result, error) {
	res := &Result{Format: "pdf"}

	tmpDir, err := os.MkdirTemp("", "esign-composite-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "out.pdf")
	if err := os.WriteFile(outPath, doc.Data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}

	// Elements anchored past the last page are never drawn. They can only
	// appear if the element list outlived the document it was built for.
	byPage := map[int][]editor.Element{}
	for _, el := range elements {
		if el.Page < 1 || el.Page > doc.PageCount {
			if abort := c.skipOrFail(res, el, fmt.Errorf("page %d out of range 1..%d", el.Page, doc.PageCount)); abort != nil {
				return nil, abort
			}
			continue
		}
		byPage[el.Page] = append(byPage[el.Page], el)
	}

	for pageNum := 1; pageNum <= doc.PageCount; pageNum++ {
		els := byPage[pageNum]
		if len(els) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dims := doc.PageDims[pageNum-1]
		overlay, placed, err := c.overlayPage(dims, els, res)
		if err != nil {
			return nil, err
		}
		if overlay == nil {
			// every element on this page was skipped
			continue
		}

		overlayPath := filepath.Join(tmpDir, fmt.Sprintf("overlay_%d.pdf", pageNum))
		if err := os.WriteFile(overlayPath, overlay, 0o600); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
		}
		pages := []string{strconv.Itoa(pageNum)}
		if err := api.AddPDFWatermarksFile(outPath, "", pages, true, overlayPath, "pos:c, scale:1 rel, rotation:0", nil); err != nil {
			return nil, fmt.Errorf("%w: stamping page %d: %v", ErrEncodingFailure, pageNum, err)
		}
		res.Placed = append(res.Placed, placed...)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	res.Data = out
	return res, nil
}

// overlayPage draws one page's elements onto a transparent one-page PDF with
// the target page's dimensions. It returns nil bytes when every element was
// skipped.
func (c *Compositor) overlayPage(dims document.Dim, els []editor.Element, res *Result) ([]byte, []Placed, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: dims.Width, H: dims.Height}})
	pdf.AddPage()

	fonts := map[string]bool{}
	var placed []Placed
	for _, el := range els {
		if err := c.drawPDFElement(&pdf, fonts, el); err != nil {
			if abort := c.skipOrFail(res, el, err); abort != nil {
				return nil, nil, abort
			}
			continue
		}
		placed = append(placed, Placed{
			ElementID: el.ID,
			Page:      el.Page,
			X:         el.Position.X,
			Y:         pdfSpaceY(dims.Height, el.Position.Y, el.Size.Height),
			Width:     el.Size.Width,
			Height:    el.Size.Height,
		})
	}
	if len(placed) == 0 {
		return nil, nil, nil
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return buf.Bytes(), placed, nil
}

func (c *Compositor) drawPDFElement(pdf *gopdf.GoPdf, fonts map[string]bool, el editor.Element) error {
	switch el.Kind {
	case editor.KindSignature, editor.KindInitials:
		return c.drawPDFImage(pdf, el)
	case editor.KindText, editor.KindDate:
		return c.drawPDFText(pdf, fonts, el)
	case editor.KindCheckbox:
		return c.drawPDFCheckbox(pdf, el)
	default:
		return fmt.Errorf("%w: kind %q", ErrUnsupportedContent, el.Kind)
	}
}

func (c *Compositor) drawPDFImage(pdf *gopdf.GoPdf, el editor.Element) error {
	if len(el.Image) == 0 {
		return fmt.Errorf("%w: image element has no content", ErrUnsupportedContent)
	}
	holder, err := gopdf.ImageHolderByBytes(el.Image)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}

	x, y := el.Position.X, el.Position.Y
	w, h := el.Size.Width, el.Size.Height
	if el.Rotation != 0 {
		pdf.Rotate(el.Rotation, x+w/2, y+h/2)
		defer pdf.RotateReset()
	}
	if err := pdf.ImageByHolder(holder, x, y, &gopdf.Rect{W: w, H: h}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}
	return nil
}

func (c *Compositor) drawPDFText(pdf *gopdf.GoPdf, fonts map[string]bool, el editor.Element) error {
	if strings.TrimSpace(el.Text) == "" {
		return fmt.Errorf("%w: text element is empty", ErrUnsupportedContent)
	}

	style := capture.Style(el.FontName)
	data, ok := capture.FontBytes(style)
	if !ok {
		style = capture.StyleClassic
		data, _ = capture.FontBytes(style)
	}
	family := string(style)
	if !fonts[family] {
		if err := pdf.AddTTFFontData(family, data); err != nil {
			return fmt.Errorf("%w: embedding font %s: %v", ErrUnsupportedContent, family, err)
		}
		fonts[family] = true
	}

	fontSize := el.FontSize
	if fontSize <= 0 {
		fontSize = config.DefaultFontSize
	}
	if err := pdf.SetFont(family, "", fontSize); err != nil {
		return fmt.Errorf("%w: selecting font %s: %v", ErrUnsupportedContent, family, err)
	}

	r, g, b := parseHexColor(el.Color)
	pdf.SetTextColor(r, g, b)
	pdf.SetXY(el.Position.X, textCellTop(el.Position.Y, fontSize))
	if err := pdf.Cell(nil, el.Text); err != nil {
		return fmt.Errorf("%w: drawing text: %v", ErrUnsupportedContent, err)
	}
	return nil
}

// textCellTop places the text cell so the first baseline lands one em below
// the element's top edge, with the ascent approximated at 80% of the em.
func textCellTop(y, fontSize float64) float64 {
	return y + fontSize - 0.8*fontSize
}

func (c *Compositor) drawPDFCheckbox(pdf *gopdf.GoPdf, el editor.Element) error {
	x, y := el.Position.X, el.Position.Y
	w, h := el.Size.Width, el.Size.Height

	r, g, b := parseHexColor(el.Color)
	pdf.SetStrokeColor(r, g, b)
	pdf.SetLineWidth(2)
	pdf.RectFromUpperLeftWithStyle(x, y, w, h, "D")

	if el.Checked {
		const inset = 4
		pdf.Line(x+inset, y+h/2, x+w/2, y+h-inset)
		pdf.Line(x+w/2, y+h-inset, x+w-inset, y+inset)
	}
	return nil
}
