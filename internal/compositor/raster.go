package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/quillsign/esign/internal/capture"
	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/editor"

	"github.com/quillsign/esign/internal/document"
)

// compositeRaster draws elements onto the decoded source image and encodes
// the result as PNG, regardless of the source format.
func (c *Compositor) compositeRaster(ctx context.Context, doc *document.SourceDocument, elements []editor.Element) (*Result, error) {
	res := &Result{Format: "png"}

	base, _, err := image.Decode(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding source image: %v", ErrUnsupportedContent, err)
	}
	dc := gg.NewContextForImage(base)

	for _, el := range elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if el.Page != 1 {
			if abort := c.skipOrFail(res, el, fmt.Errorf("page %d out of range for single-page image", el.Page)); abort != nil {
				return nil, abort
			}
			continue
		}
		if err := c.drawRasterElement(dc, el); err != nil {
			if abort := c.skipOrFail(res, el, err); abort != nil {
				return nil, abort
			}
			continue
		}
		res.Placed = append(res.Placed, Placed{
			ElementID: el.ID,
			Page:      1,
			X:         el.Position.X,
			Y:         el.Position.Y,
			Width:     el.Size.Width,
			Height:    el.Size.Height,
		})
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	res.Data = buf.Bytes()
	return res, nil
}

func (c *Compositor) drawRasterElement(dc *gg.Context, el editor.Element) error {
	switch {
	case el.Kind.IsImageKind():
		return c.drawRasterImage(dc, el)
	case el.Kind.IsTextKind():
		return c.drawRasterText(dc, el)
	case el.Kind == editor.KindCheckbox:
		c.drawRasterCheckbox(dc, el)
		return nil
	default:
		return fmt.Errorf("%w: kind %q", ErrUnsupportedContent, el.Kind)
	}
}

func (c *Compositor) drawRasterImage(dc *gg.Context, el editor.Element) error {
	if len(el.Image) == 0 {
		return fmt.Errorf("%w: image element has no content", ErrUnsupportedContent)
	}
	src, _, err := image.Decode(bytes.NewReader(el.Image))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}

	x, y := el.Position.X, el.Position.Y
	w, h := el.Size.Width, el.Size.Height

	if el.Rotation == 0 {
		dc.DrawImageEx(gg.ImageBufFromImage(src), gg.DrawImageOptions{
			X:         x,
			Y:         y,
			DstWidth:  w,
			DstHeight: h,
		})
		return nil
	}

	// gg's image draw ignores rotation in the transform stack, so a
	// rotated element is transformed onto a canvas-sized overlay first.
	overlay := image.NewRGBA(image.Rect(0, 0, dc.Width(), dc.Height()))
	draw.ApproxBiLinear.Transform(overlay, rotatedPlacement(el, src.Bounds()), src, src.Bounds(), draw.Over, nil)
	dc.DrawImage(gg.ImageBufFromImage(overlay), 0, 0)
	return nil
}

// rotatedPlacement builds the affine matrix that scales the source into the
// element box and rotates it about the box center.
func rotatedPlacement(el editor.Element, srcBounds image.Rectangle) f64.Aff3 {
	w, h := el.Size.Width, el.Size.Height
	sx := w / float64(srcBounds.Dx())
	sy := h / float64(srcBounds.Dy())
	theta := el.Rotation * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	cx := el.Position.X + w/2
	cy := el.Position.Y + h/2
	return f64.Aff3{
		cos * sx, -sin * sy, cx - cos*w/2 + sin*h/2,
		sin * sx, cos * sy, cy - sin*w/2 - cos*h/2,
	}
}

func (c *Compositor) drawRasterText(dc *gg.Context, el editor.Element) error {
	if strings.TrimSpace(el.Text) == "" {
		return fmt.Errorf("%w: text element is empty", ErrUnsupportedContent)
	}

	style := capture.Style(el.FontName)
	if _, ok := capture.FontBytes(style); !ok {
		style = capture.StyleClassic
	}
	face, err := capture.Face(style, textFontSize(el))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}

	dc.Push()
	defer dc.Pop()
	if el.Rotation != 0 {
		dc.RotateAbout(el.Rotation*math.Pi/180, el.Position.X, el.Position.Y)
	}
	dc.SetFont(face)
	dc.SetHexColor(elementColor(el))

	// Text is centered on the element's anchor point, horizontally and
	// vertically, and rotates about that same point.
	dc.DrawStringAnchored(el.Text, el.Position.X, el.Position.Y, 0.5, 0.5)
	return nil
}

func (c *Compositor) drawRasterCheckbox(dc *gg.Context, el editor.Element) {
	x, y := el.Position.X, el.Position.Y
	w, h := el.Size.Width, el.Size.Height

	dc.Push()
	defer dc.Pop()
	if el.Rotation != 0 {
		dc.RotateAbout(el.Rotation*math.Pi/180, x+w/2, y+h/2)
	}
	dc.SetHexColor(elementColor(el))
	dc.SetLineWidth(2)
	dc.DrawRectangle(x, y, w, h)
	_ = dc.Stroke()

	if el.Checked {
		inset := 4.0
		dc.MoveTo(x+inset, y+h/2)
		dc.LineTo(x+w/2, y+h-inset)
		dc.LineTo(x+w-inset, y+inset)
		_ = dc.Stroke()
	}
}

func textFontSize(el editor.Element) float64 {
	if el.FontSize > 0 {
		return el.FontSize
	}
	return config.DefaultFontSize
}

func elementColor(el editor.Element) string {
	if strings.TrimSpace(el.Color) != "" {
		return el.Color
	}
	return config.DefaultColor
}
