package capture

import (
	"bytes"
	"fmt"

	"github.com/gogpu/gg"

	"github.com/quillsign/esign/internal/config"
)

// PenPalette is the ink color set offered by the dialog. Any hex color is
// accepted; these are the presets.
var PenPalette = []string{"#000000", "#1e3a5f", "#2563eb", "#7c3aed", "#dc2626"}

// Pen width bounds in surface pixels.
const (
	MinPenWidth = 1.0
	MaxPenWidth = 5.0
)

// StrokePoint is a sampled pen position on the draw surface, in surface
// pixels.
type StrokePoint struct {
	X float64
	Y float64
}

// Pad records freehand strokes on a fixed-size surface and renders them to a
// transparent PNG. It is not safe for concurrent use; the dialog owns it.
type Pad struct {
	width    int
	height   int
	penColor string
	penWidth float64

	strokes [][]StrokePoint
	current []StrokePoint
}

// NewPad returns an empty pad sized and styled from cfg.
func NewPad(cfg *config.Config) *Pad {
	return &Pad{
		width:    cfg.CaptureWidth,
		height:   cfg.CaptureHeight,
		penColor: cfg.PenColor,
		penWidth: cfg.PenWidth,
	}
}

// SetPenColor changes the ink color for subsequent strokes. Existing strokes
// keep their geometry but are re-rendered in the new color, matching how the
// pad repaints on color change.
func (p *Pad) SetPenColor(hex string) { p.penColor = hex }

// SetPenWidth changes the stroke width for rendering, clamped to the pen
// bounds.
func (p *Pad) SetPenWidth(w float64) {
	if w < MinPenWidth {
		w = MinPenWidth
	}
	if w > MaxPenWidth {
		w = MaxPenWidth
	}
	p.penWidth = w
}

// Begin starts a new stroke at the given surface position.
func (p *Pad) Begin(x, y float64) {
	p.current = []StrokePoint{{X: x, Y: y}}
}

// Extend appends a point to the in-progress stroke. Without a preceding
// Begin it starts one, so a missed pointer-down does not drop ink.
func (p *Pad) Extend(x, y float64) {
	if p.current == nil {
		p.Begin(x, y)
		return
	}
	p.current = append(p.current, StrokePoint{X: x, Y: y})
}

// End commits the in-progress stroke. A stroke with a single point is kept;
// it renders as a dot.
func (p *Pad) End() {
	if p.current == nil {
		return
	}
	p.strokes = append(p.strokes, p.current)
	p.current = nil
}

// Undo removes the most recently committed stroke. It reports whether a
// stroke was removed.
func (p *Pad) Undo() bool {
	if len(p.strokes) == 0 {
		return false
	}
	p.strokes = p.strokes[:len(p.strokes)-1]
	return true
}

// Clear discards all strokes.
func (p *Pad) Clear() {
	p.strokes = nil
	p.current = nil
}

// IsEmpty reports whether the pad has no committed strokes.
func (p *Pad) IsEmpty() bool { return len(p.strokes) == 0 }

// StrokeCount returns the number of committed strokes.
func (p *Pad) StrokeCount() int { return len(p.strokes) }

// Render rasterizes the committed strokes to PNG bytes on a transparent
// background. An empty pad returns ErrEmptyCapture.
func (p *Pad) Render() ([]byte, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyCapture
	}

	dc := gg.NewContext(p.width, p.height)
	dc.SetHexColor(p.penColor)
	dc.SetLineWidth(p.penWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, stroke := range p.strokes {
		if len(stroke) == 1 {
			dc.DrawPoint(stroke[0].X, stroke[0].Y, p.penWidth/2)
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("rendering stroke: %w", err)
			}
			continue
		}
		dc.MoveTo(stroke[0].X, stroke[0].Y)
		for _, pt := range stroke[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("rendering stroke: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding drawn signature: %w", err)
	}
	return buf.Bytes(), nil
}
