package capture

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gogpu/gg"

	"github.com/quillsign/esign/internal/config"
)

// RenderTyped draws text centered on a transparent capture surface using the
// given font style and returns PNG bytes. Text that is empty or whitespace
// returns ErrEmptyCapture.
func RenderTyped(text string, style Style, colorHex string, cfg *config.Config) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCapture
	}

	src, err := fontSource(style)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(cfg.CaptureWidth, cfg.CaptureHeight)
	dc.SetFont(src.Face(cfg.CaptureFontSize))
	dc.SetHexColor(colorHex)
	dc.DrawStringAnchored(text, float64(cfg.CaptureWidth)/2, float64(cfg.CaptureHeight)/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding typed signature: %w", err)
	}
	return buf.Bytes(), nil
}
