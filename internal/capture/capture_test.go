package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/quillsign/esign/internal/config"
)

func makeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func makeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestPad_EmptySaveFails(t *testing.T) {
	pad := NewPad(config.Default())

	if _, err := pad.Render(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("expected ErrEmptyCapture, got %v", err)
	}
}

func TestPad_RenderProducesPNG(t *testing.T) {
	pad := NewPad(config.Default())
	pad.Begin(10, 20)
	pad.Extend(80, 40)
	pad.Extend(150, 25)
	pad.End()

	data, err := pad.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding rendered output: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png output, got %q", format)
	}
	if cfg.Width != config.Default().CaptureWidth || cfg.Height != config.Default().CaptureHeight {
		t.Errorf("unexpected surface size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPad_SinglePointStrokeRenders(t *testing.T) {
	pad := NewPad(config.Default())
	pad.Begin(50, 50)
	pad.End()

	if pad.IsEmpty() {
		t.Fatal("single-point stroke should count as content")
	}
	if _, err := pad.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestPad_UndoRemovesLastStroke(t *testing.T) {
	pad := NewPad(config.Default())
	pad.Begin(0, 0)
	pad.Extend(10, 10)
	pad.End()
	pad.Begin(20, 20)
	pad.Extend(30, 30)
	pad.End()

	if !pad.Undo() {
		t.Fatal("Undo should succeed with strokes present")
	}
	if pad.StrokeCount() != 1 {
		t.Fatalf("expected 1 stroke after undo, got %d", pad.StrokeCount())
	}

	if !pad.Undo() {
		t.Fatal("Undo should remove the remaining stroke")
	}
	if pad.Undo() {
		t.Fatal("Undo on an empty pad should report false")
	}
	if _, err := pad.Render(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("expected ErrEmptyCapture after undoing everything, got %v", err)
	}
}

func TestPad_ClearDiscardsEverything(t *testing.T) {
	pad := NewPad(config.Default())
	pad.Begin(0, 0)
	pad.Extend(5, 5)
	pad.End()
	pad.Begin(1, 1) // in-progress stroke

	pad.Clear()
	if !pad.IsEmpty() {
		t.Fatal("pad should be empty after Clear")
	}
	pad.End()
	if !pad.IsEmpty() {
		t.Fatal("cleared in-progress stroke should not be committed by End")
	}
}

func TestPad_ExtendWithoutBeginStartsStroke(t *testing.T) {
	pad := NewPad(config.Default())
	pad.Extend(5, 5)
	pad.Extend(10, 10)
	pad.End()

	if pad.StrokeCount() != 1 {
		t.Fatalf("expected 1 stroke, got %d", pad.StrokeCount())
	}
}

func TestPad_PenWidthClamped(t *testing.T) {
	pad := NewPad(config.Default())

	pad.SetPenWidth(0.2)
	if pad.penWidth != MinPenWidth {
		t.Errorf("pen width below minimum should clamp, got %v", pad.penWidth)
	}
	pad.SetPenWidth(50)
	if pad.penWidth != MaxPenWidth {
		t.Errorf("pen width above maximum should clamp, got %v", pad.penWidth)
	}
	pad.SetPenWidth(3)
	if pad.penWidth != 3 {
		t.Errorf("in-range pen width should stick, got %v", pad.penWidth)
	}
}

func TestRenderTyped_BlankTextFails(t *testing.T) {
	cfg := config.Default()
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := RenderTyped(text, StyleElegant, "#000000", cfg); !errors.Is(err, ErrEmptyCapture) {
			t.Errorf("RenderTyped(%q): expected ErrEmptyCapture, got %v", text, err)
		}
	}
}

func TestRenderTyped_AllStyles(t *testing.T) {
	cfg := config.Default()
	for _, style := range Styles() {
		t.Run(string(style), func(t *testing.T) {
			data, err := RenderTyped("Jane Example", style, "#1e3a5f", cfg)
			if err != nil {
				t.Fatalf("RenderTyped: %v", err)
			}
			if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
				t.Fatalf("output is not a decodable image: %v", err)
			}
		})
	}
}

func TestNormalizeUpload_PNGPassthrough(t *testing.T) {
	cfg := config.Default()
	src := makeTestPNG(t, 60, 40)

	out, err := NormalizeUpload(src, cfg)
	if err != nil {
		t.Fatalf("NormalizeUpload: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Error("PNG upload should pass through unmodified")
	}
}

func TestNormalizeUpload_JPEGConvertedToPNG(t *testing.T) {
	cfg := config.Default()
	out, err := NormalizeUpload(makeTestJPEG(t, 60, 40), cfg)
	if err != nil {
		t.Fatalf("NormalizeUpload: %v", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding normalized upload: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png after normalization, got %q", format)
	}
}

func TestNormalizeUpload_RejectsOversized(t *testing.T) {
	cfg := config.Default()
	cfg.MaxUploadBytes = 100

	if _, err := NormalizeUpload(makeTestPNG(t, 60, 40), cfg); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestNormalizeUpload_RejectsNonImage(t *testing.T) {
	cfg := config.Default()
	if _, err := NormalizeUpload([]byte("definitely not an image"), cfg); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestDialog_TabsKeepIndependentState(t *testing.T) {
	cfg := config.Default()
	d := NewDialog(cfg)

	d.Pad().Begin(0, 0)
	d.Pad().Extend(20, 20)
	d.Pad().End()

	d.SetTab(TabType)
	d.SetTypedText("Jane Example")
	d.SetTypedStyle(StyleModern)

	d.SetTab(TabUpload)
	if err := d.Upload(makeTestPNG(t, 40, 40)); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Switching back and forth loses nothing.
	d.SetTab(TabDraw)
	if d.Pad().StrokeCount() != 1 {
		t.Error("draw tab lost its stroke")
	}
	d.SetTab(TabType)
	if d.TypedText() != "Jane Example" || d.TypedStyle() != StyleModern {
		t.Error("type tab lost its state")
	}
	d.SetTab(TabUpload)
	if !d.HasUpload() {
		t.Error("upload tab lost its image")
	}
}

func TestDialog_SaveUsesActiveTab(t *testing.T) {
	cfg := config.Default()
	d := NewDialog(cfg)

	// Draw tab empty: saving fails and the dialog stays usable.
	if _, err := d.Save(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("expected ErrEmptyCapture from empty draw tab, got %v", err)
	}

	d.SetTab(TabType)
	d.SetTypedText("JE")
	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save from type tab: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Save returned empty payload")
	}

	d.SetTab(TabUpload)
	if _, err := d.Save(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("expected ErrEmptyCapture from empty upload tab, got %v", err)
	}
}

func TestDialog_RejectedUploadKeepsPrevious(t *testing.T) {
	cfg := config.Default()
	d := NewDialog(cfg)
	d.SetTab(TabUpload)

	good := makeTestPNG(t, 30, 30)
	if err := d.Upload(good); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := d.Upload([]byte("junk")); err == nil {
		t.Fatal("expected error for junk upload")
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.Equal(data, good) {
		t.Error("rejected upload should not replace the accepted one")
	}
}

func TestDialog_IgnoresUnknownTab(t *testing.T) {
	d := NewDialog(config.Default())
	d.SetTab(Tab("bogus"))
	if d.ActiveTab() != TabDraw {
		t.Fatalf("unknown tab should be ignored, got %q", d.ActiveTab())
	}
}
