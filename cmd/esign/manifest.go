package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quillsign/esign/internal/capture"
	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/editor"
	"github.com/quillsign/esign/internal/session"
)

// manifest is the YAML placement file consumed by the sign command.
type manifest struct {
	Elements []manifestElement `yaml:"elements"`
}

// manifestElement describes one element to burn. Position and size fall back
// to the kind's defaults when omitted.
type manifestElement struct {
	Kind     string   `yaml:"kind"`
	Page     int      `yaml:"page"`
	X        *float64 `yaml:"x"`
	Y        *float64 `yaml:"y"`
	Width    *float64 `yaml:"width"`
	Height   *float64 `yaml:"height"`
	Rotation float64  `yaml:"rotation"`

	// Text content for text and date elements, and for typed signatures.
	Text  string `yaml:"text"`
	Style string `yaml:"style"`

	Color    string  `yaml:"color"`
	FontSize float64 `yaml:"font-size"`
	Checked  bool    `yaml:"checked"`

	// Image is a path to a signature or initials image file, used instead
	// of Text for drawn or scanned signatures.
	Image string `yaml:"image"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Elements) == 0 {
		return nil, fmt.Errorf("manifest %s has no elements", path)
	}
	return &m, nil
}

// toSpec converts a manifest entry into an element spec, resolving image
// paths and typed-signature rendering. baseDir anchors relative image paths
// to the manifest's directory.
func (e manifestElement) toSpec(cfg *config.Config, baseDir string) (editor.NewElement, error) {
	kind := editor.Kind(e.Kind)
	if !kind.Valid() {
		return editor.NewElement{}, fmt.Errorf("unknown element kind %q", e.Kind)
	}

	spec := editor.NewElement{
		Kind:     kind,
		Text:     e.Text,
		Checked:  e.Checked,
		Rotation: e.Rotation,
		FontSize: e.FontSize,
		Color:    e.Color,
	}
	if e.X != nil && e.Y != nil {
		spec.Position = &editor.Point{X: *e.X, Y: *e.Y}
	}
	if e.Width != nil && e.Height != nil {
		spec.Size = &editor.Size{Width: *e.Width, Height: *e.Height}
	}

	switch {
	case kind.IsImageKind() && e.Image != "":
		path := e.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return editor.NewElement{}, fmt.Errorf("reading image for %s element: %w", kind, err)
		}
		normalized, err := capture.NormalizeUpload(data, cfg)
		if err != nil {
			return editor.NewElement{}, fmt.Errorf("%s element: %w", kind, err)
		}
		spec.Image = normalized
	case kind.IsImageKind():
		if strings.TrimSpace(e.Text) == "" {
			return editor.NewElement{}, fmt.Errorf("%s element needs either image or text", kind)
		}
		style := capture.Style(e.Style)
		if e.Style == "" {
			style = capture.DefaultStyle
		}
		color := e.Color
		if color == "" {
			color = cfg.PenColor
		}
		rendered, err := capture.RenderTyped(e.Text, style, color, cfg)
		if err != nil {
			return editor.NewElement{}, fmt.Errorf("%s element: %w", kind, err)
		}
		spec.Image = rendered
		spec.Text = ""
	case kind == editor.KindDate && strings.TrimSpace(e.Text) == "":
		spec.Text = time.Now().Format(session.DateFormat)
	}

	return spec, nil
}

// mimeFromPath maps a file extension to the MIME type the loader expects.
func mimeFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf", nil
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", fmt.Errorf("unsupported input extension %q", filepath.Ext(path))
	}
}
