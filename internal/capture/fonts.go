package capture

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// Style names a typed-signature font. The set is fixed; the dialog offers
// them as a preview list.
type Style string

const (
	StyleElegant     Style = "elegant"
	StyleClassic     Style = "classic"
	StyleModern      Style = "modern"
	StyleFormal      Style = "formal"
	StyleHandwritten Style = "handwritten"
)

// DefaultStyle is preselected when the type tab opens.
const DefaultStyle = StyleElegant

var styleFonts = map[Style][]byte{
	StyleElegant:     goitalic.TTF,
	StyleClassic:     goregular.TTF,
	StyleModern:      gomedium.TTF,
	StyleFormal:      gosmallcaps.TTF,
	StyleHandwritten: gobolditalic.TTF,
}

// Styles returns the selectable styles in presentation order.
func Styles() []Style {
	return []Style{StyleElegant, StyleClassic, StyleModern, StyleFormal, StyleHandwritten}
}

// FontBytes returns the raw TTF for a style so other renderers can embed the
// same face. The second return reports whether the style is known.
func FontBytes(style Style) ([]byte, bool) {
	data, ok := styleFonts[style]
	return data, ok
}

// Face returns a sized drawing face for a style, parsing the font on first
// use.
func Face(style Style, size float64) (text.Face, error) {
	src, err := fontSource(style)
	if err != nil {
		return nil, err
	}
	return src.Face(size), nil
}

var (
	sourceMu    sync.Mutex
	sourceCache = map[Style]*text.FontSource{}
)

// fontSource parses the TTF for a style once and caches the result.
func fontSource(style Style) (*text.FontSource, error) {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	if src, ok := sourceCache[style]; ok {
		return src, nil
	}
	data, ok := styleFonts[style]
	if !ok {
		return nil, fmt.Errorf("unknown font style %q", style)
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font for style %q: %w", style, err)
	}
	sourceCache[style] = src
	return src, nil
}
