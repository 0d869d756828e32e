package capture

import (
	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/logger"
)

// Dialog holds the state of an open capture dialog. Each tab keeps its own
// state independently, so switching between draw, type, and upload does not
// discard work in progress.
type Dialog struct {
	cfg *config.Config
	log *logger.Logger

	active Tab
	pad    *Pad

	typedText  string
	typedStyle Style
	typedColor string

	upload []byte
}

// NewDialog returns a dialog opened on the draw tab with defaults from cfg.
func NewDialog(cfg *config.Config) *Dialog {
	return &Dialog{
		cfg:        cfg,
		log:        logger.Get(),
		active:     TabDraw,
		pad:        NewPad(cfg),
		typedStyle: DefaultStyle,
		typedColor: cfg.PenColor,
	}
}

// SetTab switches the active tab. Unknown values are ignored.
func (d *Dialog) SetTab(tab Tab) {
	switch tab {
	case TabDraw, TabType, TabUpload:
		d.active = tab
	}
}

// ActiveTab returns the tab currently shown.
func (d *Dialog) ActiveTab() Tab { return d.active }

// Pad exposes the draw tab's stroke recorder.
func (d *Dialog) Pad() *Pad { return d.pad }

// SetTypedText sets the text on the type tab.
func (d *Dialog) SetTypedText(s string) { d.typedText = s }

// TypedText returns the type tab's current text.
func (d *Dialog) TypedText() string { return d.typedText }

// SetTypedStyle selects the type tab's font style.
func (d *Dialog) SetTypedStyle(style Style) {
	if _, ok := styleFonts[style]; ok {
		d.typedStyle = style
	}
}

// TypedStyle returns the type tab's selected font style.
func (d *Dialog) TypedStyle() Style { return d.typedStyle }

// SetPenColor sets the ink color for both the draw and type tabs.
func (d *Dialog) SetPenColor(hex string) {
	d.typedColor = hex
	d.pad.SetPenColor(hex)
}

// Upload validates and stores an uploaded image on the upload tab. On error
// any previously accepted upload is kept.
func (d *Dialog) Upload(data []byte) error {
	normalized, err := NormalizeUpload(data, d.cfg)
	if err != nil {
		d.log.WithError(err).Warn("rejected image upload")
		return err
	}
	d.upload = normalized
	return nil
}

// HasUpload reports whether the upload tab holds an accepted image.
func (d *Dialog) HasUpload() bool { return d.upload != nil }

// Save produces the PNG payload from the active tab. It returns
// ErrEmptyCapture when the active tab has nothing to save; the caller keeps
// the dialog open in that case.
func (d *Dialog) Save() ([]byte, error) {
	switch d.active {
	case TabType:
		return RenderTyped(d.typedText, d.typedStyle, d.typedColor, d.cfg)
	case TabUpload:
		if d.upload == nil {
			return nil, ErrEmptyCapture
		}
		return d.upload, nil
	default:
		return d.pad.Render()
	}
}
