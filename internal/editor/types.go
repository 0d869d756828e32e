package editor

import "time"

// Kind identifies the annotation element variant. Rendering and compositing
// switch exhaustively over this closed set.
type Kind string

const (
	// KindSignature is a full signature image element
	KindSignature Kind = "signature"

	// KindInitials is a small initials image element
	KindInitials Kind = "initials"

	// KindText is a free text element
	KindText Kind = "text"

	// KindDate is a date stamp element
	KindDate Kind = "date"

	// KindCheckbox is a toggleable checkbox element
	KindCheckbox Kind = "checkbox"
)

// IsImageKind reports whether the element carries a raster image payload
func (k Kind) IsImageKind() bool {
	return k == KindSignature || k == KindInitials
}

// IsTextKind reports whether the element carries a literal string payload
func (k Kind) IsTextKind() bool {
	return k == KindText || k == KindDate
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindSignature, KindInitials, KindText, KindDate, KindCheckbox:
		return true
	}
	return false
}

// Mode is the active editor tool
type Mode string

const (
	// ModeSelect is the default pointer tool
	ModeSelect Mode = "select"

	// ModePlaceSignature places a new signature on canvas click
	ModePlaceSignature Mode = "place-signature"

	// ModePlaceInitials places new initials on canvas click
	ModePlaceInitials Mode = "place-initials"

	// ModePlaceText places a new text element on canvas click
	ModePlaceText Mode = "place-text"

	// ModePlaceDate places a new date stamp on canvas click
	ModePlaceDate Mode = "place-date"

	// ModePlaceCheckbox places a new checkbox on canvas click
	ModePlaceCheckbox Mode = "place-checkbox"
)

// PlacementKind returns the element kind a placement mode creates,
// or false for ModeSelect
func (m Mode) PlacementKind() (Kind, bool) {
	switch m {
	case ModePlaceSignature:
		return KindSignature, true
	case ModePlaceInitials:
		return KindInitials, true
	case ModePlaceText:
		return KindText, true
	case ModePlaceDate:
		return KindDate, true
	case ModePlaceCheckbox:
		return KindCheckbox, true
	}
	return "", false
}

// Point is a position in document-space units, origin top-left, Y down
type Point struct {
	X float64
	Y float64
}

// Size is an extent in document-space units
type Size struct {
	Width  float64
	Height float64
}

// Element is a user-placed annotation anchored to one page of the source
// document. Positions and sizes are in document units at zoom 1; the
// presentation layer scales them visually.
type Element struct {
	// ID is unique within an editing session
	ID string

	// Kind selects the content payload and rendering rules
	Kind Kind

	// Position is the top-left corner in document units
	Position Point

	// Size is the bounding box in document units
	Size Size

	// Page is the 1-based page the element is anchored to
	Page int

	// Image is the PNG payload for signature and initials elements
	Image []byte

	// Text is the literal string for text and date elements
	Text string

	// Checked is the checkbox state
	Checked bool

	// Rotation is applied clockwise at render time, in degrees
	Rotation float64

	// FontSize applies to text and date elements
	FontSize float64

	// FontName applies to text and date elements; empty selects the
	// compositor's standard font
	FontName string

	// Color is the text color as a #rrggbb hex string
	Color string

	// CreatedAt is informational only
	CreatedAt time.Time
}

// NewElement describes an element to insert. Omitted position and size fall
// back to per-kind defaults; the page is always the store's current page.
type NewElement struct {
	Kind     Kind
	Image    []byte
	Text     string
	Checked  bool
	Position *Point
	Size     *Size
	Rotation float64
	FontSize float64
	FontName string
	Color    string
}

// Patch is a partial element update. Nil fields are left untouched.
type Patch struct {
	Position *Point
	Size     *Size
	Image    []byte
	Text     *string
	Checked  *bool
	Rotation *float64
	FontSize *float64
	FontName *string
	Color    *string
}
