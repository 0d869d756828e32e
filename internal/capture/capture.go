// Package capture produces the content payloads for signature and initials
// elements: a freehand drawing, a styled typed rendering, or an uploaded
// image, each normalized to PNG bytes.
package capture

import "errors"

var (
	// ErrEmptyCapture indicates an attempt to save a blank capture: a draw
	// pad with no strokes or typed text that is empty or whitespace. The
	// dialog stays open so the user can fix it.
	ErrEmptyCapture = errors.New("empty capture")

	// ErrUnsupportedImage indicates an uploaded file that does not decode
	// as PNG, JPEG, or WebP
	ErrUnsupportedImage = errors.New("unsupported image upload")

	// ErrImageTooLarge indicates an uploaded file above the configured
	// size limit
	ErrImageTooLarge = errors.New("uploaded image too large")
)

// Tab identifies one of the capture modes
type Tab string

const (
	TabDraw   Tab = "draw"
	TabType   Tab = "type"
	TabUpload Tab = "upload"
)
