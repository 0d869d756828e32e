package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/quillsign/esign/internal/config"
)

// NormalizeUpload validates an uploaded image and converts it to PNG bytes.
// The size limit applies to the uploaded payload, not the normalized result.
func NormalizeUpload(data []byte, cfg *config.Config) ([]byte, error) {
	if int64(len(data)) > cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImageTooLarge, len(data), cfg.MaxUploadBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	// PNG passes through untouched so transparency and compression settings
	// survive the round trip.
	if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encoding %s upload: %w", format, err)
	}
	return buf.Bytes(), nil
}
