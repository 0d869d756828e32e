package compositor

import (
	"fmt"
	"strconv"
	"strings"
)

// parseHexColor parses #rgb or #rrggbb into 8-bit channels. Invalid values
// fall back to black rather than failing the composite.
func parseHexColor(s string) (r, g, b uint8) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = fmt.Sprintf("%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
	case 6:
	default:
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}
