package compose

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor parses a hex color of the form "#rgb" or "#rrggbb" into an
// opaque color. Used for the configurable background and gap placeholder
// values.
func ParseColor(s string) (color.Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("invalid color %q: expected leading #", s)
	}

	var r, g, b uint64
	var err error
	switch len(hex) {
	case 3:
		if r, err = strconv.ParseUint(strings.Repeat(hex[0:1], 2), 16, 8); err == nil {
			if g, err = strconv.ParseUint(strings.Repeat(hex[1:2], 2), 16, 8); err == nil {
				b, err = strconv.ParseUint(strings.Repeat(hex[2:3], 2), 16, 8)
			}
		}
	case 6:
		if r, err = strconv.ParseUint(hex[0:2], 16, 8); err == nil {
			if g, err = strconv.ParseUint(hex[2:4], 16, 8); err == nil {
				b, err = strconv.ParseUint(hex[4:6], 16, 8)
			}
		}
	default:
		return nil, fmt.Errorf("invalid color %q: expected #rgb or #rrggbb", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, nil
}
