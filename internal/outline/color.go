package outline

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string]uint32{
	"red":    0xFF0000,
	"green":  0x00FF00,
	"blue":   0x0000FF,
	"yellow": 0xFFFF00,
	"orange": 0xFFA500,
	"purple": 0x800080,
	"white":  0xFFFFFF,
	"black":  0x000000,
}

// ParseColor accepts "#RRGGBB", "RRGGBB", "#RGB" or a small set of names
// and returns the color as 0xRRGGBB.
func ParseColor(s string) (uint32, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return uint32(v), nil
}
