package compositor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docmark/docmark/docwriter"
)

// namedColors covers the palette offered by the annotation toolbar.
var namedColors = map[string]docwriter.Color{
	"black":   {0, 0, 0},
	"white":   {1, 1, 1},
	"red":     {1, 0, 0},
	"green":   {0, 0.5, 0},
	"blue":    {0, 0, 1},
	"yellow":  {1, 1, 0},
	"orange":  {1, 0.647, 0},
	"purple":  {0.5, 0, 0.5},
	"gray":    {0.5, 0.5, 0.5},
	"grey":    {0.5, 0.5, 0.5},
	"cyan":    {0, 1, 1},
	"magenta": {1, 0, 1},
}

// ParseColor converts a hex (#rgb, #rrggbb), rgb(r,g,b) or named color
// string into normalized 0-1 channels. Empty input is black.
func ParseColor(s string) (docwriter.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return docwriter.Color{}, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		return parseRGB(s[4 : len(s)-1])
	}
	return docwriter.Color{}, fmt.Errorf("compositor: unrecognized color %q", s)
}

func parseHex(hex string) (docwriter.Color, error) {
	switch len(hex) {
	case 3:
		var c docwriter.Color
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(string(hex[i])+string(hex[i]), 16, 8)
			if err != nil {
				return docwriter.Color{}, fmt.Errorf("compositor: bad hex color %q", hex)
			}
			c[i] = float64(v) / 255
		}
		return c, nil
	case 6:
		var c docwriter.Color
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
			if err != nil {
				return docwriter.Color{}, fmt.Errorf("compositor: bad hex color %q", hex)
			}
			c[i] = float64(v) / 255
		}
		return c, nil
	default:
		return docwriter.Color{}, fmt.Errorf("compositor: bad hex color length %q", hex)
	}
}

func parseRGB(body string) (docwriter.Color, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return docwriter.Color{}, fmt.Errorf("compositor: bad rgb() color %q", body)
	}
	var c docwriter.Color
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return docwriter.Color{}, fmt.Errorf("compositor: bad rgb() channel %q", p)
		}
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		c[i] = v / 255
	}
	return c, nil
}

// colorOrBlack parses s, degrading to black on bad input rather than
// failing the annotation.
func colorOrBlack(s string) docwriter.Color {
	c, err := ParseColor(s)
	if err != nil {
		return docwriter.Color{}
	}
	return c
}
