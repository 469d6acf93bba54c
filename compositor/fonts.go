package compositor

import "strings"

// FontForFamily maps a canvas font-family string to a writer font
// resource by a simple name match: serif families to Times, monospace
// to Courier, everything else to Helvetica.
func FontForFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "times"), strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times-Roman"
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	default:
		return "Helvetica"
	}
}
