package screen

import (
	"fmt"
	"strings"

	"depths/internal/models"
)

// HintGlyphs renders a floor path as the lowercase first letter of each
// direction name, in path order.
func HintGlyphs(path []models.Direction) []string {
	out := make([]string, 0, len(path))
	for _, d := range path {
		name := d.String()
		if name == "" {
			continue
		}
		out = append(out, strings.ToLower(name[:1]))
	}
	return out
}

// FormatElapsed renders a duration in seconds as HH:MM:SS.
func FormatElapsed(seconds uint64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
