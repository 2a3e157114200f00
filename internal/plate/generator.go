// Package plate fabricates license plate strings for simulated detections.
package plate

import (
	"regexp"
	"strings"

	"github.com/your-org/lpr/internal/rng"
)

const (
	// Letters omits I and O so plates can't be confused with 1 and 0.
	Letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	Digits  = "0123456789"

	LongTemplate  = "AAA-NNNN"
	ShortTemplate = "AA-NNNN"
)

var pattern = regexp.MustCompile(`^[A-HJ-NP-Z]{2,3}-[0-9]{4}$`)

// Generate returns a plate number built from a randomly chosen template.
// Each letter and digit position is an independent uniform draw.
func Generate(src rng.Source) string {
	template := ShortTemplate
	if src.Float64() > 0.5 {
		template = LongTemplate
	}

	var b strings.Builder
	b.Grow(len(template))
	for _, ch := range template {
		switch ch {
		case 'A':
			b.WriteByte(Letters[rng.Pick(src, len(Letters))])
		case 'N':
			b.WriteByte(Digits[rng.Pick(src, len(Digits))])
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Valid reports whether s has the shape of a generated plate.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
