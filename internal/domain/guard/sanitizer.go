package guard

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxCleanPasses bounds the fixed-point loop in Clean. Stripping invisible
// characters can expose edge whitespace or composable sequences that only a
// further pass folds.
const maxCleanPasses = 4

// Sanitizer normalizes untrusted chat text before it is matched or forwarded.
type Sanitizer struct {
	controlChars *regexp.Regexp
	zeroWidth    *regexp.Regexp
	bidiControls *regexp.Regexp
	blankLines   *regexp.Regexp
	spaceRuns    *regexp.Regexp
}

// NewSanitizer compiles the sanitizer patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		// C0 and C1 controls, keeping \t and \n
		controlChars: regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F-\x9F]`),
		zeroWidth:    regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`),
		bidiControls: regexp.MustCompile(`[\x{202A}-\x{202E}\x{2066}-\x{2069}]`),
		blankLines:   regexp.MustCompile(`\n{3,}`),
		spaceRuns:    regexp.MustCompile(` {2,}`),
	}
}

// Clean returns the normalized form of raw. It never fails and
// Clean(Clean(x)) == Clean(x).
func (s *Sanitizer) Clean(raw string) string {
	current := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := s.cleanOnce(current)
		if next == current {
			break
		}
		current = next
	}
	return current
}

func (s *Sanitizer) cleanOnce(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.ToValidUTF8(out, "")
	out = s.controlChars.ReplaceAllString(out, "")
	// NFKC folds fullwidth and compatibility forms onto their plain letters
	out = norm.NFKC.String(out)
	out = s.zeroWidth.ReplaceAllString(out, "")
	out = s.bidiControls.ReplaceAllString(out, "")
	out = s.blankLines.ReplaceAllString(out, "\n\n")
	out = s.spaceRuns.ReplaceAllString(out, " ")
	return out
}
