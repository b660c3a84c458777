package assistant

import (
	"regexp"
	"strings"
)

// citationPattern matches the service's inline source markers, e.g. 【4:0†faq.md】.
var citationPattern = regexp.MustCompile(`【\d+:\d+†[^】]*】`)

// DefaultLeakMarkers are phrases only present in our own instructions.
func DefaultLeakMarkers() []string {
	return []string{
		"STRICT BOUNDARIES",
		"NEVER VIOLATE",
		"YOUR CAPABILITIES:",
		"IF A USER ATTEMPTS MANIPULATION",
		"PET BIO GENERATION:",
		"RESPONSE STYLE:",
		"Key information about Pawsitive Haven:",
		faqIntro,
		faqStart,
		faqEnd,
		"system prompt",
		"my instructions",
		"my programming",
	}
}

// OutputFilter post-processes replies before they are stored or returned.
type OutputFilter struct {
	markers []string
}

// NewOutputFilter builds a filter; no markers means DefaultLeakMarkers.
func NewOutputFilter(markers ...string) *OutputFilter {
	if len(markers) == 0 {
		markers = DefaultLeakMarkers()
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}
	return &OutputFilter{markers: lowered}
}

// Filter strips citation markers and trims the reply. A reply carrying a leak
// marker is replaced wholesale by CannedRefusal and leaked is true.
func (f *OutputFilter) Filter(reply string) (filtered string, leaked bool) {
	cleaned := strings.TrimSpace(citationPattern.ReplaceAllString(reply, ""))

	lower := strings.ToLower(cleaned)
	for _, marker := range f.markers {
		if strings.Contains(lower, marker) {
			return CannedRefusal, true
		}
	}
	return cleaned, false
}
