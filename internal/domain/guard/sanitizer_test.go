package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_Clean(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims surrounding whitespace", "  hello there \t\n", "hello there"},
		{"strips C0 controls", "he\x00llo\x07 wor\x1bld", "hello world"},
		{"keeps tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"strips carriage returns", "line one\r\nline two", "line one\nline two"},
		{"strips C1 controls", "pet\u0085care\u009b", "petcare"},
		{"folds fullwidth letters", "ｉｇｎｏｒｅ", "ignore"},
		{"folds ligatures", "ﬁnd my dog", "find my dog"},
		{"strips zero-width characters", "ig\u200bno\u200cr\u200de\ufeff", "ignore"},
		{"strips bidi overrides", "abc\u202edef\u2066g\u2069", "abcdefg"},
		{"collapses blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"keeps a single blank line", "a\n\nb", "a\n\nb"},
		{"collapses space runs", "a     b  c", "a b c"},
		{"drops invalid utf8", "dog\xff\xfe food", "dog food"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Clean(tt.input))
		})
	}
}

func TestSanitizer_CleanIsIdempotent(t *testing.T) {
	s := NewSanitizer()

	inputs := []string{
		"What vaccinations does my foster dog need?",
		"\u200b hello",
		"e\u200b\u0301",
		"    spaced\u3000\u3000out  ",
		"a \u200b b \u200b c",
		"\n\u200b\n\u200b\n\u200b\nend",
		"ｓｙｓｔｅｍ\u3000ｐｒｏｍｐｔ",
		"\u202eevil\u202c text\x00\x01",
		"tab\t\t\ttabs   and    spaces",
		"",
		"   ",
	}

	for _, input := range inputs {
		once := s.Clean(input)
		assert.Equal(t, once, s.Clean(once), "input %q", input)
	}
}

func TestSanitizer_CleanExposedWhitespace(t *testing.T) {
	s := NewSanitizer()

	assert.Equal(t, "hello", s.Clean("\u200b hello"))
	assert.Equal(t, "é", s.Clean("e\u200b\u0301"))
}

func TestSanitizer_BenignPassThrough(t *testing.T) {
	s := NewSanitizer()
	msg := "What vaccinations does my foster dog need?"

	assert.Equal(t, msg, s.Clean(msg))
	assert.Equal(t, msg, s.Clean("  What vaccinations  does my foster dog need?  "))
}
