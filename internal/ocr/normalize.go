package ocr

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

var (
	reCRLF = regexp.MustCompile(`\r\n?`)
	// label decoration and OCR debris; apostrophes, periods, hyphens, '&',
	// '/' and '%' carry meaning on labels and are kept
	reNoise = regexp.MustCompile(`[|_~*#"«»\[\]{}<>•·;:!?=+^\\,“”„()¦§]`)
)

// Normalizer cleans raw recognized text. The zero value applies no
// corrections; use NewNormalizer.
type Normalizer struct {
	corrections map[string]string // lowercased misreading -> replacement
}

// NewNormalizer builds a normalizer over a correction table. Replacements
// must not themselves be misreadings in the table, otherwise normalizing
// twice would change the text again.
func NewNormalizer(corrections map[string]string) *Normalizer {
	m := make(map[string]string, len(corrections))
	for from, to := range corrections {
		m[strings.ToLower(from)] = to
	}
	return &Normalizer{corrections: m}
}

var defaultNormalizer = NewNormalizer(vocab.Default().Corrections)

// Normalize cleans s with the built-in correction table.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

// Normalize line-normalizes s, drops noise characters, collapses whitespace
// and fixes known misreadings. It is pure and idempotent.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case unicode.Is(unicode.Cf, r):
			return -1
		case unicode.IsControl(r), unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)
	s = reNoise.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		for i, tok := range tokens {
			if fixed, ok := n.corrections[strings.ToLower(tok)]; ok {
				tokens[i] = fixed
			}
		}
		out = append(out, strings.Join(tokens, " "))
	}
	return strings.Join(out, "\n")
}
