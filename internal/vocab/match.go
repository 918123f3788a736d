package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so "CHÂTEAU" and "chateau"
// compare equal.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteString(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) string {
	if r < unicode.MaxASCII {
		return string(unicode.ToLower(r))
	}
	var b strings.Builder
	for _, d := range norm.NFD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		b.WriteRune(unicode.ToLower(d))
	}
	return b.String()
}

// folded keeps, for every byte of the folded string, the byte offset of the
// rune it came from in the original.
type folded struct {
	text string
	offs []int
}

func fold(text string) folded {
	var b strings.Builder
	offs := make([]int, 0, len(text)+1)
	for i, r := range text {
		f := foldRune(r)
		b.WriteString(f)
		for range len(f) {
			offs = append(offs, i)
		}
	}
	offs = append(offs, len(text))
	return folded{text: b.String(), offs: offs}
}

// span maps a folded byte range back onto the original text.
func (f folded) span(original string, start, end int) string {
	return original[f.offs[start]:f.offs[end]]
}

// Find locates entry in text ignoring case and accents and returns the
// matching part of text with its original spelling.
func Find(text, entry string) (string, bool) {
	needle := Fold(entry)
	if needle == "" {
		return "", false
	}
	f := fold(text)
	idx := strings.Index(f.text, needle)
	if idx < 0 {
		return "", false
	}
	return f.span(text, idx, idx+len(needle)), true
}

// Contains reports whether entry occurs anywhere in text.
func Contains(text, entry string) bool {
	needle := Fold(entry)
	return needle != "" && strings.Contains(Fold(text), needle)
}

// Words splits text into folded words. Apostrophes and hyphens separate
// words, so "d'Yquem" yields "d" and "yquem".
func Words(text string) []string {
	return strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasWord reports whether word appears as a whole word in text.
func HasWord(text, word string) bool {
	w := Fold(word)
	for _, t := range Words(text) {
		if t == w {
			return true
		}
	}
	return false
}
