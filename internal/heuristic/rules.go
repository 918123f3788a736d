package heuristic

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

var reDigits = regexp.MustCompile(`\d+`)

// analysis is the working state of one Parse call.
type analysis struct {
	text  string
	lines []string
	words map[string]struct{}
	vocab *vocab.Vocabulary

	rec          entity.ParsedWineRecord
	producerLine int
}

func newAnalysis(text string, v *vocab.Vocabulary) *analysis {
	a := &analysis{
		text:         text,
		vocab:        v,
		rec:          entity.NewRecord(constants.SourceLocal),
		producerLine: -1,
		words:        map[string]struct{}{},
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			a.lines = append(a.lines, line)
		}
	}
	for _, w := range vocab.Words(text) {
		a.words[w] = struct{}{}
	}
	return a
}

func (a *analysis) hasWord(w string) bool {
	_, ok := a.words[vocab.Fold(w)]
	return ok
}

// anchored reports whether any structural field was found. Text with no
// anchor at all is not treated as a label.
func (a *analysis) anchored() bool {
	r := a.rec
	return r.Producer != constants.UnknownProducer || r.Vintage != "" ||
		len(r.GrapeVarieties) > 0 || r.WineType != constants.Unknown || r.Region != ""
}

type rule struct {
	name    string
	applies func(*analysis) bool
	extract func(*analysis)
}

func always(*analysis) bool { return true }

// Order matters: the name rule looks at what the earlier rules found.
func defaultRules() []rule {
	return []rule{
		{name: "vintage", applies: always, extract: extractVintage},
		{name: "wine_type", applies: always, extract: extractWineType},
		{name: "grapes", applies: always, extract: extractGrapes},
		{name: "region", applies: always, extract: extractRegion},
		{name: "producer", applies: always, extract: extractProducer},
		{name: "name", applies: func(a *analysis) bool { return a.anchored() }, extract: extractName},
	}
}

// extractVintage takes the first run of exactly four digits in range.
func extractVintage(a *analysis) {
	for _, run := range reDigits.FindAllString(a.text, -1) {
		if len(run) != 4 {
			continue
		}
		n, _ := strconv.Atoi(run)
		if n >= constants.MinVintage && n <= constants.MaxExtractVintage {
			a.rec.Vintage = run
			return
		}
	}
}

func extractWineType(a *analysis) {
	for _, group := range a.vocab.TypeSynonyms {
		for _, w := range group.Words {
			if a.hasWord(w) {
				a.rec.WineType = group.Type
				return
			}
		}
	}
}

func extractGrapes(a *analysis) {
	seen := map[string]struct{}{}
	for _, g := range a.vocab.Grapes {
		span, ok := vocab.Find(a.text, g)
		if !ok {
			continue
		}
		key := vocab.Fold(g)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		a.rec.GrapeVarieties = append(a.rec.GrapeVarieties, span)
	}
}

func extractRegion(a *analysis) {
	for _, r := range a.vocab.Regions {
		if span, ok := vocab.Find(a.text, r); ok {
			a.rec.Region = span
			return
		}
	}
}

// extractProducer finds the first line with a marker word ("Château",
// "Domaine", ...) and reads the producer from the marker onwards up to the
// first year, type keyword, grape or region. A marker with nothing after it
// is skipped.
func extractProducer(a *analysis) {
	for li, line := range a.lines {
		tokens := strings.Fields(line)
		for ti, tok := range tokens {
			if !a.isMarker(tok) {
				continue
			}
			end := ti + 1
			for ; end < len(tokens); end++ {
				if a.stopsProducer(tokens, end, end == ti+1) {
					break
				}
			}
			if !a.hasNonMarker(tokens[ti+1 : end]) {
				continue
			}
			a.rec.Producer = strings.Join(tokens[ti:end], " ")
			a.producerLine = li
			return
		}
	}
}

// hasNonMarker reports whether a marker is followed by an actual house
// name; "CHÂTEAU 2015" names no producer.
func (a *analysis) hasNonMarker(tokens []string) bool {
	for _, tok := range tokens {
		if !a.isMarker(tok) {
			return true
		}
	}
	return false
}

func (a *analysis) isMarker(tok string) bool {
	words := vocab.Words(tok)
	if len(words) == 0 {
		return false
	}
	for _, m := range a.vocab.ProducerMarkers {
		if words[0] == vocab.Fold(m) {
			return true
		}
	}
	return false
}

// stopsProducer decides whether tokens[i] ends the producer. The token
// right after the marker is kept even if it is a region ("Château Margaux").
func (a *analysis) stopsProducer(tokens []string, i int, first bool) bool {
	tok := tokens[i]
	if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
		return true
	}
	if first {
		return false
	}
	for _, group := range a.vocab.TypeSynonyms {
		for _, w := range group.Words {
			if vocab.Fold(strings.Trim(tok, ".-'")) == vocab.Fold(w) {
				return true
			}
		}
	}
	rest := vocab.Fold(strings.Join(tokens[i:], " "))
	for _, e := range a.vocab.Grapes {
		if strings.HasPrefix(rest, vocab.Fold(e)) {
			return true
		}
	}
	for _, e := range a.vocab.Regions {
		if strings.HasPrefix(rest, vocab.Fold(e)) {
			return true
		}
	}
	return false
}

// extractName picks the longest line that is not the producer line and
// mentions neither the vintage nor the region. A single-line label has no
// such line; its producer then doubles as the name.
func extractName(a *analysis) {
	best := ""
	for li, line := range a.lines {
		if li == a.producerLine {
			continue
		}
		if a.rec.Vintage != "" && strings.Contains(line, a.rec.Vintage) {
			continue
		}
		if a.rec.Region != "" && vocab.Contains(line, a.rec.Region) {
			continue
		}
		if utf8.RuneCountInString(line) > utf8.RuneCountInString(best) {
			best = line
		}
	}
	if best == "" && len(a.lines) == 1 && a.producerLine == 0 {
		best = a.rec.Producer
	}
	if utf8.RuneCountInString(best) > 3 {
		a.rec.Name = best
	}
}
