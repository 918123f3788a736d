// Package heuristic extracts a wine record from normalized label text
// without any network call. It never fails: text it cannot make sense of
// yields sentinels and zero confidence.
package heuristic

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

// Weights are the confidence points each valid field contributes.
type Weights struct {
	Name     int
	Producer int
	Vintage  int
	Grape    int
	Type     int
	Region   int
}

// DefaultWeights sum to 100.
func DefaultWeights() Weights {
	return WeightsFrom(common.DefaultWeights())
}

func WeightsFrom(c common.WeightsConfig) Weights {
	return Weights{
		Name:     c.Name,
		Producer: c.Producer,
		Vintage:  c.Vintage,
		Grape:    c.Grape,
		Type:     c.Type,
		Region:   c.Region,
	}
}

type Parser struct {
	vocab   *vocab.Vocabulary
	weights Weights
	rules   []rule
}

type Option func(*Parser)

func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(p *Parser) {
		if v != nil {
			p.vocab = v
		}
	}
}

func WithWeights(w Weights) Option {
	return func(p *Parser) { p.weights = w }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		vocab:   vocab.Default(),
		weights: DefaultWeights(),
		rules:   defaultRules(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse runs every rule over text (expected to be normalized) and scores
// the result. The returned record always has Source=local.
func (p *Parser) Parse(text string) entity.ParsedWineRecord {
	a := newAnalysis(text, p.vocab)
	for _, r := range p.rules {
		if r.applies(a) {
			r.extract(a)
		}
	}
	rec := a.rec
	rec.Confidence = p.Score(rec)
	return rec
}

// Score sums the weights of every valid field, capped at 100.
func (p *Parser) Score(rec entity.ParsedWineRecord) int {
	w := p.weights
	score := 0
	if validName(rec.Name, constants.UnidentifiedName) {
		score += w.Name
	}
	if validName(rec.Producer, constants.UnknownProducer) {
		score += w.Producer
	}
	if ValidVintage(rec.Vintage) {
		score += w.Vintage
	}
	if len(rec.GrapeVarieties) > 0 {
		score += w.Grape
	}
	if rec.WineType != "" && rec.WineType != constants.Unknown {
		score += w.Type
	}
	if strings.TrimSpace(rec.Region) != "" {
		score += w.Region
	}
	return min(max(score, 0), 100)
}

func validName(s, sentinel string) bool {
	return s != sentinel && utf8.RuneCountInString(strings.TrimSpace(s)) > 3
}

// ValidVintage reports whether v is a plausible vintage year for scoring.
func ValidVintage(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= constants.MinVintage && n <= constants.MaxPlausibleVintage
}
