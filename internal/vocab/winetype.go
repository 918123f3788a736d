package vocab

import (
	"maps"
	"slices"
	"strings"

	"github.com/joseph-ayodele/winelabel/constants"
)

// typeSynonyms are the label keywords per type, checked in this order.
var typeSynonyms = []TypeKeywords{
	{constants.Red, []string{"red", "rouge", "rosso", "tinto", "rot", "vermelho"}},
	{constants.White, []string{"white", "blanc", "bianco", "blanco", "weiss", "weiß", "branco"}},
	{constants.Rose, []string{"rosé", "rose", "rosado", "rosato"}},
	{constants.Sparkling, []string{"sparkling", "mousseux", "crémant", "cava", "prosecco", "spumante", "sekt", "champagne", "espumante", "pétillant"}},
}

var builtin = Default()

// Canonicalize maps a type name or keyword onto the closed enum using the
// built-in keywords.
func Canonicalize(input string) (constants.WineType, bool) {
	return builtin.CanonicalType(input)
}

// CanonicalType maps a model or user supplied type onto the closed enum:
// an exact type name, then a keyword, then any word of a phrase such as
// "vin rouge". Anything unrecognized becomes Unknown.
func (v *Vocabulary) CanonicalType(input string) (constants.WineType, bool) {
	key := Fold(strings.TrimSpace(input))
	if key == "" {
		return constants.Unknown, false
	}
	for _, name := range constants.AllWineTypes() {
		if key == Fold(name) {
			return constants.WineType(name), true
		}
	}
	if t, ok := v.typeForWord(key); ok {
		return t, true
	}
	for _, word := range strings.Fields(key) {
		if t, ok := v.typeForWord(word); ok {
			return t, true
		}
	}
	return constants.Unknown, false
}

func (v *Vocabulary) typeForWord(folded string) (constants.WineType, bool) {
	for _, group := range v.TypeSynonyms {
		for _, w := range group.Words {
			if folded == Fold(w) {
				return group.Type, true
			}
		}
	}
	return constants.Unknown, false
}

// extendTypes returns groups with the configured keywords appended to the
// matching type. Keys name a type ("red", "rosé"); unknown keys are skipped.
func extendTypes(groups []TypeKeywords, extra map[string][]string) []TypeKeywords {
	out := make([]TypeKeywords, len(groups))
	for i, g := range groups {
		out[i] = TypeKeywords{Type: g.Type, Words: slices.Clone(g.Words)}
	}
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		key := Fold(strings.TrimSpace(name))
		for i := range out {
			if key == Fold(string(out[i].Type)) {
				out[i].Words = appendNew(out[i].Words, extra[name])
			}
		}
	}
	return out
}
