package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want constants.WineType
		ok   bool
	}{
		{"red", constants.Red, true},
		{" RED ", constants.Red, true},
		{"Rosé", constants.Rose, true},
		{"rose", constants.Rose, true},
		{"ROSE", constants.Rose, true},
		{"blanc", constants.White, true},
		{"vin rouge", constants.Red, true},
		{"Red Wine", constants.Red, true},
		{"Crémant", constants.Sparkling, true},
		{"champagne", constants.Sparkling, true},
		{"unknown", constants.Unknown, true},
		{"orange", constants.Unknown, false},
		{"", constants.Unknown, false},
		{"   ", constants.Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Canonicalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCanonicalType_ExtendedKeywords(t *testing.T) {
	base := Default()
	ext := base.Extend(common.VocabularyConfig{TypeSynonyms: map[string][]string{
		"red":     {"Erythros"},
		"rose":    {"Roze"},
		"Unknown": {"orange"},
		"white":   {"BLANC"},
	}})

	got, ok := ext.CanonicalType("erythros")
	assert.True(t, ok)
	assert.Equal(t, constants.Red, got)
	got, _ = ext.CanonicalType("Roze")
	assert.Equal(t, constants.Rose, got)
	got, _ = ext.CanonicalType("orange")
	assert.Equal(t, constants.Unknown, got, "keywords only extend the four wine types")

	_, ok = base.CanonicalType("erythros")
	assert.False(t, ok, "Extend leaves the receiver untouched")
	assert.Len(t, ext.TypeSynonyms[1].Words, len(base.TypeSynonyms[1].Words), "duplicates are skipped")
}
