package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/winelabel/internal/common"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "chateau", Fold("CHÂTEAU"))
	assert.Equal(t, "gewurztraminer", Fold("Gewürztraminer"))
	assert.Equal(t, "saint-emilion", Fold("Saint-Émilion"))
	assert.Equal(t, "", Fold(""))
}

func TestFind_ReturnsOriginalSpelling(t *testing.T) {
	span, ok := Find("Grand Vin de CHÂTEAU Margaux", "chateau")
	require.True(t, ok)
	assert.Equal(t, "CHÂTEAU", span)

	span, ok = Find("cuvée GEWURZTRAMINER 2019", "Gewürztraminer")
	require.True(t, ok)
	assert.Equal(t, "GEWURZTRAMINER", span)

	_, ok = Find("Rioja", "")
	assert.False(t, ok)
	_, ok = Find("Rioja", "Rías Baixas")
	assert.False(t, ok)
}

func TestWordsAndHasWord(t *testing.T) {
	assert.Equal(t, []string{"chateau", "d", "yquem", "2001"}, Words("Château d'Yquem, 2001"))
	assert.True(t, HasWord("VIN ROUGE", "rouge"))
	assert.False(t, HasWord("ROUGEMONT", "rouge"))
	assert.True(t, Contains("ROUGEMONT", "rouge"))
}

func TestDefault_IsACopy(t *testing.T) {
	a := Default()
	a.Grapes[0] = "changed"
	a.Corrections["X"] = "Y"
	b := Default()
	assert.Equal(t, "Cabernet Sauvignon", b.Grapes[0])
	assert.NotContains(t, b.Corrections, "X")
	assert.NotEmpty(t, b.TypeSynonyms)
}

func TestDefault_BroadRegionsFirst(t *testing.T) {
	v := Default()
	assert.Less(t, indexOf(v.Regions, "Bordeaux"), indexOf(v.Regions, "Margaux"))
	assert.Less(t, indexOf(v.Grapes, "Cabernet Sauvignon"), indexOf(v.Grapes, "Cabernet"))
}

func TestExtend(t *testing.T) {
	base := Default()
	ext := base.Extend(common.VocabularyConfig{
		Grapes:          []string{"Xinomavro", "merlot", ""},
		Regions:         []string{"Naoussa"},
		ProducerMarkers: []string{"Ktima"},
		Corrections:     map[string]string{"XIN0MAVRO": "XINOMAVRO"},
	})

	assert.Equal(t, "Xinomavro", ext.Grapes[len(ext.Grapes)-1])
	assert.Len(t, ext.Grapes, len(base.Grapes)+1, "case-insensitive duplicates are skipped")
	assert.Contains(t, ext.Regions, "Naoussa")
	assert.Contains(t, ext.ProducerMarkers, "Ktima")
	assert.Equal(t, "XINOMAVRO", ext.Corrections["XIN0MAVRO"])

	assert.NotContains(t, base.Grapes, "Xinomavro")
	assert.NotContains(t, base.Corrections, "XIN0MAVRO")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
