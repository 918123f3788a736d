package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

func TestParse_SingleLineLabel(t *testing.T) {
	rec := NewParser().Parse("CHÂTEAU MARGAUX 2015 MERLOT CABERNET BORDEAUX ROUGE")

	assert.Equal(t, "CHÂTEAU MARGAUX", rec.Producer)
	assert.Equal(t, "CHÂTEAU MARGAUX", rec.Name)
	assert.Equal(t, "2015", rec.Vintage)
	assert.Equal(t, constants.Red, rec.WineType)
	assert.ElementsMatch(t, []string{"MERLOT", "CABERNET"}, rec.GrapeVarieties)
	assert.Equal(t, "BORDEAUX", rec.Region)
	assert.Equal(t, constants.SourceLocal, rec.Source)
	assert.Equal(t, 100, rec.Confidence)
}

func TestParse_UnstructuredText(t *testing.T) {
	for _, text := range []string{"JUST SOME RANDOM TEXT", "", "hello world\nfoo bar baz"} {
		rec := NewParser().Parse(text)
		assert.Equal(t, constants.UnidentifiedName, rec.Name, text)
		assert.Equal(t, constants.UnknownProducer, rec.Producer, text)
		assert.Empty(t, rec.Vintage, text)
		assert.NotNil(t, rec.GrapeVarieties, text)
		assert.Empty(t, rec.GrapeVarieties, text)
		assert.Equal(t, constants.Unknown, rec.WineType, text)
		assert.Zero(t, rec.Confidence, text)
	}
}

func TestParse_MultiLineLabel(t *testing.T) {
	rec := NewParser().Parse("CHÂTEAU LATOUR\nGRAND VIN\n2010\nPAUILLAC")

	assert.Equal(t, "CHÂTEAU LATOUR", rec.Producer)
	assert.Equal(t, "GRAND VIN", rec.Name)
	assert.Equal(t, "2010", rec.Vintage)
	assert.Equal(t, "PAUILLAC", rec.Region)
	assert.Equal(t, constants.Unknown, rec.WineType)
	assert.Equal(t, 30+25+10+10, rec.Confidence)
}

func TestParse_BareMarkerIsNoProducer(t *testing.T) {
	for _, text := range []string{
		"CHÂTEAU 2015 BORDEAUX ROUGE MERLOT",
		"WINERY 2019 NAPA VALLEY RED CABERNET",
	} {
		rec := NewParser().Parse(text)
		assert.Equal(t, constants.UnknownProducer, rec.Producer, text)
		assert.Equal(t, constants.UnidentifiedName, rec.Name, text)
		assert.NotEmpty(t, rec.Vintage, text)
		assert.Less(t, rec.Confidence, 65, text)
	}

	rec := NewParser().Parse("CHÂTEAU 2015\nDOMAINE LEROY")
	assert.Equal(t, "DOMAINE LEROY", rec.Producer)
}

func TestParse_ProducerStopsAtGrape(t *testing.T) {
	rec := NewParser().Parse("DOMAINE DUPONT MERLOT\nABC")

	assert.Equal(t, "DOMAINE DUPONT", rec.Producer)
	assert.Equal(t, constants.UnidentifiedName, rec.Name, "names of three runes or fewer are rejected")
	assert.Equal(t, []string{"MERLOT"}, rec.GrapeVarieties)
	assert.Equal(t, 25+15, rec.Confidence)
}

func TestParse_Vintage(t *testing.T) {
	cases := map[string]string{
		"CUVEE 1979 2001":     "2001",
		"EST. 1850":           "",
		"LOT 12345 2018":      "2018",
		"2039 RELEASE":        "2039",
		"2040 RELEASE":        "",
		"750ML 13.5% VOL":     "",
		"MILLESIME 1998 2005": "1998",
	}
	p := NewParser()
	for text, want := range cases {
		assert.Equal(t, want, p.Parse(text).Vintage, text)
	}
}

func TestParse_WineTypeWholeWord(t *testing.T) {
	p := NewParser()
	assert.Equal(t, constants.White, p.Parse("SANCERRE BLANC").WineType)
	assert.Equal(t, constants.Rose, p.Parse("CÔTES DE PROVENCE ROSÉ").WineType)
	assert.Equal(t, constants.Sparkling, p.Parse("CRÉMANT D'ALSACE").WineType)
	assert.Equal(t, constants.Unknown, p.Parse("ROTHSCHILD").WineType, "'rot' inside a word does not count")
}

func TestParse_GrapesInVocabularyOrder(t *testing.T) {
	rec := NewParser().Parse("MERLOT\nCABERNET SAUVIGNON\nmerlot")
	// "Cabernet" is an entry of its own and matches inside "Cabernet Sauvignon".
	assert.Equal(t, []string{"CABERNET SAUVIGNON", "CABERNET", "MERLOT"}, rec.GrapeVarieties)
}

func TestParse_CustomVocabulary(t *testing.T) {
	v := vocab.Default().Extend(common.VocabularyConfig{
		Grapes:          []string{"Xinomavro"},
		Regions:         []string{"Naoussa"},
		ProducerMarkers: []string{"Ktima"},
	})
	rec := NewParser(WithVocabulary(v)).Parse("KTIMA KIR-YIANNI\nRAMNISTA\nXINOMAVRO NAOUSSA 2016")

	assert.Equal(t, "KTIMA KIR-YIANNI", rec.Producer)
	assert.Equal(t, "RAMNISTA", rec.Name)
	assert.Equal(t, []string{"XINOMAVRO"}, rec.GrapeVarieties)
	assert.Equal(t, "NAOUSSA", rec.Region)
	assert.Equal(t, 90, rec.Confidence)
}

func TestScore(t *testing.T) {
	p := NewParser()
	rec := entity.NewRecord(constants.SourceLocal)
	assert.Zero(t, p.Score(rec))

	rec.Name = "Grand Vin"
	rec.Producer = "Château Latour"
	assert.Equal(t, 55, p.Score(rec))

	rec.Vintage = "2036"
	assert.Equal(t, 55, p.Score(rec), "years past the plausible range score nothing")
	rec.Vintage = "2035"
	assert.Equal(t, 65, p.Score(rec))

	rec.Name = "Vin"
	assert.Equal(t, 35, p.Score(rec))
}

func TestScore_CustomWeightsCapped(t *testing.T) {
	p := NewParser(WithWeights(Weights{Name: 90, Producer: 90}))
	rec := entity.NewRecord(constants.SourceLocal)
	rec.Name = "Grand Vin"
	rec.Producer = "Château Latour"
	assert.Equal(t, 100, p.Score(rec))
}

func TestParse_Deterministic(t *testing.T) {
	p := NewParser()
	text := "DOMAINE DE LA ROMANÉE-CONTI\nLA TÂCHE\nGRAND CRU 2012\nPINOT NOIR BOURGOGNE ROUGE"
	first := p.Parse(text)
	for range 5 {
		require.Equal(t, first, p.Parse(text))
	}
}

func TestWeightsFrom(t *testing.T) {
	assert.Equal(t, Weights{Name: 30, Producer: 25, Vintage: 10, Grape: 15, Type: 10, Region: 10}, DefaultWeights())
}
