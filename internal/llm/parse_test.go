package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

const latourJSON = `{"name":"Grand Vin","producer":"Château Latour","vintage":"2010","grapeVarieties":["Cabernet Sauvignon","Merlot"],"wineType":"red","region":"Pauillac"}`

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"prose around", "Sure! Here it is:\n" + latourJSON + "\nLet me know.", latourJSON, true},
		{"code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"braces in strings", `x {"a":"}{","b":"\"}"} y`, `{"a":"}{","b":"\"}"}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unbalanced then balanced", `{ oops {"a":1}`, `{"a":1}`, true},
		{"none", "no json here", "", false},
		{"unterminated", `{"a":1`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResponse_ProseAroundJSON(t *testing.T) {
	rec, raw, err := ParseResponse("Here is the extracted data: "+latourJSON+" Hope this helps!", nil)
	require.NoError(t, err)

	assert.JSONEq(t, latourJSON, string(raw))
	assert.Equal(t, "Grand Vin", rec.Name)
	assert.Equal(t, "Château Latour", rec.Producer)
	assert.Equal(t, "2010", rec.Vintage)
	assert.Equal(t, []string{"Cabernet Sauvignon", "Merlot"}, rec.GrapeVarieties)
	assert.Equal(t, constants.Red, rec.WineType)
	assert.Equal(t, "Pauillac", rec.Region)
	assert.Equal(t, constants.SourceAI, rec.Source)
}

func TestParseResponse_Sanitized(t *testing.T) {
	content := `{"Name":"Ramnista","winery":"Kir-Yianni","year":2016,"grapes":"Xinomavro, xinomavro; Syrah","color":"Red Wine","appellation":"Naoussa","tasting_notes":"dark fruit"}`
	rec, raw, err := ParseResponse(content, nil)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "tasting_notes")
	assert.Equal(t, "Ramnista", rec.Name)
	assert.Equal(t, "Kir-Yianni", rec.Producer)
	assert.Equal(t, "2016", rec.Vintage)
	assert.Equal(t, []string{"Xinomavro", "Syrah"}, rec.GrapeVarieties)
	assert.Equal(t, constants.Red, rec.WineType)
	assert.Equal(t, "Naoussa", rec.Region)
}

func TestParseResponse_Placeholders(t *testing.T) {
	content := `{"name":null,"producer":"N/A","vintage":"circa 1975","grapeVarieties":null,"wineType":"orange","region":"unknown"}`
	rec, _, err := ParseResponse(content, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.NewRecord(constants.SourceAI), rec)
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no object", "I could not read the label."},
		{"missing keys", `{"name":"Grand Vin"}`},
		{"wrong types", `{"name":1,"producer":"x","vintage":"2010","grapeVarieties":[],"wineType":"red","region":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseResponse(tt.content, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrExtraction))
			var xe *common.ExtractionError
			require.ErrorAs(t, err, &xe)
		})
	}
}

func TestCoerceVintage(t *testing.T) {
	assert.Equal(t, "2015", coerceVintage(float64(2015)))
	assert.Equal(t, "", coerceVintage(2015.5))
	assert.Equal(t, "2015", coerceVintage("Vintage 2015"))
	assert.Equal(t, "", coerceVintage("1975"))
	assert.Equal(t, "", coerceVintage(nil))
	assert.Equal(t, "", coerceVintage(true))
}

func TestMarshalRecord_RoundTrip(t *testing.T) {
	in := entity.NewRecord(constants.SourceAI)
	in.Name = "La Tâche"
	in.Producer = "Domaine de la Romanée-Conti"
	in.Vintage = "2012"
	in.GrapeVarieties = []string{"Pinot Noir"}
	in.WineType = constants.Red
	in.Region = "Bourgogne"

	b, err := MarshalRecord(in)
	require.NoError(t, err)
	out, _, err := ParseResponse(string(b), nil)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// sentinels and a nil grape list survive as well
	empty := entity.NewRecord(constants.SourceAI)
	empty.GrapeVarieties = nil
	b, err = MarshalRecord(empty)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"grapeVarieties":[]`)
	out, _, err = ParseResponse(string(b), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.NewRecord(constants.SourceAI), out)
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	out, changed, err := NormalizeAndSanitizeJSON([]byte(`{"producer":"A","winery":"B","Region":"C","extra":1}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"producer":"A","region":"C"}`, string(out))
	assert.ElementsMatch(t, []string{"Region->region", "extra(unknown)"}, changed)

	_, _, err = NormalizeAndSanitizeJSON([]byte(`not json`), nil)
	assert.Error(t, err)
}

func TestBuildWineJSONSchema_Compiles(t *testing.T) {
	s, err := CompileSchema(BuildWineJSONSchema())
	require.NoError(t, err)
	assert.NoError(t, ValidateJSONAgainstSchema(s, []byte(latourJSON)))
	assert.Error(t, ValidateJSONAgainstSchema(s, []byte(`{"name":"x"}`)))
	assert.Error(t, ValidateJSONAgainstSchema(s, []byte(`[`)))
}
