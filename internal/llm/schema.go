package llm

// Record keys as they appear in model output.
const (
	KeyName     = "name"
	KeyProducer = "producer"
	KeyVintage  = "vintage"
	KeyGrapes   = "grapeVarieties"
	KeyWineType = "wineType"
	KeyRegion   = "region"
)

var recordKeys = []string{KeyName, KeyProducer, KeyVintage, KeyGrapes, KeyWineType, KeyRegion}

// BuildWineJSONSchema returns the JSON-Schema the model's object must match.
// All six keys are required; values are loosely typed because coercion
// happens afterwards.
func BuildWineJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	props := map[string]any{
		KeyName:     nullableString,
		KeyProducer: nullableString,
		KeyVintage:  map[string]any{"type": []string{"string", "number", "null"}},
		KeyGrapes: map[string]any{
			"type":  []string{"array", "string", "null"},
			"items": map[string]any{"type": []string{"string", "null"}},
		},
		KeyWineType: nullableString,
		KeyRegion:   nullableString,
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             recordKeys,
	}
}
