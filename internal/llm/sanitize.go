package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// keySynonyms maps keys models commonly use instead of ours.
var keySynonyms = map[string]string{
	"wine_name":       KeyName,
	"winename":        KeyName,
	"label":           KeyName,
	"winery":          KeyProducer,
	"estate":          KeyProducer,
	"maker":           KeyProducer,
	"year":            KeyVintage,
	"grapes":          KeyGrapes,
	"grape":           KeyGrapes,
	"varieties":       KeyGrapes,
	"grape_varieties": KeyGrapes,
	"varietal":        KeyGrapes,
	"type":            KeyWineType,
	"wine_type":       KeyWineType,
	"color":           KeyWineType,
	"colour":          KeyWineType,
	"appellation":     KeyRegion,
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (winery -> producer)
// - Matches our keys case-insensitively
// - Removes unknown keys
//
// Required keys are never invented: a document missing one still fails
// validation afterwards.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	canonical := map[string]string{}
	for _, k := range recordKeys {
		canonical[strings.ToLower(k)] = k
	}

	keys := slices.Sorted(maps.Keys(m))
	changed := make([]string, 0, 4)
	out := make(map[string]any, len(recordKeys))
	for _, k := range keys {
		v := m[k]
		lk := strings.ToLower(strings.TrimSpace(k))
		if target, ok := canonical[lk]; ok {
			if target != k {
				changed = append(changed, k+"->"+target)
			}
			out[target] = v
		}
	}
	// synonyms only fill keys still missing
	for _, k := range keys {
		v := m[k]
		target, ok := keySynonyms[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			continue
		}
		if _, exists := out[target]; !exists {
			out[target] = v
			changed = append(changed, k+"->"+target)
		}
	}
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, ok := canonical[lk]; ok {
			continue
		}
		if _, ok := keySynonyms[lk]; ok {
			continue
		}
		changed = append(changed, k+"(unknown)")
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return b, changed, nil
}
