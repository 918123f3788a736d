package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

var reYear = regexp.MustCompile(`\d+`)

// placeholder values models use for "don't know"
var emptyMarkers = map[string]struct{}{
	"": {}, "unknown": {}, "n/a": {}, "na": {}, "none": {}, "null": {}, "-": {},
}

// FirstJSONObject returns the first balanced {...} in s. Braces inside JSON
// strings are ignored.
func FirstJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseResponse turns raw model output into a record with Source=ai. The
// returned bytes are the JSON object that was accepted. Wine types are
// canonicalized with the built-in keywords.
func ParseResponse(content string, logger *slog.Logger) (entity.ParsedWineRecord, []byte, error) {
	return parseResponse(content, nil, logger)
}

// parseResponse is ParseResponse with wine types read through v; nil means
// the built-in vocabulary.
func parseResponse(content string, v *vocab.Vocabulary, logger *slog.Logger) (entity.ParsedWineRecord, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	obj, ok := FirstJSONObject(content)
	if !ok {
		return entity.ParsedWineRecord{}, nil, common.NewExtractionError("no JSON object in response", content, nil)
	}
	raw := []byte(obj)

	schema, err := compiledWineSchema()
	if err != nil {
		return entity.ParsedWineRecord{}, raw, fmt.Errorf("wine schema: %w", err)
	}

	// Validate strictly first.
	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		cleaned, _, sErr := NormalizeAndSanitizeJSON(raw, logger)
		if sErr != nil {
			return entity.ParsedWineRecord{}, raw, common.NewExtractionError("malformed JSON", obj, sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return entity.ParsedWineRecord{}, raw, common.NewExtractionError("schema validation failed", obj, vErr)
		}
		raw = cleaned
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return entity.ParsedWineRecord{}, raw, common.NewExtractionError("malformed JSON", obj, err)
	}
	return recordFromMap(m, v), raw, nil
}

func recordFromMap(m map[string]any, v *vocab.Vocabulary) entity.ParsedWineRecord {
	rec := entity.NewRecord(constants.SourceAI)
	if s := cleanString(m[KeyName]); s != "" && !strings.EqualFold(s, constants.UnidentifiedName) {
		rec.Name = s
	}
	if s := cleanString(m[KeyProducer]); s != "" && !strings.EqualFold(s, constants.UnknownProducer) {
		rec.Producer = s
	}
	rec.Vintage = coerceVintage(m[KeyVintage])
	rec.GrapeVarieties = coerceGrapes(m[KeyGrapes])
	if v != nil {
		rec.WineType, _ = v.CanonicalType(cleanString(m[KeyWineType]))
	} else {
		rec.WineType, _ = vocab.Canonicalize(cleanString(m[KeyWineType]))
	}
	rec.Region = cleanString(m[KeyRegion])
	return rec
}

// cleanString trims v and maps placeholders like "N/A" to "".
func cleanString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if _, empty := emptyMarkers[strings.ToLower(s)]; empty {
		return ""
	}
	return s
}

// coerceVintage accepts 2015, 2015.0 or "2015" (and "vintage 2015") and
// returns the year as a string, or "" when nothing in range is found.
func coerceVintage(v any) string {
	var s string
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return ""
		}
		s = strconv.Itoa(int(t))
	case string:
		s = t
	default:
		return ""
	}
	for _, run := range reYear.FindAllString(s, -1) {
		if len(run) != 4 {
			continue
		}
		n, _ := strconv.Atoi(run)
		if n >= constants.MinVintage && n <= constants.MaxExtractVintage {
			return run
		}
	}
	return ""
}

// coerceGrapes accepts an array or a delimited string.
func coerceGrapes(v any) []string {
	var items []string
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				items = append(items, s)
			}
		}
	case string:
		items = strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' || r == '/' })
	}

	out := []string{}
	seen := map[string]struct{}{}
	for _, it := range items {
		s := cleanString(it)
		if s == "" {
			continue
		}
		key := vocab.Fold(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MarshalRecord renders rec in the response format ParseResponse reads.
func MarshalRecord(rec entity.ParsedWineRecord) ([]byte, error) {
	grapes := rec.GrapeVarieties
	if grapes == nil {
		grapes = []string{}
	}
	return json.Marshal(struct {
		Name     string   `json:"name"`
		Producer string   `json:"producer"`
		Vintage  string   `json:"vintage"`
		Grapes   []string `json:"grapeVarieties"`
		WineType string   `json:"wineType"`
		Region   string   `json:"region"`
	}{
		Name:     rec.Name,
		Producer: rec.Producer,
		Vintage:  rec.Vintage,
		Grapes:   grapes,
		WineType: string(rec.WineType),
		Region:   rec.Region,
	})
}
