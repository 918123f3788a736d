package llm

import (
	"strings"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

// BuildPrompt composes the single prompt sent to the model: output contract,
// disambiguation rules, language hint, the fields the local parser could
// not establish, and the recognized text (truncated to maxChars runes).
func BuildPrompt(req entity.EnrichmentRequest, maxChars int) string {
	parts := []string{
		"You extract wine label data from OCR text.",
		"Return ONLY a JSON object with exactly these keys: " +
			`"name", "producer", "vintage", "grapeVarieties", "wineType", "region".`,
		`"grapeVarieties" is an array of strings. "vintage" is a 4-digit year as a string, or "" if none is printed.`,
		`"wineType" must be one of: ` + strings.Join(constants.AllWineTypes(), ", ") + ".",
		"A marker word such as Château, Domaine, Bodega, Weingut or Tenuta followed by a proper noun names the producer.",
		"When no clearer wine name exists, a line naming a grape variety is the wine's name.",
		"Region is the appellation or wine region printed on the label.",
		"Never invent values. Use null for a field the text does not support.",
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, "\n"))
	if lang := strings.TrimSpace(req.Language); lang != "" {
		b.WriteString("\nDetected label language: ")
		b.WriteString(lang)
		b.WriteString(".")
	}
	if len(req.Missing) > 0 {
		b.WriteString("\nA local parser could not establish: ")
		b.WriteString(strings.Join(req.Missing, ", "))
		b.WriteString(".")
	}
	if hints := partialHints(req.Partial); hints != "" {
		b.WriteString("\nIt did find: ")
		b.WriteString(hints)
		b.WriteString(". Correct these if the text says otherwise.")
	}
	b.WriteString("\n\nOCR text:\n")
	b.WriteString(truncateRunes(req.RawText, maxChars))
	return b.String()
}

func partialHints(rec entity.ParsedWineRecord) string {
	var hints []string
	if rec.HasName() {
		hints = append(hints, "name="+rec.Name)
	}
	if rec.HasProducer() {
		hints = append(hints, "producer="+rec.Producer)
	}
	if rec.Vintage != "" {
		hints = append(hints, "vintage="+rec.Vintage)
	}
	if len(rec.GrapeVarieties) > 0 {
		hints = append(hints, "grapes="+strings.Join(rec.GrapeVarieties, "/"))
	}
	if rec.WineType != "" && rec.WineType != constants.Unknown {
		hints = append(hints, "type="+string(rec.WineType))
	}
	if rec.Region != "" {
		hints = append(hints, "region="+rec.Region)
	}
	return strings.Join(hints, ", ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
