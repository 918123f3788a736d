package constants

// Sentinels stand in for fields that could not be determined. They are
// never empty so downstream consumers can tell "unknown" from "unset".
const (
	UnidentifiedName = "unidentified"
	UnknownProducer  = "unknown producer"
)

type Source string

const (
	SourceLocal    Source = "local"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Vintage bounds. Extraction accepts a slightly wider window than scoring.
const (
	MinVintage          = 1980
	MaxExtractVintage   = 2039
	MaxPlausibleVintage = 2035
)
