package entity

import (
	"github.com/joseph-ayodele/winelabel/constants"
)

// RawRecognition is the vision output for one image. Err is set when the
// image could not be read; Text is then empty.
type RawRecognition struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Err      error  `json:"-"`
}

// ParsedWineRecord is the structured result for one label.
type ParsedWineRecord struct {
	Name           string             `json:"name"`
	Producer       string             `json:"producer"`
	Vintage        string             `json:"vintage"`
	GrapeVarieties []string           `json:"grapeVarieties"`
	WineType       constants.WineType `json:"wineType"`
	Region         string             `json:"region"`
	Source         constants.Source   `json:"source"`
	Confidence     int                `json:"confidence"`
}

// NewRecord returns a record with every field at its "nothing found" value.
func NewRecord(source constants.Source) ParsedWineRecord {
	return ParsedWineRecord{
		Name:           constants.UnidentifiedName,
		Producer:       constants.UnknownProducer,
		GrapeVarieties: []string{},
		WineType:       constants.Unknown,
		Source:         source,
	}
}

// FallbackRecord is used when escalation fails.
func FallbackRecord() ParsedWineRecord {
	return NewRecord(constants.SourceFallback)
}

func (r ParsedWineRecord) HasName() bool {
	return r.Name != "" && r.Name != constants.UnidentifiedName
}

func (r ParsedWineRecord) HasProducer() bool {
	return r.Producer != "" && r.Producer != constants.UnknownProducer
}

// Clone returns a copy that shares no slices with r.
func (r ParsedWineRecord) Clone() ParsedWineRecord {
	out := r
	out.GrapeVarieties = append([]string{}, r.GrapeVarieties...)
	return out
}

// EnrichmentRequest is what gets sent to the language model after the
// local parse was judged insufficient.
type EnrichmentRequest struct {
	RawText  string
	Language string
	Partial  ParsedWineRecord
	Missing  []string
}
