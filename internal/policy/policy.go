// Package policy decides whether a locally parsed record is good enough or
// must be escalated to the language model.
package policy

import (
	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/heuristic"
)

// DefaultThreshold is the minimum local confidence accepted without
// escalation.
const DefaultThreshold = 65

// Field names reported in EnrichmentRequest.Missing.
const (
	FieldName     = "name"
	FieldProducer = "producer"
	FieldVintage  = "vintage"
	FieldGrapes   = "grapeVarieties"
	FieldType     = "wineType"
	FieldRegion   = "region"
)

type Policy struct {
	Threshold int
}

func New(threshold int) Policy {
	return Policy{Threshold: threshold}
}

// ShouldEscalate applies the default policy.
func ShouldEscalate(rec entity.ParsedWineRecord) bool {
	return New(DefaultThreshold).ShouldEscalate(rec)
}

// ShouldEscalate is true when the name or producer is unknown, or the
// confidence is below the threshold.
func (p Policy) ShouldEscalate(rec entity.ParsedWineRecord) bool {
	return !rec.HasName() || !rec.HasProducer() || rec.Confidence < p.Threshold
}

// Decision is either Accept or Escalate.
type Decision interface {
	isDecision()
}

// Accept keeps the local record as final.
type Accept struct {
	Record entity.ParsedWineRecord
}

// Escalate carries everything the language model needs.
type Escalate struct {
	Request entity.EnrichmentRequest
}

func (Accept) isDecision()   {}
func (Escalate) isDecision() {}

// Decide turns a local parse into a Decision. raw supplies the text and
// language hint for the escalation request.
func (p Policy) Decide(raw entity.RawRecognition, rec entity.ParsedWineRecord) Decision {
	if !p.ShouldEscalate(rec) {
		return Accept{Record: rec}
	}
	return Escalate{Request: entity.EnrichmentRequest{
		RawText:  raw.Text,
		Language: raw.Language,
		Partial:  rec.Clone(),
		Missing:  Missing(rec),
	}}
}

// Missing lists the fields of rec that are absent or invalid, in record
// order.
func Missing(rec entity.ParsedWineRecord) []string {
	var out []string
	if !rec.HasName() {
		out = append(out, FieldName)
	}
	if !rec.HasProducer() {
		out = append(out, FieldProducer)
	}
	if !heuristic.ValidVintage(rec.Vintage) {
		out = append(out, FieldVintage)
	}
	if len(rec.GrapeVarieties) == 0 {
		out = append(out, FieldGrapes)
	}
	if rec.WineType == "" || rec.WineType == constants.Unknown {
		out = append(out, FieldType)
	}
	if rec.Region == "" {
		out = append(out, FieldRegion)
	}
	return out
}
