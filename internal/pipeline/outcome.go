package pipeline

import (
	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

// Outcome is the final result for one input image, at the same position as
// the input.
type Outcome struct {
	Index       int
	ContentHash string
	State       constants.ImageState
	Trail       []constants.ImageState
	// Record is nil only when State is Failed.
	Record *entity.ParsedWineRecord
	// Local is the heuristic parse, kept when the record came from elsewhere.
	Local     *entity.ParsedWineRecord
	Text      string // normalized text
	Language  string
	Escalated bool
	Cached    bool
	Err       error
}

var transitions = map[constants.ImageState][]constants.ImageState{
	"":                           {constants.StateRecognized, constants.StateFailed, constants.StateFinalized},
	constants.StateRecognized:    {constants.StateNormalized},
	constants.StateNormalized:    {constants.StateLocallyParsed},
	constants.StateLocallyParsed: {constants.StateAccepted, constants.StateEscalated},
	constants.StateAccepted:      {constants.StateFinalized},
	constants.StateEscalated:     {constants.StateFinalized},
}

// advance moves o to next. Illegal moves are ignored and reported false.
func (o *Outcome) advance(next constants.ImageState) bool {
	if o.State.Terminal() {
		return false
	}
	for _, allowed := range transitions[o.State] {
		if allowed == next {
			o.State = next
			o.Trail = append(o.Trail, next)
			return true
		}
	}
	return false
}

// Final reports whether the outcome carries a record.
func (o Outcome) Final() bool {
	return o.State == constants.StateFinalized && o.Record != nil
}

// Source is the record's source, or "" when the image failed.
func (o Outcome) Source() constants.Source {
	if o.Record == nil {
		return ""
	}
	return o.Record.Source
}

func (o *Outcome) fail(err error) {
	o.Err = err
	o.Record = nil
	o.State = constants.StateFailed
	o.Trail = append(o.Trail, constants.StateFailed)
}

func (o *Outcome) finalize(rec entity.ParsedWineRecord) {
	o.Record = &rec
	o.advance(constants.StateFinalized)
}
