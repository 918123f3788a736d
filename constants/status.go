package constants

// ImageState is the per-image position in the extraction state machine.
type ImageState string

const (
	StateRecognized    ImageState = "RECOGNIZED"
	StateNormalized    ImageState = "NORMALIZED"
	StateLocallyParsed ImageState = "LOCALLY_PARSED"
	StateAccepted      ImageState = "ACCEPTED"
	StateEscalated     ImageState = "ESCALATED"
	StateFinalized     ImageState = "FINALIZED" // terminal
	StateFailed        ImageState = "FAILED"    // terminal
)

// Terminal reports whether no further transition is possible.
func (s ImageState) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}
