package extract

import (
	"context"

	"github.com/joseph-ayodele/winelabel/internal/entity"
)

// TextRecognizer is Stage 1: images -> text. It returns exactly one
// RawRecognition per input, in input order. A per-image problem is reported
// through RawRecognition.Err; a returned error means the whole call failed.
type TextRecognizer interface {
	Recognize(ctx context.Context, images [][]byte) ([]entity.RawRecognition, error)
}

// FieldExtractor is Stage 2 for escalated images: text -> record via a
// language model. The raw model output is returned alongside for logging.
type FieldExtractor interface {
	Extract(ctx context.Context, req entity.EnrichmentRequest) (entity.ParsedWineRecord, []byte, error)
}
