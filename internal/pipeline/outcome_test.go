package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

func TestOutcome_Transitions(t *testing.T) {
	var o Outcome
	assert.False(t, o.advance(constants.StateNormalized))
	assert.True(t, o.advance(constants.StateRecognized))
	assert.False(t, o.advance(constants.StateAccepted), "cannot skip parsing")
	assert.True(t, o.advance(constants.StateNormalized))
	assert.True(t, o.advance(constants.StateLocallyParsed))
	assert.True(t, o.advance(constants.StateEscalated))
	assert.False(t, o.advance(constants.StateAccepted))

	o.finalize(entity.FallbackRecord())
	assert.True(t, o.Final())
	assert.Equal(t, constants.SourceFallback, o.Source())
	assert.False(t, o.advance(constants.StateRecognized), "finalized is terminal")
	assert.Equal(t, []constants.ImageState{
		constants.StateRecognized, constants.StateNormalized, constants.StateLocallyParsed,
		constants.StateEscalated, constants.StateFinalized,
	}, o.Trail)
}

func TestOutcome_Fail(t *testing.T) {
	o := Outcome{Index: 2}
	o.advance(constants.StateRecognized)
	o.fail(errors.New("blurry"))

	assert.Equal(t, constants.StateFailed, o.State)
	assert.True(t, o.State.Terminal())
	assert.False(t, o.Final())
	assert.Nil(t, o.Record)
	assert.Equal(t, constants.Source(""), o.Source())
	assert.Equal(t, []constants.ImageState{constants.StateRecognized, constants.StateFailed}, o.Trail)
	assert.False(t, o.advance(constants.StateNormalized))
}

func TestOutcome_CachedFinalizesDirectly(t *testing.T) {
	var o Outcome
	rec := entity.NewRecord(constants.SourceAI)
	o.finalize(rec)
	assert.True(t, o.Final())
	assert.Equal(t, []constants.ImageState{constants.StateFinalized}, o.Trail)
}
