package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllWineTypes(t *testing.T) {
	assert.Equal(t, []string{"red", "white", "rosé", "sparkling", "unknown"}, AllWineTypes())
}

func TestImageStateTerminal(t *testing.T) {
	assert.True(t, StateFinalized.Terminal())
	assert.True(t, StateFailed.Terminal())
	for _, s := range []ImageState{StateRecognized, StateNormalized, StateLocallyParsed, StateAccepted, StateEscalated} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "jpg", NormalizeExt(".JPG"))
	assert.Equal(t, "png", NormalizeExt("png"))
}
