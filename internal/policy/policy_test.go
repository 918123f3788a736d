package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

func complete() entity.ParsedWineRecord {
	rec := entity.NewRecord(constants.SourceLocal)
	rec.Name = "Grand Vin"
	rec.Producer = "Château Latour"
	rec.Vintage = "2010"
	rec.GrapeVarieties = []string{"Cabernet Sauvignon"}
	rec.WineType = constants.Red
	rec.Region = "Pauillac"
	rec.Confidence = 100
	return rec
}

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.ParsedWineRecord)
		want   bool
	}{
		{"complete record", func(*entity.ParsedWineRecord) {}, false},
		{"at threshold", func(r *entity.ParsedWineRecord) { r.Confidence = 65 }, false},
		{"below threshold", func(r *entity.ParsedWineRecord) { r.Confidence = 64 }, true},
		{"name sentinel", func(r *entity.ParsedWineRecord) { r.Name = constants.UnidentifiedName }, true},
		{"producer sentinel", func(r *entity.ParsedWineRecord) { r.Producer = constants.UnknownProducer }, true},
		{"empty name", func(r *entity.ParsedWineRecord) { r.Name = "" }, true},
		{"missing optional fields", func(r *entity.ParsedWineRecord) {
			r.Region = ""
			r.GrapeVarieties = []string{}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := complete()
			tt.mutate(&rec)
			assert.Equal(t, tt.want, ShouldEscalate(rec))
		})
	}
}

// Raising confidence never turns an accept into an escalation, and raising
// the threshold never turns an escalation into an accept.
func TestShouldEscalate_Monotonic(t *testing.T) {
	rec := complete()
	for threshold := 0; threshold <= 100; threshold += 5 {
		p := New(threshold)
		accepted := false
		for c := 0; c <= 100; c++ {
			rec.Confidence = c
			esc := p.ShouldEscalate(rec)
			if accepted {
				require.False(t, esc, "threshold=%d confidence=%d", threshold, c)
			}
			if !esc {
				accepted = true
				require.GreaterOrEqual(t, c, threshold)
				require.False(t, New(max(threshold-10, 0)).ShouldEscalate(rec))
			}
		}
	}
}

func TestMissing(t *testing.T) {
	assert.Empty(t, Missing(complete()))

	all := Missing(entity.NewRecord(constants.SourceLocal))
	assert.Equal(t, []string{FieldName, FieldProducer, FieldVintage, FieldGrapes, FieldType, FieldRegion}, all)

	rec := complete()
	rec.Vintage = "2037"
	rec.WineType = ""
	assert.Equal(t, []string{FieldVintage, FieldType}, Missing(rec))
}

func TestDecide(t *testing.T) {
	raw := entity.RawRecognition{Index: 3, Text: "CHÂTEAU LATOUR", Language: "fr"}

	t.Run("accept", func(t *testing.T) {
		rec := complete()
		d := New(DefaultThreshold).Decide(raw, rec)
		acc, ok := d.(Accept)
		require.True(t, ok, "got %T", d)
		assert.Equal(t, rec, acc.Record)
	})

	t.Run("escalate", func(t *testing.T) {
		rec := complete()
		rec.Name = constants.UnidentifiedName
		rec.Confidence = 70
		d := New(DefaultThreshold).Decide(raw, rec)
		esc, ok := d.(Escalate)
		require.True(t, ok, "got %T", d)
		assert.Equal(t, "CHÂTEAU LATOUR", esc.Request.RawText)
		assert.Equal(t, "fr", esc.Request.Language)
		assert.Equal(t, []string{FieldName}, esc.Request.Missing)
		assert.Equal(t, rec, esc.Request.Partial)

		esc.Request.Partial.GrapeVarieties[0] = "changed"
		assert.Equal(t, "Cabernet Sauvignon", rec.GrapeVarieties[0], "partial must not alias the local record")
	})

	t.Run("custom threshold", func(t *testing.T) {
		rec := complete()
		rec.Confidence = 75
		_, ok := New(80).Decide(raw, rec).(Escalate)
		assert.True(t, ok)
		_, ok = New(70).Decide(raw, rec).(Accept)
		assert.True(t, ok)
	})
}
