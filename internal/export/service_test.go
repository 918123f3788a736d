package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
)

func TestExportXLSX(t *testing.T) {
	local := entity.NewRecord(constants.SourceLocal)
	local.Name = "Château Margaux"
	local.Producer = "Château Margaux"
	local.Vintage = "2015"
	local.GrapeVarieties = []string{"Merlot", "Cabernet"}
	local.WineType = constants.Red
	local.Region = "Bordeaux"
	local.Confidence = 100
	fallback := entity.FallbackRecord()

	rows := []Row{
		{SourcePath: "/labels/a.jpg", Outcome: pipeline.Outcome{Index: 0, State: constants.StateFinalized, Record: &local}},
		{SourcePath: "/labels/b.jpg", Outcome: pipeline.Outcome{Index: 1, State: constants.StateFailed, Err: common.NewRecognitionError(1, errors.New("blurry"))}},
		{SourcePath: "/labels/c.jpg", Outcome: pipeline.Outcome{Index: 2, State: constants.StateFinalized, Record: &fallback, Escalated: true, Err: errors.New("timeout")}},
	}

	data, err := NewService(nil).ExportXLSX(context.Background(), rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(labelsSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, "Château Margaux", got[1][5])
	assert.Equal(t, "Merlot, Cabernet", got[1][8])
	assert.Equal(t, "red", got[1][9])
	assert.Equal(t, string(constants.StateFailed), got[2][2])
	assert.Contains(t, got[2][12], "blurry")
	assert.Equal(t, "fallback", got[3][3])
	assert.Equal(t, "yes", got[3][11])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "1"}, summary[1])
	assert.Equal(t, []string{"fallback", "1"}, summary[3])
	assert.Equal(t, []string{"failed", "1"}, summary[4])
	assert.Equal(t, []string{"total", "3"}, summary[5])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
