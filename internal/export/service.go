// Package export renders batch outcomes as an XLSX workbook.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
)

const (
	labelsSheet  = "Labels"
	summarySheet = "Summary"
)

// Row pairs an outcome with the file it came from.
type Row struct {
	SourcePath string
	Outcome    pipeline.Outcome
}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var headers = []string{
	"#",
	"File",
	"Status",
	"Source",
	"Confidence",
	"Name",
	"Producer",
	"Vintage",
	"Grape Varieties",
	"Wine Type",
	"Region",
	"Escalated",
	"Error",
}

// ExportXLSX returns the workbook bytes: one row per outcome on "Labels"
// plus counts per source on "Summary".
func (s *Service) ExportXLSX(ctx context.Context, rows []Row) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", labelsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(labelsSheet)
	f.SetActiveSheet(idx)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(labelsSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(labelsSheet, 1, 1, style)
	}

	counts := map[string]int{}
	for i, r := range rows {
		o := r.Outcome
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(labelsSheet, cell, v)
		}

		write(1, o.Index+1)
		write(2, r.SourcePath)
		write(3, string(o.State))
		write(12, yesNo(o.Escalated))
		if o.Err != nil {
			write(13, truncate(o.Err.Error(), 140))
		}

		if o.Record == nil {
			counts["failed"]++
			continue
		}
		rec := o.Record
		counts[string(rec.Source)]++
		write(4, string(rec.Source))
		write(5, rec.Confidence)
		write(6, rec.Name)
		write(7, rec.Producer)
		write(8, rec.Vintage)
		write(9, strings.Join(rec.GrapeVarieties, ", "))
		write(10, string(rec.WineType))
		write(11, rec.Region)
	}

	_ = f.SetColWidth(labelsSheet, "A", "A", 5)
	_ = f.SetColWidth(labelsSheet, "B", "B", 48)
	_ = f.SetColWidth(labelsSheet, "C", "E", 12)
	_ = f.SetColWidth(labelsSheet, "F", "G", 32)
	_ = f.SetColWidth(labelsSheet, "H", "H", 9)
	_ = f.SetColWidth(labelsSheet, "I", "I", 32)
	_ = f.SetColWidth(labelsSheet, "J", "L", 14)
	_ = f.SetColWidth(labelsSheet, "M", "M", 60)

	summary := [][]any{
		{"Outcome", "Count"},
		{string(constants.SourceLocal), counts[string(constants.SourceLocal)]},
		{string(constants.SourceAI), counts[string(constants.SourceAI)]},
		{string(constants.SourceFallback), counts[string(constants.SourceFallback)]},
		{"failed", counts["failed"]},
		{"total", len(rows)},
	}
	for i, line := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return nil, fmt.Errorf("summary row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
