// Package server exposes the label pipeline over gRPC.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/export"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
)

// DefaultMaxImages bounds a single request when no limit is configured.
const DefaultMaxImages = 32

// Pipeline is the behavior the service depends on.
type Pipeline interface {
	ProcessImages(ctx context.Context, images [][]byte) ([]pipeline.Outcome, error)
	ProcessTexts(ctx context.Context, texts []entity.RawRecognition) ([]pipeline.Outcome, error)
}

type LabelService struct {
	pipeline  Pipeline
	exporter  *export.Service
	maxImages int
	logger    *slog.Logger
}

func NewLabelService(p Pipeline, exporter *export.Service, maxImages int, logger *slog.Logger) *LabelService {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &LabelService{pipeline: p, exporter: exporter, maxImages: maxImages, logger: logger}
}

// ExtractLabels takes {"images": [base64, ...]} and returns one result per
// image in request order.
func (s *LabelService) ExtractLabels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	images, err := decodeImages(req, s.maxImages)
	if err != nil {
		s.logger.Warn("server.extract_labels.invalid", "error", err)
		return nil, err
	}
	ctx, rid := common.EnsureRequestID(ctx)
	outcomes, err := s.run(ctx, "extract_labels", len(images), func(ctx context.Context) ([]pipeline.Outcome, error) {
		return s.pipeline.ProcessImages(ctx, images)
	})
	if err != nil {
		return nil, err
	}
	return s.reply(Response{RequestID: rid, Results: ResultsFromOutcomes(outcomes)})
}

// ParseTexts takes {"texts": [string | {"text", "language"}, ...]} and
// skips recognition.
func (s *LabelService) ParseTexts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	texts, err := decodeTexts(req, s.maxImages)
	if err != nil {
		s.logger.Warn("server.parse_texts.invalid", "error", err)
		return nil, err
	}
	ctx, rid := common.EnsureRequestID(ctx)
	outcomes, err := s.run(ctx, "parse_texts", len(texts), func(ctx context.Context) ([]pipeline.Outcome, error) {
		return s.pipeline.ProcessTexts(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return s.reply(Response{RequestID: rid, Results: ResultsFromOutcomes(outcomes)})
}

// ExportLabels is ExtractLabels plus an XLSX report in "xlsx". An optional
// "names" list labels the rows.
func (s *LabelService) ExportLabels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	images, err := decodeImages(req, s.maxImages)
	if err != nil {
		s.logger.Warn("server.export_labels.invalid", "error", err)
		return nil, err
	}
	names := decodeNames(req, len(images))
	ctx, rid := common.EnsureRequestID(ctx)
	outcomes, err := s.run(ctx, "export_labels", len(images), func(ctx context.Context) ([]pipeline.Outcome, error) {
		return s.pipeline.ProcessImages(ctx, images)
	})
	if err != nil {
		return nil, err
	}

	rows := make([]export.Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = export.Row{SourcePath: names[i], Outcome: o}
	}
	xlsx, err := s.exporter.ExportXLSX(ctx, rows)
	if err != nil {
		s.logger.Error("server.export_labels.xlsx_failed", "req_id", rid, "error", err)
		return nil, common.InternalError("export failed")
	}
	return s.reply(Response{RequestID: rid, Results: ResultsFromOutcomes(outcomes), XLSX: xlsx})
}

func (s *LabelService) run(ctx context.Context, op string, n int, fn func(context.Context) ([]pipeline.Outcome, error)) ([]pipeline.Outcome, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	s.logger.Info("server."+op+".start", "req_id", rid, "items", n)

	outcomes, err := fn(ctx)
	if err != nil {
		s.logger.Error("server."+op+".failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.ToStatus(err)
	}
	s.logger.Info("server."+op+".ok",
		"req_id", rid, "results", len(outcomes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return outcomes, nil
}

func (s *LabelService) reply(r Response) (*structpb.Struct, error) {
	out, err := EncodeResponse(r)
	if err != nil {
		s.logger.Error("server.encode_failed", "req_id", r.RequestID, "error", err)
		return nil, common.InternalError("encode response failed")
	}
	return out, nil
}
