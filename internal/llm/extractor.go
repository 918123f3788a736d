package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

// Extractor implements extract.FieldExtractor on top of any Completer.
type Extractor struct {
	completer Completer
	cfg       Config
	log       *slog.Logger
}

func NewExtractor(c Completer, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: c, cfg: cfg.withDefaults(), log: logger}
}

// Extract asks the model for the full record. Every failure other than an
// unconfigured backend comes back as an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, req entity.EnrichmentRequest) (entity.ParsedWineRecord, []byte, error) {
	if e.completer == nil {
		return entity.ParsedWineRecord{}, nil, common.NewServiceUnavailableError("llm", "no completion backend configured")
	}
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	e.log.Info("llm.extract.start",
		"req_id", rid,
		"backend", e.completer.Name(),
		"temp", *e.cfg.Temperature,
		"max_tokens", e.cfg.MaxTokens,
		"text_len", len(req.RawText),
		"language", req.Language,
		"missing", req.Missing,
	)

	ctx, cancel := common.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	content, err := e.completer.Complete(ctx, CompletionRequest{
		Prompt:      BuildPrompt(req, e.cfg.MaxPromptChars),
		Temperature: *e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		e.log.Error("llm.extract.completion_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if errors.Is(err, common.ErrServiceUnavailable) {
			return entity.ParsedWineRecord{}, nil, err
		}
		return entity.ParsedWineRecord{}, nil, common.NewExtractionError("completion failed", "", err)
	}

	rec, raw, err := parseResponse(content, e.cfg.Vocabulary, e.log)
	if err != nil {
		e.log.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err, "content", truncate(content, 2048),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var xe *common.ExtractionError
		if !errors.As(err, &xe) {
			err = common.NewExtractionError("invalid response", content, err)
		}
		return entity.ParsedWineRecord{}, raw, err
	}
	rec.Confidence = e.cfg.AIConfidence

	e.log.Info("llm.extract.ok",
		"req_id", rid,
		"name", rec.Name,
		"producer", rec.Producer,
		"vintage", rec.Vintage,
		"wine_type", rec.WineType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}
