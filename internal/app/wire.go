// Package app assembles the pipeline from configuration for the commands.
package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/winelabel/internal/cache"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/extract"
	"github.com/joseph-ayodele/winelabel/internal/heuristic"
	"github.com/joseph-ayodele/winelabel/internal/llm"
	"github.com/joseph-ayodele/winelabel/internal/llm/gemini"
	"github.com/joseph-ayodele/winelabel/internal/llm/openai"
	"github.com/joseph-ayodele/winelabel/internal/ocr"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
	"github.com/joseph-ayodele/winelabel/internal/policy"
	"github.com/joseph-ayodele/winelabel/internal/vision"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

// App is a wired pipeline plus the resources it owns.
type App struct {
	Config    *common.Config
	Policy    common.PolicyConfig
	Processor *pipeline.Processor
	Cache     cache.Store
	logger    *slog.Logger
}

// Build validates cfg, loads the policy file and wires every stage.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pol, err := common.LoadPolicyFile(cfg.Policy.File, cfg.Policy)
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	v := vocab.Default().Extend(pol.Vocabulary)
	parser := heuristic.NewParser(
		heuristic.WithVocabulary(v),
		heuristic.WithWeights(heuristic.WeightsFrom(pol.Weights)),
	)
	extractor := llm.NewExtractor(NewCompleter(cfg.LLM, logger), llm.Config{
		Temperature:  llm.Float32(cfg.LLM.Temperature),
		MaxTokens:    cfg.LLM.MaxTokens,
		Timeout:      cfg.LLM.Timeout,
		AIConfidence: pol.AIConfidence,
		Vocabulary:   v,
	}, logger)

	proc := pipeline.NewProcessor(NewRecognizer(cfg.Vision, logger), extractor, pipeline.Config{
		Workers:              cfg.Pipeline.Workers,
		RecognitionBatchSize: cfg.Pipeline.RecognitionBatchSize,
		RecognitionTimeout:   cfg.Vision.Timeout,
		JobTimeout:           cfg.Pipeline.JobTimeout,
	}, logger,
		pipeline.WithNormalizer(ocr.NewNormalizer(v.Corrections)),
		pipeline.WithParser(parser),
		pipeline.WithPolicy(policy.New(pol.Threshold)),
		pipeline.WithCache(store),
	)

	logger.Info("app.ready",
		"vision", cfg.Vision.Provider,
		"llm", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"cache", cfg.Cache.Driver,
		"threshold", pol.Threshold,
		"policy_file", pol.File,
	)
	return &App{Config: cfg, Policy: pol, Processor: proc, Cache: store, logger: logger}, nil
}

// Close drains the worker pool and releases the cache.
func (a *App) Close(ctx context.Context) {
	a.Processor.Close(ctx)
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.logger.Warn("app.cache.close_failed", "error", err)
		}
	}
}

// NewRecognizer picks the vision backend. Credentials are checked lazily.
func NewRecognizer(cfg common.VisionConfig, logger *slog.Logger) extract.TextRecognizer {
	if cfg.Provider == "tesseract" {
		return ocr.NewTesseractRecognizer(ocr.Config{
			Tesseract:     cfg.Tesseract,
			TesseractLang: cfg.TesseractLang,
			TessdataDir:   cfg.TessdataDir,
		}, logger)
	}
	return vision.NewGoogleRecognizer(vision.Config{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
	}, logger)
}

// NewCompleter picks the language model backend.
func NewCompleter(cfg common.LLMConfig, logger *slog.Logger) llm.Completer {
	if cfg.Provider == "gemini" {
		return gemini.NewClient(gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model}, logger)
	}
	return openai.NewClient(openai.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout + 5*time.Second,
		JSONMode: true,
	}, logger)
}

// NewLogger builds the process logger. The text format drops time and
// level for terminal use.
func NewLogger(w io.Writer, cfg common.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
					return slog.Attr{}
				}
				return a
			},
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
