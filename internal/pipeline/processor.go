// Package pipeline turns label photos into wine records: recognition,
// normalization, local parse, escalation decision and, when needed, the
// language model. Images are independent; one failing never affects the
// others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/async"
	"github.com/joseph-ayodele/winelabel/internal/cache"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/extract"
	"github.com/joseph-ayodele/winelabel/internal/heuristic"
	"github.com/joseph-ayodele/winelabel/internal/metrics"
	"github.com/joseph-ayodele/winelabel/internal/ocr"
	"github.com/joseph-ayodele/winelabel/internal/policy"
	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

// Config sizes the processor.
type Config struct {
	Workers              int           // default 4
	RecognitionBatchSize int           // images per vision call, default 8
	RecognitionTimeout   time.Duration // per vision call, default 20s
	JobTimeout           time.Duration // per worker job, 0 disables
}

// Processor coordinates recognition, local parsing and escalation.
type Processor struct {
	recognizer extract.TextRecognizer
	extractor  extract.FieldExtractor
	normalizer *ocr.Normalizer
	parser     *heuristic.Parser
	policy     policy.Policy
	store      cache.Store
	pool       *async.Pool
	cfg        Config
	log        *slog.Logger
}

type Option func(*Processor)

func WithNormalizer(n *ocr.Normalizer) Option {
	return func(p *Processor) {
		if n != nil {
			p.normalizer = n
		}
	}
}

func WithParser(h *heuristic.Parser) Option {
	return func(p *Processor) {
		if h != nil {
			p.parser = h
		}
	}
}

func WithPolicy(pol policy.Policy) Option {
	return func(p *Processor) { p.policy = pol }
}

// WithCache enables the result cache; nil disables it.
func WithCache(s cache.Store) Option {
	return func(p *Processor) { p.store = s }
}

// NewProcessor wires the stages. A nil recognizer or extractor is allowed
// here and reported as ServiceUnavailableError when work is requested.
func NewProcessor(recognizer extract.TextRecognizer, extractor extract.FieldExtractor, cfg Config, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RecognitionBatchSize <= 0 {
		cfg.RecognitionBatchSize = 8
	}
	if cfg.RecognitionTimeout <= 0 {
		cfg.RecognitionTimeout = 20 * time.Second
	}
	p := &Processor{
		recognizer: recognizer,
		extractor:  extractor,
		normalizer: ocr.NewNormalizer(vocab.Default().Corrections),
		parser:     heuristic.NewParser(),
		policy:     policy.New(policy.DefaultThreshold),
		cfg:        cfg,
		log:        logger,
	}
	for _, o := range opts {
		o(p)
	}
	p.pool = async.NewPool(logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.Workers*4),
		async.WithProcessTimeout(cfg.JobTimeout),
	)
	return p
}

// Close stops the worker pool.
func (p *Processor) Close(ctx context.Context) {
	p.pool.Shutdown(ctx)
}

// fatal records the first ServiceUnavailableError and cancels the batch.
type fatal struct {
	once   sync.Once
	err    error
	cancel context.CancelFunc
}

func (f *fatal) set(err error) {
	f.once.Do(func() {
		f.err = err
		f.cancel()
	})
}

// ProcessImages returns exactly one Outcome per image, in input order. The
// only error returned is ServiceUnavailableError, in which case no outcomes
// are returned at all.
func (p *Processor) ProcessImages(ctx context.Context, images [][]byte) ([]Outcome, error) {
	if p.recognizer == nil {
		return nil, common.NewServiceUnavailableError("vision", "no text recognizer configured")
	}
	if p.extractor == nil {
		return nil, common.NewServiceUnavailableError("llm", "no field extractor configured")
	}
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	p.log.Info("pipeline.batch.start", "req_id", rid, "images", len(images), "workers", p.pool.Workers())

	outcomes := make([]Outcome, len(images))
	var pending []int
	for i, img := range images {
		outcomes[i].Index = i
		outcomes[i].ContentHash = cache.Key(img)
		if rec, ok := p.lookup(ctx, outcomes[i].ContentHash); ok {
			outcomes[i].Cached = true
			outcomes[i].finalize(rec)
			metrics.ImagesTotal.WithLabelValues("cached").Inc()
			continue
		}
		pending = append(pending, i)
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	f := &fatal{cancel: cancel}

	raws := p.recognize(batchCtx, images, pending, f)
	if f.err != nil {
		p.log.Error("pipeline.batch.unavailable", "req_id", rid, "error", f.err)
		return nil, f.err
	}

	p.finishAll(batchCtx, raws, pending, outcomes, f)
	if f.err != nil {
		p.log.Error("pipeline.batch.unavailable", "req_id", rid, "error", f.err)
		return nil, f.err
	}

	for _, i := range pending {
		p.remember(ctx, outcomes[i])
	}
	p.logSummary(rid, outcomes, start)
	return outcomes, nil
}

// ProcessTexts runs the pipeline from already recognized text. Entries
// with Err set or blank text fail as recognition failures.
func (p *Processor) ProcessTexts(ctx context.Context, texts []entity.RawRecognition) ([]Outcome, error) {
	if p.extractor == nil {
		return nil, common.NewServiceUnavailableError("llm", "no field extractor configured")
	}
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	p.log.Info("pipeline.texts.start", "req_id", rid, "texts", len(texts), "workers", p.pool.Workers())

	outcomes := make([]Outcome, len(texts))
	raws := make([]entity.RawRecognition, len(texts))
	pending := make([]int, len(texts))
	for i, t := range texts {
		outcomes[i].Index = i
		raws[i] = t
		raws[i].Index = i
		pending[i] = i
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	f := &fatal{cancel: cancel}

	p.finishAll(batchCtx, raws, pending, outcomes, f)
	if f.err != nil {
		p.log.Error("pipeline.texts.unavailable", "req_id", rid, "error", f.err)
		return nil, f.err
	}
	p.logSummary(rid, outcomes, start)
	return outcomes, nil
}

// recognize sends the pending images in chunks and returns recognitions
// indexed like images.
func (p *Processor) recognize(ctx context.Context, images [][]byte, pending []int, f *fatal) []entity.RawRecognition {
	raws := make([]entity.RawRecognition, len(images))
	g := p.pool.Group()
	for lo := 0; lo < len(pending); lo += p.cfg.RecognitionBatchSize {
		chunk := pending[lo:min(lo+p.cfg.RecognitionBatchSize, len(pending))]
		g.Go(ctx, "recognize", func(ctx context.Context) {
			batch := make([][]byte, len(chunk))
			for j, idx := range chunk {
				batch[j] = images[idx]
			}
			start := time.Now()
			callCtx, cancel := common.WithTimeout(ctx, p.cfg.RecognitionTimeout)
			got, err := p.recognizer.Recognize(callCtx, batch)
			cancel()
			metrics.StageDurationSeconds.WithLabelValues("recognize").Observe(time.Since(start).Seconds())

			if err == nil && len(got) != len(chunk) {
				err = fmt.Errorf("recognizer returned %d results for %d images", len(got), len(chunk))
			}
			for j, idx := range chunk {
				raw := entity.RawRecognition{Index: idx}
				switch {
				case err != nil:
					raw.Err = err
				default:
					raw.Text, raw.Language, raw.Err = got[j].Text, got[j].Language, got[j].Err
				}
				raws[idx] = raw
			}
			if errors.Is(err, common.ErrServiceUnavailable) {
				f.set(err)
				return
			}
			if err != nil {
				p.log.Warn("pipeline.recognize.call_failed", "images", len(chunk), "error", err)
			}
		})
	}
	g.Wait()
	return raws
}

func (p *Processor) finishAll(ctx context.Context, raws []entity.RawRecognition, pending []int, outcomes []Outcome, f *fatal) {
	g := p.pool.Group()
	for _, i := range pending {
		g.Go(ctx, "finish", func(ctx context.Context) {
			metrics.InFlight.Inc()
			defer metrics.InFlight.Dec()
			o, err := p.finish(ctx, raws[i])
			if err != nil {
				f.set(err)
				return
			}
			o.ContentHash = outcomes[i].ContentHash
			outcomes[i] = o
		})
	}
	g.Wait()
}

// finish drives one recognized image to a terminal state. The returned
// error is reserved for ServiceUnavailableError.
func (p *Processor) finish(ctx context.Context, raw entity.RawRecognition) (Outcome, error) {
	o := Outcome{Index: raw.Index, Language: raw.Language}
	rid := common.RequestIDFromContext(ctx)

	if raw.Err != nil || strings.TrimSpace(raw.Text) == "" {
		cause := raw.Err
		if cause == nil {
			cause = errors.New("no text found")
		}
		o.fail(common.NewRecognitionError(raw.Index, cause))
		metrics.ImagesTotal.WithLabelValues("failed").Inc()
		p.log.Warn("pipeline.image.failed", "req_id", rid, "index", raw.Index, "error", cause)
		return o, nil
	}
	o.advance(constants.StateRecognized)

	start := time.Now()
	o.Text = p.normalizer.Normalize(raw.Text)
	o.advance(constants.StateNormalized)

	local := p.parser.Parse(o.Text)
	o.Local = &local
	o.advance(constants.StateLocallyParsed)
	metrics.LocalConfidence.Observe(float64(local.Confidence))
	metrics.StageDurationSeconds.WithLabelValues("parse").Observe(time.Since(start).Seconds())

	switch d := p.policy.Decide(raw, local).(type) {
	case policy.Accept:
		o.advance(constants.StateAccepted)
		o.finalize(d.Record)
		metrics.ImagesTotal.WithLabelValues("accepted").Inc()
		p.log.Info("pipeline.image.accepted", "req_id", rid, "index", raw.Index, "confidence", local.Confidence)

	case policy.Escalate:
		o.advance(constants.StateEscalated)
		o.Escalated = true
		p.log.Info("pipeline.image.escalated",
			"req_id", rid, "index", raw.Index,
			"confidence", local.Confidence, "missing", d.Request.Missing,
		)
		start := time.Now()
		rec, _, err := p.extractor.Extract(ctx, d.Request)
		metrics.StageDurationSeconds.WithLabelValues("escalate").Observe(time.Since(start).Seconds())
		if errors.Is(err, common.ErrServiceUnavailable) {
			return o, err
		}
		if err != nil {
			o.Err = err
			o.finalize(entity.FallbackRecord())
			metrics.EscalationsTotal.WithLabelValues("error").Inc()
			metrics.ImagesTotal.WithLabelValues("fallback").Inc()
			p.log.Warn("pipeline.image.fallback", "req_id", rid, "index", raw.Index, "error", err)
			return o, nil
		}
		o.finalize(rec)
		metrics.EscalationsTotal.WithLabelValues("ok").Inc()
		metrics.ImagesTotal.WithLabelValues("ai").Inc()
	}
	return o, nil
}

func (p *Processor) lookup(ctx context.Context, key string) (entity.ParsedWineRecord, bool) {
	if p.store == nil {
		return entity.ParsedWineRecord{}, false
	}
	rec, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.log.Warn("pipeline.cache.get_error", "key", key, "error", err)
		return entity.ParsedWineRecord{}, false
	}
	return rec, ok
}

// remember stores local and ai records; fallbacks are retried next time.
func (p *Processor) remember(ctx context.Context, o Outcome) {
	if p.store == nil || o.Record == nil || o.ContentHash == "" {
		return
	}
	if o.Record.Source == constants.SourceFallback {
		return
	}
	if err := p.store.Put(ctx, o.ContentHash, *o.Record); err != nil {
		p.log.Warn("pipeline.cache.put_error", "key", o.ContentHash, "error", err)
	}
}

func (p *Processor) logSummary(rid string, outcomes []Outcome, start time.Time) {
	counts := map[string]int{}
	for _, o := range outcomes {
		switch {
		case o.State == constants.StateFailed:
			counts["failed"]++
		case o.Cached:
			counts["cached"]++
		default:
			counts[string(o.Source())]++
		}
	}
	p.log.Info("pipeline.batch.done",
		"req_id", rid,
		"total", len(outcomes),
		"local", counts[string(constants.SourceLocal)],
		"ai", counts[string(constants.SourceAI)],
		"fallback", counts[string(constants.SourceFallback)],
		"cached", counts["cached"],
		"failed", counts["failed"],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
