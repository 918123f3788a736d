// Package vision recognizes label text with the Google Cloud Vision API.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

type Config struct {
	APIKey   string
	Endpoint string // override for tests and regional endpoints
	// LanguageHints are passed to the API; empty lets it auto-detect.
	LanguageHints []string
	// Feature is TEXT_DETECTION (default) or DOCUMENT_TEXT_DETECTION.
	Feature string
}

// GoogleRecognizer implements extract.TextRecognizer. One Recognize call is
// one images:annotate request, so a response can mix successes and errors.
type GoogleRecognizer struct {
	cfg Config
	log *slog.Logger
}

func NewGoogleRecognizer(cfg Config, logger *slog.Logger) *GoogleRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Feature == "" {
		cfg.Feature = "TEXT_DETECTION"
	}
	return &GoogleRecognizer{cfg: cfg, log: logger}
}

func (g *GoogleRecognizer) service(ctx context.Context) (*visionapi.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(g.cfg.APIKey)}
	if g.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.cfg.Endpoint))
	}
	return visionapi.NewService(ctx, opts...)
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, images [][]byte) ([]entity.RawRecognition, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return nil, common.NewServiceUnavailableError("vision", "GOOGLE_VISION_API_KEY is not set")
	}
	start := time.Now()

	svc, err := g.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	req := &visionapi.BatchAnnotateImagesRequest{}
	for _, img := range images {
		air := &visionapi.AnnotateImageRequest{
			Image:    &visionapi.Image{Content: base64.StdEncoding.EncodeToString(img)},
			Features: []*visionapi.Feature{{Type: g.cfg.Feature}},
		}
		if len(g.cfg.LanguageHints) > 0 {
			air.ImageContext = &visionapi.ImageContext{LanguageHints: g.cfg.LanguageHints}
		}
		req.Requests = append(req.Requests, air)
	}

	resp, err := svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		if msg, ok := common.CredentialsRejected(err); ok {
			return nil, common.NewServiceUnavailableError("vision", msg)
		}
		g.log.Error("vision.annotate.error",
			"images", len(images), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) != len(images) {
		return nil, fmt.Errorf("vision annotate: got %d responses for %d images", len(resp.Responses), len(images))
	}

	out := make([]entity.RawRecognition, len(images))
	failed := 0
	for i, r := range resp.Responses {
		out[i] = toRecognition(i, r)
		if out[i].Err != nil {
			failed++
		}
	}
	g.log.Info("vision.annotate.ok",
		"images", len(images),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func toRecognition(i int, r *visionapi.AnnotateImageResponse) entity.RawRecognition {
	rec := entity.RawRecognition{Index: i}
	if r == nil {
		rec.Err = errors.New("empty response")
		return rec
	}
	if r.Error != nil && r.Error.Code != 0 {
		rec.Err = fmt.Errorf("vision status %d: %s", r.Error.Code, r.Error.Message)
		return rec
	}
	switch {
	case r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "":
		rec.Text = r.FullTextAnnotation.Text
		rec.Language = pageLanguage(r.FullTextAnnotation)
	case len(r.TextAnnotations) > 0:
		// the first annotation is the whole text block
		rec.Text = r.TextAnnotations[0].Description
		rec.Language = r.TextAnnotations[0].Locale
	}
	return rec
}

func pageLanguage(t *visionapi.TextAnnotation) string {
	var best string
	var bestConf float64
	for _, p := range t.Pages {
		if p == nil || p.Property == nil {
			continue
		}
		for _, dl := range p.Property.DetectedLanguages {
			if dl != nil && (best == "" || dl.Confidence > bestConf) {
				best, bestConf = dl.LanguageCode, dl.Confidence
			}
		}
	}
	return best
}
