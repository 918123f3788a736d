package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/llm"
)

type Config struct {
	APIKey string
	Model  string // default "gemini-1.5-flash"
	// Extra client options, e.g. option.WithEndpoint in tests.
	Options []option.ClientOption
}

// Client implements llm.Completer on the Gemini API.
type Client struct {
	cfg Config
	log *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, log: logger}
}

func (c *Client) Name() string { return "gemini:" + c.cfg.Model }

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", common.NewServiceUnavailableError("gemini", "GEMINI_API_KEY is not set")
	}
	start := time.Now()

	opts := append([]option.ClientOption{option.WithAPIKey(c.cfg.APIKey)}, c.cfg.Options...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer func() {
		if err := cl.Close(); err != nil {
			c.log.Warn("gemini.client.close_error", "error", err)
		}
	}()

	m := cl.GenerativeModel(c.cfg.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(req.Temperature),
		MaxOutputTokens:  ptrInt32(int32(req.MaxTokens)),
		CandidateCount:   ptrInt32(1),
		ResponseMIMEType: "application/json",
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		if msg, ok := common.CredentialsRejected(err); ok {
			return "", common.NewServiceUnavailableError("gemini", msg)
		}
		c.log.Error("gemini.complete.error",
			"model", c.cfg.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	c.log.Debug("gemini.complete.ok",
		"model", c.cfg.Model,
		"chars", len(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return strings.TrimSpace(b.String())
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
