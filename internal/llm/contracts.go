package llm

import (
	"context"
	"time"

	"github.com/joseph-ayodele/winelabel/internal/vocab"
)

// CompletionRequest is one prompt plus sampling parameters.
type CompletionRequest struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer is a text-completion backend (OpenAI, Gemini, ...). It returns
// the model's raw text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// Config tunes the extraction adapter.
type Config struct {
	Temperature    *float32          // nil means 0.1; 0 is a valid setting
	MaxTokens      int               // default 300
	Timeout        time.Duration     // per completion, default 30s
	AIConfidence   int               // confidence stamped on model records, default 90
	MaxPromptChars int               // raw text limit in runes, default 3000
	Vocabulary     *vocab.Vocabulary // wine-type keywords, nil means the built-ins
}

func (c Config) withDefaults() Config {
	if c.Temperature == nil {
		c.Temperature = Float32(0.1)
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 300
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.AIConfidence <= 0 {
		c.AIConfidence = 90
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = 3000
	}
	return c
}

// Float32 returns a pointer to v, for Config.Temperature.
func Float32(v float32) *float32 { return &v }
