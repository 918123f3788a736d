package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Vision   VisionConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Policy   PolicyConfig
	Cache    CacheConfig
	Server   ServerConfig
	Log      LogConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string // "json" | "text"
	Level  string // "debug" | "info" | "warn" | "error"
}

// VisionConfig selects and configures the text recognition backend.
type VisionConfig struct {
	Provider      string // "google" | "tesseract"
	APIKey        string
	Endpoint      string
	Timeout       time.Duration
	Tesseract     string
	TesseractLang string
	TessdataDir   string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string // "openai" | "gemini"
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// PipelineConfig sizes the orchestrator.
type PipelineConfig struct {
	Workers              int
	RecognitionBatchSize int
	JobTimeout           time.Duration // per pool job, 0 disables
}

// PolicyConfig carries the escalation and scoring parameters. File, when
// set, points at a YAML document that overrides the values below.
type PolicyConfig struct {
	File         string
	Threshold    int
	AIConfidence int
	Weights      WeightsConfig
	Vocabulary   VocabularyConfig
}

type WeightsConfig struct {
	Name     int `mapstructure:"name"`
	Producer int `mapstructure:"producer"`
	Vintage  int `mapstructure:"vintage"`
	Grape    int `mapstructure:"grape"`
	Type     int `mapstructure:"type"`
	Region   int `mapstructure:"region"`
}

// VocabularyConfig extends the built-in reference tables.
type VocabularyConfig struct {
	Grapes          []string            `mapstructure:"grapes"`
	Regions         []string            `mapstructure:"regions"`
	ProducerMarkers []string            `mapstructure:"producer_markers"`
	Corrections     map[string]string   `mapstructure:"corrections"`
	TypeSynonyms    map[string][]string `mapstructure:"type_synonyms"` // keywords keyed by wine type name
}

// CacheConfig holds result-cache configuration. Driver "none" disables it.
type CacheConfig struct {
	Driver           string // "none" | "memory" | "sqlite" | "postgres"
	DSN              string
	TTL              time.Duration
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
	MaxImages   int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	llmCfg := LLMConfig{
		Provider:    provider,
		Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
		MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 300),
		Timeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
	}
	switch provider {
	case "gemini":
		llmCfg.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash")
		llmCfg.APIKey = getEnv("GEMINI_API_KEY", "")
	default:
		llmCfg.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
		llmCfg.APIKey = getEnv("OPENAI_API_KEY", "")
		llmCfg.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	}

	return &Config{
		Vision: VisionConfig{
			Provider:      strings.ToLower(getEnv("VISION_PROVIDER", "google")),
			APIKey:        getEnv("GOOGLE_VISION_API_KEY", ""),
			Endpoint:      getEnv("GOOGLE_VISION_ENDPOINT", ""),
			Timeout:       getEnvAsDuration("VISION_TIMEOUT", 20*time.Second),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng+fra+ita+spa+deu"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: llmCfg,
		Pipeline: PipelineConfig{
			Workers:              getEnvAsInt("PIPELINE_WORKERS", 4),
			RecognitionBatchSize: getEnvAsInt("RECOGNITION_BATCH_SIZE", 8),
			JobTimeout:           getEnvAsDuration("PIPELINE_JOB_TIMEOUT", 2*time.Minute),
		},
		Policy: PolicyConfig{
			File:         getEnv("POLICY_FILE", ""),
			Threshold:    getEnvAsInt("ESCALATION_THRESHOLD", 65),
			AIConfidence: getEnvAsInt("AI_CONFIDENCE", 90),
			Weights:      DefaultWeights(),
		},
		Cache: CacheConfig{
			Driver:           strings.ToLower(getEnv("CACHE_DRIVER", "memory")),
			DSN:              getEnv("CACHE_DSN", ""),
			TTL:              getEnvAsDuration("CACHE_TTL", 7*24*time.Hour),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			MaxImages:   getEnvAsInt("MAX_IMAGES_PER_REQUEST", 16),
		},
		Log: LogConfig{
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}
}

// DefaultWeights are the per-field contributions to local confidence.
func DefaultWeights() WeightsConfig {
	return WeightsConfig{Name: 30, Producer: 25, Vintage: 10, Grape: 15, Type: 10, Region: 10}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. Missing API keys are not
// reported here: the pipeline surfaces them as ServiceUnavailableError.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("VISION_PROVIDER", c.Vision.Provider, OneOf("google", "tesseract"))
	v.Field("LLM_PROVIDER", c.LLM.Provider, OneOf("openai", "gemini"))
	v.Field("LLM_MAX_TOKENS", c.LLM.MaxTokens, Positive)
	v.Field("PIPELINE_WORKERS", c.Pipeline.Workers, Positive)
	v.Field("RECOGNITION_BATCH_SIZE", c.Pipeline.RecognitionBatchSize, InRange(1, 16))
	v.Field("CACHE_DRIVER", c.Cache.Driver, OneOf("none", "memory", "sqlite", "postgres"))
	v.Field("GRPC_ADDR", c.Server.GRPCAddr, Required)
	v.Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))
	v.Field("LOG_LEVEL", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	if c.Cache.Driver == "sqlite" || c.Cache.Driver == "postgres" {
		v.Field("CACHE_DSN", c.Cache.DSN, Required)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// Validate checks threshold and weights are usable percentages.
func (p PolicyConfig) Validate() error {
	v := NewValidator()
	v.Field("escalation_threshold", p.Threshold, InRange(0, 100))
	v.Field("ai_confidence", p.AIConfidence, InRange(0, 100))
	w := p.Weights
	for name, val := range map[string]int{
		"weights.name": w.Name, "weights.producer": w.Producer, "weights.vintage": w.Vintage,
		"weights.grape": w.Grape, "weights.type": w.Type, "weights.region": w.Region,
	} {
		v.Field(name, val, InRange(0, 100))
	}
	if sum := w.Name + w.Producer + w.Vintage + w.Grape + w.Type + w.Region; sum > 100 {
		v.Field("weights", sum, InRange(0, 100))
	}
	for name := range p.Vocabulary.TypeSynonyms {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "é", "e")
		v.Field("vocabulary.type_synonyms."+name, key, OneOf("red", "white", "rose", "sparkling"))
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
