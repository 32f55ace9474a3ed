package config

import (
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	LlamaCloud LlamaCloudConfig
	Pipeline   PipelineConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8000"`
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
}

type OpenAIConfig struct {
	APIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	APIEndpoint string  `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1"`
	Model       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Temperature float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.1"`
	MaxTokens   int64   `envconfig:"OPENAI_MAX_TOKENS" default:"2000"`
}

type LlamaCloudConfig struct {
	APIKey      string        `envconfig:"LLAMACLOUD_API_KEY" required:"true"`
	APIEndpoint string        `envconfig:"LLAMACLOUD_ENDPOINT" default:"https://api.cloud.llamaindex.ai"`
	Timeout     time.Duration `envconfig:"LLAMACLOUD_TIMEOUT" default:"30s"`
	TopK        int           `envconfig:"LLAMACLOUD_TOP_K" default:"5"`
}

// PipelineConfig carries the multi-step generation knobs. Defaults mirror the
// production values; none of them are load-bearing for correctness.
type PipelineConfig struct {
	MaxSteps               int           `envconfig:"PIPELINE_MAX_STEPS" default:"5"`
	TimeoutPerStep         time.Duration `envconfig:"PIPELINE_TIMEOUT_PER_STEP" default:"30s"`
	MinConfidenceThreshold float64       `envconfig:"PIPELINE_MIN_CONFIDENCE" default:"0.6"`
	FallbackToSingleStep   bool          `envconfig:"PIPELINE_FALLBACK_SINGLE_STEP" default:"true"`
	EnableDetailedLogging  bool          `envconfig:"PIPELINE_DETAILED_LOGGING" default:"false"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("configuration loaded successfully")
	return &cfg, nil
}
