package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLAMACLOUD_API_KEY", "llx-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.TimeoutPerStep)
	assert.Equal(t, 0.6, cfg.Pipeline.MinConfidenceThreshold)
	assert.True(t, cfg.Pipeline.FallbackToSingleStep)
	assert.False(t, cfg.Pipeline.EnableDetailedLogging)
	assert.Equal(t, 5, cfg.Pipeline.MaxSteps)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLAMACLOUD_API_KEY", "llx-test")
	t.Setenv("PIPELINE_TIMEOUT_PER_STEP", "10s")
	t.Setenv("PIPELINE_FALLBACK_SINGLE_STEP", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.TimeoutPerStep)
	assert.False(t, cfg.Pipeline.FallbackToSingleStep)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLAMACLOUD_API_KEY", "llx-test")

	_, err := LoadConfig()
	require.Error(t, err)
}
