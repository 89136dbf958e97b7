// File: internal/config/config_test.go
package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "kgraph", cfg.Logger().ServiceName)
	assert.Empty(t, cfg.Logger().LogFile, "file logging is off by default")
	assert.Equal(t, ProviderOpenAI, cfg.LLM().Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM().Model)
	assert.Equal(t, 30*time.Second, cfg.Fetch().Timeout)
	assert.Contains(t, cfg.Fetch().UserAgent, "Chrome/58.0.3029.110")
	assert.Equal(t, "data/extracted", cfg.Storage().ExtractedDir)
	assert.Equal(t, "data/merged", cfg.Storage().MergedDir)
	assert.Equal(t, "merged_graphs.json", cfg.Storage().MergedFile)
	assert.Equal(t, "data/visualizations", cfg.Storage().VisualizationDir)
	assert.Equal(t, "data/urls", cfg.Storage().URLsDir)
	assert.Equal(t, "_graph.json", cfg.Storage().MergeSuffix)
	assert.Equal(t, 2, cfg.Storage().Indent)
	assert.False(t, cfg.Graph().StrictNodeIDs)
	assert.Equal(t, "750px", cfg.Render().Height)
	assert.Equal(t, "100%", cfg.Render().Width)
	assert.True(t, cfg.Render().Physics)
	assert.NoError(t, cfg.Validate())
}

func TestSetters(t *testing.T) {
	var cfg Interface = NewDefaultConfig()
	cfg.SetLLMModel("gpt-4o")
	cfg.SetStrictNodeIDs(true)
	cfg.SetRenderPhysics(false)

	assert.Equal(t, "gpt-4o", cfg.LLM().Model)
	assert.True(t, cfg.Graph().StrictNodeIDs)
	assert.False(t, cfg.Render().Physics)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		require.NoError(t, cfg.Validate())

		cfgNegativeIndent := *cfg
		cfgNegativeIndent.StorageCfg.Indent = -1
		err := cfgNegativeIndent.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage.indent must not be negative")

		cfgNoSuffix := *cfg
		cfgNoSuffix.StorageCfg.MergeSuffix = ""
		err = cfgNoSuffix.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage.merge_suffix is required")

		cfgNoTimeout := *cfg
		cfgNoTimeout.FetchCfg.Timeout = 0
		err = cfgNoTimeout.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "fetch.timeout must be a positive duration")

		cfgHotModel := *cfg
		cfgHotModel.LLMCfg.Temperature = 2.5
		assert.Error(t, cfgHotModel.Validate())
	})

	t.Run("LLM Validation", func(t *testing.T) {
		valid := LLMModelConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"}
		assert.NoError(t, valid.Validate())

		gemini := valid
		gemini.Provider = ProviderGemini
		assert.NoError(t, gemini.Validate())

		unknown := valid
		unknown.Provider = "ollama"
		err := unknown.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported llm.provider")

		noModel := valid
		noModel.Model = ""
		assert.Error(t, noModel.Validate())

		noKey := valid
		noKey.APIKey = ""
		err = noKey.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "KGRAPH_LLM_API_KEY")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
storage:
  merged_dir: "out/merged"
  indent: 4
graph:
  strict_node_ids: true
render:
  physics: false
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "out/merged", cfg.Storage().MergedDir)
		assert.Equal(t, 4, cfg.Storage().Indent)
		assert.True(t, cfg.Graph().StrictNodeIDs)
		assert.False(t, cfg.Render().Physics)
		// Check a default value was also loaded
		assert.Equal(t, "data/extracted", cfg.Storage().ExtractedDir)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("storage.indent", -2)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "storage.indent must not be negative")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
database:
  url: "postgres://configfile/db"
`)))

		t.Setenv("KGRAPH_LLM_API_KEY", "sk-env")
		t.Setenv("KGRAPH_DATABASE_URL", "postgres://envvar/db")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "sk-env", cfg.LLM().APIKey)
		assert.Equal(t, "postgres://envvar/db", cfg.Database().URL, "env overrides the config file")
	})

	t.Run("Provider API Key Fallback", func(t *testing.T) {
		t.Setenv("KGRAPH_LLM_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "sk-openai")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "sk-openai", cfg.LLM().APIKey)

		t.Setenv("GEMINI_API_KEY", "gm-key")
		v = viper.New()
		SetDefaults(v)
		v.Set("llm.provider", "gemini")
		cfg, err = NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "gm-key", cfg.LLM().APIKey)
	})

	t.Run("Home Paths Are Expanded", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("storage.extracted_dir", "~/kg/extracted")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(cfg.Storage().ExtractedDir, "~"))
		assert.True(t, strings.HasSuffix(cfg.Storage().ExtractedDir, "kg/extracted"))
		assert.Equal(t, "data/merged", cfg.Storage().MergedDir, "relative paths are untouched")
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/kgraph.log
fetch:
  timeout: 5s
  rate_limit: 0.5
llm:
  provider: gemini
  model: gemini-2.5-flash
  api_timeout: 45s
  temperature: 0.2
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/var/log/kgraph.log", cfg.Logger().LogFile)
	assert.Equal(t, 5*time.Second, cfg.Fetch().Timeout)
	assert.Equal(t, 0.5, cfg.Fetch().RateLimit)
	assert.Equal(t, ProviderGemini, cfg.LLM().Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM().Model)
	assert.Equal(t, 45*time.Second, cfg.LLM().APITimeout)
	assert.InDelta(t, 0.2, cfg.LLM().Temperature, 1e-6)
}
