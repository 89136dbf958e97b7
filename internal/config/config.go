// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	LLM() LLMModelConfig
	Fetch() FetchConfig
	Storage() StorageConfig
	Graph() GraphConfig
	Render() RenderConfig

	SetLLMModel(model string)
	SetStrictNodeIDs(bool)
	SetRenderPhysics(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	LLMCfg      LLMModelConfig `mapstructure:"llm" yaml:"llm"`
	FetchCfg    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	StorageCfg  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	GraphCfg    GraphConfig    `mapstructure:"graph" yaml:"graph"`
	RenderCfg   RenderConfig   `mapstructure:"render" yaml:"render"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) LLM() LLMModelConfig      { return c.LLMCfg }
func (c *Config) Fetch() FetchConfig       { return c.FetchCfg }
func (c *Config) Storage() StorageConfig   { return c.StorageCfg }
func (c *Config) Graph() GraphConfig       { return c.GraphCfg }
func (c *Config) Render() RenderConfig     { return c.RenderCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetLLMModel(model string) { c.LLMCfg.Model = model }
func (c *Config) SetStrictNodeIDs(b bool)  { c.GraphCfg.StrictNodeIDs = b }
func (c *Config) SetRenderPhysics(b bool)  { c.RenderCfg.Physics = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details used by `publish`.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// LLMProvider names a supported LLM backend.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMModelConfig configures the model used for entity extraction.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// FetchConfig tunes how source URLs are downloaded.
type FetchConfig struct {
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit    float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// StorageConfig places the artifacts produced by the CLI.
type StorageConfig struct {
	ExtractedDir     string `mapstructure:"extracted_dir" yaml:"extracted_dir"`
	MergedDir        string `mapstructure:"merged_dir" yaml:"merged_dir"`
	MergedFile       string `mapstructure:"merged_file" yaml:"merged_file"`
	VisualizationDir string `mapstructure:"visualization_dir" yaml:"visualization_dir"`
	URLsDir          string `mapstructure:"urls_dir" yaml:"urls_dir"`
	MergeSuffix      string `mapstructure:"merge_suffix" yaml:"merge_suffix"`
	Indent           int    `mapstructure:"indent" yaml:"indent"`
}

// GraphConfig holds graph model options.
type GraphConfig struct {
	// StrictNodeIDs rejects a node whose id is already present in a graph.
	StrictNodeIDs bool `mapstructure:"strict_node_ids" yaml:"strict_node_ids"`
}

// RenderConfig holds the defaults for the HTML visualization.
type RenderConfig struct {
	Height  string `mapstructure:"height" yaml:"height"`
	Width   string `mapstructure:"width" yaml:"width"`
	Physics bool   `mapstructure:"physics" yaml:"physics"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "kgraph")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderOpenAI))
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_timeout", "2m")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.top_p", 1.0)
	v.SetDefault("llm.max_tokens", 4096)

	// -- Fetch --
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.rate_limit", 2.0)
	v.SetDefault("fetch.max_body_bytes", 10<<20)

	// -- Storage --
	v.SetDefault("storage.extracted_dir", "data/extracted")
	v.SetDefault("storage.merged_dir", "data/merged")
	v.SetDefault("storage.merged_file", "merged_graphs.json")
	v.SetDefault("storage.visualization_dir", "data/visualizations")
	v.SetDefault("storage.urls_dir", "data/urls")
	v.SetDefault("storage.merge_suffix", "_graph.json")
	v.SetDefault("storage.indent", 2)

	// -- Graph --
	v.SetDefault("graph.strict_node_ids", false)

	// -- Render --
	v.SetDefault("render.height", "750px")
	v.SetDefault("render.width", "100%")
	v.SetDefault("render.physics", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Sensitive values come from the environment.
	v.BindEnv("llm.api_key", "KGRAPH_LLM_API_KEY")
	v.BindEnv("database.url", "KGRAPH_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Fall back to the provider's conventional variable.
	if cfg.LLMCfg.APIKey == "" {
		cfg.LLMCfg.APIKey = providerAPIKey(cfg.LLMCfg.Provider)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func providerAPIKey(p LLMProvider) string {
	switch p {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.StorageCfg.ExtractedDir,
		&c.StorageCfg.MergedDir,
		&c.StorageCfg.VisualizationDir,
		&c.StorageCfg.URLsDir,
		&c.LoggerCfg.LogFile,
	} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
// The LLM credentials are checked separately by LLMModelConfig.Validate since
// only extraction needs them.
func (c *Config) Validate() error {
	if c.StorageCfg.Indent < 0 {
		return fmt.Errorf("storage.indent must not be negative")
	}
	if c.StorageCfg.MergeSuffix == "" {
		return fmt.Errorf("storage.merge_suffix is required")
	}
	if c.FetchCfg.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be a positive duration")
	}
	if c.FetchCfg.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must not be negative")
	}
	if c.LLMCfg.Temperature < 0 || c.LLMCfg.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0.0 and 2.0")
	}
	return nil
}

// Validate checks that the model configuration is usable for generation.
func (l *LLMModelConfig) Validate() error {
	switch l.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm.provider %q", l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if l.APIKey == "" {
		return fmt.Errorf("API key for provider %q is not set. Set KGRAPH_LLM_API_KEY", l.Provider)
	}
	return nil
}
