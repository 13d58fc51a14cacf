// Package config provides configuration management for the researcher
// discovery service.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RESEARCHER"

// Feature names reported by Features.
const (
	FeatureLLM             = "llm"
	FeatureScholarProfiles = "scholar_profiles"
	FeatureContactLookup   = "contact_lookup"
)

// Config is the service configuration. Sections map one to one onto the
// top-level keys of config.yaml and the RESEARCHER_<SECTION>_<KEY>
// environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	LLM        LLMConfig        `mapstructure:"llm"`
	ArXiv      ArXivConfig      `mapstructure:"arxiv"`
	Scholar    ScholarConfig    `mapstructure:"scholar"`
	BrowserUse BrowserUseConfig `mapstructure:"browser_use"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Enrich     EnrichConfig     `mapstructure:"enrich"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
}

// ServerConfig configures the API listener and the separate metrics
// listener.
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	HTTPPort    int           `mapstructure:"http_port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout must cover the longest contact lookup stream.
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig mirrors observability.LoggingConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LLMConfig selects the completion provider. Only the selected provider's
// key matters.
type LLMConfig struct {
	Provider    string         `mapstructure:"provider"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	MaxRetries  int            `mapstructure:"max_retries"`
	Temperature float64        `mapstructure:"temperature"`
	OpenAI      ProviderConfig `mapstructure:"openai"`
	Anthropic   ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds one LLM provider's endpoint and model.
type ProviderConfig struct {
	// APIKey never comes from a file; see loadSecrets.
	APIKey  string `mapstructure:"-"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ArXivConfig configures the arXiv client.
type ArXivConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	MaxResults int           `mapstructure:"max_results"`
}

// ScholarConfig configures SerpAPI. Without an API key the profile
// enrichment path is disabled.
type ScholarConfig struct {
	APIKey     string        `mapstructure:"-"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	NumResults int           `mapstructure:"num_results"`
	YearsBack  int           `mapstructure:"years_back"`
}

// BrowserUseConfig configures the browser-use task API. Without an API key
// contact lookups report unavailable.
type BrowserUseConfig struct {
	APIKey       string        `mapstructure:"-"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxPolls     int           `mapstructure:"max_polls"`
	LLMModel     string        `mapstructure:"llm_model"`
	UseProxy     bool          `mapstructure:"use_proxy"`
	UseAdblock   bool          `mapstructure:"use_adblock"`
}

// PDFConfig configures document download and decoding.
type PDFConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	MaxSize int64         `mapstructure:"max_size"`
	// PrefixBytes is how much of a document is decoded for extraction.
	PrefixBytes int `mapstructure:"prefix_bytes"`
	// AllowPrivateNetworks turns off the address guard. Tests only.
	AllowPrivateNetworks bool `mapstructure:"allow_private_networks"`
}

// EnrichConfig configures the enrichment pipeline.
type EnrichConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRecentPapers  int `mapstructure:"max_recent_papers"`
	AuthorMaxResults int `mapstructure:"author_max_results"`
}

// DiscoveryConfig configures the end-to-end pipeline.
type DiscoveryConfig struct {
	// MaxPapers is used when a request does not say how many top papers to
	// extract.
	MaxPapers          int `mapstructure:"max_papers"`
	ExtractConcurrency int `mapstructure:"extract_concurrency"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// APIKey returns the key of the selected provider.
func (c *LLMConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAI.APIKey
	case "anthropic":
		return c.Anthropic.APIKey
	default:
		return ""
	}
}

// Features reports which optional integrations have credentials. The
// service runs without any of them.
func (c *Config) Features() map[string]bool {
	return map[string]bool{
		FeatureLLM:             c.LLM.APIKey() != "",
		FeatureScholarProfiles: c.Scholar.APIKey != "",
		FeatureContactLookup:   c.BrowserUse.APIKey != "",
	}
}

// Load reads config.yaml from the working directory, ./config or
// /etc/researcher-discovery-service when present, then applies environment
// overrides and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{".", "./config", "/etc/researcher-discovery-service"} {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loadSecrets reads API keys from the environment only. The prefixed name
// wins over the vendor's conventional name.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = envOr(EnvPrefix+"_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = envOr(EnvPrefix+"_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.Scholar.APIKey = envOr(EnvPrefix+"_SCHOLAR_API_KEY", "SERPAPI_API_KEY")
	cfg.BrowserUse.APIKey = envOr(EnvPrefix+"_BROWSER_USE_API_KEY", "BROWSER_USE_API_KEY")
}

func envOr(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.http_port":        8080,
	"server.metrics_port":     9091,
	"server.read_timeout":     "30s",
	"server.write_timeout":    "6m",
	"server.idle_timeout":     "120s",
	"server.shutdown_timeout": "30s",

	"logging.level":       "info",
	"logging.format":      "json",
	"logging.output":      "stdout",
	"logging.add_source":  false,
	"logging.time_format": time.RFC3339,

	"metrics.enabled":   true,
	"metrics.path":      "/metrics",
	"metrics.namespace": "researcher_discovery",

	"llm.provider":           "openai",
	"llm.timeout":            "30s",
	"llm.max_retries":        2,
	"llm.temperature":        0.3,
	"llm.openai.model":       "gpt-4o-mini",
	"llm.openai.base_url":    "https://api.openai.com/v1",
	"llm.anthropic.model":    "claude-3-5-haiku-latest",
	"llm.anthropic.base_url": "https://api.anthropic.com",

	"arxiv.base_url":    "https://export.arxiv.org/api",
	"arxiv.timeout":     "30s",
	"arxiv.rate_limit":  3.0,
	"arxiv.max_results": 10,

	"scholar.base_url":    "https://serpapi.com",
	"scholar.timeout":     "30s",
	"scholar.rate_limit":  1.0,
	"scholar.num_results": 20,
	"scholar.years_back":  5,

	"browser_use.base_url":      "https://api.browser-use.com",
	"browser_use.timeout":       "30s",
	"browser_use.rate_limit":    2.0,
	"browser_use.poll_interval": "10s",
	"browser_use.max_polls":     24,
	"browser_use.llm_model":     "gpt-4o",
	"browser_use.use_proxy":     true,
	"browser_use.use_adblock":   true,

	"pdf.timeout":                "30s",
	"pdf.max_size":               20 * 1024 * 1024,
	"pdf.prefix_bytes":           8000,
	"pdf.allow_private_networks": false,

	"enrich.concurrency":        4,
	"enrich.max_recent_papers":  5,
	"enrich.author_max_results": 50,

	"discovery.max_papers":          3,
	"discovery.extract_concurrency": 3,
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}

// Validate reports every invalid setting at once. Missing credentials are
// not errors; the matching features are switched off instead.
func (c *Config) Validate() error {
	validPort := func(p int) bool { return p > 0 && p <= 65535 }

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !validPort(c.Server.HTTPPort) {
		fail("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if !validPort(c.Server.MetricsPort) {
		fail("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		fail("metrics port must differ from HTTP port: %d", c.Server.MetricsPort)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		fail("invalid log level: %s", c.Logging.Level)
	}

	if p := strings.ToLower(c.LLM.Provider); p != "openai" && p != "anthropic" {
		fail("unsupported LLM provider: %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		fail("LLM temperature must be between 0 and 2")
	}

	if c.ArXiv.RateLimit <= 0 {
		fail("arxiv rate_limit must be positive")
	}
	if c.ArXiv.MaxResults < 1 || c.ArXiv.MaxResults > 100 {
		fail("arxiv max_results must be between 1 and 100")
	}
	if c.BrowserUse.MaxPolls <= 0 {
		fail("browser_use max_polls must be positive")
	}
	if c.BrowserUse.PollInterval <= 0 {
		fail("browser_use poll_interval must be positive")
	}

	if c.PDF.PrefixBytes <= 0 {
		fail("pdf prefix_bytes must be positive")
	}
	if c.Enrich.Concurrency <= 0 {
		fail("enrich concurrency must be positive")
	}
	if c.Discovery.MaxPapers < 1 || c.Discovery.MaxPapers > 10 {
		fail("discovery max_papers must be between 1 and 10")
	}

	return errors.Join(errs...)
}
