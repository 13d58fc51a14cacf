package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cleanEnv hides every variable Load reads and moves into an empty working
// directory so no config.yaml is picked up. Both are restored after the test.
func cleanEnv(t *testing.T) {
	t.Helper()
	names := []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "SERPAPI_API_KEY", "BROWSER_USE_API_KEY"}
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, EnvPrefix+"_") {
			names = append(names, name)
		}
	}
	for _, name := range names {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	t.Chdir(t.TempDir())
}

func mustLoad(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	cfg := mustLoad(t)

	for name, check := range map[string][2]any{
		"server.http_port":          {cfg.Server.HTTPPort, 8080},
		"server.metrics_port":       {cfg.Server.MetricsPort, 9091},
		"server.write_timeout":      {cfg.Server.WriteTimeout, 6 * time.Minute},
		"logging.format":            {cfg.Logging.Format, "json"},
		"metrics.namespace":         {cfg.Metrics.Namespace, "researcher_discovery"},
		"llm.provider":              {cfg.LLM.Provider, "openai"},
		"llm.openai.model":          {cfg.LLM.OpenAI.Model, "gpt-4o-mini"},
		"llm.timeout":               {cfg.LLM.Timeout, 30 * time.Second},
		"arxiv.base_url":            {cfg.ArXiv.BaseURL, "https://export.arxiv.org/api"},
		"arxiv.rate_limit":          {cfg.ArXiv.RateLimit, 3.0},
		"arxiv.max_results":         {cfg.ArXiv.MaxResults, 10},
		"scholar.years_back":        {cfg.Scholar.YearsBack, 5},
		"scholar.num_results":       {cfg.Scholar.NumResults, 20},
		"browser_use.poll_interval": {cfg.BrowserUse.PollInterval, 10 * time.Second},
		"browser_use.max_polls":     {cfg.BrowserUse.MaxPolls, 24},
		"browser_use.llm_model":     {cfg.BrowserUse.LLMModel, "gpt-4o"},
		"browser_use.use_proxy":     {cfg.BrowserUse.UseProxy, true},
		"pdf.max_size":              {cfg.PDF.MaxSize, int64(20 << 20)},
		"pdf.prefix_bytes":          {cfg.PDF.PrefixBytes, 8000},
		"pdf.allow_private":         {cfg.PDF.AllowPrivateNetworks, false},
		"enrich.concurrency":        {cfg.Enrich.Concurrency, 4},
		"enrich.max_recent_papers":  {cfg.Enrich.MaxRecentPapers, 5},
		"discovery.max_papers":      {cfg.Discovery.MaxPapers, 3},
	} {
		assert.Equal(t, check[1], check[0], name)
	}

	assert.Equal(t, map[string]bool{
		FeatureLLM:             false,
		FeatureScholarProfiles: false,
		FeatureContactLookup:   false,
	}, cfg.Features(), "missing credentials switch features off without failing Load")
}

func TestLoad_ConfigFileAndEnv(t *testing.T) {
	cleanEnv(t)
	yaml := "server:\n  http_port: 8181\nlogging:\n  level: warn\nbrowser_use:\n  max_polls: 12\n"
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("RESEARCHER_LOGGING_LEVEL", "debug")
	t.Setenv("RESEARCHER_LLM_PROVIDER", "anthropic")
	t.Setenv("RESEARCHER_BROWSER_USE_POLL_INTERVAL", "2s")
	t.Setenv("RESEARCHER_ENRICH_CONCURRENCY", "8")

	cfg := mustLoad(t)

	assert.Equal(t, 8181, cfg.Server.HTTPPort, "from file")
	assert.Equal(t, 12, cfg.BrowserUse.MaxPolls, "from file")
	assert.Equal(t, "debug", cfg.Logging.Level, "env beats file")
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Second, cfg.BrowserUse.PollInterval)
	assert.Equal(t, 8, cfg.Enrich.Concurrency)
}

func TestLoad_InvalidFile(t *testing.T) {
	cleanEnv(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("server: [unclosed"), 0o600))

	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	cleanEnv(t)
	t.Setenv("RESEARCHER_DISCOVERY_MAX_PAPERS", "50")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid config")
	assert.ErrorContains(t, err, "discovery max_papers")
}

func TestLoad_Secrets(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want func(t *testing.T, cfg *Config)
	}{
		{
			name: "prefixed names",
			env: map[string]string{
				"RESEARCHER_LLM_OPENAI_API_KEY":    "sk-openai",
				"RESEARCHER_LLM_ANTHROPIC_API_KEY": "sk-ant",
				"RESEARCHER_SCHOLAR_API_KEY":       "serp",
				"RESEARCHER_BROWSER_USE_API_KEY":   "bu",
			},
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-openai", cfg.LLM.OpenAI.APIKey)
				assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
				assert.Equal(t, "serp", cfg.Scholar.APIKey)
				assert.Equal(t, "bu", cfg.BrowserUse.APIKey)
				assert.Equal(t, map[string]bool{
					FeatureLLM:             true,
					FeatureScholarProfiles: true,
					FeatureContactLookup:   true,
				}, cfg.Features())
			},
		},
		{
			name: "vendor names as fallback",
			env: map[string]string{
				"OPENAI_API_KEY":      "sk-vendor",
				"SERPAPI_API_KEY":     "serp-vendor",
				"BROWSER_USE_API_KEY": " bu-vendor ",
			},
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-vendor", cfg.LLM.OpenAI.APIKey)
				assert.Equal(t, "serp-vendor", cfg.Scholar.APIKey)
				assert.Equal(t, "bu-vendor", cfg.BrowserUse.APIKey, "trimmed")
				assert.Empty(t, cfg.LLM.Anthropic.APIKey)
			},
		},
		{
			name: "prefixed name wins",
			env:  map[string]string{"OPENAI_API_KEY": "sk-vendor", "RESEARCHER_LLM_OPENAI_API_KEY": "sk-prefixed"},
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-prefixed", cfg.LLM.OpenAI.APIKey)
			},
		},
		{
			name: "llm feature follows the selected provider",
			env:  map[string]string{"RESEARCHER_LLM_PROVIDER": "anthropic", "RESEARCHER_LLM_OPENAI_API_KEY": "sk-openai"},
			want: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Features()[FeatureLLM])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tt.want(t, mustLoad(t))
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Host: "0.0.0.0", HTTPPort: 8080, MetricsPort: 9091},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Metrics:    MetricsConfig{Enabled: true},
		LLM:        LLMConfig{Provider: "openai", Temperature: 0.3},
		ArXiv:      ArXivConfig{RateLimit: 3, MaxResults: 10},
		BrowserUse: BrowserUseConfig{PollInterval: 10 * time.Second, MaxPolls: 24},
		PDF:        PDFConfig{PrefixBytes: 8000},
		Enrich:     EnrichConfig{Concurrency: 4},
		Discovery:  DiscoveryConfig{MaxPapers: 3},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate(), "credentials are optional")

	for want, mutate := range map[string]func(*Config){
		"invalid HTTP port: 0":                          func(c *Config) { c.Server.HTTPPort = 0 },
		"invalid metrics port: 70000":                   func(c *Config) { c.Server.MetricsPort = 70000 },
		"metrics port must differ from HTTP port":       func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort },
		"invalid log level: verbose":                    func(c *Config) { c.Logging.Level = "verbose" },
		`unsupported LLM provider: "gemini"`:            func(c *Config) { c.LLM.Provider = "gemini" },
		"LLM temperature must be between 0 and 2":       func(c *Config) { c.LLM.Temperature = 3 },
		"arxiv rate_limit must be positive":             func(c *Config) { c.ArXiv.RateLimit = 0 },
		"arxiv max_results must be between 1 and 100":   func(c *Config) { c.ArXiv.MaxResults = 101 },
		"browser_use max_polls must be positive":        func(c *Config) { c.BrowserUse.MaxPolls = 0 },
		"browser_use poll_interval must be positive":    func(c *Config) { c.BrowserUse.PollInterval = 0 },
		"pdf prefix_bytes must be positive":             func(c *Config) { c.PDF.PrefixBytes = 0 },
		"enrich concurrency must be positive":           func(c *Config) { c.Enrich.Concurrency = -1 },
		"discovery max_papers must be between 1 and 10": func(c *Config) { c.Discovery.MaxPapers = 11 },
	} {
		cfg := validConfig()
		mutate(cfg)
		assert.ErrorContains(t, cfg.Validate(), want)
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.HTTPPort = -1
		cfg.Logging.Level = "loud"

		err := cfg.Validate()
		assert.ErrorContains(t, err, "invalid HTTP port")
		assert.ErrorContains(t, err, "invalid log level")
	})

	t.Run("metrics port may match when metrics are off", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metrics.Enabled = false
		cfg.Server.MetricsPort = cfg.Server.HTTPPort
		assert.NoError(t, cfg.Validate())
	})
}

func TestLLMConfig_APIKey(t *testing.T) {
	c := LLMConfig{OpenAI: ProviderConfig{APIKey: "o"}, Anthropic: ProviderConfig{APIKey: "a"}}

	for provider, want := range map[string]string{"Anthropic": "a", "openai": "o", "other": ""} {
		c.Provider = provider
		assert.Equal(t, want, c.APIKey(), provider)
	}
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080, MetricsPort: 9091}
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}
