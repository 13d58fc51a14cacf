// Package main provides the entry point for the researcher discovery HTTP
// server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/researcher-discovery-service/internal/browseruse"
	"github.com/helixir/researcher-discovery-service/internal/config"
	"github.com/helixir/researcher-discovery-service/internal/contact"
	"github.com/helixir/researcher-discovery-service/internal/discovery"
	"github.com/helixir/researcher-discovery-service/internal/enrich"
	"github.com/helixir/researcher-discovery-service/internal/extract"
	"github.com/helixir/researcher-discovery-service/internal/llm"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
	"github.com/helixir/researcher-discovery-service/internal/papersources/arxiv"
	"github.com/helixir/researcher-discovery-service/internal/pdf"
	"github.com/helixir/researcher-discovery-service/internal/query"
	"github.com/helixir/researcher-discovery-service/internal/scholar"
	"github.com/helixir/researcher-discovery-service/internal/search"
	httpserver "github.com/helixir/researcher-discovery-service/internal/server/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "researcher-discovery-service: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env is optional and never overrides variables already set.
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}).With().Str("component", "main").Logger()
	if dotenvErr == nil {
		logger.Debug().Msg("environment loaded from .env")
	}

	features := cfg.Features()
	logger.Info().
		Bool(config.FeatureLLM, features[config.FeatureLLM]).
		Bool(config.FeatureScholarProfiles, features[config.FeatureScholarProfiles]).
		Bool(config.FeatureContactLookup, features[config.FeatureContactLookup]).
		Msg("starting")

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	services := buildServices(cfg, logger, metrics)
	services.Features = features

	api := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, services, logger, metrics)
	metricsSrv := newMetricsServer(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreClosed(api.Start(), "api server")
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info().Str("address", metricsSrv.Addr).Msg("metrics listening")
			return ignoreClosed(metricsSrv.ListenAndServe(), "metrics server")
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		errs := []error{api.Shutdown(shutdownCtx)}
		if metricsSrv != nil {
			errs = append(errs, metricsSrv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("stopped with error")
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

// newMetricsServer serves the Prometheus registry on its own port, or
// returns nil when metrics are disabled.
func newMetricsServer(cfg *config.Config) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	return &http.Server{
		Addr:              cfg.Server.MetricsAddress(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}
}

func ignoreClosed(err error, name string) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// buildServices wires the pipeline. Upstream clients are always built so
// each component can report itself disabled rather than hold a nil.
func buildServices(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) httpserver.Services {
	completer := newCompleter(cfg, logger, metrics)

	arxivClient := arxiv.NewWithHTTPClient(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		MaxResults: cfg.ArXiv.MaxResults,
	}, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    "arxiv",
		Timeout:   cfg.ArXiv.Timeout,
		RateLimit: cfg.ArXiv.RateLimit,
		BurstSize: arxiv.DefaultBurstSize,
		Observe:   metrics.ObserveUpstream,
	}))

	scholarClient := scholar.NewWithHTTPClient(scholar.Config{
		BaseURL:    cfg.Scholar.BaseURL,
		APIKey:     cfg.Scholar.APIKey,
		Timeout:    cfg.Scholar.Timeout,
		RateLimit:  cfg.Scholar.RateLimit,
		NumResults: cfg.Scholar.NumResults,
		YearsBack:  cfg.Scholar.YearsBack,
	}, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    "serpapi",
		Timeout:   cfg.Scholar.Timeout,
		RateLimit: cfg.Scholar.RateLimit,
		BurstSize: 1,
		Observe:   metrics.ObserveUpstream,
	}))

	browserClient := browseruse.NewWithHTTPClient(browseruse.Config{
		BaseURL:   cfg.BrowserUse.BaseURL,
		APIKey:    cfg.BrowserUse.APIKey,
		Timeout:   cfg.BrowserUse.Timeout,
		RateLimit: cfg.BrowserUse.RateLimit,
	}, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:       "browser_use",
		Timeout:      cfg.BrowserUse.Timeout,
		RateLimit:    cfg.BrowserUse.RateLimit,
		BurstSize:    1,
		APIKey:       cfg.BrowserUse.APIKey,
		APIKeyHeader: "Authorization",
		Observe:      metrics.ObserveUpstream,
	}))

	translator := query.NewTranslator(completer, query.Config{Timeout: cfg.LLM.Timeout}, logger, metrics)
	searchService := search.NewService(arxivClient, translator, logger, metrics)

	downloader := pdf.NewDownloader(pdf.Config{
		Timeout:              cfg.PDF.Timeout,
		MaxSize:              cfg.PDF.MaxSize,
		AllowPrivateNetworks: cfg.PDF.AllowPrivateNetworks,
	})
	extractor := extract.New(downloader, extract.Config{PrefixBytes: cfg.PDF.PrefixBytes}, logger, metrics)

	enricher := enrich.New(arxivClient, completer, scholarClient, enrich.Config{
		Concurrency:      cfg.Enrich.Concurrency,
		MaxRecentPapers:  cfg.Enrich.MaxRecentPapers,
		AuthorMaxResults: cfg.Enrich.AuthorMaxResults,
		LLMTimeout:       cfg.LLM.Timeout,
	}, logger, metrics)

	resolver := contact.NewResolver(browserClient, contact.Config{
		PollInterval: cfg.BrowserUse.PollInterval,
		MaxPolls:     cfg.BrowserUse.MaxPolls,
		LLMModel:     cfg.BrowserUse.LLMModel,
		UseProxy:     cfg.BrowserUse.UseProxy,
		UseAdblock:   cfg.BrowserUse.UseAdblock,
	}, logger, metrics)

	pipeline := discovery.NewService(searchService, extractor, enricher, arxivClient, discovery.Config{
		MaxPapers:          cfg.Discovery.MaxPapers,
		ExtractConcurrency: cfg.Discovery.ExtractConcurrency,
	}, logger)

	return httpserver.Services{
		Search:    searchService,
		Extractor: extractor,
		Enricher:  enricher,
		Contacts:  resolver,
		Discovery: pipeline,
	}
}

// newCompleter returns the instrumented LLM client, or nil when the selected
// provider has no key. Every AI step has a deterministic fallback.
func newCompleter(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) llm.Completer {
	completer, err := llm.NewCompleter(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Warn().Str("provider", cfg.LLM.Provider).Msg("LLM not configured, using deterministic fallbacks")
		} else {
			logger.Error().Err(err).Msg("LLM client unavailable, using deterministic fallbacks")
		}
		return nil
	}
	return llm.Instrument(completer, metrics)
}
