// Package httpserver provides the HTTP REST API of the researcher discovery
// service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/researcher-discovery-service/internal/contact"
	"github.com/helixir/researcher-discovery-service/internal/discovery"
	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/extract"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/search"
)

// PaperSearcher runs laddered paper searches.
type PaperSearcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (*search.Result, error)
}

// DocumentExtractor extracts researchers from a PDF URL.
type DocumentExtractor interface {
	Extract(ctx context.Context, url string) (*extract.Extraction, error)
}

// ResearcherEnricher runs both enrichment paths.
type ResearcherEnricher interface {
	Enrich(ctx context.Context, researchers []domain.Researcher, contextText string) []domain.Researcher
	EnrichProfiles(ctx context.Context, researchers []domain.Researcher) []domain.Researcher
	ProfilesEnabled() bool
}

// ContactResolver looks up contact details.
type ContactResolver interface {
	Resolve(ctx context.Context, researcher domain.Researcher, observe contact.Observer) (domain.ContactOutcome, error)
	Enabled() bool
	MaxWait() time.Duration
}

// Discoverer runs the full pipeline and author lookups.
type Discoverer interface {
	Discover(ctx context.Context, q domain.SearchQuery, maxPapers int) (*discovery.Report, error)
	LookupAuthor(ctx context.Context, name string, maxResults int) ([]domain.Researcher, error)
}

// Services groups the components the API exposes.
type Services struct {
	Search    PaperSearcher
	Extractor DocumentExtractor
	Enricher  ResearcherEnricher
	Contacts  ContactResolver
	Discovery Discoverer

	// Features reports which optional integrations are configured.
	Features map[string]bool
}

// Server serves the REST API over a chi router.
type Server struct {
	router          chi.Router
	httpServer      *http.Server
	shutdownTimeout time.Duration
	services        Services
	validate        *validator.Validate
	logger          zerolog.Logger
	metrics         *observability.Metrics
}

// Config carries listener settings. ShutdownTimeout bounds Shutdown when the
// caller's context has no deadline.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer builds the router. A nil Features map reports every optional
// integration as off.
func NewServer(cfg Config, services Services, logger zerolog.Logger, metrics *observability.Metrics) *Server {
	if services.Features == nil {
		services.Features = map[string]bool{}
	}
	s := &Server{
		shutdownTimeout: cfg.ShutdownTimeout,
		services:        services,
		validate:        newValidator(),
		logger:          logger.With().Str("component", "api").Logger(),
		metrics:         metrics,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the router without a listener.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		correlationIDMiddleware,
		s.metricsMiddleware,
		s.loggingMiddleware,
		jsonContentTypeMiddleware,
	)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/papers/search", s.searchPapers)
		r.Post("/discover", s.discover)
		r.Get("/authors", s.lookupAuthor)

		r.Route("/researchers", func(r chi.Router) {
			r.Post("/extract", s.extractResearchers)
			r.Post("/enrich", s.enrichResearchers)
			r.Post("/profiles", s.enrichProfiles)
			r.Post("/contact", s.resolveContact)
			r.Post("/contact/stream", s.streamContact)
		})
	})
	return r
}

// Start listens on the configured address and blocks until Shutdown, when
// it returns http.ErrServerClosed.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("api listening")
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests. Open SSE streams end when their
// request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz never fails on missing integrations; it lists them so operators can
// see what is degraded.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"features": s.services.Features,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is out; an encode failure can only be a broken client.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
