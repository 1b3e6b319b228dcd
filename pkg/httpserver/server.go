// Package httpserver exposes quoting, conversion and outcome editing over HTTP
// and websocket, plus health and metrics endpoints.
package httpserver

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/outcomes"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/internal/storage"
	"github.com/mselser95/fpmm-quoter/pkg/healthprobe"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/mselser95/fpmm-quoter/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// MarketProvider returns market maker snapshots.
type MarketProvider interface {
	MarketMaker(ctx context.Context, address string) (*types.MarketMakerData, error)
}

// RateProvider returns the exchange rate converter of a cToken.
type RateProvider interface {
	Get(ctx context.Context, address string) (*compound.Converter, error)
}

// BalanceProvider reads a trader's collateral balance.
type BalanceProvider interface {
	BalanceOf(ctx context.Context, tokenAddress, owner string) (*big.Int, error)
}

// QuoterFactory returns the quoter backed by the market maker contract at market.
type QuoterFactory func(market string) *quoter.Quoter

// SourceFactory builds the pool source for a market with the trader's share holdings.
type SourceFactory func(market string, shares []*big.Int) quoter.MarketSource

// Server provides HTTP endpoints for quoting, metrics and health checks.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration. Optional components enable their routes.
type Config struct {
	Port           string
	Logger         *zap.Logger
	HealthChecker  *healthprobe.HealthChecker
	AllowedOrigins []string

	Markets  MarketProvider
	Quoters  QuoterFactory
	Sources  SourceFactory
	Debounce time.Duration
	Rates    RateProvider
	Balances BalanceProvider
	Journal  storage.Storage
	Drafts   *outcomes.Store

	WebSocket websocket.Config
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// NewRouter builds the route tree.
func NewRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	h := &handlers{
		markets:  cfg.Markets,
		quoters:  cfg.Quoters,
		sources:  cfg.Sources,
		debounce: cfg.Debounce,
		rates:    cfg.Rates,
		balances: cfg.Balances,
		journal:  cfg.Journal,
		drafts:   cfg.Drafts,
		ws:       cfg.WebSocket,
		logger:   cfg.Logger,
	}
	if h.ws.Logger == nil {
		h.ws.Logger = cfg.Logger
	}

	// websocket sessions outlive the request timeout
	if cfg.Quoters != nil && cfg.Sources != nil {
		r.Get("/ws/quote", h.quoteSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		if cfg.Markets != nil {
			r.Get("/api/markets/{address}", h.getMarket)
			if cfg.Quoters != nil {
				r.Get("/api/quote", h.getQuote)
			}
		}

		if cfg.Rates != nil {
			r.Get("/api/convert", h.getConvert)
		}

		if cfg.Drafts != nil {
			r.Route("/api/outcomes", func(r chi.Router) {
				r.Post("/", h.createDraft)
				r.Get("/{id}", h.getDraft)
				r.Delete("/{id}", h.deleteDraft)
				r.Post("/{id}/outcomes", h.addOutcome)
				r.Put("/{id}/outcomes/{index}", h.updateOutcome)
				r.Delete("/{id}/outcomes/{index}", h.removeOutcome)
				r.Post("/{id}/uniform", h.toggleUniform)
			})
		}
	})

	return r
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

// handlers holds the components the routes serve.
type handlers struct {
	markets  MarketProvider
	quoters  QuoterFactory
	sources  SourceFactory
	debounce time.Duration
	rates    RateProvider
	balances BalanceProvider
	journal  storage.Storage
	drafts   *outcomes.Store
	ws       websocket.Config
	logger   *zap.Logger
}
