package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-gateway/chatstream-go/internal/config"
	"github.com/ai-gateway/chatstream-go/internal/guardrails"
	"github.com/ai-gateway/chatstream-go/internal/metrics"
	"github.com/ai-gateway/chatstream-go/internal/observability"
	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/routing"
	"github.com/ai-gateway/chatstream-go/internal/store"
)

var errNoProvider = errors.New("configured provider is not registered")

type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	engine *gin.Engine
	router *routing.Router
	guards *guardrails.Guardrails
	usage  *metrics.Usage
	store  store.Store
}

// New wires the HTTP API. st may be nil, in which case the persistence
// endpoints are not mounted.
func New(cfg *config.Config, rt *routing.Router, st store.Store, logger *slog.Logger) *Server {
	guardrails.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger))
	srv := &Server{
		cfg:    cfg,
		log:    logger,
		engine: r,
		router: rt,
		guards: guardrails.New(cfg.Guardrails.BannedTerms),
		usage:  metrics.New(),
		store:  st,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api")
	api.POST("/chat/stream", s.chatStream)
	api.GET("/models", s.listModels)
	api.GET("/usage", s.getUsage)

	if s.store != nil {
		s.registerStoreRoutes(api)
	}
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return observability.Handler(s.engine)
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("listening", "address", s.cfg.Address, "provider", s.cfg.Provider.Name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// provider resolves the configured provider. Both a missing credential and
// an unregistered provider are configuration errors.
func (s *Server) provider() (provider.Provider, error) {
	if !s.cfg.Provider.Configured() {
		return nil, errors.New("provider credential is not configured")
	}
	p := s.router.ProviderFor(s.cfg.Provider.Name)
	if p == nil {
		return nil, errNoProvider
	}
	return p, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.router.Models()})
}

func (s *Server) getUsage(c *gin.Context) {
	c.JSON(http.StatusOK, s.usage.Snapshot())
}
