// Package server wires the HTTP surface: echo, middleware, the v1 REST
// services, and the operational endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/lorekeeper/lorekeeper/ai/core/llm"
	"github.com/lorekeeper/lorekeeper/ai/extraction"
	"github.com/lorekeeper/lorekeeper/ai/metrics"
	"github.com/lorekeeper/lorekeeper/ai/turn"
	"github.com/lorekeeper/lorekeeper/internal/profile"
	apiv1 "github.com/lorekeeper/lorekeeper/server/router/api/v1"
	"github.com/lorekeeper/lorekeeper/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("http request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				slog.Debug("http request", "method", v.Method, "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	narrative := s.newNarrativeService(ctx)
	extractor := extraction.NewClient(&extraction.Config{
		BaseURL: profile.ExtractionBaseURL,
		Model:   profile.ExtractionModel,
		Timeout: profile.ExtractionTimeout,
	})
	orchestrator := turn.NewOrchestrator(store, extractor, narrative, exporter, turn.Config{
		TurnWindow: profile.MemoryTurnWindow,
		RecallCap:  profile.MemoryRecallCap,
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	rootGroup := e.Group("/api/v1")
	rootGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(30))))
	apiV1Service := apiv1.NewAPIV1Service(profile, store, orchestrator)
	apiV1Service.RegisterRoutes(rootGroup)

	return s, nil
}

// newNarrativeService builds the narrative LLM service from the profile. A
// misconfigured profile still yields a working server: the stub below fails
// every turn with a misconfigured error until the operator fixes the config.
func (s *Server) newNarrativeService(ctx context.Context) llm.Service {
	service, err := llm.NewService(&llm.Config{
		Provider: s.Profile.LLMProvider,
		Model:    s.Profile.LLMModel,
		APIKey:   s.Profile.LLMAPIKey,
		BaseURL:  s.Profile.LLMBaseURL,
		Timeout:  s.Profile.LLMTimeout,
	})
	if err != nil {
		slog.Warn("narrative service unavailable, turn requests will fail until configured", "error", err)
		return &unavailableNarrative{err: err}
	}

	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		service.Warmup(warmupCtx)
	}()
	return service
}

type unavailableNarrative struct {
	err error
}

func (u *unavailableNarrative) Chat(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
	return "", nil, u.err
}

func (u *unavailableNarrative) Warmup(context.Context) {}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server shutdown")
}
