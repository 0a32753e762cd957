package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/deskwise/deskwise/config"
	"github.com/deskwise/deskwise/internal/generation"
	"github.com/deskwise/deskwise/internal/store"
	"github.com/deskwise/deskwise/provider"
	"github.com/deskwise/deskwise/tools/web_fetch"
	"github.com/deskwise/deskwise/tools/web_search"
)

// Run wires the whole backend together and serves it: config, migrations,
// postgres, the LLM provider with its tools, the job registry, the
// generation orchestrator, auth, and the refresh scheduler.
func Run(cfgPath, addr string) error {
	cfg := config.LoadConfig(cfgPath)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	loop, err := buildAgentLoop(cfg, llm)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:        cfg.Storage.Redis.Addr(),
			Password:    cfg.Storage.Redis.Password,
			DB:          cfg.Storage.Redis.DB,
			DialTimeout: cfg.Storage.Redis.Timeout,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
	}
	var registry generation.Registry
	switch cfg.Generation.Registry {
	case "redis":
		if rdb == nil {
			return fmt.Errorf("generation.registry=redis but storage.redis not configured")
		}
		registry = generation.NewRedisRegistry(rdb, cfg.Generation.JobTTL)
	default:
		registry = generation.NewInMemoryRegistry()
	}

	orch := &generation.Orchestrator{
		Store:      st,
		Registry:   registry,
		Loop:       loop,
		JobTimeout: cfg.Generation.JobTimeout,
		JobTTL:     cfg.Generation.JobTTL,
		Logger:     log.New(log.Writer(), "[GEN] ", log.LstdFlags),
	}

	auth := &AuthHandler{Store: st, Secret: []byte(cfg.Server.JWTSecret), TokenTTL: cfg.Server.TokenTTL}
	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	kh := &KBHandler{
		Store:          st,
		Orch:           orch,
		Registry:       registry,
		StatusInterval: cfg.Generation.StatusInterval,
	}
	kh.Register(api.Group("/kb"), auth.Secret)

	if cfg.Server.SchedulerEnabled {
		sched := &Scheduler{Store: st, Orch: orch, Rdb: rdb, Stop: make(chan struct{})}
		sched.Start()
	}

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// buildAgentLoop binds the configured research tools to the model.
func buildAgentLoop(cfg *config.Config, llm provider.Provider) (*generation.AgentLoop, error) {
	var apiKey string
	switch web_search.Provider(cfg.Tools.WebSearch.Provider) {
	case web_search.BraveProvider:
		apiKey = cfg.Tools.WebSearch.BraveAPIKey
	default:
		apiKey = cfg.Tools.WebSearch.SerperAPIKey
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Tools.WebSearch.Provider), apiKey)
	if err != nil {
		return nil, err
	}
	tools := []generation.Tool{
		&generation.SearchTool{Searcher: searcher, MaxResults: cfg.Tools.WebSearch.MaxResults},
	}
	if cfg.Tools.WebFetch.Enabled {
		fetcher, err := web_fetch.NewWebFetcher(web_fetch.ChromedpFetcherType,
			cfg.Tools.WebFetch.Timeout, cfg.Tools.WebFetch.MaxChars)
		if err != nil {
			return nil, err
		}
		tools = append(tools, &generation.FetchTool{Fetcher: fetcher})
	}
	return &generation.AgentLoop{
		Provider:  llm,
		Tools:     tools,
		MaxCycles: cfg.Generation.MaxAgentCycles,
		Logger:    log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
	}, nil
}
