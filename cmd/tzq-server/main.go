// Package main implements the tzq web server for natural-language timezone queries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/settings"
	"github.com/codeGROOVE-dev/tzq/pkg/tzq"
	"github.com/codeGROOVE-dev/tzq/pkg/verify"
)

var (
	port         = flag.String("port", "8080", "Port for web server (or set PORT)")
	aiProvider   = flag.String("ai-provider", "", "AI provider: deepseek, gemini, llama, openai, openrouter (or set TZQ_AI_PROVIDER)")
	aiKey        = flag.String("ai-key", "", "AI provider API key (or set TZQ_AI_KEY or the provider's own variable)")
	aiModel      = flag.String("ai-model", "", "AI model (or set TZQ_AI_MODEL)")
	aiBaseURL    = flag.String("ai-base-url", "", "Override the AI provider endpoint (or set TZQ_AI_BASE_URL)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID for Gemini via Vertex AI (or set GCP_PROJECT)")
	homeZone     = flag.String("home-zone", "", "Zone used when a query names only one (or set TZQ_HOME_ZONE)")
	validity     = flag.String("validity", "", "What a query must contain: time+zone or zone (or set TZQ_VALIDITY)")
	settingsPath = flag.String("settings", "", "Settings file (or set TZQ_SETTINGS)")
	cacheDir     = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	newsURL      = flag.String("news-url", "", "Headline page URL with {city} placeholder (or set TZQ_NEWS_URL)")
	ratePerMin   = flag.Int("rate", 30, "Requests per minute allowed per client IP")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

// fromEnv fills an empty flag from the first set environment variable.
func fromEnv(value *string, names ...string) {
	if *value != "" {
		return
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*value = v
			return
		}
	}
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("tzq server v0.4.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fromEnv(port, "PORT")
	fromEnv(aiProvider, "TZQ_AI_PROVIDER")
	fromEnv(aiKey, "TZQ_AI_KEY")
	if *aiProvider != "" && *aiKey == "" {
		*aiKey = verify.KeyFromEnv(*aiProvider)
	}
	fromEnv(aiModel, "TZQ_AI_MODEL")
	fromEnv(aiBaseURL, "TZQ_AI_BASE_URL")
	fromEnv(gcpProject, "GCP_PROJECT")
	fromEnv(homeZone, "TZQ_HOME_ZONE")
	fromEnv(validity, "TZQ_VALIDITY")
	fromEnv(settingsPath, "TZQ_SETTINGS")
	fromEnv(cacheDir, "CACHE_DIR")
	fromEnv(newsURL, "TZQ_NEWS_URL")
	if v := os.Getenv("TZQ_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*ratePerMin = n
		}
	}

	// Log configuration (without exposing sensitive keys)
	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"cache_dir", *cacheDir,
		"ai_provider", *aiProvider,
		"ai_model", *aiModel,
		"home_zone", *homeZone,
		"validity", *validity,
		"rate_per_min", *ratePerMin,
		"has_ai_key", *aiKey != "",
		"has_gcp_project", *gcpProject != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("Server failed", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already ran
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cacheOpts := []cache.Option{cache.WithLogger(logger)}
	if *cacheDir != "" {
		cacheOpts = append(cacheOpts, cache.WithDir(*cacheDir))
	}
	shared, err := cache.New(ctx, 30*time.Minute, cacheOpts...)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer func() {
		if err := shared.Close(); err != nil {
			logger.Error("Failed to close cache", "error", err)
		}
	}()

	rule, err := query.ParseValidityRule(*validity)
	if err != nil {
		return err
	}

	verifier, err := verify.New(ctx, verify.Config{
		Provider:   *aiProvider,
		APIKey:     *aiKey,
		Model:      *aiModel,
		BaseURL:    *aiBaseURL,
		GCPProject: *gcpProject,
	}, verify.WithLogger(logger), verify.WithCache(shared), verify.WithRule(rule))
	if err != nil {
		return err
	}

	var news briefing.NewsProvider = briefing.MockNews{}
	if *newsURL != "" {
		news = briefing.NewWebNews(*newsURL, shared, logger)
	}
	panels, err := briefing.NewService(ctx, briefing.MockWeather{}, news,
		briefing.WithLogger(logger), briefing.WithCache(shared))
	if err != nil {
		return err
	}

	engineOpts := []tzq.Option{
		tzq.WithLogger(logger),
		tzq.WithValidityRule(rule),
		tzq.WithVerifier(verifier),
		tzq.WithBriefing(panels),
	}
	if *homeZone != "" {
		engineOpts = append(engineOpts, tzq.WithHomeZone(*homeZone))
	}
	engine, err := tzq.New(ctx, engineOpts...)
	if err != nil {
		return err
	}

	if *settingsPath == "" {
		if *settingsPath, err = settings.DefaultPath(); err != nil {
			return fmt.Errorf("locating settings: %w", err)
		}
	}
	prefs := settings.New(settings.FileStore{Path: *settingsPath},
		settings.WithLogger(logger), settings.WithRegistry(engine.Registry()))
	if err := prefs.Load(ctx); err != nil {
		logger.Warn("Could not load settings, using defaults", "path", *settingsPath, "error", err)
	}
	go func() {
		if err := prefs.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Settings watcher stopped", "error", err)
		}
	}()

	s, err := newServer(engine, prefs, logger, *ratePerMin)
	if err != nil {
		return err
	}
	defer s.close()

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}
