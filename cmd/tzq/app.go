package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/render"
	"github.com/codeGROOVE-dev/tzq/pkg/settings"
	"github.com/codeGROOVE-dev/tzq/pkg/tzq"
	"github.com/codeGROOVE-dev/tzq/pkg/verify"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const cacheTTL = 30 * time.Minute

// app holds everything a command needs. It is filled in by setup, which
// runs before every command.
type app struct {
	v        *viper.Viper
	now      func() time.Time
	stderr   io.Writer
	logger   *slog.Logger
	cache    *cache.Cache
	engine   *tzq.Engine
	settings *settings.Service
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		now:    time.Now,
		stderr: os.Stderr,
	}
}

// configure reads the optional config file and binds flags and TZQ_*
// environment variables to viper keys.
func (a *app) configure(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("TZQ")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil //nolint:nilerr // no config dir means no config file
	}
	a.v.AddConfigPath(filepath.Join(dir, "tzq"))
	a.v.SetConfigName("config")
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// setup builds the logger, caches, settings and engine from configuration.
func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	if err := a.configure(cmd); err != nil {
		return err
	}

	level := slog.LevelError
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if !a.v.GetBool("no-cache") {
		dir := a.v.GetString("cache-dir")
		if dir == "" {
			if base, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(base, "tzq")
			}
		}
		opts := []cache.Option{cache.WithLogger(a.logger)}
		if dir != "" {
			opts = append(opts, cache.WithDir(dir))
		}
		c, err := cache.New(ctx, cacheTTL, opts...)
		if err != nil {
			return fmt.Errorf("creating cache: %w", err)
		}
		a.cache = c
	}

	path := a.v.GetString("settings")
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return fmt.Errorf("locating settings: %w", err)
		}
		path = p
	}
	a.settings = settings.New(settings.FileStore{Path: path}, settings.WithLogger(a.logger))
	if err := a.settings.Load(ctx); err != nil {
		a.logger.Warn("could not load settings, using defaults", "path", path, "error", err)
	}

	rule, err := query.ParseValidityRule(a.v.GetString("validity"))
	if err != nil {
		return err
	}

	verifier, err := a.verifier(ctx, rule)
	if err != nil {
		return err
	}

	panels, err := a.briefing(ctx)
	if err != nil {
		return err
	}

	home := a.v.GetString("home-zone")
	if home == "" {
		home = localZone(zones.Default())
	}

	engine, err := tzq.New(ctx,
		tzq.WithLogger(a.logger),
		tzq.WithNow(a.now),
		tzq.WithHomeZone(home),
		tzq.WithValidityRule(rule),
		tzq.WithVerifier(verifier),
		tzq.WithBriefing(panels))
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

func (a *app) verifier(ctx context.Context, rule query.ValidityRule) (verify.Verifier, error) {
	provider := a.v.GetString("ai-provider")
	key := a.v.GetString("ai-key")
	if key == "" && provider != "" {
		key = verify.KeyFromEnv(provider)
	}

	opts := []verify.Option{
		verify.WithLogger(a.logger),
		verify.WithRule(rule),
		verify.WithNow(a.now),
	}
	if a.cache != nil {
		opts = append(opts, verify.WithCache(a.cache))
	}
	return verify.New(ctx, verify.Config{
		Provider:   provider,
		APIKey:     key,
		Model:      a.v.GetString("ai-model"),
		BaseURL:    a.v.GetString("ai-base-url"),
		GCPProject: a.v.GetString("gcp-project"),
	}, opts...)
}

func (a *app) briefing(ctx context.Context) (*briefing.Service, error) {
	var news briefing.NewsProvider = briefing.MockNews{Now: a.now}
	if tmpl := a.v.GetString("news-url"); tmpl != "" {
		news = briefing.NewWebNews(tmpl, a.cache, a.logger)
	}
	opts := []briefing.Option{briefing.WithLogger(a.logger), briefing.WithNow(a.now)}
	if a.cache != nil {
		opts = append(opts, briefing.WithCache(a.cache))
	}
	return briefing.NewService(ctx, briefing.MockWeather{Now: a.now}, news, opts...)
}

// renderOptions follows the saved time format unless --24h is set.
func (a *app) renderOptions() render.Options {
	return render.Options{Use24h: a.v.GetBool("24h") || a.settings.Snapshot().Uses24h()}
}

func (a *app) close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil && a.logger != nil {
		a.logger.Error("Failed to close cache", "error", err)
	}
}

// localZone returns the system zone when the registry knows it, else UTC.
func localZone(registry *zones.Registry) string {
	name := time.Local.String()
	if tz := os.Getenv("TZ"); tz != "" {
		name = tz
	}
	if _, ok := registry.ByID(name); ok {
		return name
	}
	return tzq.DefaultHomeZone
}
