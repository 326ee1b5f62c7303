// Package main provides the playback daemon entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	zlog "github.com/rs/zerolog/log"

	"github.com/DoriNori7/BnuuyBotGithub/internal/app/autoplaylist"
	"github.com/DoriNori7/BnuuyBotGithub/internal/app/events"
	"github.com/DoriNori7/BnuuyBotGithub/internal/app/player"
	"github.com/DoriNori7/BnuuyBotGithub/internal/app/player/registry"
	"github.com/DoriNori7/BnuuyBotGithub/internal/infra/config"
	"github.com/DoriNori7/BnuuyBotGithub/internal/infra/logger"
	"github.com/DoriNori7/BnuuyBotGithub/internal/infra/persist"
	"github.com/DoriNori7/BnuuyBotGithub/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("playerd", "per-tenant media playback scheduler daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/playerd.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	cacheDir   = app.Flag("cache-dir", "Directory for predownloaded media").Default("data/cache").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the daemon logic. A separate function so defers fire
// even when returning with an error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persist.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	var fallback player.Fallback
	var source *autoplaylist.Source
	if cfg.Autoplaylist.Enabled == nil || *cfg.Autoplaylist.Enabled {
		source, err = autoplaylist.Load(cfg.Autoplaylist.File)
		if err != nil {
			return fmt.Errorf("failed to load autoplaylist: %w", err)
		}
		defer source.Close()
		if cfg.Autoplaylist.Watch == nil || *cfg.Autoplaylist.Watch {
			if err := source.Watch(); err != nil {
				zlog.Warn().Err(err).Msg("autoplaylist watch unavailable, continuing without")
			}
		}
		fallback = source
		zlog.Info().Int("urls", source.Len()).Msg("autoplaylist loaded")
	}

	resolver := ytdlp.NewResolver(*cacheDir)

	reg := registry.New(registry.Deps{
		Resolver: resolver,
		Store:    store,
		Fallback: fallback,
		Config: player.Config{
			SkipRatio:          cfg.Player.SkipRatio,
			MaxSkips:           cfg.Player.MaxSkips,
			DefaultVolume:      cfg.Player.DefaultVolume,
			AutoplaylistRandom: cfg.Autoplaylist.Random == nil || *cfg.Autoplaylist.Random,
			RequestsPerMinute:  cfg.Player.RequestsPerMinute,
			RequestBurst:       cfg.Player.RequestBurst,
		},
	})
	defer reg.Shutdown()

	dispatcher := events.NewDispatcher()
	defer dispatcher.Close()
	dispatcher.Subscribe(func(e player.Event) {
		ev := zlog.Info().Str("tenant", e.TenantID).Str("event", e.Type.String())
		if e.Entry != nil {
			ev = ev.Str("title", e.Entry.Title)
		}
		if e.Err != nil {
			ev = ev.Err(e.Err)
		}
		ev.Msg("scheduler event")
	})

	// Periodic snapshot flush and registry sweep.
	c := cron.New()
	if _, err := c.AddFunc(cfg.Maintenance.Schedule, func() {
		for _, s := range reg.All() {
			s.SaveSnapshot(context.Background())
		}
		if n := reg.Sweep(); n > 0 {
			zlog.Info().Int("removed", n).Msg("swept dead schedulers")
		}
	}); err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", cfg.Maintenance.Schedule, err)
	}
	c.Start()
	defer c.Stop()

	zlog.Info().Msg("playerd ready; waiting for the host gateway to mount tenants")
	<-ctx.Done()
	zlog.Info().Msg("shutting down")
	return nil
}
