package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mcdev12/gemtable/go/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	ephemeral := flag.Bool("ephemeral", false, "keep the session in memory only")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *ephemeral {
		cfg.Storage.Ephemeral = true
	}
	setupLogging(cfg.LogLevel)

	log.Info().
		Str("api", cfg.API.BaseURL).
		Bool("ephemeral", cfg.Storage.Ephemeral).
		Bool("inspector", cfg.Inspector.Enabled).
		Msg("starting gemtable client")

	services, err := setupServices(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := services.Client.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("stored session could not be restored")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Inspector.Enabled {
		server := setupInspector(cfg, services)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}
	g.Go(func() error {
		return watchViews(gctx, services)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("client stopped with error")
	}
	log.Info().Msg("gemtable client shutdown complete")
}

// watchViews logs status changes until ctx is done.
func watchViews(ctx context.Context, services *Services) error {
	views, cancel := services.Client.Subscribe()
	defer cancel()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if v.Status == last {
				continue
			}
			last = v.Status
			log.Info().
				Str("status", v.Status).
				Str("state", string(v.Connection)).
				Int("countdown", v.TurnCountdown).
				Msg("view updated")
		}
	}
}
