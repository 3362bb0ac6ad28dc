// Package main is the entry point for the Sonora player backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/config"
	"github.com/EricWvi/sonora-player/internal/domain/playback"
	"github.com/EricWvi/sonora-player/internal/domain/queue"
	syncer "github.com/EricWvi/sonora-player/internal/domain/sync"
	"github.com/EricWvi/sonora-player/internal/infra/beepaudio"
	"github.com/EricWvi/sonora-player/internal/infra/remote"
	"github.com/EricWvi/sonora-player/internal/infra/store"
	"github.com/EricWvi/sonora-player/internal/transport/httpapi"
	"github.com/EricWvi/sonora-player/internal/version"
)

func main() {
	cfg := config.Load()

	// Command line flags override the environment
	catalogURL := flag.String("catalog", cfg.CatalogURL, "Base URL of the catalog server")
	listenAddr := flag.String("addr", cfg.ListenAddr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "Path to the local cache database")
	staticDir := flag.String("static", cfg.StaticDir, "Directory to serve the web UI from (optional)")
	debug := flag.Bool("debug", cfg.Debug, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Offline-First Music Player Backend")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("addr", *listenAddr).
		Str("catalog", *catalogURL).
		Str("db", *dbPath).
		Bool("audio", beepaudio.AudioAvailable).
		Msg("Configuration")

	// Open the local cache
	db := store.NewDB(*dbPath)
	if err := db.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer db.Close()

	st := store.New(db)

	// Catalog client and sync engine
	client := remote.NewClient(*catalogURL, remote.WithRetries(cfg.SyncRetries))
	syncEngine := syncer.NewEngine(st, client, syncer.WithStaleThreshold(cfg.StaleThreshold))

	// Playback stack
	opener := beepaudio.NewOpener(*catalogURL)
	player := playback.NewEngine(opener)
	controller := queue.NewController(player)

	// HTTP server
	apiOpts := []httpapi.Option{httpapi.WithCatalogWriter(client)}
	if *staticDir != "" {
		log.Info().Str("dir", *staticDir).Msg("Serving static files")
		apiOpts = append(apiOpts, httpapi.WithStaticDir(*staticDir))
	}
	api := httpapi.NewServer(st, syncEngine, controller, apiOpts...)

	server := &http.Server{
		Addr:         *listenAddr,
		Handler:      api,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bring the cache up to date without blocking startup; the UI reads
	// whatever is already cached in the meantime.
	go func() {
		if err := syncEngine.Initialize(ctx); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, serving cached data")
		}
	}()

	go func() {
		log.Info().Str("addr", *listenAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
