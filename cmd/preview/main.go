// Command preview runs the pipeline against a local filesystem blob store
// and serves the freshly published page, for working on the site without
// touching S3.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/blob"
	"github.com/wkncstats/spinstats/internal/config"
	"github.com/wkncstats/spinstats/internal/pipeline"
	"github.com/wkncstats/spinstats/internal/site"
	"github.com/wkncstats/spinstats/internal/store"
	"github.com/wkncstats/spinstats/internal/wknc"
)

const defaultAddr = "127.0.0.1:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()

	blobStore := blob.NewFS(cfg.BlobFSRoot)

	source, err := wknc.New(logger, wknc.WithPageDelay(cfg.RequestDelay))
	if err != nil {
		return err
	}
	publisher, err := site.New(blobStore, cfg.WebsiteBucket, cfg.WebsiteKey, logger)
	if err != nil {
		return err
	}
	spinStore := store.New(blobStore, cfg.DataBucket, cfg.DataKey, logger)
	driver := pipeline.New(spinStore, source, publisher, logger)

	ctx := context.Background()
	result, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	logger.Info().Int("total_spins", result.TotalSpins).Msg("pipeline complete")

	return serve(cfg, blobStore, logger)
}

// serve hosts the published page until interrupted.
func serve(cfg *config.Config, blobStore blob.Store, logger zerolog.Logger) error {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := blobStore.Get(r.Context(), cfg.WebsiteBucket, cfg.WebsiteKey)
		if err != nil {
			http.Error(w, "page not published", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	})

	addr := defaultAddr
	if v := os.Getenv("PREVIEW_ADDR"); v != "" {
		addr = v
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("preview server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logger.Info().Msg("shutting down preview server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
