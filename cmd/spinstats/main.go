// Command spinstats runs one update of the WKNC spin statistics site. Inside
// AWS Lambda it registers the invocation handler; anywhere else it runs the
// pipeline once and exits.
package main

import (
	"context"
	"fmt"
	"os"

	// The API client needs US/Eastern; Lambda images ship no tzdata.
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/blob"
	"github.com/wkncstats/spinstats/internal/config"
	"github.com/wkncstats/spinstats/internal/pipeline"
	"github.com/wkncstats/spinstats/internal/site"
	"github.com/wkncstats/spinstats/internal/store"
	"github.com/wkncstats/spinstats/internal/wknc"
)

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handle)
		return
	}

	if _, err := handle(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// handle runs one pipeline invocation, building all components fresh so a
// warm Lambda container never carries state between runs.
func handle(ctx context.Context) (*pipeline.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	driver, err := buildDriver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	result, err := driver.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return nil, err
	}
	logger.Info().Int("total_spins", result.TotalSpins).Msg("run complete")
	return result, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	logger := zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
	return logger, nil
}

func buildDriver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pipeline.Driver, error) {
	var blobStore blob.Store
	switch cfg.BlobBackend {
	case config.BackendFS:
		blobStore = blob.NewFS(cfg.BlobFSRoot)
		logger.Info().Str("root", cfg.BlobFSRoot).Msg("using filesystem blob store")
	default:
		s3Store, err := blob.NewS3(ctx)
		if err != nil {
			return nil, err
		}
		blobStore = s3Store
	}

	source, err := wknc.New(logger, wknc.WithPageDelay(cfg.RequestDelay))
	if err != nil {
		return nil, err
	}

	publisher, err := site.New(blobStore, cfg.WebsiteBucket, cfg.WebsiteKey, logger)
	if err != nil {
		return nil, err
	}

	spinStore := store.New(blobStore, cfg.DataBucket, cfg.DataKey, logger)
	return pipeline.New(spinStore, source, publisher, logger), nil
}
