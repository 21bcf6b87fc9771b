// Package store persists the rolling spin history to a blob backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/blob"
	"github.com/wkncstats/spinstats/internal/spin"
)

// datasetContentType labels the persisted history object.
const datasetContentType = "application/json"

// Store owns the load/save lifecycle of the spin history against one blob.
type Store struct {
	blob   blob.Store
	bucket string
	key    string
	log    zerolog.Logger
}

// New creates a store for the history object at bucket/key.
func New(b blob.Store, bucket, key string, log zerolog.Logger) *Store {
	return &Store{blob: b, bucket: bucket, key: key, log: log}
}

// Load reads the persisted history. A missing or undecodable object is
// recovered as an empty history with a logged warning; the run starts fresh
// rather than failing.
func (s *Store) Load(ctx context.Context) *spin.History {
	s.log.Info().Str("bucket", s.bucket).Str("key", s.key).Msg("loading spin history")

	body, err := s.blob.Get(ctx, s.bucket, s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not load spin history, starting empty")
		return spin.NewHistory()
	}

	history := spin.NewHistory()
	if err := json.Unmarshal(body, history); err != nil {
		s.log.Warn().Err(err).Msg("could not decode spin history, starting empty")
		return spin.NewHistory()
	}

	s.log.Info().Int("spins", history.Len()).Msg("loaded spin history")
	return history
}

// Save serializes the full history and overwrites the persisted object.
func (s *Store) Save(ctx context.Context, history *spin.History) error {
	s.log.Info().Msg("writing spin history")

	body, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding spin history: %w", err)
	}
	if err := s.blob.Put(ctx, s.bucket, s.key, body, datasetContentType); err != nil {
		return fmt.Errorf("saving spin history: %w", err)
	}

	s.log.Info().Int("spins", history.Len()).Msg("wrote spin history")
	return nil
}
