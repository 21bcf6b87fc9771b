// Package pipeline orchestrates one full update run: load the persisted
// history, purge expired spins, fetch the gap from the station API, merge,
// persist, compute rankings, and republish the page.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/spin"
	"github.com/wkncstats/spinstats/internal/stats"
	"github.com/wkncstats/spinstats/internal/store"
)

// DefaultRetention is the rolling window the dataset keeps.
const DefaultRetention = 30 * 24 * time.Hour

// SpinSource fetches spins whose start falls within [start, end).
type SpinSource interface {
	FetchSpins(ctx context.Context, start, end time.Time) ([]spin.Spin, error)
}

// Publisher renders and publishes a stats report.
type Publisher interface {
	Publish(ctx context.Context, report *stats.Report) error
}

// Result summarizes a completed run.
type Result struct {
	StatusCode int `json:"statusCode"`

	SpinsPurged  int `json:"-"`
	SpinsFetched int `json:"-"`
	SpinsMerged  int `json:"-"`
	TotalSpins   int `json:"-"`
}

// Driver runs the update pipeline once per invocation.
type Driver struct {
	store     *store.Store
	source    SpinSource
	publisher Publisher
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithRetention overrides the rolling retention window.
func WithRetention(d time.Duration) Option {
	return func(dr *Driver) {
		dr.retention = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(dr *Driver) {
		dr.now = now
	}
}

// New creates a pipeline driver.
func New(st *store.Store, source SpinSource, publisher Publisher, log zerolog.Logger, opts ...Option) *Driver {
	d := &Driver{
		store:     st,
		source:    source,
		publisher: publisher,
		retention: DefaultRetention,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one pipeline invocation. Any failure past the durable save is
// still a failed run; there is no partial-success state worth reporting.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	history := d.store.Load(ctx)

	now := d.now().UTC()
	boundary := now.Add(-d.retention)

	purged := history.Purge(boundary)
	d.log.Info().Int("removed", purged).Msg("purged old spins")

	// Resume from the newest spin we already hold; a fresh dataset starts at
	// the retention boundary instead.
	fetchStart := boundary
	if !history.Empty() {
		mostRecent, err := history.MostRecentStart()
		if err != nil {
			return nil, fmt.Errorf("finding most recent spin: %w", err)
		}
		fetchStart = mostRecent
	}

	fetched, err := d.source.FetchSpins(ctx, fetchStart, now)
	if err != nil {
		return nil, fmt.Errorf("fetching spins: %w", err)
	}

	merged := history.Merge(fetched)
	d.log.Info().
		Int("fetched", len(fetched)).
		Int("merged", merged).
		Int("total", history.Len()).
		Msg("merged new spins")

	if err := d.store.Save(ctx, history); err != nil {
		return nil, err
	}

	report, err := stats.Compute(history)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}

	if err := d.publisher.Publish(ctx, report); err != nil {
		return nil, err
	}

	return &Result{
		StatusCode:   http.StatusOK,
		SpinsPurged:  purged,
		SpinsFetched: len(fetched),
		SpinsMerged:  merged,
		TotalSpins:   history.Len(),
	}, nil
}
