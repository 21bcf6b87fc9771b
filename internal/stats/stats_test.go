package stats

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkncstats/spinstats/internal/spin"
)

var testBase = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type playEvent struct {
	artist string
	song   string
	start  time.Time
}

// buildHistory turns play events into a history with sequential ids,
// preserving the given order.
func buildHistory(t *testing.T, events []playEvent) *spin.History {
	t.Helper()
	h := spin.NewHistory()
	for i, e := range events {
		added := h.Add(spin.Spin{
			ID:     fmt.Sprintf("%d", i),
			Artist: e.artist,
			Song:   e.song,
			Start:  e.start,
			End:    e.start.Add(3 * time.Minute),
		})
		require.True(t, added)
	}
	return h
}

func repeatPlays(artist, song string, n int, start time.Time) []playEvent {
	events := make([]playEvent, n)
	for i := range events {
		events[i] = playEvent{artist: artist, song: song, start: start.Add(time.Duration(i) * time.Minute)}
	}
	return events
}

func TestTopArtists(t *testing.T) {
	var events []playEvent
	events = append(events, repeatPlays("Alvvays", "Pharmacist", 4, testBase)...)
	events = append(events, repeatPlays("Wednesday", "Bull Believer", 2, testBase)...)
	events = append(events, repeatPlays("Hotline TNT", "Protocol", 6, testBase)...)

	h := buildHistory(t, events)
	got := TopArtists(h, 10)

	want := []Entry{
		{Name: "Hotline TNT", Count: 6},
		{Name: "Alvvays", Count: 4},
		{Name: "Wednesday", Count: 2},
	}
	assert.Equal(t, want, got)
}

func TestTopArtistsTieBreakIsFirstEncountered(t *testing.T) {
	var events []playEvent
	events = append(events, repeatPlays("First Seen", "A", 3, testBase)...)
	events = append(events, repeatPlays("Second Seen", "B", 3, testBase)...)
	events = append(events, repeatPlays("Third Seen", "C", 3, testBase)...)

	h := buildHistory(t, events)
	got := TopArtists(h, 10)

	require.Len(t, got, 3)
	assert.Equal(t, "First Seen", got[0].Name)
	assert.Equal(t, "Second Seen", got[1].Name)
	assert.Equal(t, "Third Seen", got[2].Name)
}

func TestTopArtistsTruncatesToK(t *testing.T) {
	var events []playEvent
	for i := 0; i < 15; i++ {
		events = append(events, repeatPlays(fmt.Sprintf("Artist %02d", i), "Song", 15-i, testBase)...)
	}

	h := buildHistory(t, events)
	got := TopArtists(h, 10)

	require.Len(t, got, 10)
	assert.Equal(t, "Artist 00", got[0].Name)
	assert.Equal(t, 15, got[0].Count)
}

func TestTopSongsKeyedByArtistAndTitle(t *testing.T) {
	var events []playEvent
	// Same title by two artists must rank separately.
	events = append(events, repeatPlays("Nirvana", "Come As You Are", 3, testBase)...)
	events = append(events, repeatPlays("Cover Band", "Come As You Are", 1, testBase)...)
	events = append(events, repeatPlays("Alvvays", "Belinda Says", 2, testBase)...)

	h := buildHistory(t, events)
	got := TopSongs(h, 10)

	want := []SongEntry{
		{Song: "Come As You Are", Artist: "Nirvana", Count: 3},
		{Song: "Belinda Says", Artist: "Alvvays", Count: 2},
		{Song: "Come As You Are", Artist: "Cover Band", Count: 1},
	}
	assert.Equal(t, want, got)
}

func TestTrendingScore(t *testing.T) {
	// Midpoint is mostRecentStart - 15 days. Give one artist 5 plays after
	// and 2 at or before; the score must be exactly 3.
	recent := testBase
	old := testBase.Add(-20 * 24 * time.Hour)

	var events []playEvent
	events = append(events, repeatPlays("Rising Star", "Hit", 5, recent.Add(-time.Hour))...)
	events = append(events, repeatPlays("Rising Star", "Old Cut", 2, old)...)
	// Anchor the most recent start.
	events = append(events, playEvent{artist: "Anchor", song: "Now", start: recent})

	h := buildHistory(t, events)
	got, err := Trending(h, 5)
	require.NoError(t, err)

	var rising *Entry
	for i := range got {
		if got[i].Name == "Rising Star" {
			rising = &got[i]
		}
	}
	require.NotNil(t, rising, "Rising Star missing from trending")
	assert.Equal(t, 3, rising.Count)
}

func TestTrendingRanksByScoreDescending(t *testing.T) {
	recent := testBase
	old := testBase.Add(-20 * 24 * time.Hour)

	var events []playEvent
	events = append(events, repeatPlays("All Recent", "A", 4, recent.Add(-time.Hour))...)
	events = append(events, repeatPlays("All Old", "B", 4, old)...)
	events = append(events, playEvent{artist: "Anchor", song: "Now", start: recent})

	h := buildHistory(t, events)
	got, err := Trending(h, 5)
	require.NoError(t, err)

	assert.Equal(t, "All Recent", got[0].Name)
	assert.Equal(t, 4, got[0].Count)
	assert.Equal(t, "All Old", got[len(got)-1].Name)
	assert.Equal(t, -4, got[len(got)-1].Count)
}

func TestTrendingEmptyHistory(t *testing.T) {
	_, err := Trending(spin.NewHistory(), 5)
	assert.True(t, errors.Is(err, spin.ErrEmptyHistory))

	_, err = Compute(spin.NewHistory())
	assert.True(t, errors.Is(err, spin.ErrEmptyHistory))
}

func TestComputeReport(t *testing.T) {
	var events []playEvent
	events = append(events, repeatPlays("Alvvays", "Pharmacist", 3, testBase)...)
	events = append(events, repeatPlays("Wednesday", "Chosen to Deserve", 1, testBase)...)

	h := buildHistory(t, events)
	report, err := Compute(h)
	require.NoError(t, err)

	assert.Len(t, report.TopArtists, 2)
	assert.Len(t, report.TopSongs, 2)
	assert.NotEmpty(t, report.TrendingArtists)
	assert.Equal(t, "Alvvays", report.TopArtists[0].Name)
}
