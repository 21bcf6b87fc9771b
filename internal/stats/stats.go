// Package stats computes leaderboard rankings from the spin history.
package stats

import (
	"sort"
	"time"

	"github.com/wkncstats/spinstats/internal/spin"
)

// Ranking sizes.
const (
	TopArtistCount = 10
	TopSongCount   = 10
	TrendingCount  = 5
)

// trendingHalfWindow splits the history for trend scoring: spins after
// mostRecentStart minus this window count for an artist, older spins against.
const trendingHalfWindow = 15 * 24 * time.Hour

// Entry is one ranked artist row.
type Entry struct {
	Name  string
	Count int
}

// SongEntry is one ranked song row.
type SongEntry struct {
	Song   string
	Artist string
	Count  int
}

// Report holds all three rankings for rendering.
type Report struct {
	TrendingArtists []Entry
	TopArtists      []Entry
	TopSongs        []SongEntry
}

// Compute builds the full report from a history snapshot. Returns
// spin.ErrEmptyHistory when the history holds no spins, since no trend
// midpoint is definable.
func Compute(history *spin.History) (*Report, error) {
	trending, err := Trending(history, TrendingCount)
	if err != nil {
		return nil, err
	}
	return &Report{
		TrendingArtists: trending,
		TopArtists:      TopArtists(history, TopArtistCount),
		TopSongs:        TopSongs(history, TopSongCount),
	}, nil
}

// TopArtists ranks artists by spin count, descending, returning at most k
// rows. Artists with equal counts keep their first-encountered order.
func TopArtists(history *spin.History, k int) []Entry {
	counts := make(map[string]int)
	var order []string
	for _, s := range history.Records() {
		if _, seen := counts[s.Artist]; !seen {
			order = append(order, s.Artist)
		}
		counts[s.Artist]++
	}
	return rank(order, counts, k)
}

// TopSongs ranks songs by spin count, descending, returning at most k rows.
// A song is identified by its artist and title together.
func TopSongs(history *spin.History, k int) []SongEntry {
	type songKey struct {
		artist string
		song   string
	}
	counts := make(map[songKey]int)
	var order []songKey
	for _, s := range history.Records() {
		key := songKey{artist: s.Artist, song: s.Song}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	entries := make([]SongEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, SongEntry{Song: key.song, Artist: key.artist, Count: counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// Trending scores each artist by recent momentum: +1 for every spin after
// the midpoint (most recent start minus 15 days), -1 for every spin at or
// before it. Returns at most k rows, descending by score. Returns
// spin.ErrEmptyHistory when the history is empty.
func Trending(history *spin.History, k int) ([]Entry, error) {
	mostRecent, err := history.MostRecentStart()
	if err != nil {
		return nil, err
	}
	midpoint := mostRecent.Add(-trendingHalfWindow)

	scores := make(map[string]int)
	var order []string
	for _, s := range history.Records() {
		if _, seen := scores[s.Artist]; !seen {
			order = append(order, s.Artist)
		}
		if s.Start.After(midpoint) {
			scores[s.Artist]++
		} else {
			scores[s.Artist]--
		}
	}
	return rank(order, scores, k), nil
}

// rank orders names by score descending, preserving the given order among
// equal scores, and truncates to k rows.
func rank(order []string, scores map[string]int, k int) []Entry {
	entries := make([]Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, Entry{Name: name, Count: scores[name]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
