// Package spin holds the play-event domain model: individual spins and the
// rolling 30-day history they accumulate into.
package spin

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Spin is one play event reported by the station.
type Spin struct {
	ID     string    `json:"id"`
	Artist string    `json:"artist"`
	Song   string    `json:"song"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// History is the rolling dataset of spins, keyed by spin ID. Iteration order
// is first-encountered order, which keeps ranking tie-breaks deterministic.
type History struct {
	spins map[string]Spin
	order []string
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{spins: make(map[string]Spin)}
}

// Len returns the number of spins in the history.
func (h *History) Len() int {
	return len(h.spins)
}

// Empty reports whether the history holds no spins.
func (h *History) Empty() bool {
	return len(h.spins) == 0
}

// Get returns the spin with the given ID, if present.
func (h *History) Get(id string) (Spin, bool) {
	s, ok := h.spins[id]
	return s, ok
}

// Add inserts a spin unless its ID is already present. The first spin seen
// for an ID wins; later arrivals are ignored. Reports whether the spin was
// inserted.
func (h *History) Add(s Spin) bool {
	if _, ok := h.spins[s.ID]; ok {
		return false
	}
	h.spins[s.ID] = s
	h.order = append(h.order, s.ID)
	return true
}

// Merge inserts each spin via Add and returns the number actually inserted.
func (h *History) Merge(spins []Spin) int {
	inserted := 0
	for _, s := range spins {
		if h.Add(s) {
			inserted++
		}
	}
	return inserted
}

// Purge removes every spin whose start is at or before boundary and returns
// the number removed. Retained spins keep their relative order.
func (h *History) Purge(boundary time.Time) int {
	kept := h.order[:0]
	removed := 0
	for _, id := range h.order {
		if h.spins[id].Start.After(boundary) {
			kept = append(kept, id)
			continue
		}
		delete(h.spins, id)
		removed++
	}
	h.order = kept
	return removed
}

// MostRecentStart returns the latest start time across all spins. Returns
// ErrEmptyHistory when no spins exist.
func (h *History) MostRecentStart() (time.Time, error) {
	if h.Empty() {
		return time.Time{}, ErrEmptyHistory
	}
	var latest time.Time
	for _, id := range h.order {
		if start := h.spins[id].Start; start.After(latest) {
			latest = start
		}
	}
	return latest, nil
}

// Records returns the spins in first-encountered order. The returned slice
// is a copy; mutating it does not affect the history.
func (h *History) Records() []Spin {
	out := make([]Spin, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.spins[id])
	}
	return out
}

// historyJSON is the persisted shape: a single object keyed by spin ID.
type historyJSON struct {
	Spins map[string]Spin `json:"spins"`
}

// MarshalJSON serializes the history as {"spins": {"<id>": {...}}}.
func (h *History) MarshalJSON() ([]byte, error) {
	spins := h.spins
	if spins == nil {
		spins = map[string]Spin{}
	}
	return json.Marshal(historyJSON{Spins: spins})
}

// UnmarshalJSON restores a history from its persisted form. JSON objects
// carry no order, so iteration order is rebuilt chronologically (start time,
// then ID).
func (h *History) UnmarshalJSON(data []byte) error {
	var wire historyJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding spin history: %w", err)
	}

	h.spins = make(map[string]Spin, len(wire.Spins))
	h.order = make([]string, 0, len(wire.Spins))
	for id, s := range wire.Spins {
		if s.ID == "" {
			s.ID = id
		}
		h.spins[id] = s
		h.order = append(h.order, id)
	}
	sort.Slice(h.order, func(i, j int) bool {
		a, b := h.spins[h.order[i]], h.spins[h.order[j]]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	return nil
}
