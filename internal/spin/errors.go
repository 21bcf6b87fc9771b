package spin

import "errors"

// Common errors.
var (
	// ErrEmptyHistory is returned by queries that need at least one spin.
	ErrEmptyHistory = errors.New("no spins exist")
)
