// Package estimator maps calendar dates to block heights by linear
// extrapolation from a pinned chain reference.
package estimator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"time-release-helper/internal/models"
)

// UnlockHour is the UTC hour of the day after the chosen date at which funds unlock
const UnlockHour = 12

// NormalizeDate returns 12:00 UTC of the day after the given date
func NormalizeDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day+1, UnlockHour, 0, 0, 0, time.UTC)
}

// BlockAt extrapolates the block height reached at instant, rounding half up.
// Instants before the reference produce heights below it, floored at zero.
func BlockAt(ref models.ChainReference, instant time.Time) uint64 {
	elapsed := instant.Sub(ref.Timestamp)
	blocks := math.Floor(float64(elapsed)/float64(ref.BlockInterval) + 0.5)

	height := float64(ref.BlockHeight) + blocks
	if height < 0 {
		return 0
	}
	return uint64(height)
}

// EstimateBlock resolves a calendar date to the block at which a lock expires
func EstimateBlock(year int, month time.Month, day int, ref models.ChainReference, now time.Time) (uint64, error) {
	if err := ref.Validate(); err != nil {
		return 0, fmt.Errorf("invalid chain reference: %w", err)
	}

	nowUTC := now.UTC()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return 0, fmt.Errorf("%w: %s is before %s", models.ErrStaleOrPastUnlockDate,
			date.Format(time.DateOnly), today.Format(time.DateOnly))
	}

	target := NormalizeDate(year, month, day)
	if !target.After(now) {
		return 0, fmt.Errorf("%w: %s is not after %s", models.ErrStaleOrPastUnlockDate,
			target.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}

	block := BlockAt(ref, target)
	if block <= ref.BlockHeight {
		return 0, fmt.Errorf("%w: block %d is not after reference block %d",
			models.ErrStaleOrPastUnlockDate, block, ref.BlockHeight)
	}

	return block, nil
}

// Registry holds the chain reference for each SS58 prefix
type Registry struct {
	mu   sync.RWMutex
	refs map[uint16]models.ChainReference
}

// NewRegistry creates a registry from prefix-keyed references
func NewRegistry(refs map[uint16]models.ChainReference) *Registry {
	r := &Registry{refs: make(map[uint16]models.ChainReference, len(refs))}
	for prefix, ref := range refs {
		r.refs[prefix] = ref
	}
	return r
}

// Lookup returns the reference for a prefix
func (r *Registry) Lookup(prefix uint16) (models.ChainReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.refs[prefix]
	if !ok {
		return models.ChainReference{}, fmt.Errorf("%w: prefix %d", models.ErrUnsupportedChain, prefix)
	}
	return ref, nil
}

// Set replaces the reference for a prefix, e.g. after a live refresh
func (r *Registry) Set(prefix uint16, ref models.ChainReference) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[prefix] = ref
	return nil
}

// Resolve estimates the unlock block for a date on the chain with the given prefix.
// On error the returned target carries no block.
func (r *Registry) Resolve(prefix uint16, year int, month time.Month, day int, now time.Time) (models.UnlockTarget, error) {
	target := models.UnlockTarget{Year: year, Month: month, Day: day}

	ref, err := r.Lookup(prefix)
	if err != nil {
		return target, err
	}

	block, err := EstimateBlock(year, month, day, ref, now)
	if err != nil {
		return target, err
	}

	target.ResolvedBlock = &block
	return target, nil
}
