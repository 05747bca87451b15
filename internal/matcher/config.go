// Package matcher implements the three-tier reconciliation engine that pairs
// outgoing bank transactions with write-off ledger records.
//
// The tiers apply in strict priority order, each operating only on records no
// earlier tier consumed:
//  1. Exact amount, one-to-one: an amount shared by exactly one statement row
//     and exactly one write-off row.
//  2. Equal amount plus nearest settlement date within a day tolerance.
//  3. Equal amount plus best name similarity at or above a threshold.
//
// The engine is pure and deterministic: consumed ids live in two sets local
// to one Reconcile call, distinct amounts iterate in first-occurrence order
// of the statement set, and ties break on first-encountered order. Running
// it twice on the same inputs yields identical output.
package matcher

import (
	"fmt"
)

// DefaultDateToleranceDays is the tier-2 date window in days.
const DefaultDateToleranceDays = 3

// DefaultSimilarityThreshold is the tier-3 minimum similarity score in
// percent.
const DefaultSimilarityThreshold = 85

// MatchConfig holds the engine's two tuning knobs. This is the entire
// configuration surface exposed to callers.
type MatchConfig struct {
	// DateToleranceDays is the maximum day distance tier 2 accepts between
	// the statement date and the settlement date.
	DateToleranceDays int `json:"date_tolerance_days"`

	// SimilarityThreshold is the minimum similarity score (0-100) tier 3
	// accepts between responsible names.
	SimilarityThreshold int `json:"similarity_threshold"`
}

// DefaultMatchConfig returns the default engine configuration.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		DateToleranceDays:   DefaultDateToleranceDays,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Validate validates the configuration.
func (c *MatchConfig) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance cannot be negative, got %d", c.DateToleranceDays)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be between 0 and 100, got %d", c.SimilarityThreshold)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *MatchConfig) Clone() *MatchConfig {
	clone := *c
	return &clone
}
