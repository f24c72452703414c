// Package analytics turns wardrobe usage records into the metrics that
// discourage unnecessary purchases: cost-per-wear, rediscovery challenges,
// shop-your-closet matches and monthly confidence trends.
package analytics

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// Recorder observes engine operations. The metrics package provides the
// Prometheus-backed implementation.
type Recorder interface {
	ObserveOperation(operation string, err error, elapsed time.Duration)
	ObserveConflict()
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error, time.Duration) {}
func (nopRecorder) ObserveConflict() {}

// Deps contains the collaborators shared by every calculator.
type Deps struct {
	// Ledger provides items, wear history, ratings and challenge records.
	Ledger service.Ledger
	// Clock supplies "now". Defaults to the system clock.
	Clock service.Clock
	// Recorder receives operation outcomes. Optional.
	Recorder Recorder
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Ledger == nil {
		return fmt.Errorf("ledger dependency is required")
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = service.SystemClock{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	return d
}

// Config holds the policy constants of the calculators.
type Config struct {
	// Location decides calendar month boundaries.
	Location *time.Location
	// ChallengeDuration is how long a challenge stays open.
	ChallengeDuration time.Duration
	// HorizonDays is the projection horizon for cost-per-wear, counted from purchase.
	HorizonDays int
	// ChallengeSize is the number of target items a challenge aims for.
	ChallengeSize int
	// MaxMatches caps the similar items returned by a recommendation.
	MaxMatches int
	// TopItems is the length of the most and least confident item lists.
	TopItems int
	// BaselineMonths is the trailing window for shopping and cost-per-wear trends.
	BaselineMonths int
	// ConflictAttempts bounds the compare-and-swap retries in MarkItemWorn.
	ConflictAttempts int

	ColorWeight    float64
	StyleWeight    float64
	UnderuseWeight float64
	// NeutralBaseline is the score of a color or style term that was not requested.
	NeutralBaseline float64
	// MatchThreshold is the score a candidate must exceed to be recommended.
	MatchThreshold float64
	// ReasoningThreshold is the term score at or above which a reason is reported.
	ReasoningThreshold float64
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		Location:           time.UTC,
		ChallengeDuration:  14 * 24 * time.Hour,
		HorizonDays:        365,
		ChallengeSize:      5,
		MaxMatches:         6,
		TopItems:           5,
		BaselineMonths:     3,
		ConflictAttempts:   3,
		ColorWeight:        0.5,
		StyleWeight:        0.3,
		UnderuseWeight:     0.2,
		NeutralBaseline:    0.5,
		MatchThreshold:     0.3,
		ReasoningThreshold: 0.5,
	}
}

// Validate checks the policy for values the calculators cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Location == nil:
		return fmt.Errorf("location is required")
	case c.ChallengeDuration <= 0:
		return fmt.Errorf("challenge duration must be positive, got %s", c.ChallengeDuration)
	case c.HorizonDays <= 0:
		return fmt.Errorf("horizon days must be positive, got %d", c.HorizonDays)
	case c.ChallengeSize <= 0:
		return fmt.Errorf("challenge size must be positive, got %d", c.ChallengeSize)
	case c.MaxMatches <= 0:
		return fmt.Errorf("max matches must be positive, got %d", c.MaxMatches)
	case c.TopItems <= 0:
		return fmt.Errorf("top items must be positive, got %d", c.TopItems)
	case c.BaselineMonths <= 0:
		return fmt.Errorf("baseline months must be positive, got %d", c.BaselineMonths)
	case c.ConflictAttempts <= 0:
		return fmt.Errorf("conflict attempts must be positive, got %d", c.ConflictAttempts)
	case c.ColorWeight < 0 || c.StyleWeight < 0 || c.UnderuseWeight < 0:
		return fmt.Errorf("similarity weights cannot be negative")
	case c.ColorWeight+c.StyleWeight+c.UnderuseWeight == 0:
		return fmt.Errorf("at least one similarity weight must be positive")
	}
	for name, v := range map[string]float64{
		"neutral baseline":    c.NeutralBaseline,
		"match threshold":     c.MatchThreshold,
		"reasoning threshold": c.ReasoningThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %.2f", name, v)
		}
	}
	return nil
}
