package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

// Operation names reported to the Recorder.
const (
	OpCostPerWear     = "calculate_cost_per_wear"
	OpCreateChallenge = "create_challenge"
	OpMarkItemWorn    = "mark_item_worn"
	OpRecommendation  = "generate_recommendation"
	OpMonthlyMetrics  = "generate_monthly_metrics"
)

// Engine exposes the analytics operations over a shared ledger and clock.
// The calculators share no mutable state, so an Engine is safe for
// concurrent use.
type Engine struct {
	valuation  *ValuationCalculator
	challenges *ChallengeBuilder
	matcher    *SimilarityMatcher
	trends     *TrendAggregator
	recorder   Recorder
}

// NewEngine creates an engine with the default policy.
func NewEngine(deps Deps) (*Engine, error) {
	return NewEngineWithConfig(deps, DefaultConfig())
}

// NewEngineWithConfig creates an engine with a custom policy.
func NewEngineWithConfig(deps Deps, cfg Config) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	deps = deps.withDefaults()
	return &Engine{
		valuation:  NewValuationCalculator(deps, cfg),
		challenges: NewChallengeBuilder(deps, cfg),
		matcher:    NewSimilarityMatcher(deps, cfg),
		trends:     NewTrendAggregator(deps, cfg),
		recorder:   deps.Recorder,
	}, nil
}

// track starts timing an operation; the returned func reports its outcome.
// Durations use the wall clock, not the injected one.
func (e *Engine) track(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		e.recorder.ObserveOperation(operation, err, time.Since(start))
	}
}

// CalculateCostPerWear values one item.
func (e *Engine) CalculateCostPerWear(ctx context.Context, itemID string) (*model.CostPerWearResult, error) {
	done := e.track(OpCostPerWear)
	result, err := e.valuation.CalculateCostPerWear(ctx, itemID)
	done(err)
	return result, err
}

// CreateChallenge returns the user's active challenge or starts a new one.
func (e *Engine) CreateChallenge(ctx context.Context, userID string, challengeType model.ChallengeType) (*model.RediscoveryChallenge, error) {
	done := e.track(OpCreateChallenge)
	result, err := e.challenges.CreateChallenge(ctx, userID, challengeType)
	done(err)
	return result, err
}

// MarkItemWorn counts an item toward a challenge.
func (e *Engine) MarkItemWorn(ctx context.Context, challengeID, itemID string) (*model.RediscoveryChallenge, error) {
	done := e.track(OpMarkItemWorn)
	result, err := e.challenges.MarkItemWorn(ctx, challengeID, itemID)
	done(err)
	return result, err
}

// GenerateRecommendation finds owned substitutes for a desired purchase.
func (e *Engine) GenerateRecommendation(ctx context.Context, req RecommendationRequest) (*model.ShopYourClosetRecommendation, error) {
	done := e.track(OpRecommendation)
	result, err := e.matcher.GenerateRecommendation(ctx, req)
	done(err)
	return result, err
}

// GenerateMonthlyConfidenceMetrics reports on a calendar month.
func (e *Engine) GenerateMonthlyConfidenceMetrics(ctx context.Context, userID string, month time.Month, year int) (*model.MonthlyConfidenceMetrics, error) {
	done := e.track(OpMonthlyMetrics)
	result, err := e.trends.GenerateMonthlyConfidenceMetrics(ctx, userID, month, year)
	done(err)
	return result, err
}
