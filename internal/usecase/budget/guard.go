package budget

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/metrics"
)

// Vision is the provider surface guarded by the budget.
type Vision interface {
	Extract(ctx context.Context, images []string) (string, error)
	Describe(ctx context.Context, l listing.Listing) (string, error)
}

// Checker is the local interface for budget enforcement.
type Checker interface {
	Check(ctx context.Context) error
	Record(calls int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// GuardedVision wraps a vision provider with budget enforcement and logging.
// Transport metrics (requests, duration) are recorded in the provider packages.
type GuardedVision struct {
	inner    Vision
	provider string
	model    string
	budget   Checker
	logger   *zap.Logger
}

// NewGuardedVision wraps a provider with budget and observability.
func NewGuardedVision(inner Vision, provider, model string, budget Checker, logger *zap.Logger) *GuardedVision {
	return &GuardedVision{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Extract checks the budget, delegates to the provider and records the call.
func (g *GuardedVision) Extract(ctx context.Context, images []string) (string, error) {
	if err := g.check(ctx, "extract"); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := g.inner.Extract(ctx, images)
	duration := time.Since(start)
	if err != nil {
		g.logger.Error("Trait extraction failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Int("images", len(images)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", fmt.Errorf("extract: %w", err)
	}

	g.record()
	g.logger.Debug("Trait extraction completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Int("images", len(images)),
		zap.Duration("duration", duration),
	)
	return text, nil
}

// Describe checks the budget, delegates to the provider and records the call.
func (g *GuardedVision) Describe(ctx context.Context, l listing.Listing) (string, error) {
	if err := g.check(ctx, "describe"); err != nil {
		return "", err
	}

	text, err := g.inner.Describe(ctx, l)
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}

	g.record()
	return text, nil
}

func (g *GuardedVision) check(ctx context.Context, op string) error {
	if g.budget == nil {
		return nil
	}
	if err := g.budget.Check(ctx); err != nil {
		g.logger.Error("Vision budget exceeded",
			zap.String("provider", g.provider),
			zap.String("operation", op),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (g *GuardedVision) record() {
	if g.budget == nil {
		return
	}
	g.budget.Record(1)
	remaining := metrics.VisionBudgetRemaining
	remaining.WithLabelValues(g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
	remaining.WithLabelValues(g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
}
