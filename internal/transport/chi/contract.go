package chi

import (
	"context"

	domusage "github.com/kailas-cloud/petmatch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/petmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
)

// MatchService runs trait matches.
type MatchService interface {
	Match(ctx context.Context, req matchuc.Request) (matchuc.Result, error)
}

// RandomService picks a random adoptable pet.
type RandomService interface {
	Pick(ctx context.Context) (randomuc.Result, error)
}

// UsageService reports vision budget usage.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthService checks dependencies.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
