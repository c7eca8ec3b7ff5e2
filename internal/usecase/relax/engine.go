// Package relax implements progressive constraint relaxation over the pet directory:
// search with every trait, then drop the least important trait until something matches.
package relax

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

// Defaults for Config fields left empty.
const (
	DefaultRadiusKm = 32.0
	DefaultLimit    = 20
)

// Config holds engine settings shared by all runs.
type Config struct {
	Priority trait.Priority
	RadiusKm float64
	Limit    int
}

// Attempt records one search call.
type Attempt struct {
	Filters    map[trait.Key]string
	TotalCount int
	Err        error
}

// Outcome is the result of a relaxation run.
// Found is false when every step reported zero matches; that is not an error.
type Outcome struct {
	Listings   []listing.Listing
	TotalCount int
	Found      bool
	Removed    []trait.Key
	Attempts   []Attempt
}

// Engine runs relaxation searches. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	searcher Searcher
	priority trait.Priority
	radiusKm float64
	limit    int
	logger   *zap.Logger
}

// New creates an Engine. A nil priority selects trait.DefaultPriority.
func New(searcher Searcher, cfg Config, logger *zap.Logger) (*Engine, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	priority := cfg.Priority
	if priority == nil {
		priority = trait.DefaultPriority()
	}
	if err := priority.Validate(); err != nil {
		return nil, err
	}
	radius := cfg.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		searcher: searcher,
		priority: append(trait.Priority(nil), priority...),
		radiusKm: radius,
		limit:    limit,
		logger:   logger,
	}, nil
}

// Priority returns a copy of the removal order.
func (e *Engine) Priority() trait.Priority {
	return append(trait.Priority(nil), e.priority...)
}

// RadiusKm returns the default search radius.
func (e *Engine) RadiusKm() float64 { return e.radiusKm }

// Run searches near loc with the full profile and relaxes it trait by trait
// in priority order until the directory reports matches. The last trait in
// the priority list is never removed.
//
// A failed search counts as zero matches and relaxation continues. Removing a
// trait the profile does not have leaves the filters unchanged, so no new call
// is made for that step. Cancellation stops further calls; the partial outcome
// is returned with ctx.Err().
func (e *Engine) Run(ctx context.Context, profile trait.Profile, loc geo.Point) (Outcome, error) {
	return e.RunWithRadius(ctx, profile, loc, e.radiusKm)
}

// RunWithRadius is Run with an explicit radius. Non-positive values use the engine default.
func (e *Engine) RunWithRadius(
	ctx context.Context, profile trait.Profile, loc geo.Point, radiusKm float64,
) (Outcome, error) {
	if err := loc.Validate(); err != nil {
		return Outcome{}, err
	}
	if radiusKm <= 0 {
		radiusKm = e.radiusKm
	}

	filters := profile.Filters()
	out := Outcome{Removed: make([]trait.Key, 0, len(e.priority)-1)}

	if err := e.search(ctx, filters, loc, radiusKm, &out); err != nil {
		return out, err
	}

	for i := 0; out.TotalCount == 0 && i < len(e.priority)-1; i++ {
		t := e.priority[i]
		out.Removed = append(out.Removed, t)
		if _, ok := filters[t]; !ok {
			continue
		}
		delete(filters, t)

		e.logger.Debug("Relaxing trait",
			zap.String("trait", string(t)),
			zap.Int("remaining", len(filters)),
		)
		if err := e.search(ctx, filters, loc, radiusKm, &out); err != nil {
			return out, err
		}
	}

	out.Found = out.TotalCount > 0
	if !out.Found {
		out.Listings = nil
		e.logger.Info("No pets found after relaxing all filters",
			zap.Int("attempts", len(out.Attempts)),
		)
	}
	return out, nil
}

// search issues one directory call and records it. It only fails on cancellation.
func (e *Engine) search(
	ctx context.Context, filters map[trait.Key]string, loc geo.Point, radiusKm float64, out *Outcome,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("relaxation cancelled: %w", err)
	}

	snapshot := make(map[trait.Key]string, len(filters))
	for k, v := range filters {
		snapshot[k] = v
	}

	q := listing.Query{
		Filters:  snapshot,
		Location: &loc,
		RadiusKm: radiusKm,
		Status:   listing.StatusAdoptable,
		Limit:    e.limit,
	}

	res, err := e.searcher.Search(ctx, q)
	attempt := Attempt{Filters: snapshot}
	if err != nil {
		e.logger.Warn("Directory search failed, counting as no matches",
			zap.Int("filters", len(snapshot)),
			zap.Error(err),
		)
		attempt.Err = fmt.Errorf("%w: %w", domain.ErrDirectory, err)
		res = listing.Result{}
	}
	attempt.TotalCount = res.TotalCount

	out.Attempts = append(out.Attempts, attempt)
	out.TotalCount = res.TotalCount
	out.Listings = res.Listings
	return nil
}
