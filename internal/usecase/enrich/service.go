// Package enrich fills in shelter names and descriptions for matched listings.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/logger"
	"github.com/kailas-cloud/petmatch/internal/metrics"
)

// Service enriches listings concurrently on a bounded worker pool.
type Service struct {
	pool      *ants.Pool
	orgs      OrganizationLookup
	describer Describer
	logger    *zap.Logger
}

// New creates an enrichment service. orgs and describer may be nil to skip that step.
func New(poolSize int, orgs OrganizationLookup, describer Describer, log *zap.Logger) (*Service, error) {
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create enrichment pool: %w", err)
	}
	return &Service{pool: pool, orgs: orgs, describer: describer, logger: log}, nil
}

// Release stops the worker pool. The service must not be used afterwards.
func (s *Service) Release() {
	s.pool.Release()
}

// Enrich returns a copy of listings with organization names and descriptions
// filled in where possible. Failures never fail the batch: the listing keeps
// what it had, and an empty description becomes the placeholder.
func (s *Service) Enrich(ctx context.Context, listings []listing.Listing) []listing.Listing {
	out := make([]listing.Listing, len(listings))
	copy(out, listings)

	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			s.enrichOne(ctx, &out[i])
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool closed or overloaded: do the work on the caller's goroutine.
			s.logger.Debug("Enrichment pool rejected task", zap.Error(err))
			task()
		}
	}
	wg.Wait()

	return out
}

func (s *Service) enrichOne(ctx context.Context, l *listing.Listing) {
	log := logger.FromContextOr(ctx, s.logger)

	if s.orgs != nil && l.OrganizationName == "" && l.OrganizationID != "" {
		name, err := s.orgs.OrganizationName(ctx, l.OrganizationID)
		switch {
		case err != nil:
			metrics.DegradationsTotal.WithLabelValues("enrichment").Inc()
			log.Warn("Organization lookup failed",
				zap.Int64("listing_id", l.ID),
				zap.String("organization_id", l.OrganizationID),
				zap.Error(err),
			)
		case name != "":
			l.OrganizationName = name
			l.Enriched = true
		}
	}

	if s.describer != nil && needsDescription(l.Description) {
		text, err := s.describer.Describe(ctx, *l)
		switch {
		case err != nil:
			metrics.DegradationsTotal.WithLabelValues("enrichment").Inc()
			log.Warn("Description generation failed", zap.Int64("listing_id", l.ID), zap.Error(err))
		case text != "":
			l.Description = text
			l.Enriched = true
		}
	}

	if strings.TrimSpace(l.Description) == "" {
		l.Description = listing.PlaceholderDescription
	}
}

// needsDescription reports whether the shelter text is missing or truncated
// (the directory cuts long descriptions with a trailing ellipsis).
func needsDescription(desc string) bool {
	d := strings.TrimSpace(desc)
	return d == "" || strings.HasSuffix(d, "...") || strings.HasSuffix(d, "…")
}
