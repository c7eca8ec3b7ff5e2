// Package random picks a random adoptable pet with a photo and suggests the
// trait profile a vision model reads from that photo.
package random

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/logger"
)

// Search parameters for random discovery.
const (
	MaxAttempts = 5
	PageLimit   = 10
	MaxPage     = 5
	SortRandom  = "random"
)

// Result is a randomly chosen listing and its suggested profile.
type Result struct {
	Listing  listing.Listing
	Profile  trait.Profile
	Warnings []string
	Attempts int
	Found    bool
}

// Service finds random pets.
type Service struct {
	searcher Searcher
	profiler Profiler
	page     func() int
	logger   *zap.Logger
}

// New creates a Service. profiler can be nil to skip the suggestion.
func New(searcher Searcher, profiler Profiler, log *zap.Logger) *Service {
	return &Service{
		searcher: searcher,
		profiler: profiler,
		page:     func() int { return rand.IntN(MaxPage) + 1 },
		logger:   log,
	}
}

// Pick searches random pages of adoptable pets until one with a photo turns
// up, for at most MaxAttempts searches. Failed searches count as attempts.
// Found is false when every attempt came back without a photographed pet.
func (s *Service) Pick(ctx context.Context) (Result, error) {
	log := logger.FromContextOr(ctx, s.logger)
	var res Result

	for res.Attempts < MaxAttempts {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("random pick cancelled: %w", err)
		}
		res.Attempts++

		q := listing.Query{
			Status:    listing.StatusAdoptable,
			Limit:     PageLimit,
			Page:      s.page(),
			Sort:      SortRandom,
			HasPhotos: true,
		}
		found, err := s.searcher.Search(ctx, q)
		if err != nil {
			log.Warn("Random search failed", zap.Int("attempt", res.Attempts), zap.Error(err))
			continue
		}

		l, ok := firstWithPhoto(found.Listings)
		if !ok {
			log.Debug("No listing with photos on page",
				zap.Int("attempt", res.Attempts),
				zap.Int("page", q.Page),
				zap.Int("listings", len(found.Listings)),
			)
			continue
		}

		res.Listing = l
		res.Found = true
		break
	}

	if !res.Found {
		log.Info("No pet with photos found", zap.Int("attempts", res.Attempts))
		return res, nil
	}

	if s.profiler != nil {
		profile, warnings, err := s.profiler.Profile(ctx, []string{res.Listing.PrimaryPhoto()})
		if err != nil {
			return res, fmt.Errorf("suggest profile: %w", err)
		}
		res.Profile = profile
		res.Warnings = warnings
	}

	log.Info("Random pet picked",
		zap.Int64("listing_id", res.Listing.ID),
		zap.Int("attempts", res.Attempts),
		zap.Int("traits", res.Profile.Len()),
	)
	return res, nil
}

func firstWithPhoto(listings []listing.Listing) (listing.Listing, bool) {
	for i := range listings {
		if listings[i].PrimaryPhoto() != "" {
			return listings[i], true
		}
	}
	return listing.Listing{}, false
}
