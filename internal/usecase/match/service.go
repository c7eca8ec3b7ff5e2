// Package match orchestrates a full match: extract traits from reference
// images, parse them into a profile, run the relaxation search and enrich
// whatever it finds.
package match

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/logger"
	"github.com/kailas-cloud/petmatch/internal/metrics"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// MaxRadiusKm is the largest search radius the directory accepts (500 miles).
const MaxRadiusKm = 804.0

// Warnings attached to degraded results.
const (
	WarnExtraction = "trait extraction failed; searching without image traits"
	WarnParse      = "extracted traits were not valid JSON; searching without image traits"
	WarnNoTraits   = "no traits recognised in the images"
)

// Request is a match request.
type Request struct {
	Images   []string
	Location geo.Point
	RadiusKm float64 // 0 = service default
}

// Result is the outcome of a match.
type Result struct {
	ID         string
	Profile    trait.Profile
	Removed    []trait.Key
	Attempts   []relax.Attempt
	Listings   []listing.Listing
	TotalCount int
	Found      bool
	Warnings   []string
}

// Service runs matches.
type Service struct {
	extractor Extractor
	relaxer   Relaxer
	enricher  Enricher
	maxImages int
	logger    *zap.Logger
}

// New creates a Service. enricher can be nil (enrichment disabled).
func New(extractor Extractor, relaxer Relaxer, enricher Enricher, maxImages int, log *zap.Logger) *Service {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &Service{
		extractor: extractor,
		relaxer:   relaxer,
		enricher:  enricher,
		maxImages: maxImages,
		logger:    log,
	}
}

// Match extracts a trait profile from the images and searches near the location.
//
// Extraction and parse failures are degraded to warnings with an empty profile;
// an exhausted vision budget and invalid input are returned as errors. No
// matches is a normal result with Found == false.
func (s *Service) Match(ctx context.Context, req Request) (Result, error) {
	log := logger.FromContextOr(ctx, s.logger)
	req.Images = cleanImages(req.Images)

	if err := s.validate(req); err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	res := Result{ID: uuid.NewString()}
	log = log.With(zap.String("match_id", res.ID))

	profile, warnings, err := s.profile(ctx, log, req.Images)
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}
	res.Profile = profile
	res.Warnings = warnings

	out, err := s.relaxer.RunWithRadius(ctx, profile, req.Location, req.RadiusKm)
	res.Removed = out.Removed
	res.Attempts = out.Attempts
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("relaxation search: %w", err)
	}
	metrics.RelaxationSteps.Observe(float64(len(out.Removed)))
	for _, a := range out.Attempts {
		if a.Err != nil {
			metrics.DegradationsTotal.WithLabelValues("search").Inc()
		}
	}

	res.TotalCount = out.TotalCount
	res.Found = out.Found
	res.Listings = out.Listings
	if res.Found && s.enricher != nil {
		res.Listings = s.enricher.Enrich(ctx, res.Listings)
	}

	outcome := "not_found"
	if res.Found {
		outcome = "found"
	}
	metrics.MatchRequestsTotal.WithLabelValues(outcome).Inc()

	log.Info("Match finished",
		zap.Bool("found", res.Found),
		zap.Int("total_count", res.TotalCount),
		zap.Int("traits", profile.Len()),
		zap.Int("removed", len(res.Removed)),
		zap.Int("attempts", len(res.Attempts)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// Profile runs extraction and parsing only, degrading failures to warnings.
func (s *Service) Profile(ctx context.Context, images []string) (trait.Profile, []string, error) {
	images = cleanImages(images)
	if err := s.validateImages(images); err != nil {
		return trait.Profile{}, nil, err
	}
	return s.profile(ctx, logger.FromContextOr(ctx, s.logger), images)
}

func (s *Service) profile(ctx context.Context, log *zap.Logger, images []string) (trait.Profile, []string, error) {
	raw, err := s.extractor.Extract(ctx, images)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetExceeded) || ctx.Err() != nil {
			return trait.Profile{}, nil, err
		}
		metrics.DegradationsTotal.WithLabelValues("extraction").Inc()
		log.Warn("Trait extraction failed, continuing with empty profile", zap.Error(err))
		return trait.Profile{}, []string{WarnExtraction}, nil
	}

	profile, err := trait.Parse(raw)
	if err != nil {
		metrics.DegradationsTotal.WithLabelValues("parse").Inc()
		log.Warn("Trait parse failed, continuing with empty profile",
			zap.String("raw", truncate(raw, 200)),
			zap.Error(err),
		)
		return trait.Profile{}, []string{WarnParse}, nil
	}

	var warnings []string
	if profile.IsEmpty() {
		warnings = append(warnings, WarnNoTraits)
	}
	warnings = append(warnings, trait.Violations(profile)...)
	return profile, warnings, nil
}

func (s *Service) validate(req Request) error {
	if err := s.validateImages(req.Images); err != nil {
		return err
	}
	if err := req.Location.Validate(); err != nil {
		return err
	}
	if req.RadiusKm < 0 || req.RadiusKm > MaxRadiusKm {
		return fmt.Errorf("%w: radius_km must be between 0 and %.0f", domain.ErrInvalidRequest, MaxRadiusKm)
	}
	return nil
}

func (s *Service) validateImages(images []string) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: at least one image url is required", domain.ErrInvalidRequest)
	}
	if len(images) > s.maxImages {
		return fmt.Errorf("%w: at most %d images are allowed", domain.ErrInvalidRequest, s.maxImages)
	}
	for i, raw := range images {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: images[%d] is not an http(s) url", domain.ErrInvalidRequest, i)
		}
	}
	return nil
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
