package petmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/petmatch/internal/db/redis"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	domusage "github.com/kailas-cloud/petmatch/internal/domain/usage"
	"github.com/kailas-cloud/petmatch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/petmatch/internal/repository/budget"
	"github.com/kailas-cloud/petmatch/internal/repository/enrichcache"
	"github.com/kailas-cloud/petmatch/internal/transport/gemini"
	"github.com/kailas-cloud/petmatch/internal/transport/openai"
	"github.com/kailas-cloud/petmatch/internal/transport/petfinder"
	budgetuc "github.com/kailas-cloud/petmatch/internal/usecase/budget"
	enrichuc "github.com/kailas-cloud/petmatch/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/petmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
	usageuc "github.com/kailas-cloud/petmatch/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultPetfinderURL     = "https://api.petfinder.com/v2"
	defaultCacheTTL         = 24 * time.Hour
	cacheKeyPrefix          = "petmatch:"
)

// Internal interfaces for substitution in tests.
type matchUseCase interface {
	Match(ctx context.Context, req matchuc.Request) (matchuc.Result, error)
}

type randomUseCase interface {
	Pick(ctx context.Context) (randomuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// Client is the petmatch SDK entry point. Safe for concurrent use.
type Client struct {
	matchSvc  matchUseCase
	randomSvc randomUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	closers   []func()
	obs       *observer
}

// New creates a Client. WithPetfinder and a vision provider (WithGemini,
// WithOpenAI or WithExtractor) are required. When WithRedis is set the
// provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.petfinderID == "" {
		return nil, errors.New("petmatch: petfinder credentials required (use WithPetfinder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	if err := c.wire(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg *clientConfig) error {
	log := zap.NewNop()

	var store *dbRedis.Store
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.cacheAddrs, Password: cfg.cachePassword})
		if err != nil {
			return fmt.Errorf("petmatch: create redis store: %w", err)
		}
		c.closers = append(c.closers, s.Close)
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return fmt.Errorf("petmatch: redis not ready: %w", err)
		}
		store = s
	}

	baseURL := cfg.petfinderBaseURL
	if baseURL == "" {
		baseURL = defaultPetfinderURL
	}
	directory := petfinder.NewClient(&petfinder.Config{
		BaseURL:        baseURL,
		ClientID:       cfg.petfinderID,
		ClientSecret:   cfg.petfinderSecret,
		RequestsPerSec: 5,
		Burst:          5,
		Logger:         log,
	})

	provider, describes, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	var tracker *budgetuc.Tracker
	var checker budgetuc.Checker
	if cfg.dailyCalls > 0 || cfg.monthlyCalls > 0 {
		action := budgetuc.ActionWarn
		if cfg.rejectOver {
			action = budgetuc.ActionReject
		}
		tracker = budgetuc.NewTracker(cfg.visionProvider, cacheKeyPrefix, cfg.dailyCalls, cfg.monthlyCalls, action, log)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, 0, 0))
		}
		checker = tracker
	}
	vision := budgetuc.NewGuardedVision(provider, cfg.visionProvider, cfg.visionModel, checker, log)

	var priority trait.Priority
	if len(cfg.priority) > 0 {
		priority, err = trait.ParsePriority(cfg.priority)
		if err != nil {
			return fmt.Errorf("petmatch: priority: %w", err)
		}
	}
	engine, err := relax.New(directory, relax.Config{
		Priority: priority,
		RadiusKm: cfg.radiusKm,
		Limit:    cfg.limit,
	}, log)
	if err != nil {
		return fmt.Errorf("petmatch: %w", err)
	}

	var enricher matchuc.Enricher
	if cfg.enrich {
		svc, err := newEnricher(cfg, store, directory, vision, describes, log)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, svc.Release)
		enricher = svc
	}

	matchSvc := matchuc.New(vision, engine, enricher, cfg.maxImages, log)
	c.matchSvc = matchSvc
	c.randomSvc = randomuc.New(directory, matchSvc, log)

	var reader usageuc.BudgetReader
	if tracker != nil {
		reader = tracker
	}
	c.usageSvc = usageuc.New(reader, cfg.visionProvider)

	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}
	var visionChecker healthuc.Checker
	if hc, ok := provider.(healthuc.Checker); ok {
		visionChecker = hc
	}
	c.healthSvc = healthuc.New(pinger, directory, visionChecker)
	return nil
}

// newProvider builds the vision client. describes reports whether it can
// write listing descriptions.
func newProvider(ctx context.Context, cfg *clientConfig) (budgetuc.Vision, bool, error) {
	if cfg.extractor != nil {
		if cfg.visionProvider == "" {
			cfg.visionProvider = "custom"
		}
		return extractorOnly{cfg.extractor}, false, nil
	}

	switch cfg.visionProvider {
	case "gemini":
		v, err := gemini.NewVision(ctx, &gemini.Config{
			APIKey:      cfg.visionKey,
			Model:       cfg.visionModel,
			Temperature: 0.7,
			MaxTokens:   256,
		})
		if err != nil {
			return nil, false, fmt.Errorf("petmatch: %w", err)
		}
		return v, true, nil
	case "openai":
		if cfg.visionKey == "" || cfg.visionModel == "" {
			return nil, false, errors.New("petmatch: openai api key and model are required")
		}
		return openai.NewVision(&openai.Config{
			APIKey:      cfg.visionKey,
			BaseURL:     cfg.visionBaseURL,
			Model:       cfg.visionModel,
			Temperature: 0.7,
			MaxTokens:   256,
		}), true, nil
	default:
		return nil, false, errors.New("petmatch: vision provider required (use WithGemini, WithOpenAI or WithExtractor)")
	}
}

func newEnricher(
	cfg *clientConfig,
	store *dbRedis.Store,
	directory *petfinder.Client,
	vision enrichuc.Describer,
	describes bool,
	log *zap.Logger,
) (*enrichuc.Service, error) {
	var orgs enrichuc.OrganizationLookup = directory
	var describer enrichuc.Describer
	if cfg.descriptions && describes {
		describer = vision
	}
	if store != nil {
		orgs = enrichcache.NewOrganizations(directory, store, cacheKeyPrefix, 7*defaultCacheTTL, metrics.CacheTotal, log)
		if describer != nil {
			describer = enrichcache.NewDescriber(vision, store, cacheKeyPrefix, defaultCacheTTL, metrics.CacheTotal, log)
		}
	}
	svc, err := enrichuc.New(cfg.poolSize, orgs, describer, log)
	if err != nil {
		return nil, fmt.Errorf("petmatch: %w", err)
	}
	return svc, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Match extracts a trait profile from the images and searches for pets near
// the location. Extraction failures degrade to an unfiltered search and are
// reported in Warnings.
func (c *Client) Match(ctx context.Context, req MatchRequest) (res MatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("match", start, err) }()

	out, err := c.matchSvc.Match(ctx, matchuc.Request{
		Images:   req.Images,
		Location: geo.Point{Lat: req.Location.Lat, Lng: req.Location.Lng},
		RadiusKm: req.RadiusKm,
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("match: %w", err)
	}
	return matchFromDomain(&out), nil
}

// RandomPet picks a random adoptable pet with a photo and suggests the trait
// profile the vision model sees in it.
func (c *Client) RandomPet(ctx context.Context) (pet RandomPet, err error) {
	start := time.Now()
	defer func() { c.obs.observe("random_pet", start, err) }()

	out, err := c.randomSvc.Pick(ctx)
	if err != nil {
		return RandomPet{}, fmt.Errorf("random pet: %w", err)
	}
	pet = RandomPet{
		Found:           out.Found,
		SuggestedTraits: traitsMap(out.Profile),
		Attempts:        out.Attempts,
		Warnings:        out.Warnings,
	}
	if out.Found {
		pet.Pet = listingFromDomain(&out.Listing)
	}
	return pet, nil
}

// Health checks the health of all configured components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Usage returns the vision call budget report for the given period.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	report := c.usageSvc.GetReport(ctx, domusage.Period(period))
	b := report.Budget()
	return UsageReport{
		Period:         UsagePeriod(report.Period()),
		Provider:       report.Provider(),
		PeriodStart:    time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:      time.UnixMilli(report.PeriodEnd()).UTC(),
		CallsLimit:     b.CallsLimit(),
		CallsUsed:      b.CallsUsed(),
		CallsRemaining: b.CallsRemaining(),
		IsExhausted:    b.IsExhausted(),
	}
}

// extractorOnly adapts a public Extractor to the guarded vision surface.
type extractorOnly struct {
	Extractor
}

func (extractorOnly) Describe(context.Context, listing.Listing) (string, error) {
	return "", errors.New("petmatch: descriptions need a built-in vision provider")
}

func matchFromDomain(r *matchuc.Result) MatchResult {
	removed := make([]string, len(r.Removed))
	for i, k := range r.Removed {
		removed[i] = string(k)
	}
	attempts := make([]Attempt, len(r.Attempts))
	for i, a := range r.Attempts {
		filters := make(map[string]string, len(a.Filters))
		for k, v := range a.Filters {
			filters[string(k)] = v
		}
		attempts[i] = Attempt{Filters: filters, TotalCount: a.TotalCount, Err: a.Err}
	}
	listings := make([]Listing, len(r.Listings))
	for i := range r.Listings {
		listings[i] = listingFromDomain(&r.Listings[i])
	}
	return MatchResult{
		ID:         r.ID,
		Found:      r.Found,
		Traits:     traitsMap(r.Profile),
		Removed:    removed,
		Attempts:   attempts,
		TotalCount: r.TotalCount,
		Listings:   listings,
		Warnings:   r.Warnings,
	}
}

func listingFromDomain(l *listing.Listing) Listing {
	photos := make([]string, 0, len(l.Photos))
	for _, p := range l.Photos {
		if u := p.Best(); u != "" {
			photos = append(photos, u)
		}
	}
	return Listing{
		ID:               l.ID,
		Name:             l.Name,
		Type:             l.Type,
		Breed:            l.Breed,
		Age:              l.Age,
		Gender:           l.Gender,
		Size:             l.Size,
		Coat:             l.Coat,
		Color:            l.Color,
		Description:      l.Description,
		OrganizationID:   l.OrganizationID,
		OrganizationName: l.OrganizationName,
		URL:              l.URL,
		Photos:           photos,
		DistanceMiles:    l.DistanceMiles,
	}
}
