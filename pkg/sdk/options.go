package petmatch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	petfinderID      string
	petfinderSecret  string
	petfinderBaseURL string

	visionProvider string // "gemini" or "openai"
	visionKey      string
	visionModel    string
	visionBaseURL  string
	extractor      Extractor

	cacheAddrs    []string
	cachePassword string

	enrich       bool
	descriptions bool
	poolSize     int

	radiusKm  float64
	limit     int
	priority  []string
	maxImages int

	dailyCalls   int64
	monthlyCalls int64
	rejectOver   bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPetfinder sets the Petfinder API client credentials. Required.
func WithPetfinder(clientID, secret string) Option {
	return optionFunc(func(c *clientConfig) {
		c.petfinderID = clientID
		c.petfinderSecret = secret
	})
}

// WithPetfinderURL overrides the Petfinder API base URL.
// Default: https://api.petfinder.com/v2.
func WithPetfinderURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.petfinderBaseURL = baseURL
	})
}

// WithGemini uses Google Gemini for trait extraction and descriptions.
func WithGemini(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.visionProvider = "gemini"
		c.visionKey = apiKey
		c.visionModel = model
	})
}

// WithOpenAI uses an OpenAI-compatible chat completions API for trait
// extraction and descriptions. An empty baseURL selects api.openai.com.
func WithOpenAI(apiKey, model, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.visionProvider = "openai"
		c.visionKey = apiKey
		c.visionModel = model
		c.visionBaseURL = baseURL
	})
}

// WithExtractor plugs in a custom trait extractor instead of a built-in provider.
// Generated descriptions are unavailable with a custom extractor.
func WithExtractor(e Extractor) Option {
	return optionFunc(func(c *clientConfig) {
		c.extractor = e
	})
}

// WithRedis caches enrichment lookups and budget counters in Redis or Valkey.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithEnrichment fills in shelter names for matched listings on a pool of
// poolSize workers. With descriptions set, missing or truncated listing
// descriptions are written by the vision provider.
func WithEnrichment(poolSize int, descriptions bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.enrich = true
		c.poolSize = poolSize
		c.descriptions = descriptions
	})
}

// WithSearch sets the default search radius in km and the page size.
// Defaults: 32 km, 20 listings.
func WithSearch(radiusKm float64, limit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.radiusKm = radiusKm
		c.limit = limit
	})
}

// WithPriority sets the trait removal order, least important first.
// It must name every trait exactly once. Default: color, coat, age, size, type.
func WithPriority(traits ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.priority = traits
	})
}

// WithMaxImages caps the reference images per match. Default: 5.
func WithMaxImages(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxImages = n
	})
}

// WithBudget caps vision calls per UTC day and month (0 = unlimited).
// With reject set, calls over budget fail with ErrBudgetExceeded; otherwise
// they are only logged.
func WithBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyCalls = daily
		c.monthlyCalls = monthly
		c.rejectOver = reject
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
