// Package enrichcache provides caching decorators for enrichment lookups:
// organization names and generated listing descriptions.
package enrichcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/db"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
)

// store is the consumer interface for the enrichment cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Describer generates listing descriptions.
type Describer interface {
	Describe(ctx context.Context, l listing.Listing) (string, error)
}

// OrganizationLookup resolves shelter names by organization id.
type OrganizationLookup interface {
	OrganizationName(ctx context.Context, id string) (string, error)
}

// cache holds the plumbing shared by both decorators.
type cache struct {
	name       string
	prefix     string
	ttl        time.Duration
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

func (c *cache) get(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cache", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return "", false
	}
	if len(data) == 0 {
		c.inc("miss")
		return "", false
	}
	c.inc("hit")
	return string(data), true
}

func (c *cache) put(ctx context.Context, key, value string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(value), c.ttl); err != nil {
		c.logger.Warn("Failed to write cache", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
}

func (c *cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(c.name, result).Inc()
	}
}

// CachedDescriber caches generated descriptions keyed by listing id and the
// listing facts, so an edited listing gets a fresh description.
type CachedDescriber struct {
	inner Describer
	cache cache
}

// NewDescriber creates a caching decorator around a Describer.
// cacheTotal is a counter vec with labels "cache" and "result" ("hit"/"miss").
func NewDescriber(
	inner Describer,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedDescriber {
	return &CachedDescriber{
		inner: inner,
		cache: cache{
			name:       "description",
			prefix:     prefix + "desc:",
			ttl:        ttl,
			store:      s,
			cacheTotal: cacheTotal,
			logger:     logger,
		},
	}
}

// Describe returns a cached description or calls the inner describer.
func (d *CachedDescriber) Describe(ctx context.Context, l listing.Listing) (string, error) {
	key := d.key(&l)
	if text, ok := d.cache.get(ctx, key); ok {
		return text, nil
	}

	text, err := d.inner.Describe(ctx, l)
	if err != nil {
		return "", fmt.Errorf("describe listing %d: %w", l.ID, err)
	}

	d.cache.put(ctx, key, text)
	return text, nil
}

func (d *CachedDescriber) key(l *listing.Listing) string {
	h := sha256.Sum256([]byte(listing.DescriptionPrompt(l)))
	return fmt.Sprintf("%s%d:%s", d.cache.prefix, l.ID, hex.EncodeToString(h[:8]))
}

// CachedOrganizations caches organization names by id.
type CachedOrganizations struct {
	inner OrganizationLookup
	cache cache
}

// NewOrganizations creates a caching decorator around an OrganizationLookup.
func NewOrganizations(
	inner OrganizationLookup,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedOrganizations {
	return &CachedOrganizations{
		inner: inner,
		cache: cache{
			name:       "organization",
			prefix:     prefix + "org:",
			ttl:        ttl,
			store:      s,
			cacheTotal: cacheTotal,
			logger:     logger,
		},
	}
}

// OrganizationName returns a cached organization name or asks the directory.
func (o *CachedOrganizations) OrganizationName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.New("empty organization id")
	}

	key := o.cache.prefix + id
	if name, ok := o.cache.get(ctx, key); ok {
		return name, nil
	}

	name, err := o.inner.OrganizationName(ctx, id)
	if err != nil {
		return "", fmt.Errorf("organization %s: %w", id, err)
	}

	o.cache.put(ctx, key, name)
	return name, nil
}
