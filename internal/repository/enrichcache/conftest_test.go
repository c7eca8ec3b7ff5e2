package enrichcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/db"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
)

type mockDescriber struct {
	text  string
	err   error
	calls int
}

func (m *mockDescriber) Describe(_ context.Context, _ listing.Listing) (string, error) {
	m.calls++
	return m.text, m.err
}

type mockOrganizations struct {
	names map[string]string
	err   error
	calls int
}

func (m *mockOrganizations) OrganizationName(_ context.Context, id string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.names[id], nil
}

// memStore is an in-memory store recording the TTLs it was given.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCounter(t *testing.T) *prometheus.CounterVec {
	t.Helper()
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_cache_total",
		Help: "test",
	}, []string{"cache", "result"})
}

func nopLogger() *zap.Logger { return zap.NewNop() }
