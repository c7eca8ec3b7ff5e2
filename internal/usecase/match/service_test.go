package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// --- Mocks ---

type mockExtractor struct {
	text  string
	err   error
	calls int
	got   []string
}

func (m *mockExtractor) Extract(_ context.Context, images []string) (string, error) {
	m.calls++
	m.got = images
	return m.text, m.err
}

// countSearcher answers with a count chosen by the number of filters.
type countSearcher struct {
	mu      sync.Mutex
	byLen   map[int]int
	queries []listing.Query
}

func (s *countSearcher) Search(_ context.Context, q listing.Query) (listing.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	n := s.byLen[len(q.Filters)]
	res := listing.Result{TotalCount: n}
	for i := range min(n, 3) {
		res.Listings = append(res.Listings, listing.Listing{ID: int64(i + 1), Name: fmt.Sprintf("pet-%d", i+1)})
	}
	return res, nil
}

type mockEnricher struct {
	calls int
}

func (m *mockEnricher) Enrich(_ context.Context, listings []listing.Listing) []listing.Listing {
	m.calls++
	out := make([]listing.Listing, len(listings))
	for i, l := range listings {
		l.Enriched = true
		out[i] = l
	}
	return out
}

var austin = geo.Point{Lat: 30.2672, Lng: -97.7431}

func newService(t *testing.T, ext Extractor, s relax.Searcher, enr Enricher) *Service {
	t.Helper()
	engine, err := relax.New(s, relax.Config{}, zap.NewNop())
	require.NoError(t, err)
	return New(ext, engine, enr, 5, zap.NewNop())
}

func request(images ...string) Request {
	return Request{Images: images, Location: austin}
}

// --- Tests ---

func TestMatch_RelaxesUntilFound(t *testing.T) {
	ext := &mockExtractor{text: "```json\n{\"type\":\"dog\",\"size\":\"large\",\"color\":\"Black\"}\n```"}
	searcher := &countSearcher{byLen: map[int]int{3: 0, 2: 7}}
	enr := &mockEnricher{}
	svc := newService(t, ext, searcher, enr)

	res, err := svc.Match(context.Background(), request(" https://img.example/a.jpg ", ""))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://img.example/a.jpg"}, ext.got, "images are trimmed and blanks dropped")
	_, err = uuid.Parse(res.ID)
	assert.NoError(t, err, "id must be a uuid")

	assert.True(t, res.Found)
	assert.Equal(t, 7, res.TotalCount)
	assert.Equal(t, []trait.Key{trait.Color}, res.Removed)
	require.Len(t, res.Attempts, 2)
	assert.Len(t, res.Listings, 3)
	assert.True(t, res.Listings[0].Enriched)
	assert.Equal(t, 1, enr.calls)
	assert.Empty(t, res.Warnings)

	v, ok := res.Profile.Get(trait.Color)
	assert.True(t, ok, "result profile keeps every extracted trait")
	assert.Equal(t, "Black", v)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, austin, *searcher.queries[0].Location)
	assert.Equal(t, relax.DefaultRadiusKm, searcher.queries[0].RadiusKm)
}

func TestMatch_NotFound(t *testing.T) {
	ext := &mockExtractor{text: `{"type":"dog"}`}
	enr := &mockEnricher{}
	svc := newService(t, ext, &countSearcher{byLen: map[int]int{}}, enr)

	res, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Zero(t, res.TotalCount)
	assert.Empty(t, res.Listings)
	assert.Equal(t, []trait.Key{trait.Color, trait.Coat, trait.Age, trait.Size}, res.Removed)
	assert.Zero(t, enr.calls, "enrichment is skipped when nothing matched")
}

func TestMatch_ExtractionFailureDegrades(t *testing.T) {
	ext := &mockExtractor{err: fmt.Errorf("%w: provider down", domain.ErrTraitExtraction)}
	searcher := &countSearcher{byLen: map[int]int{0: 12}}
	svc := newService(t, ext, searcher, nil)

	res, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.NoError(t, err)

	assert.Equal(t, []string{WarnExtraction}, res.Warnings)
	assert.True(t, res.Profile.IsEmpty())
	assert.True(t, res.Found)
	require.Len(t, searcher.queries, 1)
	assert.Empty(t, searcher.queries[0].Filters)
}

func TestMatch_ParseFailureDegrades(t *testing.T) {
	ext := &mockExtractor{text: "I think it is a dog"}
	svc := newService(t, ext, &countSearcher{byLen: map[int]int{0: 1}}, nil)

	res, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.NoError(t, err)

	assert.Equal(t, []string{WarnParse}, res.Warnings)
	assert.True(t, res.Profile.IsEmpty())
}

func TestMatch_EmptyProfileWarns(t *testing.T) {
	ext := &mockExtractor{text: `{"mood":"happy"}`}
	svc := newService(t, ext, &countSearcher{byLen: map[int]int{0: 1}}, nil)

	res, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []string{WarnNoTraits}, res.Warnings)
}

func TestMatch_TaxonomyViolationsAreWarnings(t *testing.T) {
	ext := &mockExtractor{text: `{"type":"dog","color":"Polka dot"}`}
	svc := newService(t, ext, &countSearcher{byLen: map[int]int{1: 2}}, nil)

	res, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Polka dot")
	assert.True(t, res.Found)
	assert.Equal(t, []trait.Key{trait.Color}, res.Removed)
}

func TestMatch_BudgetExceededFails(t *testing.T) {
	ext := &mockExtractor{err: fmt.Errorf("budget check: %w", domain.ErrBudgetExceeded)}
	searcher := &countSearcher{}
	svc := newService(t, ext, searcher, nil)

	_, err := svc.Match(context.Background(), request("https://img.example/a.jpg"))
	require.ErrorIs(t, err, domain.ErrBudgetExceeded)
	assert.Empty(t, searcher.queries)
}

func TestMatch_RadiusOverride(t *testing.T) {
	searcher := &countSearcher{byLen: map[int]int{1: 1}}
	svc := newService(t, &mockExtractor{text: `{"type":"cat"}`}, searcher, nil)

	req := request("https://img.example/a.jpg")
	req.RadiusKm = 100
	_, err := svc.Match(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 100, searcher.queries[0].RadiusKm, 0)
}

func TestMatch_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no images", Request{Location: austin}, domain.ErrInvalidRequest},
		{"blank images", Request{Images: []string{"  "}, Location: austin}, domain.ErrInvalidRequest},
		{"too many images", Request{Images: []string{
			"https://a/1", "https://a/2", "https://a/3", "https://a/4", "https://a/5", "https://a/6",
		}, Location: austin}, domain.ErrInvalidRequest},
		{"not a url", Request{Images: []string{"cat.jpg"}, Location: austin}, domain.ErrInvalidRequest},
		{"ftp url", Request{Images: []string{"ftp://host/cat.jpg"}, Location: austin}, domain.ErrInvalidRequest},
		{"missing location", Request{Images: []string{"https://a/1"}}, domain.ErrInvalidLocation},
		{"bad latitude", Request{Images: []string{"https://a/1"}, Location: geo.Point{Lat: 91, Lng: 0}}, domain.ErrInvalidLocation},
		{"negative radius", Request{Images: []string{"https://a/1"}, Location: austin, RadiusKm: -1}, domain.ErrInvalidRequest},
		{"huge radius", Request{Images: []string{"https://a/1"}, Location: austin, RadiusKm: 5000}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &mockExtractor{text: "{}"}
			svc := newService(t, ext, &countSearcher{}, nil)

			_, err := svc.Match(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Zero(t, ext.calls, "extractor must not run for invalid input")
		})
	}
}

func TestMatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(t, &mockExtractor{text: `{"type":"dog"}`}, &countSearcher{}, nil)

	_, err := svc.Match(ctx, request("https://img.example/a.jpg"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProfile(t *testing.T) {
	svc := newService(t, &mockExtractor{text: "```json\n{\"type\":\"Cat\",\"age\":\"young\"}\n```"}, &countSearcher{}, nil)

	p, warnings, err := svc.Profile(context.Background(), []string{"https://img.example/a.jpg"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, p.Len())

	_, _, err = svc.Profile(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"ascii", "abcdef", 3, "abc..."},
		{"backs off inside rune", "abécd", 3, "ab..."},
		{"rune boundary kept", "abécd", 4, "abé..."},
		{"four byte rune", "\U0001F436dog", 2, "..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.n)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
