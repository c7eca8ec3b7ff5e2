package petfinder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

type fakeDirectory struct {
	t           *testing.T
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	rejectFirst bool
	rejectToken bool
	expiresIn   int
	lastQuery   atomic.Value
	status      int
}

func (f *fakeDirectory) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		require.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(f.t, "id", r.PostForm.Get("client_id"))
		assert.Equal(f.t, "secret", r.PostForm.Get("client_secret"))
		if f.rejectToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title":"Unauthorized","detail":"invalid client"}`))
			return
		}
		expiresIn := f.expiresIn
		if expiresIn == 0 {
			expiresIn = 3600
		}
		writeTestJSON(w, map[string]any{
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
			"access_token": "tok-" + string(rune('0'+n)),
		})
	})
	mux.HandleFunc("/animals", func(w http.ResponseWriter, r *http.Request) {
		n := f.searchCalls.Add(1)
		if f.rejectFirst && n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"title":"Too Many Requests","detail":"slow down"}`))
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.lastQuery.Store(r.URL.Query())
		writeTestJSON(w, map[string]any{
			"animals": []map[string]any{{
				"id":              42,
				"organization_id": "WA123",
				"url":             "https://example.org/42",
				"type":            "Dog",
				"breeds":          map[string]any{"primary": "Labrador Retriever", "mixed": true},
				"colors":          map[string]any{"primary": "Black"},
				"age":             "Adult",
				"gender":          "Male",
				"size":            "Medium",
				"coat":            "Short",
				"name":            "Rex",
				"description":     "Loves &amp; fetches",
				"photos":          []map[string]any{{"small": "s.jpg", "medium": "m.jpg"}},
				"distance":        3.5,
			}},
			"pagination": map[string]any{"total_count": 17, "current_page": 1},
		})
	})
	mux.HandleFunc("/organizations/WA123", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{"organization": map[string]any{"id": "WA123", "name": " Happy Paws "}})
	})
	return mux
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeDirectory) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(&Config{BaseURL: srv.URL + "/", ClientID: "id", ClientSecret: "secret"})
}

func TestSearch(t *testing.T) {
	f := &fakeDirectory{}
	c := newTestClient(t, f)

	loc := geo.Point{Lat: 47.6, Lng: -122.3}
	res, err := c.Search(context.Background(), listing.Query{
		Filters:  map[trait.Key]string{trait.Type: "dog", trait.Color: "Black"},
		Location: &loc,
		RadiusKm: 32,
		Status:   listing.StatusAdoptable,
		Limit:    20,
	})
	require.NoError(t, err)

	assert.Equal(t, 17, res.TotalCount)
	require.Len(t, res.Listings, 1)
	l := res.Listings[0]
	assert.Equal(t, int64(42), l.ID)
	assert.Equal(t, "Rex", l.Name)
	assert.Equal(t, "Labrador Retriever Mix", l.Breed)
	assert.Equal(t, "Loves & fetches", l.Description)
	assert.Equal(t, "WA123", l.OrganizationID)
	assert.Equal(t, "m.jpg", l.PrimaryPhoto())
	require.NotNil(t, l.DistanceMiles)
	assert.InDelta(t, 3.5, *l.DistanceMiles, 1e-9)

	q := f.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"dog"}, q["type"])
	assert.Equal(t, []string{"Black"}, q["color"])
	assert.Equal(t, []string{"47.600000,-122.300000"}, q["location"])
	assert.Equal(t, []string{"20"}, q["distance"])
	assert.Equal(t, []string{"adoptable"}, q["status"])
	assert.Equal(t, []string{"20"}, q["limit"])
	assert.NotContains(t, q, "coat")
	assert.NotContains(t, q, "has_photos")
}

func TestSearch_ReusesToken(t *testing.T) {
	f := &fakeDirectory{}
	c := newTestClient(t, f)

	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), listing.Query{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestSearch_ExpiredTokenRefreshed(t *testing.T) {
	// A token this short-lived is already inside the renewal window.
	f := &fakeDirectory{expiresIn: 1}
	c := newTestClient(t, f)

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), listing.Query{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestSearch_SendsBearerToken(t *testing.T) {
	f := &fakeDirectory{}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), listing.Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.searchCalls.Load())
}

func TestSearch_RejectedCredentials(t *testing.T) {
	f := &fakeDirectory{rejectToken: true}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), listing.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirectoryAuth)
	assert.Equal(t, int32(0), f.searchCalls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "token", se.Op)
	assert.Equal(t, "Unauthorized: invalid client", se.Message)

	assert.ErrorIs(t, c.HealthCheck(context.Background()), domain.ErrDirectoryAuth)
}

func TestSearch_UnauthorizedRetriesOnceWithFreshToken(t *testing.T) {
	f := &fakeDirectory{rejectFirst: true}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), listing.Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
	assert.Equal(t, int32(2), f.searchCalls.Load())
}

func TestSearch_StatusErrors(t *testing.T) {
	f := &fakeDirectory{status: http.StatusTooManyRequests}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), listing.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Too Many Requests: slow down", se.Message)
}

func TestSearch_TransportError(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1", ClientID: "id"})
	_, err := c.Search(context.Background(), listing.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirectory)
}

func TestOrganizationName(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{})

	name, err := c.OrganizationName(context.Background(), "WA123")
	require.NoError(t, err)
	assert.Equal(t, "Happy Paws", name)

	_, err = c.OrganizationName(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.OrganizationName(context.Background(), " ")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{})
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestSearchParams_RandomPage(t *testing.T) {
	v := searchParams(listing.Query{Status: "adoptable", Limit: 10, Page: 3, Sort: "random", HasPhotos: true})
	assert.Equal(t, "adoptable", v.Get("status"))
	assert.Equal(t, "3", v.Get("page"))
	assert.Equal(t, "random", v.Get("sort"))
	assert.Equal(t, "true", v.Get("has_photos"))
	assert.Empty(t, v.Get("location"))
	assert.Empty(t, v.Get("distance"))
}

func TestBreedName(t *testing.T) {
	p, s := "Beagle", "Basset Hound"
	assert.Equal(t, "Beagle / Basset Hound", breedName(breedsDTO{Primary: &p, Secondary: &s, Mixed: true}))
	assert.Equal(t, "Beagle", breedName(breedsDTO{Primary: &p}))
	assert.Equal(t, "", breedName(breedsDTO{Mixed: true}))
}
