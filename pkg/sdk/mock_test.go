package petmatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	healthuc "github.com/kailas-cloud/petmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
)

// --- use case mocks ---

type mockMatchUC struct {
	fn func(ctx context.Context, req matchuc.Request) (matchuc.Result, error)
}

func (m *mockMatchUC) Match(ctx context.Context, req matchuc.Request) (matchuc.Result, error) {
	return m.fn(ctx, req)
}

type mockRandomUC struct {
	fn func(ctx context.Context) (randomuc.Result, error)
}

func (m *mockRandomUC) Pick(ctx context.Context) (randomuc.Result, error) {
	return m.fn(ctx)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- extractor ---

type fakeExtractor struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(context.Context, []string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

// --- fake Petfinder ---

// fakePetfinder finds a single black lab, but only when no color filter is sent.
type fakePetfinder struct {
	searches atomic.Int32
	orgs     atomic.Int32
}

func (f *fakePetfinder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, map[string]any{"token_type": "Bearer", "expires_in": 3600, "access_token": "tok"})
	})
	mux.HandleFunc("/animals", func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		if r.URL.Query().Get("color") != "" {
			writeTestJSON(w, map[string]any{"animals": []any{}, "pagination": map[string]any{"total_count": 0}})
			return
		}
		writeTestJSON(w, map[string]any{
			"animals": []map[string]any{{
				"id":              42,
				"organization_id": "NY835",
				"type":            "Dog",
				"name":            "Rex",
				"size":            "Large",
				"description":     "Loves fetch",
				"photos":          []map[string]any{{"small": "s.jpg", "medium": "m.jpg"}},
			}},
			"pagination": map[string]any{"total_count": 1},
		})
	})
	mux.HandleFunc("/organizations/NY835", func(w http.ResponseWriter, _ *http.Request) {
		f.orgs.Add(1)
		writeTestJSON(w, map[string]any{"organization": map[string]any{"id": "NY835", "name": "Happy Paws Rescue"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
