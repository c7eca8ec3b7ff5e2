package relax

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type stubSearcher struct {
	respond func(call int, q listing.Query) (listing.Result, error)
	queries []listing.Query
}

func (s *stubSearcher) Search(_ context.Context, q listing.Query) (listing.Result, error) {
	s.queries = append(s.queries, q)
	if s.respond == nil {
		return listing.Result{}, nil
	}
	return s.respond(len(s.queries), q)
}

func (s *stubSearcher) filterSets() []map[trait.Key]string {
	out := make([]map[trait.Key]string, len(s.queries))
	for i, q := range s.queries {
		out[i] = q.Filters
	}
	return out
}

func listings(n int) []listing.Listing {
	out := make([]listing.Listing, n)
	for i := range out {
		out[i] = listing.Listing{ID: int64(i + 1), Name: "pet"}
	}
	return out
}

var here = geo.Point{Lat: 47.6062, Lng: -122.3321}

func fullProfile() trait.Profile {
	return trait.NewProfile(map[trait.Key]string{
		trait.Color: "Black",
		trait.Coat:  "short",
		trait.Age:   "adult",
		trait.Size:  "medium",
		trait.Type:  "dog",
	})
}

func newEngine(t *testing.T, s Searcher) *Engine {
	t.Helper()
	e, err := New(s, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// --- Tests ---

func TestRun_ScenarioA_SucceedsAfterThreeRelaxations(t *testing.T) {
	s := &stubSearcher{respond: func(call int, _ listing.Query) (listing.Result, error) {
		if call < 4 {
			return listing.Result{}, nil
		}
		return listing.Result{Listings: listings(3), TotalCount: 3}, nil
	}}

	out, err := newEngine(t, s).Run(context.Background(), fullProfile(), here)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Found {
		t.Fatal("expected Found")
	}
	if len(s.queries) != 4 {
		t.Fatalf("expected 4 search calls, got %d", len(s.queries))
	}
	if len(out.Listings) != 3 || out.TotalCount != 3 {
		t.Errorf("expected 3 listings, got %d (total %d)", len(out.Listings), out.TotalCount)
	}
	if diff := cmp.Diff([]trait.Key{trait.Color, trait.Coat, trait.Age}, out.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	want := []map[trait.Key]string{
		{trait.Color: "Black", trait.Coat: "short", trait.Age: "adult", trait.Size: "medium", trait.Type: "dog"},
		{trait.Coat: "short", trait.Age: "adult", trait.Size: "medium", trait.Type: "dog"},
		{trait.Age: "adult", trait.Size: "medium", trait.Type: "dog"},
		{trait.Size: "medium", trait.Type: "dog"},
	}
	if diff := cmp.Diff(want, s.filterSets()); diff != "" {
		t.Errorf("filter sets mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ScenarioB_EmptyProfileSearchesOnce(t *testing.T) {
	s := &stubSearcher{}

	out, err := newEngine(t, s).Run(context.Background(), trait.Profile{}, here)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.queries) != 1 {
		t.Fatalf("expected exactly 1 search call, got %d", len(s.queries))
	}
	q := s.queries[0]
	if len(q.Filters) != 0 {
		t.Errorf("expected empty filters, got %v", q.Filters)
	}
	if q.Location == nil || *q.Location != here {
		t.Errorf("expected location %v, got %v", here, q.Location)
	}
	if q.RadiusKm != DefaultRadiusKm || q.Status != listing.StatusAdoptable || q.Limit != DefaultLimit {
		t.Errorf("unexpected query parameters: %+v", q)
	}
	if out.Found {
		t.Error("expected not found")
	}
}

func TestRun_ScenarioB_EmptyProfileReturnsWhateverDirectoryYields(t *testing.T) {
	s := &stubSearcher{respond: func(int, listing.Query) (listing.Result, error) {
		return listing.Result{Listings: listings(2), TotalCount: 120}, nil
	}}

	out, err := newEngine(t, s).Run(context.Background(), trait.Profile{}, here)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Found || out.TotalCount != 120 || len(out.Listings) != 2 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestRun_ScenarioC_ExhaustionNeverRemovesType(t *testing.T) {
	s := &stubSearcher{}

	e := newEngine(t, s)
	out, err := e.Run(context.Background(), fullProfile(), here)
	if err != nil {
		t.Fatalf("exhaustion must not be an error, got %v", err)
	}
	if out.Found {
		t.Fatal("expected not found")
	}
	if out.Listings != nil {
		t.Errorf("expected nil listings, got %v", out.Listings)
	}

	relaxations := len(e.Priority()) - 1
	if len(out.Removed) != relaxations {
		t.Errorf("expected %d relaxation steps, got %d", relaxations, len(out.Removed))
	}
	if len(s.queries) != 1+relaxations {
		t.Errorf("expected %d calls, got %d", 1+relaxations, len(s.queries))
	}
	for _, k := range out.Removed {
		if k == trait.Type {
			t.Fatal("type must never be removed")
		}
	}
	for i, q := range s.queries {
		if q.Filters[trait.Type] != "dog" {
			t.Errorf("call %d dropped type: %v", i, q.Filters)
		}
	}
	last := s.queries[len(s.queries)-1].Filters
	if diff := cmp.Diff(map[trait.Key]string{trait.Type: "dog"}, last); diff != "" {
		t.Errorf("last filter set mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CallsBoundedByPopulatedKeys(t *testing.T) {
	profiles := []map[trait.Key]string{
		{trait.Type: "cat"},
		{trait.Type: "cat", trait.Color: "Black"},
		{trait.Type: "cat", trait.Age: "baby", trait.Coat: "long"},
		{trait.Type: "cat", trait.Size: "small", trait.Age: "baby", trait.Coat: "long"},
		{trait.Type: "cat", trait.Size: "small", trait.Age: "baby", trait.Coat: "long", trait.Color: "Black"},
	}
	for _, values := range profiles {
		p := trait.NewProfile(values)
		s := &stubSearcher{}
		if _, err := newEngine(t, s).Run(context.Background(), p, here); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s.queries) > p.Len() {
			t.Errorf("profile %v: %d calls exceeds %d populated keys", values, len(s.queries), p.Len())
		}
	}
}

func TestRun_AbsentTraitsDoNotRepeatSearch(t *testing.T) {
	s := &stubSearcher{}
	p := trait.NewProfile(map[trait.Key]string{trait.Type: "dog", trait.Age: "young"})

	out, err := newEngine(t, s).Run(context.Background(), p, here)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []map[trait.Key]string{
		{trait.Type: "dog", trait.Age: "young"},
		{trait.Type: "dog"},
	}
	if diff := cmp.Diff(want, s.filterSets()); diff != "" {
		t.Errorf("filter sets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]trait.Key{trait.Color, trait.Coat, trait.Age, trait.Size}, out.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_TransportErrorCountsAsZeroAndContinues(t *testing.T) {
	boom := errors.New("connection reset")
	s := &stubSearcher{respond: func(call int, _ listing.Query) (listing.Result, error) {
		switch call {
		case 1, 2:
			return listing.Result{Listings: listings(5), TotalCount: 99}, boom
		default:
			return listing.Result{Listings: listings(1), TotalCount: 1}, nil
		}
	}}

	out, err := newEngine(t, s).Run(context.Background(), fullProfile(), here)
	if err != nil {
		t.Fatalf("transport errors must not abort, got %v", err)
	}
	if !out.Found || out.TotalCount != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(s.queries) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(s.queries))
	}
	for i := 0; i < 2; i++ {
		a := out.Attempts[i]
		if a.TotalCount != 0 {
			t.Errorf("attempt %d: failed call must count as 0, got %d", i, a.TotalCount)
		}
		if !errors.Is(a.Err, domain.ErrDirectory) || !errors.Is(a.Err, boom) {
			t.Errorf("attempt %d: unexpected error %v", i, a.Err)
		}
	}
	if out.Attempts[2].Err != nil {
		t.Errorf("attempt 2: unexpected error %v", out.Attempts[2].Err)
	}
}

func TestRun_IdempotentForDeterministicSearcher(t *testing.T) {
	respond := func(_ int, q listing.Query) (listing.Result, error) {
		if len(q.Filters) <= 2 {
			return listing.Result{Listings: listings(1), TotalCount: 1}, nil
		}
		return listing.Result{}, nil
	}
	s1 := &stubSearcher{respond: respond}
	s2 := &stubSearcher{respond: respond}

	e := newEngine(t, s1)
	out1, err1 := e.Run(context.Background(), fullProfile(), here)
	e2 := newEngine(t, s2)
	out2, err2 := e2.Run(context.Background(), fullProfile(), here)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}

	if diff := cmp.Diff(s1.filterSets(), s2.filterSets()); diff != "" {
		t.Errorf("filter sequences differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(out1.Removed, out2.Removed); diff != "" {
		t.Errorf("removed differ (-first +second):\n%s", diff)
	}
}

func TestRun_DoesNotMutateProfile(t *testing.T) {
	p := fullProfile()
	s := &stubSearcher{}

	if _, err := newEngine(t, s).Run(context.Background(), p, here); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 5 {
		t.Errorf("profile was mutated: %d keys left", p.Len())
	}
	if len(s.queries[0].Filters) != 5 {
		t.Errorf("recorded first query was mutated by later relaxation: %v", s.queries[0].Filters)
	}
}

func TestRun_CancellationStopsFurtherCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &stubSearcher{respond: func(int, listing.Query) (listing.Result, error) {
		cancel()
		return listing.Result{}, nil
	}}

	out, err := newEngine(t, s).Run(ctx, fullProfile(), here)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(s.queries) != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", len(s.queries))
	}
	if out.Found {
		t.Error("cancelled run must not report found")
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stubSearcher{}
	if _, err := newEngine(t, s).Run(ctx, fullProfile(), here); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(s.queries) != 0 {
		t.Errorf("expected no calls, got %d", len(s.queries))
	}
}

func TestRun_InvalidLocationAborts(t *testing.T) {
	s := &stubSearcher{}
	_, err := newEngine(t, s).Run(context.Background(), fullProfile(), geo.Point{})
	if !errors.Is(err, domain.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
	if len(s.queries) != 0 {
		t.Errorf("expected no calls, got %d", len(s.queries))
	}
}

func TestRunWithRadius_OverridesDefault(t *testing.T) {
	s := &stubSearcher{respond: func(int, listing.Query) (listing.Result, error) {
		return listing.Result{Listings: listings(1), TotalCount: 1}, nil
	}}
	if _, err := newEngine(t, s).RunWithRadius(context.Background(), fullProfile(), here, 80); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.queries[0].RadiusKm != 80 {
		t.Errorf("expected radius 80, got %v", s.queries[0].RadiusKm)
	}
}

func TestRun_CustomPriority(t *testing.T) {
	s := &stubSearcher{}
	e, err := New(s, Config{
		Priority: trait.Priority{trait.Age, trait.Color, trait.Coat, trait.Type, trait.Size},
		RadiusKm: 10,
		Limit:    5,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := e.Run(context.Background(), fullProfile(), here)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]trait.Key{trait.Age, trait.Color, trait.Coat, trait.Type}, out.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	last := s.queries[len(s.queries)-1]
	if diff := cmp.Diff(map[trait.Key]string{trait.Size: "medium"}, last.Filters); diff != "" {
		t.Errorf("protected trait mismatch (-want +got):\n%s", diff)
	}
	if last.Limit != 5 || last.RadiusKm != 10 {
		t.Errorf("unexpected query parameters: %+v", last)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Config{}, nil); err == nil {
		t.Error("expected error for nil searcher")
	}
	_, err := New(&stubSearcher{}, Config{Priority: trait.Priority{trait.Color}}, nil)
	if !errors.Is(err, domain.ErrInvalidPriority) {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
}
