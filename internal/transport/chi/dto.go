package chi

import (
	"time"

	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	domusage "github.com/kailas-cloud/petmatch/internal/domain/usage"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// ErrorCode is a machine-readable error code returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeInvalidLocation    ErrorCode = "invalid_location"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeBudgetExceeded     ErrorCode = "vision_budget_exceeded"
	CodeExtractionFailed   ErrorCode = "trait_extraction_failed"
	CodeDirectoryError     ErrorCode = "directory_error"
	CodeDirectoryAuthError ErrorCode = "directory_auth_failed"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the error body for every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MatchRequest is the body of POST /v1/match.
type MatchRequest struct {
	Images   []string   `json:"images"`
	Location *geo.Point `json:"location"`
	RadiusKm *float64   `json:"radius_km,omitempty"`
}

// MatchParams are the query parameters of GET /v1/match.
type MatchParams struct {
	Image    []string `form:"image" json:"image"`
	Lat      float64  `form:"lat" json:"lat"`
	Lng      float64  `form:"lng" json:"lng"`
	RadiusKm *float64 `form:"radius_km,omitempty" json:"radius_km,omitempty"`
}

// UsageParams are the query parameters of GET /v1/usage.
type UsageParams struct {
	Period *string `form:"period,omitempty" json:"period,omitempty"`
}

// AttemptResponse is one search call of the relaxation loop.
type AttemptResponse struct {
	Filters    map[string]string `json:"filters"`
	TotalCount int               `json:"total_count"`
	Error      string            `json:"error,omitempty"`
}

// MatchResponse is the body of a successful match.
type MatchResponse struct {
	ID         string            `json:"id"`
	Found      bool              `json:"found"`
	Profile    trait.Profile     `json:"profile"`
	Removed    []string          `json:"removed"`
	Attempts   []AttemptResponse `json:"attempts"`
	TotalCount int               `json:"total_count"`
	Listings   []listing.Listing `json:"listings"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// LegacyMatchResponse is the body of GET /submitForm.
type LegacyMatchResponse struct {
	Results    []listing.Listing `json:"results"`
	TotalCount int               `json:"totalCount"`
}

// RandomPetResponse is the body of GET /v1/pets/random.
type RandomPetResponse struct {
	Found    bool             `json:"found"`
	Pet      *listing.Listing `json:"pet,omitempty"`
	Profile  trait.Profile    `json:"suggested_profile"`
	Attempts int              `json:"attempts"`
	Warnings []string         `json:"warnings,omitempty"`
}

// BudgetStatus is the budget block of a usage report.
type BudgetStatus struct {
	CallsLimit     int64      `json:"calls_limit"`
	CallsUsed      int64      `json:"calls_used"`
	CallsRemaining int64      `json:"calls_remaining"`
	IsExhausted    bool       `json:"is_exhausted"`
	ResetsAt       *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Message string            `json:"message,omitempty"`
}

func matchToResponse(res *matchuc.Result) MatchResponse {
	removed := make([]string, len(res.Removed))
	for i, k := range res.Removed {
		removed[i] = string(k)
	}
	listings := res.Listings
	if listings == nil {
		listings = []listing.Listing{}
	}
	return MatchResponse{
		ID:         res.ID,
		Found:      res.Found,
		Profile:    res.Profile,
		Removed:    removed,
		Attempts:   attemptsToResponse(res.Attempts),
		TotalCount: res.TotalCount,
		Listings:   listings,
		Warnings:   res.Warnings,
	}
}

func attemptsToResponse(attempts []relax.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		filters := make(map[string]string, len(a.Filters))
		for k, v := range a.Filters {
			filters[string(k)] = v
		}
		out[i] = AttemptResponse{Filters: filters, TotalCount: a.TotalCount}
		if a.Err != nil {
			out[i].Error = safeDomainMessage(a.Err)
		}
	}
	return out
}

func randomToResponse(res *randomuc.Result) RandomPetResponse {
	resp := RandomPetResponse{
		Found:    res.Found,
		Profile:  res.Profile,
		Attempts: res.Attempts,
		Warnings: res.Warnings,
	}
	if res.Found {
		pet := res.Listing
		resp.Pet = &pet
	}
	return resp
}

func usageToResponse(report *domusage.Report) UsageResponse {
	b := report.Budget()
	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Budget: BudgetStatus{
			CallsLimit:     b.CallsLimit(),
			CallsUsed:      b.CallsUsed(),
			CallsRemaining: b.CallsRemaining(),
			IsExhausted:    b.IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}
	return resp
}
