package petmatch

import (
	"context"
	"time"
)

// Extractor turns reference image URLs into raw model text describing the
// pet's traits, ideally a JSON object with type, size, age, coat and color.
type Extractor interface {
	Extract(ctx context.Context, images []string) (string, error)
}

// Location is a search center in decimal degrees.
type Location struct {
	Lat float64
	Lng float64
}

// MatchRequest is the input of Client.Match.
type MatchRequest struct {
	Images   []string
	Location Location
	RadiusKm float64 // 0 = client default
}

// Listing is an adoptable animal.
type Listing struct {
	ID               int64
	Name             string
	Type             string
	Breed            string
	Age              string
	Gender           string
	Size             string
	Coat             string
	Color            string
	Description      string
	OrganizationID   string
	OrganizationName string
	URL              string
	Photos           []string
	DistanceMiles    *float64
}

// Attempt is one directory search of the relaxation loop.
type Attempt struct {
	Filters    map[string]string
	TotalCount int
	Err        error
}

// MatchResult is the outcome of Client.Match.
type MatchResult struct {
	ID         string
	Found      bool
	Traits     map[string]string // profile extracted from the images
	Removed    []string          // traits dropped before the final search, in order
	Attempts   []Attempt
	TotalCount int
	Listings   []Listing
	Warnings   []string
}

// RandomPet is the outcome of Client.RandomPet.
type RandomPet struct {
	Found           bool
	Pet             Listing
	SuggestedTraits map[string]string
	Attempts        int
	Warnings        []string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component → "ok"/"error"
}

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport describes vision call consumption for a period.
// CallsRemaining is -1 when no budget is configured.
type UsageReport struct {
	Period         UsagePeriod
	Provider       string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	CallsLimit     int64
	CallsUsed      int64
	CallsRemaining int64
	IsExhausted    bool
}
