package enrich

import (
	"context"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
)

// Describer generates a listing description.
type Describer interface {
	Describe(ctx context.Context, l listing.Listing) (string, error)
}

// OrganizationLookup resolves shelter names.
type OrganizationLookup interface {
	OrganizationName(ctx context.Context, id string) (string, error)
}
