package match

import (
	"context"

	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// Extractor turns reference images into raw model text describing traits.
type Extractor interface {
	Extract(ctx context.Context, images []string) (string, error)
}

// Relaxer runs the progressive relaxation search.
type Relaxer interface {
	RunWithRadius(ctx context.Context, profile trait.Profile, loc geo.Point, radiusKm float64) (relax.Outcome, error)
}

// Enricher decorates matched listings. Enrichment never fails a match.
type Enricher interface {
	Enrich(ctx context.Context, listings []listing.Listing) []listing.Listing
}
