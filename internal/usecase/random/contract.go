package random

import (
	"context"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

// Searcher queries the pet directory.
type Searcher interface {
	Search(ctx context.Context, q listing.Query) (listing.Result, error)
}

// Profiler extracts a trait profile from images, degrading failures to warnings.
type Profiler interface {
	Profile(ctx context.Context, images []string) (trait.Profile, []string, error)
}
