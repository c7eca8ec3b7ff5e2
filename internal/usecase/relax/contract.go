package relax

import (
	"context"

	"github.com/kailas-cloud/petmatch/internal/domain/listing"
)

// Searcher queries the pet directory. TotalCount in the result must reflect
// all matches, not just the returned page.
type Searcher interface {
	Search(ctx context.Context, q listing.Query) (listing.Result, error)
}
