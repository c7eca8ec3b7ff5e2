package petmatch

import "github.com/kailas-cloud/petmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrInvalidLocation = domain.ErrInvalidLocation
	ErrBudgetExceeded  = domain.ErrBudgetExceeded
	ErrRateLimited     = domain.ErrRateLimited
	ErrDirectory       = domain.ErrDirectory
	ErrDirectoryAuth   = domain.ErrDirectoryAuth
	ErrTraitExtraction = domain.ErrTraitExtraction
	ErrTraitParse      = domain.ErrTraitParse
)
