package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed match request (no images, bad parameters).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidLocation signals a missing or out-of-range location.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidPriority signals a trait priority list that does not cover the profile keys.
	ErrInvalidPriority = errors.New("invalid trait priority")

	// ErrTraitExtraction signals that the vision provider failed or returned nothing usable.
	ErrTraitExtraction = errors.New("trait extraction failed")
	// ErrTraitParse signals that sanitized extractor output is not a JSON object.
	ErrTraitParse = errors.New("trait profile parse failed")

	// ErrDirectory signals a pet directory transport or API failure.
	ErrDirectory = errors.New("pet directory error")
	// ErrDirectoryAuth signals that the directory rejected the client credentials.
	ErrDirectoryAuth = errors.New("pet directory authentication failed")
	// ErrRateLimited signals a rate limit hit on an upstream API.
	ErrRateLimited = errors.New("rate limited")

	// ErrBudgetExceeded signals that the vision call budget is exhausted.
	ErrBudgetExceeded = errors.New("vision call budget exceeded")

	// ErrEnrichment signals a failed description or organization lookup.
	ErrEnrichment = errors.New("enrichment failed")
	// ErrNotFound signals a missing upstream resource.
	ErrNotFound = errors.New("not found")
)
