package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as report keys.
const (
	ComponentCache     = "cache"
	ComponentDirectory = "directory"
	ComponentVision    = "vision"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache     CachePinger
	directory Checker
	vision    Checker
}

// New creates a Service. Any dependency can be nil: the cache when caching is
// disabled, the vision provider when it has no cheap health endpoint.
func New(cache CachePinger, directory, vision Checker) *Service {
	return &Service{cache: cache, directory: directory, vision: vision}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		checks[ComponentCache] = result(s.cache.Ping(ctx))
	}
	if s.directory != nil {
		checks[ComponentDirectory] = result(s.directory.HealthCheck(ctx))
	}
	if s.vision != nil {
		checks[ComponentVision] = result(s.vision.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
