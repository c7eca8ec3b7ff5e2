package health

import "context"

// CachePinger checks cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an upstream API (pet directory, vision provider).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
