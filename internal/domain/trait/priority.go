package trait

import (
	"fmt"

	"github.com/kailas-cloud/petmatch/internal/domain"
)

// Priority orders traits from least to most important.
// Relaxation removes traits in this order and never removes the last one.
type Priority []Key

// DefaultPriority returns the removal order used for matching: color first, type never.
func DefaultPriority() Priority {
	return Priority{Color, Coat, Age, Size, Type}
}

// Validate checks that every trait key appears exactly once.
func (p Priority) Validate() error {
	seen := make(map[Key]struct{}, len(p))
	for _, k := range p {
		if !k.IsValid() {
			return fmt.Errorf("%w: unknown trait %q", domain.ErrInvalidPriority, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate trait %q", domain.ErrInvalidPriority, k)
		}
		seen[k] = struct{}{}
	}
	for _, k := range Keys {
		if _, ok := seen[k]; !ok {
			return fmt.Errorf("%w: missing trait %q", domain.ErrInvalidPriority, k)
		}
	}
	return nil
}

// Protected returns the trait that relaxation never removes.
func (p Priority) Protected() Key {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// ParsePriority converts configured names into a validated Priority.
func ParsePriority(names []string) (Priority, error) {
	p := make(Priority, len(names))
	for i, n := range names {
		p[i] = Key(n)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
