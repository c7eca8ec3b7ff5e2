// Package trait models the pet characteristics derived from reference images
// and used as directory search filters.
package trait

import (
	"encoding/json"
	"strings"
)

// Key names a single trait. The set of keys is fixed.
type Key string

// Trait keys.
const (
	Type  Key = "type"
	Size  Key = "size"
	Age   Key = "age"
	Coat  Key = "coat"
	Color Key = "color"
)

// Keys lists every trait key in canonical order.
var Keys = []Key{Type, Size, Age, Coat, Color}

// IsValid reports whether k is one of the fixed trait keys.
func (k Key) IsValid() bool {
	switch k {
	case Type, Size, Age, Coat, Color:
		return true
	default:
		return false
	}
}

// Profile is an immutable mapping of trait keys to values.
// Not every key has to be present. The zero value is an empty profile.
type Profile struct {
	values map[Key]string
}

// NewProfile builds a profile from values, dropping unknown keys and blank values.
func NewProfile(values map[Key]string) Profile {
	p := Profile{values: make(map[Key]string, len(values))}
	for k, v := range values {
		v = strings.TrimSpace(v)
		if !k.IsValid() || v == "" {
			continue
		}
		p.values[k] = v
	}
	return p
}

// Get returns the value for k.
func (p Profile) Get(k Key) (string, bool) {
	v, ok := p.values[k]
	return v, ok
}

// Len returns the number of populated traits.
func (p Profile) Len() int { return len(p.values) }

// IsEmpty reports whether no trait is populated.
func (p Profile) IsEmpty() bool { return len(p.values) == 0 }

// Keys returns the populated keys in canonical order.
func (p Profile) Keys() []Key {
	keys := make([]Key, 0, len(p.values))
	for _, k := range Keys {
		if _, ok := p.values[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Filters returns a fresh copy of the trait values. Callers own the returned map.
func (p Profile) Filters() map[Key]string {
	out := make(map[Key]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the profile as a flat JSON object.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(p.values))
	for k, v := range p.values {
		m[string(k)] = v
	}
	return json.Marshal(m)
}
