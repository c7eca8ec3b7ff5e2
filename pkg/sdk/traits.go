package petmatch

import "github.com/kailas-cloud/petmatch/internal/domain/trait"

// SanitizeResponse isolates the JSON object in raw vision model output:
// code fences and zero-width characters are removed and the text between
// the first "{" and the last "}" is returned. It never fails.
func SanitizeResponse(raw string) string {
	return trait.Sanitize(raw)
}

// ParseTraits sanitizes raw model output and decodes it into a trait map.
// Unknown keys and non-string values are dropped. A decode failure returns
// an empty map and an error wrapping ErrTraitParse.
func ParseTraits(raw string) (map[string]string, error) {
	p, err := trait.Parse(raw)
	if err != nil {
		return map[string]string{}, err //nolint:wrapcheck // already wraps ErrTraitParse
	}
	return traitsMap(p), nil
}

// TraitWarnings lists values in traits outside the Petfinder taxonomy.
func TraitWarnings(traits map[string]string) []string {
	values := make(map[trait.Key]string, len(traits))
	for k, v := range traits {
		values[trait.Key(k)] = v
	}
	return trait.Violations(trait.NewProfile(values))
}

func traitsMap(p trait.Profile) map[string]string {
	out := make(map[string]string, p.Len())
	for k, v := range p.Filters() {
		out[string(k)] = v
	}
	return out
}
