package trait

import (
	"fmt"
	"strings"
)

// Taxonomy values accepted by the pet directory for each trait.
// Type and size are open-ended on the directory side; the lists here are the
// documented values and are used for warnings only.
var (
	Types = []string{
		"dog", "cat", "rabbit", "small & furry", "horse",
		"bird", "scales, fins & other", "barnyard",
	}
	Sizes  = []string{"small", "medium", "large", "xlarge"}
	Ages   = []string{"baby", "young", "adult", "senior"}
	Coats  = []string{"short", "medium", "long", "wire", "hairless", "curly"}
	Colors = []string{
		"Apricot / Beige",
		"Bicolor",
		"Black",
		"Brindle",
		"Brown / Chocolate",
		"Golden",
		"Gray / Blue / Silver",
		"Harlequin",
		"Merle (Blue)",
		"Merle (Red)",
		"Red / Chestnut / Orange",
		"Sable",
		"Tricolor (Brown, Black, & White)",
		"White / Cream",
		"Yellow / Tan / Blond / Fawn",
	}
)

// Allowed returns the documented values for k.
func Allowed(k Key) []string {
	switch k {
	case Type:
		return Types
	case Size:
		return Sizes
	case Age:
		return Ages
	case Coat:
		return Coats
	case Color:
		return Colors
	default:
		return nil
	}
}

// Violations lists profile values outside the documented taxonomy.
// Matching is case-insensitive.
func Violations(p Profile) []string {
	var out []string
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		if !contains(Allowed(k), v) {
			out = append(out, fmt.Sprintf("%s %q is not a known value", k, v))
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, a := range values {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}

// ExtractionPrompt is the instruction sent with the reference images.
func ExtractionPrompt() string {
	return "Analyze these images of pets and describe the single ideal pet that best matches all of them, " +
		"as a Petfinder query to find similar adoptable pets. Use only these categories in your response: " +
		"type (e.g. dog, cat, bird), size (" + strings.Join(Sizes, ", ") + "), " +
		"age (" + strings.Join(Ages, ", ") + "), " +
		"coat (" + strings.Join(Coats, ", ") + "), " +
		"and color (ONLY ONE, EXACTLY AS FOLLOWING: " + strings.Join(Colors, ", ") + "). " +
		"Return only a valid JSON object with these properties. " +
		"Do not include code blocks, explanations, or formatting, just pure JSON."
}
