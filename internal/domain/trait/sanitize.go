package trait

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/kailas-cloud/petmatch/internal/domain"
)

var (
	// Fence padding also covers NBSP and BOM, which RE2's \s does not.
	leadingFence  = regexp.MustCompile("(?i)^[\\s\\x{00A0}\\x{FEFF}]*```(?:json)?[\\s\\x{00A0}\\x{FEFF}]*")
	trailingFence = regexp.MustCompile("[\\s\\x{00A0}\\x{FEFF}]*```[\\s\\x{00A0}\\x{FEFF}]*$")

	// Zero-width space, non-joiner, joiner and byte-order mark.
	invisible = strings.NewReplacer("\u200B", "", "\u200C", "", "\u200D", "", "\uFEFF", "")
)

// Sanitize isolates the JSON object embedded in raw model output.
//
// It strips a leading ``` / ```json fence and a trailing ```, removes
// zero-width and BOM characters, then returns the text from the first "{"
// to the last "}" inclusive. Without such a pair the whole cleaned text is
// returned and decoding is left to fail downstream.
func Sanitize(raw string) string {
	text := leadingFence.ReplaceAllString(raw, "")
	text = trailingFence.ReplaceAllString(text, "")
	text = invisible.Replace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(text[start : end+1])
	}
	return strings.TrimSpace(text)
}

// Parse sanitizes raw model output and decodes it into a Profile.
// On failure it returns an empty profile and an error wrapping domain.ErrTraitParse;
// the empty profile is a valid, unfiltered input for relaxation.
func Parse(raw string) (Profile, error) {
	cleaned := Sanitize(raw)
	if cleaned == "" {
		return Profile{}, fmt.Errorf("%w: empty model output", domain.ErrTraitParse)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return Profile{}, fmt.Errorf("%w: %w", domain.ErrTraitParse, err)
	}

	// Case variants of one key ("Type", "TYPE") resolve deterministically:
	// the exact lower-case key wins, otherwise the first name in sorted order.
	values := make(map[Key]string, len(obj))
	exact := make(map[Key]bool, len(obj))
	for _, name := range slices.Sorted(maps.Keys(obj)) {
		k := Key(strings.ToLower(strings.TrimSpace(name)))
		if !k.IsValid() || exact[k] {
			continue
		}
		s, ok := scalar(obj[name])
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		isExact := name == string(k)
		if _, seen := values[k]; seen && !isExact {
			continue
		}
		values[k] = s
		exact[k] = isExact
	}
	return NewProfile(values), nil
}

// scalar extracts a single string value. Models occasionally answer with a
// list despite the prompt; the first string element wins.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}
