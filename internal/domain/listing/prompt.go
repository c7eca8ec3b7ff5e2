package listing

import (
	"fmt"
	"strings"
)

// DescriptionPrompt asks a language model for a short adoption blurb about l.
func DescriptionPrompt(l *Listing) string {
	var facts []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			facts = append(facts, label+": "+v)
		}
	}
	add("Name", l.Name)
	add("Type", l.Type)
	add("Breed", l.Breed)
	add("Age", l.Age)
	add("Gender", l.Gender)
	add("Size", l.Size)
	add("Coat", l.Coat)
	add("Color", l.Color)
	add("Shelter notes", l.Description)

	return fmt.Sprintf(
		"Write a warm, two-sentence description of this adoptable pet for someone "+
			"looking to adopt. Only use the facts given; do not invent medical or behavioral details. "+
			"Return plain text without markdown.\n\n%s",
		strings.Join(facts, "\n"),
	)
}
