package speech

import (
	"strings"
	"unicode"
)

// Voice is an entry of the synthesized voice registry.
type Voice struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Lang string `toml:"lang"`
}

// Registry holds the voices an engine offers.
type Registry struct {
	voices []Voice
}

func NewRegistry(voices []Voice) *Registry {
	return &Registry{voices: append([]Voice(nil), voices...)}
}

func (r *Registry) Voices() []Voice {
	return append([]Voice(nil), r.voices...)
}

type voicePredicate func(v Voice) bool

// Prefer returns the best voice for locale and gender: a locale voice tagged
// with the gender, then any locale voice, then any voice sharing the base
// language. ok is false when nothing matches and the engine default applies.
func (r *Registry) Prefer(locale, gender string) (Voice, bool) {
	base := strings.SplitN(locale, "-", 2)[0] + "-"
	chain := []voicePredicate{
		func(v Voice) bool { return v.Lang == locale && hasTag(v.Name, gender) },
		func(v Voice) bool { return v.Lang == locale },
		func(v Voice) bool { return strings.HasPrefix(v.Lang, base) },
	}
	for _, match := range chain {
		for _, v := range r.voices {
			if match(v) {
				return v, true
			}
		}
	}
	return Voice{}, false
}

// hasTag reports whether tag appears as a whole word in name, so "female" does
// not count as "male".
func hasTag(name, tag string) bool {
	if tag == "" {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if w == strings.ToLower(tag) {
			return true
		}
	}
	return false
}

// DeepgramVoices are the German Aura voices.
func DeepgramVoices() []Voice {
	return []Voice{
		{ID: "aura-2-viktoria-de", Name: "Viktoria (female)", Lang: "de-DE"},
		{ID: "aura-2-julius-de", Name: "Julius (male)", Lang: "de-DE"},
		{ID: "aura-2-elara-de", Name: "Elara (female)", Lang: "de-DE"},
		{ID: "aura-2-fabian-de", Name: "Fabian (male)", Lang: "de-DE"},
	}
}

// OpenAIVoices are the multilingual OpenAI voices, registered for German.
func OpenAIVoices() []Voice {
	return []Voice{
		{ID: "nova", Name: "Nova (female)", Lang: "de-DE"},
		{ID: "onyx", Name: "Onyx (male)", Lang: "de-DE"},
		{ID: "shimmer", Name: "Shimmer (female)", Lang: "de-DE"},
		{ID: "echo", Name: "Echo (male)", Lang: "de-DE"},
	}
}
