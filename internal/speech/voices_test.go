package speech

import "testing"

func TestRegistry_Prefer(t *testing.T) {
	reg := NewRegistry([]Voice{
		{ID: "en-female", Name: "Amy (female)", Lang: "en-US"},
		{ID: "at-male", Name: "Hans (male)", Lang: "de-AT"},
		{ID: "de-female", Name: "Anna (female)", Lang: "de-DE"},
		{ID: "de-male", Name: "Klaus (male)", Lang: "de-DE"},
	})

	cases := []struct {
		locale, gender string
		want           string
	}{
		{"de-DE", "male", "de-male"},
		{"de-DE", "female", "de-female"},
		{"de-DE", "robot", "de-female"},
		{"de-CH", "female", "at-male"},
	}
	for _, tc := range cases {
		v, ok := reg.Prefer(tc.locale, tc.gender)
		if !ok || v.ID != tc.want {
			t.Errorf("Prefer(%s, %s) = %s, %v; want %s", tc.locale, tc.gender, v.ID, ok, tc.want)
		}
	}

	if _, ok := reg.Prefer("fr-FR", "female"); ok {
		t.Fatalf("expected engine default for a locale without voices")
	}
}

func TestRegistry_FemaleIsNotMale(t *testing.T) {
	reg := NewRegistry([]Voice{
		{ID: "f", Name: "Viktoria (female)", Lang: "de-DE"},
		{ID: "m", Name: "Julius (male)", Lang: "de-DE"},
	})
	if v, _ := reg.Prefer("de-DE", "male"); v.ID != "m" {
		t.Fatalf("male preference matched %s", v.ID)
	}
}

func TestBuiltinVoicesCoverBothGenders(t *testing.T) {
	for name, voices := range map[string][]Voice{"deepgram": DeepgramVoices(), "openai": OpenAIVoices()} {
		reg := NewRegistry(voices)
		f, _ := reg.Prefer("de-DE", "female")
		m, _ := reg.Prefer("de-DE", "male")
		if f.ID == "" || m.ID == "" || f.ID == m.ID {
			t.Errorf("%s: female %q male %q", name, f.ID, m.ID)
		}
	}
}
