package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDeepgramSynthesizer_Synthesize(t *testing.T) {
	var gotQuery, gotAuth, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		var body deepgramTTSPayload
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text
		_, _ = w.Write([]byte{1, 0, 2, 0})
	}))
	defer srv.Close()

	synth := NewDeepgramSynthesizer("secret")
	synth.URL = srv.URL
	out, err := synth.Synthesize(context.Background(), Utterance{Text: "Guten Tag", Voice: "aura-2-julius-de", Rate: 0.85})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(out.PCM) != 4 || out.SampleRate != 16000 || out.RateApplied {
		t.Fatalf("unexpected audio %+v", out)
	}
	if gotAuth != "Token secret" || gotText != "Guten Tag" {
		t.Fatalf("auth %q text %q", gotAuth, gotText)
	}
	for _, want := range []string{"model=aura-2-julius-de", "encoding=linear16", "container=none"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %s", gotQuery, want)
		}
	}
}

func TestDeepgramSynthesizer_DefaultVoice(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
	}))
	defer srv.Close()

	synth := NewDeepgramSynthesizer("secret")
	synth.URL = srv.URL
	if _, err := synth.Synthesize(context.Background(), Utterance{Text: "Hallo"}); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.Contains(gotQuery, "model="+DefaultDeepgramVoice) {
		t.Fatalf("query %q", gotQuery)
	}
}

func TestDeepgramSynthesizer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	synth := NewDeepgramSynthesizer("bad")
	synth.URL = srv.URL
	_, err := synth.Synthesize(context.Background(), Utterance{Text: "Hallo"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}

	if _, err := NewDeepgramSynthesizer("").Synthesize(context.Background(), Utterance{Text: "Hallo"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
