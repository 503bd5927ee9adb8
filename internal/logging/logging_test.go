package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	if got := Setup("warn", &buf); got != zerolog.WarnLevel {
		t.Fatalf("level %s", got)
	}
	log.Info().Msg("[CONV] hidden")
	log.Warn().Msg("[CONV] visible")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "[CONV] visible") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSetup_UnknownLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	if got := Setup("loud", &buf); got != zerolog.InfoLevel {
		t.Fatalf("level %s", got)
	}
	if !strings.Contains(buf.String(), "unknown log level") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
	if got := Setup("", &buf); got != zerolog.InfoLevel {
		t.Fatalf("empty level %s", got)
	}
}
