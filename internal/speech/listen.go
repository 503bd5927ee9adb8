package speech

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrUnsupported means the platform cannot recognize speech at all.
	ErrUnsupported = errors.New("speech recognition unsupported")
	// ErrNoSpeechDetected means the attempt ended without any usable input.
	ErrNoSpeechDetected = errors.New("no speech detected")
	// ErrAborted means the attempt stopped without a result and nothing
	// should be reported to the learner.
	ErrAborted = errors.New("recognition aborted")
	// ErrBusy is returned when a listen is already outstanding.
	ErrBusy = errors.New("listener busy")
)

// Transcript is the top recognition hypothesis.
type Transcript struct {
	Text       string
	Confidence float64
}

// Request configures a single-utterance recognition attempt.
type Request struct {
	Locale string
	// Timeout is how long to wait for the learner to start speaking.
	Timeout time.Duration
}

// Recognizer runs one non-continuous recognition attempt and returns the final
// top hypothesis.
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (Transcript, error)
}

// Listener is the push-to-talk input adapter. At most one Listen runs at a time.
type Listener struct {
	rec       Recognizer
	locale    string
	listening atomic.Bool
}

func NewListener(rec Recognizer, locale string) *Listener {
	return &Listener{rec: rec, locale: locale}
}

// Listening reports whether a recognition attempt is in progress.
func (l *Listener) Listening() bool { return l.listening.Load() }

// Listen captures one utterance. Errors are always one of ErrUnsupported,
// ErrNoSpeechDetected, ErrAborted or ErrBusy.
func (l *Listener) Listen(ctx context.Context, timeoutHint time.Duration) (Transcript, error) {
	if l.rec == nil {
		return Transcript{}, ErrUnsupported
	}
	if !l.listening.CompareAndSwap(false, true) {
		return Transcript{}, ErrBusy
	}
	defer l.listening.Store(false)

	log.Debug().Dur("timeout", timeoutHint).Msg("[STT] listening")
	tr, err := l.rec.Recognize(ctx, Request{Locale: l.locale, Timeout: timeoutHint})
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported), errors.Is(err, ErrNoSpeechDetected):
		return Transcript{}, err
	case ctx.Err() != nil, errors.Is(err, ErrAborted):
		log.Debug().Msg("[STT] listen aborted")
		return Transcript{}, ErrAborted
	default:
		log.Warn().Err(err).Msg("[STT] recognition stopped")
		return Transcript{}, ErrAborted
	}

	tr.Text = strings.TrimSpace(tr.Text)
	if tr.Text == "" {
		return Transcript{}, ErrNoSpeechDetected
	}
	log.Info().Str("text", tr.Text).Float64("confidence", tr.Confidence).Msg("[STT] transcript")
	return tr, nil
}
