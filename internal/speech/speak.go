package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Utterance is a request to read text aloud.
type Utterance struct {
	Text   string
	Locale string
	Rate   float64
	Pitch  float64
	Volume float64
	// Voice is a registry voice ID; empty selects the engine default.
	Voice string
}

// Audio is synthesized 16-bit little-endian mono PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
	// RateApplied is true when the engine already rendered the requested rate.
	RateApplied bool
}

// Synthesizer renders an utterance to PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, u Utterance) (Audio, error)
}

// Player plays PCM until it ends, fails or ctx is cancelled. speed > 1 plays
// faster and higher.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int, speed, volume float64) error
}

// Speaker is the output adapter. A new Speak cancels the active one and waits
// for it to stop before starting.
type Speaker struct {
	synth  Synthesizer
	player Player

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	active atomic.Int32
}

func NewSpeaker(synth Synthesizer, player Player) *Speaker {
	return &Speaker{synth: synth, player: player}
}

// Speaking reports whether a playback is in progress.
func (s *Speaker) Speaking() bool { return s.active.Load() > 0 }

// Speak reads u aloud and returns when playback completes or fails. It never
// reports an error; faults are logged and treated as the end of speech.
func (s *Speaker) Speak(ctx context.Context, u Utterance) {
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	prevCancel, prevDone := s.cancel, s.done
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	if prevCancel != nil {
		log.Debug().Msg("[TTS] cancelling active playback")
		prevCancel()
		<-prevDone
	}

	s.active.Add(1)
	defer func() {
		s.active.Add(-1)
		cancel()
		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
	}()

	if pctx.Err() != nil {
		return
	}

	audio, err := s.synth.Synthesize(pctx, u)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("[TTS] synthesis failed")
		}
		return
	}

	speed := u.Pitch
	if speed <= 0 {
		speed = 1
	}
	if !audio.RateApplied && u.Rate > 0 {
		speed *= u.Rate
	}
	volume := u.Volume
	if volume <= 0 {
		volume = 1
	}

	log.Debug().Int("bytes", len(audio.PCM)).Float64("speed", speed).Msg("[TTS] playing")
	if err := s.player.Play(pctx, audio.PCM, audio.SampleRate, speed, volume); err != nil && pctx.Err() == nil {
		log.Warn().Err(err).Msg("[TTS] playback failed")
	}
}

// Stop cancels the active playback, if any, and waits for it to end.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
