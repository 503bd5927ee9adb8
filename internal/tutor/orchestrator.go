package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshucs12345/sprechen/internal/speech"
)

// Locale is the target language of the tutor.
const Locale = "de-DE"

const (
	pitchMale   = 0.9
	pitchFemale = 1.1
)

var (
	ErrAlreadyBusy = errors.New("conversation busy")
	// ErrNotStarted is a busy condition: no conversation is idle.
	ErrNotStarted             = fmt.Errorf("conversation not started: %w", ErrAlreadyBusy)
	ErrRecognitionUnsupported = errors.New("speech recognition unavailable for this session")
	ErrNothingToRepeat        = errors.New("no tutor turn to repeat")
)

// State of the dialogue loop.
type State int

const (
	StateTerminated State = iota
	StateIdle
	StateListening
	StateThinking
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateTerminated:
		return "terminated"
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Listener captures one learner utterance.
type Listener interface {
	Listen(ctx context.Context, timeoutHint time.Duration) (speech.Transcript, error)
}

// Output reads text aloud; Speak returns when playback ends either way.
type Output interface {
	Speak(ctx context.Context, u speech.Utterance)
	Stop()
}

// Backend generates the tutor's reply.
type Backend interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// VoicePicker chooses a synthesized voice for a locale and gender.
type VoicePicker interface {
	Prefer(locale, gender string) (speech.Voice, bool)
}

// StateChangeListener is called after every state transition, outside the
// orchestrator's lock.
type StateChangeListener func(from, to State)

type transition struct{ from, to State }

// ListenTimeout is the advisory wait for learner input at a speaking rate.
// Slower playback gives the learner more time to answer.
func ListenTimeout(rate float64) time.Duration {
	switch {
	case rate < 0.7:
		return 8000 * time.Millisecond
	case rate < 0.85:
		return 6000 * time.Millisecond
	case rate < 1.0:
		return 5000 * time.Millisecond
	default:
		return 4000 * time.Millisecond
	}
}

// Orchestrator runs the single active conversation. Listening, thinking and
// speaking are mutually exclusive: every operation checks and moves one state
// under a single mutex.
type Orchestrator struct {
	listener Listener
	speaker  Output
	backend  Backend
	voices   VoicePicker

	mu         sync.Mutex
	state      State
	session    *Session
	voice      string
	noRecog    bool
	epoch      uint64
	epochCtx   context.Context
	endEpoch   context.CancelFunc
	playGen    uint64
	stopListen context.CancelFunc
	listeners  []StateChangeListener
	pending    []transition
}

// New creates an orchestrator with no active conversation. voices may be nil.
func New(listener Listener, speaker Output, backend Backend, voices VoicePicker) *Orchestrator {
	return &Orchestrator{
		listener: listener,
		speaker:  speaker,
		backend:  backend,
		voices:   voices,
		state:    StateTerminated,
	}
}

// OnStateChange registers a transition listener.
func (o *Orchestrator) OnStateChange(l StateChangeListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(to State) {
	if o.state == to {
		return
	}
	log.Debug().Stringer("from", o.state).Stringer("to", to).Msg("[CONV] state")
	o.pending = append(o.pending, transition{from: o.state, to: to})
	o.state = to
}

// unlock releases the mutex and then notifies listeners of queued transitions.
func (o *Orchestrator) unlock() {
	pending := o.pending
	o.pending = nil
	listeners := o.listeners
	o.mu.Unlock()
	for _, t := range pending {
		for _, l := range listeners {
			l(t.from, t.to)
		}
	}
}

// Start begins a new conversation and speaks the opening question. It returns
// once the conversation is idle and ready for the first listen.
func (o *Orchestrator) Start(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state != StateTerminated {
		o.unlock()
		return ErrAlreadyBusy
	}
	o.epoch++
	epoch := o.epoch
	o.epochCtx, o.endEpoch = context.WithCancel(context.Background())
	o.session = NewSession(settings)
	o.noRecog = false
	o.pickVoice()
	o.session.append(Turn{
		Speaker: SpeakerSystem,
		Text:    fmt.Sprintf(msgOpening, settings.Level.Name(), settings.Voice.Label()),
	})
	prompt := BuildPrompt(o.session, "", false)
	o.setState(StateThinking)
	log.Info().Str("session", o.session.ID.String()).Str("level", string(settings.Level)).
		Float64("rate", settings.SpeechRate).Str("voice", string(settings.Voice)).Msg("[CONV] conversation started")
	o.unlock()

	o.respond(ctx, epoch, prompt)
	return nil
}

// Listen runs one learner turn: capture, AI reply and playback. Recognition
// and backend failures end the turn with a system message, not an error.
func (o *Orchestrator) Listen(ctx context.Context) error {
	o.mu.Lock()
	switch {
	case o.state == StateTerminated:
		o.unlock()
		return ErrNotStarted
	case o.state != StateIdle:
		o.unlock()
		return ErrAlreadyBusy
	case o.noRecog:
		o.unlock()
		return ErrRecognitionUnsupported
	}
	epoch := o.epoch
	lctx, cancel := context.WithCancel(ctx)
	o.stopListen = cancel
	hint := ListenTimeout(o.session.Settings.SpeechRate)
	o.setState(StateListening)
	o.unlock()

	tr, err := o.listener.Listen(lctx, hint)
	cancel()

	o.mu.Lock()
	o.stopListen = nil
	if o.epoch != epoch || o.state != StateListening {
		o.unlock()
		return nil
	}
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrUnsupported):
			log.Warn().Err(err).Msg("[CONV] recognition unsupported")
			o.noRecog = true
			o.session.append(Turn{Speaker: SpeakerSystem, Text: msgRecognitionDisabled})
		case errors.Is(err, speech.ErrNoSpeechDetected):
			o.session.append(Turn{Speaker: SpeakerSystem, Text: msgNoSpeech})
		default:
			log.Debug().Err(err).Msg("[CONV] listen ended without transcript")
		}
		o.setState(StateIdle)
		o.unlock()
		return nil
	}

	_, firstTopic := o.session.ChooseTopic(tr.Text)
	if firstTopic {
		log.Info().Str("topic", tr.Text).Stringer("role", o.session.Role()).Msg("[CONV] topic chosen")
	}
	prompt := BuildPrompt(o.session, tr.Text, firstTopic)
	confidence := tr.Confidence
	o.session.append(Turn{Speaker: SpeakerLearner, Text: tr.Text, Confidence: &confidence})
	o.setState(StateThinking)
	o.unlock()

	o.respond(ctx, epoch, prompt)
	return nil
}

// StopListening aborts an in-progress listen.
func (o *Orchestrator) StopListening() {
	o.mu.Lock()
	cancel := o.stopListen
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// respond awaits the backend, logs the tutor turn and plays it. The backend
// call is not cancellable; a reply arriving after Reset is dropped.
func (o *Orchestrator) respond(ctx context.Context, epoch uint64, prompt Prompt) {
	reply, err := o.backend.Complete(context.WithoutCancel(ctx), prompt)
	reply = strings.TrimSpace(reply)

	o.mu.Lock()
	if o.epoch != epoch || o.state != StateThinking {
		log.Debug().Msg("[CONV] discarding reply for ended conversation")
		o.unlock()
		return
	}
	if err == nil && reply == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		log.Error().Err(err).Msg("[CONV] backend failed")
		o.session.append(Turn{Speaker: SpeakerSystem, Text: msgBackendUnavailable})
		o.setState(StateIdle)
		o.unlock()
		return
	}

	fb := ApplyFeedback(o.session, reply)
	o.session.append(Turn{Speaker: SpeakerTutor, Text: fb.Stored, Corrective: fb.Corrective})
	if fb.Escalated {
		log.Info().Msg("[CONV] error streak escalated")
	}
	u := o.utterance(fb.Spoken)
	gen := o.beginSpeaking()
	o.unlock()

	o.play(ctx, epoch, gen, u)
}

// RepeatLast reads the last tutor turn aloud again, replacing any playback in
// progress.
func (o *Orchestrator) RepeatLast(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case StateTerminated:
		o.unlock()
		return ErrNotStarted
	case StateIdle, StateSpeaking:
	default:
		o.unlock()
		return ErrAlreadyBusy
	}
	last, ok := o.session.LastTutorTurn()
	if !ok {
		o.unlock()
		return ErrNothingToRepeat
	}
	epoch := o.epoch
	u := o.utterance(last.Text)
	gen := o.beginSpeaking()
	o.unlock()

	o.play(ctx, epoch, gen, u)
	return nil
}

func (o *Orchestrator) beginSpeaking() uint64 {
	o.playGen++
	o.setState(StateSpeaking)
	return o.playGen
}

// play skips playback replaced or reset before it began, and returns to Idle
// only if no newer playback replaced this one.
func (o *Orchestrator) play(ctx context.Context, epoch, gen uint64, u speech.Utterance) {
	o.mu.Lock()
	if o.epoch != epoch || o.playGen != gen {
		o.mu.Unlock()
		log.Debug().Msg("[TTS] playback superseded before start")
		return
	}
	// a Reset after this point cancels the playback through the epoch context
	pctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(o.epochCtx, cancel)
	o.mu.Unlock()

	log.Info().Str("text", u.Text).Msg("[TTS] speaking reply")
	o.speaker.Speak(pctx, u)
	stop()
	cancel()

	o.mu.Lock()
	if o.epoch == epoch && o.playGen == gen && o.state == StateSpeaking {
		o.setState(StateIdle)
	}
	o.unlock()
}

func (o *Orchestrator) utterance(text string) speech.Utterance {
	pitch := pitchFemale
	if o.session.Settings.Voice == VoiceMale {
		pitch = pitchMale
	}
	return speech.Utterance{
		Text:   text,
		Locale: Locale,
		Rate:   o.session.Settings.SpeechRate,
		Pitch:  pitch,
		Volume: 1.0,
		Voice:  o.voice,
	}
}

func (o *Orchestrator) pickVoice() {
	o.voice = ""
	if o.voices == nil {
		return
	}
	if v, ok := o.voices.Prefer(Locale, string(o.session.Settings.Voice)); ok {
		o.voice = v.ID
		log.Info().Str("voice", v.Name).Str("gender", string(o.session.Settings.Voice)).Msg("[TTS] voice selected")
	}
}

// SetVoice switches the voice profile of the running conversation.
func (o *Orchestrator) SetVoice(g VoiceGender) error {
	if g != VoiceFemale && g != VoiceMale {
		return fmt.Errorf("%w: voice %q", ErrInvalidSettings, g)
	}
	o.mu.Lock()
	defer o.unlock()
	if o.session == nil {
		return ErrNotStarted
	}
	o.session.Settings.Voice = g
	o.pickVoice()
	return nil
}

// SetSpeechRate changes playback speed and, with it, the listening timeout.
func (o *Orchestrator) SetSpeechRate(rate float64) error {
	o.mu.Lock()
	defer o.unlock()
	if o.session == nil {
		return ErrNotStarted
	}
	next := o.session.Settings
	next.SpeechRate = rate
	if err := next.Validate(); err != nil {
		return err
	}
	o.session.Settings = next
	return nil
}

// Reset ends the conversation from any state, clearing history and counters.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.stopListen != nil {
		o.stopListen()
		o.stopListen = nil
	}
	o.epoch++
	if o.endEpoch != nil {
		o.endEpoch()
		o.endEpoch = nil
	}
	o.session = nil
	o.noRecog = false
	o.voice = ""
	o.setState(StateTerminated)
	o.unlock()

	o.speaker.Stop()
	log.Info().Msg("[CONV] conversation reset")
}

// Snapshot is a consistent view of the conversation.
type Snapshot struct {
	State       State
	Settings    Settings
	Topic       string
	TopicSet    bool
	Role        Role
	ErrorStreak int
	Turns       []Turn
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{State: o.state}
	if o.session == nil {
		return snap
	}
	snap.Settings = o.session.Settings
	snap.Topic, snap.TopicSet = o.session.Topic()
	snap.Role = o.session.Role()
	snap.ErrorStreak = o.session.ErrorStreak()
	snap.Turns = o.session.Turns()
	return snap
}
