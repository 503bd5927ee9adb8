package tutor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level is a CEFR proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levelNames = map[Level]string{
	LevelA1: "A1 - Начальный",
	LevelA2: "A2 - Элементарный",
	LevelB1: "B1 - Средний",
	LevelB2: "B2 - Выше среднего",
	LevelC1: "C1 - Продвинутый",
	LevelC2: "C2 - Мастер",
}

// Levels lists the proficiency scale in ascending order.
func Levels() []Level {
	return []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}
}

// ParseLevel accepts a level code in any case.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelNames[l]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// Name returns the level label shown to the learner.
func (l Level) Name() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return string(l)
}

// VoiceGender selects the synthesized voice profile.
type VoiceGender string

const (
	VoiceFemale VoiceGender = "female"
	VoiceMale   VoiceGender = "male"
)

// Label returns the learner-facing name of the voice profile.
func (g VoiceGender) Label() string {
	if g == VoiceMale {
		return "Мужской"
	}
	return "Женский"
}

// Speaker identifies who produced a turn.
type Speaker int

const (
	SpeakerLearner Speaker = iota
	SpeakerTutor
	SpeakerSystem
)

func (s Speaker) String() string {
	switch s {
	case SpeakerLearner:
		return "learner"
	case SpeakerTutor:
		return "tutor"
	case SpeakerSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Turn is one entry of the conversation log.
type Turn struct {
	Speaker    Speaker
	Text       string
	Corrective bool
	// Confidence is set only for learner turns produced by recognition.
	Confidence *float64
	Timestamp  time.Time
}

const (
	MinSpeechRate     = 0.5
	MaxSpeechRate     = 1.2
	DefaultSpeechRate = 0.85
)

var ErrInvalidSettings = errors.New("invalid session settings")

// Settings are chosen before a conversation starts. Voice and rate may change
// mid-conversation; the level may not.
type Settings struct {
	Level      Level
	SpeechRate float64
	Voice      VoiceGender
}

// Validate reports whether the settings can start a conversation.
func (s Settings) Validate() error {
	if _, ok := levelNames[s.Level]; !ok {
		return fmt.Errorf("%w: level %q", ErrInvalidSettings, s.Level)
	}
	if s.SpeechRate < MinSpeechRate || s.SpeechRate > MaxSpeechRate {
		return fmt.Errorf("%w: speech rate %.2f outside [%.1f, %.1f]",
			ErrInvalidSettings, s.SpeechRate, MinSpeechRate, MaxSpeechRate)
	}
	if s.Voice != VoiceFemale && s.Voice != VoiceMale {
		return fmt.Errorf("%w: voice %q", ErrInvalidSettings, s.Voice)
	}
	return nil
}

// Session is the state of the single active conversation. It is not safe for
// concurrent use; the Orchestrator serializes access.
type Session struct {
	ID       uuid.UUID
	Settings Settings

	topic       string
	role        Role
	topicSet    bool
	errorStreak int
	turns       []Turn
}

// NewSession creates an empty conversation for validated settings.
func NewSession(settings Settings) *Session {
	return &Session{
		ID:       uuid.New(),
		Settings: settings,
	}
}

// Topic returns the chosen topic and whether one has been chosen.
func (s *Session) Topic() (string, bool) { return s.topic, s.topicSet }

// Role returns the tutor persona. It is RoleNone until the topic is chosen.
func (s *Session) Role() Role { return s.role }

func (s *Session) ErrorStreak() int { return s.errorStreak }

// ChooseTopic records the topic utterance and the role derived from it. Only
// the first call has any effect; it reports whether the topic was set now.
func (s *Session) ChooseTopic(utterance string) (Role, bool) {
	if s.topicSet {
		return s.role, false
	}
	s.topic = utterance
	s.role = ClassifyRole(utterance)
	s.topicSet = true
	return s.role, true
}

func (s *Session) append(t Turn) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	s.turns = append(s.turns, t)
}

// Turns returns a copy of the conversation log.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// hasDialogue reports whether any learner or tutor turn exists.
func (s *Session) hasDialogue() bool {
	for _, t := range s.turns {
		if t.Speaker != SpeakerSystem {
			return true
		}
	}
	return false
}

// LastTutorTurn returns the most recent tutor turn.
func (s *Session) LastTutorTurn() (Turn, bool) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Speaker == SpeakerTutor {
			return s.turns[i], true
		}
	}
	return Turn{}, false
}
