package tutor

import (
	"errors"
	"testing"
)

func TestSettingsValidate(t *testing.T) {
	ok := Settings{Level: LevelA1, SpeechRate: 0.5, Voice: VoiceMale}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	bad := []Settings{
		{Level: "D1", SpeechRate: 1, Voice: VoiceMale},
		{Level: LevelB2, SpeechRate: 0.49, Voice: VoiceMale},
		{Level: LevelB2, SpeechRate: 1.21, Voice: VoiceFemale},
		{Level: LevelB2, SpeechRate: 1, Voice: "robot"},
	}
	for _, s := range bad {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("%+v: expected ErrInvalidSettings, got %v", s, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" c1 ")
	if err != nil || l != LevelC1 {
		t.Fatalf("ParseLevel = %q, %v", l, err)
	}
	if _, err := ParseLevel("Z9"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if LevelB1.Name() != "B1 - Средний" {
		t.Fatalf("unexpected level name %q", LevelB1.Name())
	}
}

func TestSession_ChooseTopicOnce(t *testing.T) {
	s := newTestSession()
	if _, ok := s.Topic(); ok || s.Role() != RoleNone {
		t.Fatalf("fresh session must have neither topic nor role")
	}
	role, set := s.ChooseTopic("Ins Kino gehen")
	if !set || role != RoleCinemaClerk {
		t.Fatalf("first ChooseTopic = %s, %v", role, set)
	}
	role, set = s.ChooseTopic("Beim Arzt")
	if set || role != RoleCinemaClerk {
		t.Fatalf("second ChooseTopic must not change anything: %s, %v", role, set)
	}
	if topic, _ := s.Topic(); topic != "Ins Kino gehen" {
		t.Fatalf("topic overwritten: %q", topic)
	}
}

func TestSession_TurnsIsACopy(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerTutor, Text: "Hallo"})
	turns := s.Turns()
	turns[0].Text = "changed"
	if last, _ := s.LastTutorTurn(); last.Text != "Hallo" {
		t.Fatalf("log mutated through Turns()")
	}
	if turns[0].Timestamp.IsZero() {
		t.Fatalf("append should stamp the turn")
	}
}
