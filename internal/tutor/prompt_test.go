package tutor

import (
	"strings"
	"testing"
)

func userMessages(p Prompt) int {
	n := 0
	for _, m := range p.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

func TestBuildPrompt_OpeningQuestion(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerSystem, Text: "Уровень: B1"})

	p := BuildPrompt(s, "", false)
	if p.System != "" {
		t.Fatalf("opening prompt must not carry a system instruction")
	}
	if len(p.Messages) != 1 || p.Messages[0].Role != RoleUser {
		t.Fatalf("expected a single user message, got %+v", p.Messages)
	}
	if !strings.Contains(p.Messages[0].Content, "Worüber möchten Sie sprechen?") ||
		!strings.Contains(p.Messages[0].Content, "B1") {
		t.Fatalf("unexpected opening content %q", p.Messages[0].Content)
	}
	if p.MaxTokens != MaxReplyTokens {
		t.Fatalf("max tokens = %d", p.MaxTokens)
	}
}

func TestBuildPrompt_TopicSelection(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerTutor, Text: "Worüber möchten Sie sprechen?"})
	s.ChooseTopic("Ich möchte einkaufen gehen")

	p := BuildPrompt(s, "Ich möchte einkaufen gehen", true)
	for _, want := range []string{"B1", "Verkäufer", "Ich möchte einkaufen gehen", "Sprich NUR auf Deutsch", "1-3 Sätze"} {
		if !strings.Contains(p.System, want) {
			t.Errorf("system instruction missing %q", want)
		}
	}
	last := p.Messages[len(p.Messages)-1]
	if last.Role != RoleUser || !strings.Contains(last.Content, "Verkäufer") ||
		!strings.Contains(last.Content, "einkaufen") {
		t.Fatalf("topic instruction lacks seller framing: %q", last.Content)
	}
	if strings.Contains(last.Content, "WENN FEHLER") {
		t.Fatalf("topic instruction must not ask for error checking")
	}
	if p.Messages[0].Role != RoleAssistant {
		t.Fatalf("history should replay the opening question as assistant")
	}
}

func TestBuildPrompt_ContinueKeyword(t *testing.T) {
	for _, utterance := range []string{"Weiter bitte", "ДАЛЕЕ", "ok weiter"} {
		s := newTestSession()
		s.append(Turn{Speaker: SpeakerTutor, Text: "Worüber?"})
		s.ChooseTopic("Kino")
		s.append(Turn{Speaker: SpeakerLearner, Text: "Kino"})
		s.append(Turn{Speaker: SpeakerTutor, Text: "Welchen Film?"})

		p := BuildPrompt(s, utterance, false)
		last := p.Messages[len(p.Messages)-1].Content
		if !strings.Contains(last, "neue Frage") || !strings.Contains(last, `"Kino"`) {
			t.Fatalf("%q: expected continue instruction, got %q", utterance, last)
		}
	}
}

func TestBuildPrompt_ContinueTakesPriorityOverTopic(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerTutor, Text: "Worüber?"})
	s.ChooseTopic("weiter")
	p := BuildPrompt(s, "weiter", true)
	if !strings.Contains(p.Messages[len(p.Messages)-1].Content, "neue Frage") {
		t.Fatalf("continue keyword should win over topic selection")
	}
}

func TestBuildPrompt_CheckAndRespond(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerSystem, Text: "Уровень"})
	s.append(Turn{Speaker: SpeakerTutor, Text: "Worüber?"})
	s.ChooseTopic("Arzt")
	s.append(Turn{Speaker: SpeakerLearner, Text: "Arzt"})
	s.append(Turn{Speaker: SpeakerTutor, Text: "Was fehlt Ihnen?"})
	s.append(Turn{Speaker: SpeakerSystem, Text: "🎤 Речь не распознана."})

	before := s.Turns()
	p := BuildPrompt(s, "Ich habe Kopfschmerz", false)

	wantRoles := []MessageRole{RoleAssistant, RoleUser, RoleAssistant, RoleUser}
	if len(p.Messages) != len(wantRoles) {
		t.Fatalf("messages: got %d want %d", len(p.Messages), len(wantRoles))
	}
	for i, r := range wantRoles {
		if p.Messages[i].Role != r {
			t.Fatalf("message %d role %s want %s", i, p.Messages[i].Role, r)
		}
	}
	if p.Messages[2].Content != "Was fehlt Ihnen?" {
		t.Fatalf("history not replayed verbatim")
	}
	last := p.Messages[3].Content
	for _, want := range []string{"Ich habe Kopfschmerz", "WENN FEHLER", "Russisch", "Bitte wiederholen Sie", "Arzt", "B1"} {
		if !strings.Contains(last, want) {
			t.Errorf("check instruction missing %q", want)
		}
	}
	if len(s.Turns()) != len(before) {
		t.Fatalf("building a prompt must not touch the log")
	}
}

func TestBuildPrompt_AppendsExactlyOneUserMessage(t *testing.T) {
	s := newTestSession()
	s.append(Turn{Speaker: SpeakerTutor, Text: "Worüber?"})
	s.ChooseTopic("Job")
	s.append(Turn{Speaker: SpeakerLearner, Text: "Job"})
	s.append(Turn{Speaker: SpeakerTutor, Text: "Was arbeiten Sie?"})
	s.append(Turn{Speaker: SpeakerLearner, Text: "Ich bin Lehrer"})

	historyUsers := 2
	for _, tc := range []struct {
		latest string
		first  bool
	}{{"weiter", false}, {"Ich arbeite", false}, {"Job", true}} {
		p := BuildPrompt(s, tc.latest, tc.first)
		if got := userMessages(p); got != historyUsers+1 {
			t.Fatalf("%q: user messages %d want %d", tc.latest, got, historyUsers+1)
		}
	}
}
