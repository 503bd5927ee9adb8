package tutor

import (
	"fmt"
	"strings"
)

// MessageRole tags a message sent to the AI backend.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MaxReplyTokens caps the size of a generated reply.
const MaxReplyTokens = 1000

// Message is one role-tagged entry of a backend request.
type Message struct {
	Role    MessageRole
	Content string
}

// Prompt is a complete backend request for one tutor turn.
type Prompt struct {
	// System is the standing instruction; empty for the opening question.
	System    string
	Messages  []Message
	MaxTokens int
}

// continueKeywords let the learner skip to the next question.
var continueKeywords = []string{"далее", "weiter"}

func wantsNextQuestion(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, kw := range continueKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// BuildPrompt constructs the backend request for the next tutor turn. History
// is replayed as-is; exactly one new user message is appended.
func BuildPrompt(s *Session, latest string, isFirstTopicTurn bool) Prompt {
	level := s.Settings.Level
	p := Prompt{MaxTokens: MaxReplyTokens}

	if !s.hasDialogue() && !isFirstTopicTurn {
		p.Messages = []Message{{
			Role: RoleUser,
			Content: fmt.Sprintf("Du bist ein Deutschlehrer für Niveau %s. "+
				"Frage den Schüler auf Deutsch: \"Worüber möchten Sie sprechen?\" Sei kurz und freundlich.", level),
		}}
		return p
	}

	p.System = systemInstruction(s)
	for _, t := range s.turns {
		switch t.Speaker {
		case SpeakerLearner:
			p.Messages = append(p.Messages, Message{Role: RoleUser, Content: t.Text})
		case SpeakerTutor:
			p.Messages = append(p.Messages, Message{Role: RoleAssistant, Content: t.Text})
		}
	}

	topic, _ := s.Topic()
	var instruction string
	switch {
	case wantsNextQuestion(latest):
		instruction = fmt.Sprintf("Der Schüler sagt \"weiter\". Stelle eine neue Frage zum Thema \"%s\".", topic)
	case isFirstTopicTurn:
		instruction = fmt.Sprintf(`Der Schüler möchte über "%s" sprechen.

1. Das Thema ist "%s"
2. Nimm die Rolle ein: %s
3. Stelle die erste passende Frage in dieser Rolle
4. Passe an Niveau %s an

Antworte NUR mit der ersten Frage auf Deutsch, ohne Erklärungen.`, latest, topic, s.role.Persona(), level)
	default:
		instruction = fmt.Sprintf(`Der Schüler hat geantwortet: "%s"

Prüfe die Antwort auf:
1. Grammatikfehler
2. Aussprachefehler (basierend auf häufigen Fehlern)
3. Wortschatzprobleme

WENN FEHLER:
- Erkläre auf Russisch kurz den Fehler
- Zeige die richtige Form
- Bitte: "Bitte wiederholen Sie: [korrekte Form]"

WENN KORREKT:
- Kurzes Lob ("Sehr gut!", "Prima!")
- Stelle nächste Frage zum Thema "%s"

Bleibe in der Rolle: %s
Niveau: %s
Antworte NUR auf Deutsch (außer Fehlererklärungen auf Russisch).`, latest, topic, s.role.Persona(), level)
	}
	p.Messages = append(p.Messages, Message{Role: RoleUser, Content: instruction})
	return p
}

func systemInstruction(s *Session) string {
	level := s.Settings.Level
	var b strings.Builder
	fmt.Fprintf(&b, "Du bist ein geduldiger Deutschlehrer auf Niveau %s.", level)
	if topic, ok := s.Topic(); ok {
		fmt.Fprintf(&b, " Du spielst die Rolle von: %s. Bleibe in dieser Rolle und stelle nur Fragen zu diesem Thema: \"%s\".",
			s.role.Persona(), topic)
	}
	fmt.Fprintf(&b, `

WICHTIG:
1. Sprich NUR auf Deutsch
2. Passe Komplexität an %s an
3. Wenn der Schüler Fehler macht: erkläre den Fehler auf Russisch, zeige die richtige Form, und bitte um Wiederholung
4. Gib konstruktives Feedback
5. Halte Antworten kurz (1-3 Sätze)
6. Bleibe beim gewählten Thema`, level)
	return b.String()
}
