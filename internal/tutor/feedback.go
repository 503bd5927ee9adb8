package tutor

import "strings"

// escalateAfter is the corrective turn count that triggers an escalation.
const escalateAfter = 3

// EscalationSuffix is appended to the third consecutive corrective reply.
const EscalationSuffix = "\n\n(Sie haben 3 Fehler gemacht. Möchten Sie über etwas anderes sprechen? Sagen Sie 'Thema wechseln' oder 'Weiter')"

// correctionMarkers are matched case-sensitively against tutor replies.
// This is a lexical heuristic: a reply that merely mentions "Fehler" counts as
// corrective, and a correction phrased without a marker does not.
var correctionMarkers = []string{"Fehler", "ошибка", "Bitte wiederholen"}

// Verdict is the outcome of classifying a tutor reply.
type Verdict struct {
	Corrective bool
}

// ClassifyReply decides whether a reply is corrective feedback.
func ClassifyReply(reply string) Verdict {
	for _, m := range correctionMarkers {
		if strings.Contains(reply, m) {
			return Verdict{Corrective: true}
		}
	}
	return Verdict{}
}

// Feedback is a classified reply ready to be logged and spoken.
type Feedback struct {
	// Stored is the text appended to the conversation log.
	Stored string
	// Spoken is the text read aloud; it never carries the escalation suffix.
	Spoken     string
	Corrective bool
	Escalated  bool
}

// ApplyFeedback classifies reply and advances the session's error streak.
func ApplyFeedback(s *Session, reply string) Feedback {
	fb := Feedback{Stored: reply, Spoken: reply}
	if !ClassifyReply(reply).Corrective {
		s.errorStreak = 0
		return fb
	}
	fb.Corrective = true
	if s.errorStreak+1 >= escalateAfter {
		fb.Stored = reply + EscalationSuffix
		fb.Escalated = true
		s.errorStreak = 0
		return fb
	}
	s.errorStreak++
	return fb
}
