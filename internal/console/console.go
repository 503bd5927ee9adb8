// Package console is the push-to-talk terminal front end of the tutor.
package console

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/keshucs12345/sprechen/internal/tutor"
)

// MaxLoginAttempts bounds password prompts per run.
const MaxLoginAttempts = 3

const rateStep = 0.05

var ErrAccessDenied = errors.New("access denied")

// Conversation is the orchestrator surface the console drives.
type Conversation interface {
	Start(ctx context.Context, s tutor.Settings) error
	Listen(ctx context.Context) error
	StopListening()
	RepeatLast(ctx context.Context) error
	Reset()
	SetVoice(g tutor.VoiceGender) error
	SetSpeechRate(rate float64) error
	State() tutor.State
	Snapshot() tutor.Snapshot
	OnStateChange(l tutor.StateChangeListener)
}

// Console reads single-key commands from in and renders the conversation to out.
type Console struct {
	conv  Conversation
	lines <-chan string
	out   io.Writer

	mu      sync.Mutex
	printed int
	wg      sync.WaitGroup
}

func New(conv Conversation, in io.Reader, out io.Writer) *Console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &Console{conv: conv, lines: lines, out: out}
}

// Authenticate prompts for the shared password up to MaxLoginAttempts times.
func (c *Console) Authenticate(ctx context.Context, password string) error {
	for attempt := 1; attempt <= MaxLoginAttempts; attempt++ {
		c.printf("%s ", TitleStyle.UnsetMarginBottom().Render("Пароль:"))
		line, ok := c.readLine(ctx)
		if !ok {
			return ErrAccessDenied
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(line)), []byte(password)) == 1 {
			log.Info().Msg("[Auth] access granted")
			return nil
		}
		log.Warn().Int("attempt", attempt).Msg("[Auth] wrong password")
		c.println(SystemStyle.Render("Неверный пароль"))
	}
	return ErrAccessDenied
}

func (c *Console) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		return line, ok
	}
}

// Run starts a conversation with settings and processes commands until the
// learner quits, input ends or ctx is cancelled. The conversation is reset on
// return.
func (c *Console) Run(ctx context.Context, settings tutor.Settings) error {
	c.conv.OnStateChange(func(_, to tutor.State) {
		// show the learner turn while thinking and the reply while it plays
		if to == tutor.StateThinking || to == tutor.StateSpeaking {
			c.flush()
		}
		if status := statusLine(to); status != "" {
			c.println(StatusStyle.Render(status))
		}
	})
	defer func() {
		c.conv.Reset()
		c.wg.Wait()
		// a restart racing the first reset may have begun a new conversation
		c.conv.Reset()
	}()

	c.println(TitleStyle.Render("🇩🇪 Sprechen - Deutsch sprechen üben"))
	c.println(HelpStyle.Render(helpText))

	if err := c.conv.Start(ctx, settings); err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	c.flush()

	for {
		line, ok := c.readLine(ctx)
		if !ok {
			return nil
		}
		if quit := c.handle(ctx, strings.TrimSpace(strings.ToLower(line)), settings); quit {
			return nil
		}
	}
}

const helpText = `Enter  говорить / остановить запись
r      повторить последний ответ
v      сменить голос
+ / -  быстрее / медленнее
n      новый разговор
q      выход`

func (c *Console) handle(ctx context.Context, cmd string, settings tutor.Settings) bool {
	switch cmd {
	case "":
		if c.conv.State() == tutor.StateListening {
			c.conv.StopListening()
			return false
		}
		c.async(func() error { return c.conv.Listen(ctx) })
	case "r":
		c.async(func() error { return c.conv.RepeatLast(ctx) })
	case "v":
		next := tutor.VoiceMale
		if c.conv.Snapshot().Settings.Voice == tutor.VoiceMale {
			next = tutor.VoiceFemale
		}
		if err := c.conv.SetVoice(next); err != nil {
			c.report(err)
			return false
		}
		c.println(StatusStyle.Render("Голос: " + next.Label()))
	case "+", "-":
		rate := c.conv.Snapshot().Settings.SpeechRate
		if cmd == "+" {
			rate += rateStep
		} else {
			rate -= rateStep
		}
		rate = math.Round(rate*100) / 100
		if err := c.conv.SetSpeechRate(rate); err != nil {
			c.report(err)
			return false
		}
		c.println(StatusStyle.Render(fmt.Sprintf("Скорость: %.2f", rate)))
	case "n":
		c.conv.Reset()
		c.wg.Wait()
		c.mu.Lock()
		c.printed = 0
		c.mu.Unlock()
		c.async(func() error { return c.conv.Start(ctx, settings) })
	case "q":
		return true
	case "h", "?":
		c.println(HelpStyle.Render(helpText))
	default:
		c.println(SystemStyle.Render("Неизвестная команда: " + cmd))
	}
	return false
}

// async runs a blocking conversation operation so Enter can stop a listen in
// progress, then prints the turns it produced.
func (c *Console) async(op func() error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := op(); err != nil {
			c.report(err)
		}
		c.flush()
	}()
}

func (c *Console) report(err error) {
	switch {
	case errors.Is(err, tutor.ErrRecognitionUnsupported):
		c.println(SystemStyle.Render("Распознавание речи недоступно."))
	case errors.Is(err, tutor.ErrNothingToRepeat):
		c.println(StatusStyle.Render("Нечего повторять."))
	// ErrNotStarted wraps ErrAlreadyBusy, so it is matched first
	case errors.Is(err, tutor.ErrNotStarted):
		c.println(StatusStyle.Render("Разговор не начат. Нажмите n."))
	case errors.Is(err, tutor.ErrAlreadyBusy):
		c.println(StatusStyle.Render("⏳ Подождите..."))
	default:
		log.Error().Err(err).Msg("[Console] command failed")
	}
}

// flush prints the turns logged since the last flush.
func (c *Console) flush() {
	snap := c.conv.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.printed > len(snap.Turns) {
		c.printed = 0
	}
	for _, t := range snap.Turns[c.printed:] {
		fmt.Fprintln(c.out, RenderTurn(t, snap.Role))
	}
	c.printed = len(snap.Turns)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// RenderTurn formats one log entry. Tutor turns are labelled with the
// persona the tutor plays.
func RenderTurn(t tutor.Turn, role tutor.Role) string {
	switch t.Speaker {
	case tutor.SpeakerLearner:
		label := "👤 Вы"
		if t.Confidence != nil {
			label += fmt.Sprintf(" (%.0f%%)", *t.Confidence*100)
		}
		return LearnerStyle.Render(label+": ") + t.Text
	case tutor.SpeakerTutor:
		style := TutorStyle
		if t.Corrective {
			style = CorrectiveStyle
		}
		return style.Render("🎓 "+role.Persona()+": ") + style.Render(t.Text)
	default:
		return SystemStyle.Render(t.Text)
	}
}

func statusLine(s tutor.State) string {
	switch s {
	case tutor.StateListening:
		return "🎤 Слушаю... (Enter - стоп)"
	case tutor.StateThinking:
		return "🤔 Думаю..."
	case tutor.StateSpeaking:
		return "🔊 Говорю..."
	default:
		return ""
	}
}
