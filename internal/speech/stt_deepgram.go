package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/keshucs12345/sprechen/internal/audio"
)

// FrameSource streams captured PCM frames into out and closes it when done.
type FrameSource func(ctx context.Context, out chan<- []int16) error

// maxUtterance bounds an attempt once the learner has started speaking.
const maxUtterance = 30 * time.Second

// DeepgramRecognizer performs single-utterance recognition over Deepgram's
// live transcription websocket.
type DeepgramRecognizer struct {
	apiKey string
	// URL is the live endpoint; it defaults to wss://api.deepgram.com/v1/listen.
	URL    string
	Model  string
	source FrameSource
	vad    VoiceDetector
	dialer *websocket.Dialer
}

func NewDeepgramRecognizer(apiKey, model string, source FrameSource, vad VoiceDetector) *DeepgramRecognizer {
	return &DeepgramRecognizer{
		apiKey: apiKey,
		URL:    "wss://api.deepgram.com/v1/listen",
		Model:  model,
		source: source,
		vad:    vad,
		dialer: websocket.DefaultDialer,
	}
}

type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

func (d *DeepgramRecognizer) endpoint(locale string) (string, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", d.Model)
	q.Set("language", strings.SplitN(locale, "-", 2)[0])
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", "1")
	q.Set("interim_results", "false")
	q.Set("punctuate", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Recognize streams microphone audio until the first final transcript. With a
// voice detector, req.Timeout is the deadline for speech onset; without one it
// is the deadline for the final result.
func (d *DeepgramRecognizer) Recognize(ctx context.Context, req Request) (Transcript, error) {
	if d.apiKey == "" || d.source == nil {
		return Transcript{}, ErrUnsupported
	}
	endpoint, err := d.endpoint(req.Locale)
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram endpoint: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)

	log.Debug().Str("url", endpoint).Msg("[STT] connecting to Deepgram WebSocket")
	conn, _, err := d.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram dial: %w", err)
	}
	defer func() {
		log.Debug().Msg("[STT] closing Deepgram WebSocket")
		conn.Close()
	}()

	captureCtx, stopCapture := context.WithCancel(ctx)
	defer stopCapture()

	frames := make(chan []int16, 32)
	captureErr := make(chan error, 1)
	go func() { captureErr <- d.source(captureCtx, frames) }()

	results := make(chan Transcript, 1)
	readErr := make(chan error, 1)
	go d.read(conn, results, readErr)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = maxUtterance
	}
	onset := time.NewTimer(timeout)
	defer onset.Stop()
	hardCap := time.NewTimer(timeout + maxUtterance)
	defer hardCap.Stop()

	heard := false
	for {
		select {
		case <-ctx.Done():
			d.closeStream(conn)
			return Transcript{}, ErrAborted

		case frame, ok := <-frames:
			if !ok {
				frames = nil
				d.closeStream(conn)
				continue
			}
			if !heard && d.vad != nil && d.vad.Voiced(frame) {
				heard = true
				onset.Stop()
				log.Debug().Msg("[STT] speech onset")
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, audio.Int16ToBytes(frame)); err != nil {
				return Transcript{}, fmt.Errorf("deepgram write: %w", err)
			}

		case err := <-captureErr:
			captureErr = nil
			if errors.Is(err, audio.ErrUnavailable) {
				return Transcript{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
			}
			if err != nil {
				return Transcript{}, err
			}

		case <-onset.C:
			if !heard {
				d.closeStream(conn)
				return Transcript{}, ErrNoSpeechDetected
			}

		case <-hardCap.C:
			d.closeStream(conn)
			return Transcript{}, ErrNoSpeechDetected

		case tr := <-results:
			return tr, nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return Transcript{}, ErrAborted
			}
			return Transcript{}, err
		}
	}
}

func (d *DeepgramRecognizer) read(conn *websocket.Conn, results chan<- Transcript, readErr chan<- error) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = ErrNoSpeechDetected
			}
			readErr <- err
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			log.Debug().Str("msg", string(msg)).Msg("[STT] unable to parse message")
			continue
		}
		if !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
			continue
		}
		top := resp.Channel.Alternatives[0]
		if strings.TrimSpace(top.Transcript) == "" {
			continue
		}
		log.Debug().Str("text", top.Transcript).Msg("[STT] final transcript from Deepgram")
		results <- Transcript{Text: top.Transcript, Confidence: top.Confidence}
		return
	}
}

func (d *DeepgramRecognizer) closeStream(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
}
