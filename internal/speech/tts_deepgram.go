package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/keshucs12345/sprechen/internal/audio"
)

// DefaultDeepgramVoice is used when the utterance names no voice.
const DefaultDeepgramVoice = "aura-2-viktoria-de"

// DeepgramSynthesizer renders speech with Deepgram's REST speak endpoint.
type DeepgramSynthesizer struct {
	apiKey string
	// URL is the speak endpoint; it defaults to https://api.deepgram.com/v1/speak.
	URL    string
	client *http.Client
}

func NewDeepgramSynthesizer(apiKey string) *DeepgramSynthesizer {
	return &DeepgramSynthesizer{
		apiKey: apiKey,
		URL:    "https://api.deepgram.com/v1/speak",
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type deepgramTTSPayload struct {
	Text string `json:"text"`
}

// Synthesize returns linear16 PCM at 16 kHz. Deepgram has no rate or pitch
// controls, so both are left to the player.
func (t *DeepgramSynthesizer) Synthesize(ctx context.Context, u Utterance) (Audio, error) {
	if t.apiKey == "" {
		return Audio{}, fmt.Errorf("deepgram api key missing")
	}
	voice := u.Voice
	if voice == "" {
		voice = DefaultDeepgramVoice
	}

	endpoint, err := url.Parse(t.URL)
	if err != nil {
		return Audio{}, err
	}
	q := endpoint.Query()
	q.Set("model", voice)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("container", "none")
	endpoint.RawQuery = q.Encode()

	body, err := json.Marshal(deepgramTTSPayload{Text: u.Text})
	if err != nil {
		return Audio{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Audio{}, err
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return Audio{}, fmt.Errorf("deepgram TTS error: status %d: %s", resp.StatusCode, string(b))
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, err
	}
	return Audio{PCM: pcm, SampleRate: audio.SampleRate}, nil
}
