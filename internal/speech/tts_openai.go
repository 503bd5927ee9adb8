package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// openAIPCMRate is the sample rate of OpenAI's raw pcm output.
	openAIPCMRate = 24000
	// DefaultOpenAIVoice is used when the utterance names no voice.
	DefaultOpenAIVoice = "nova"
)

// OpenAISynthesizer renders speech with the OpenAI speech endpoint, which
// applies the speaking rate itself.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
}

func NewOpenAISynthesizer(client *openai.Client) *OpenAISynthesizer {
	return &OpenAISynthesizer{client: client, model: openai.TTSModel1}
}

func (t *OpenAISynthesizer) Synthesize(ctx context.Context, u Utterance) (Audio, error) {
	voice := u.Voice
	if voice == "" {
		voice = DefaultOpenAIVoice
	}
	speed := u.Rate
	if speed <= 0 {
		speed = 1
	}

	resp, err := t.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          t.model,
		Input:          u.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          speed,
	})
	if err != nil {
		return Audio{}, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return Audio{}, fmt.Errorf("openai speech body: %w", err)
	}
	return Audio{PCM: pcm, SampleRate: openAIPCMRate, RateApplied: true}, nil
}
