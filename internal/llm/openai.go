package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/keshucs12345/sprechen/internal/tutor"
)

var (
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("ai backend unavailable")
	// ErrMalformedReply means the response carried no usable text.
	ErrMalformedReply = errors.New("ai backend reply malformed")
)

const DefaultModel = openai.GPT4oMini

// OpenAILLM completes tutor prompts with the chat completions API.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

// NewClient builds a go-openai client; baseURL may be empty.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func NewOpenAILLM(client *openai.Client, model string) *OpenAILLM {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAILLM{client: client, model: model}
}

// Complete sends the prompt as one chat completion request.
func (l *OpenAILLM) Complete(ctx context.Context, p tutor.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	for _, m := range p.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == tutor.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	log.Debug().Int("messages", len(messages)).Str("model", l.model).Msg("[LLM] request")
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     l.model,
		Messages:  messages,
		MaxTokens: p.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedReply)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformedReply)
	}
	log.Debug().Str("reply", text).Msg("[LLM] response")
	return text, nil
}
