package generate

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"pantry-service/internal/apperr"
)

// ChatCompleter is the part of openai.ChatCompletionService the adapter uses.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type OpenAI struct {
	chat  ChatCompleter
	model string
}

// NewOpenAI builds an adapter over client.Chat.Completions.
func NewOpenAI(chat ChatCompleter, model string) *OpenAI {
	return &OpenAI{chat: chat, model: model}
}

// NewOpenAIClient builds the SDK client for an API key and base URL.
func NewOpenAIClient(apiKey, baseURL string) openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", apperr.Mark(apperr.Wrap(err, "openai: chat completion"), apperr.ErrCapabilityUnavailable)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", apperr.Mark(apperr.New("openai: no choices returned"), apperr.ErrCapabilityUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
