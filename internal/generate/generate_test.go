package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"pantry-service/internal/apperr"
)

type fakeModels struct {
	text string
	err  error

	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel, f.gotConfig = model, config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGemini_Generate(t *testing.T) {
	models := &fakeModels{text: `{"title":"Soup"}`}
	g := NewGemini(models, "gemini-2.5-flash")

	out, err := g.Generate(context.Background(), "make soup")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Soup"}`, out)
	assert.Equal(t, "make soup", models.gotPrompt)
	assert.Equal(t, "gemini-2.5-flash", models.gotModel)
	assert.Equal(t, "application/json", models.gotConfig.ResponseMIMEType)
	assert.NotNil(t, models.gotConfig.SystemInstruction)
}

func TestGemini_GenerateError(t *testing.T) {
	_, err := NewGemini(&fakeModels{err: errors.New("503")}, "m").Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCapabilityUnavailable))
}

type fakeChat struct {
	resp *openai.ChatCompletion
	err  error
	got  openai.ChatCompletionNewParams
}

func (f *fakeChat) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	return f.resp, f.err
}

func TestOpenAI_Generate(t *testing.T) {
	chat := &fakeChat{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: `{"title":"Omelette"}`},
		}},
	}}
	o := NewOpenAI(chat, "gpt-4o-mini")

	out, err := o.Generate(context.Background(), "eggs")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Omelette"}`, out)
	assert.Equal(t, openai.ChatModel("gpt-4o-mini"), chat.got.Model)
	assert.Len(t, chat.got.Messages, 2)
	assert.NotNil(t, chat.got.ResponseFormat.OfJSONObject)
}

func TestOpenAI_GenerateFailures(t *testing.T) {
	_, err := NewOpenAI(&fakeChat{err: errors.New("401")}, "m").Generate(context.Background(), "p")
	assert.True(t, apperr.Is(err, apperr.ErrCapabilityUnavailable))

	_, err = NewOpenAI(&fakeChat{resp: &openai.ChatCompletion{}}, "m").Generate(context.Background(), "p")
	assert.True(t, apperr.Is(err, apperr.ErrCapabilityUnavailable))
}
