package generate

import (
	"context"

	"google.golang.org/genai"

	"pantry-service/internal/apperr"
)

// ContentGenerator is the part of *genai.Models the adapter uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	models ContentGenerator
	model  string
}

func NewGemini(models ContentGenerator, model string) *Gemini {
	return &Gemini{models: models, model: model}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleModel),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", apperr.Mark(apperr.Wrap(err, "gemini: generate content"), apperr.ErrCapabilityUnavailable)
	}
	if res == nil {
		return "", apperr.Mark(apperr.New("gemini: empty response"), apperr.ErrCapabilityUnavailable)
	}
	return res.Text(), nil
}
