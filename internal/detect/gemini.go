package detect

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"pantry-service/internal/apperr"
	"pantry-service/internal/llmjson"
)

// ContentGenerator is the part of *genai.Models the adapter uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

const visionPrompt = `You are a kitchen assistant looking at a photo of pantry or fridge contents.
List only food ingredients that are clearly visible. Do not guess hidden items and do not list
containers, appliances or brands unless the food inside is obvious.

Respond strictly with JSON of this shape:
{"ingredients":[{"name":"ingredient name","confidence":"high|medium|low","note":"optional short remark"}]}

Use an empty list when no ingredient is visible.`

// Gemini detects ingredients with a Gemini vision model.
type Gemini struct {
	models ContentGenerator
	model  string
}

func NewGemini(models ContentGenerator, model string) *Gemini {
	return &Gemini{models: models, model: model}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiIngredient struct {
	Name       string          `json:"name"`
	Confidence json.RawMessage `json:"confidence"`
	Note       string          `json:"note"`
}

func (g *Gemini) Detect(ctx context.Context, img Image) ([]RawObservation, error) {
	mime := img.ContentType
	if mime == "" {
		mime = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(visionPrompt),
			genai.NewPartFromBytes(img.Data, mime),
		}, genai.RoleUser),
	}

	res, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, apperr.Mark(apperr.Wrap(err, "gemini: generate content"), apperr.ErrCapabilityUnavailable)
	}
	if res == nil {
		return nil, apperr.Mark(apperr.New("gemini: empty response"), apperr.ErrMalformedResponse)
	}
	return parseGeminiIngredients(res.Text())
}

func parseGeminiIngredients(text string) ([]RawObservation, error) {
	fragment := llmjson.ExtractFragment(text)
	if fragment == "" {
		return nil, apperr.Mark(apperr.New("gemini: no JSON in response"), apperr.ErrMalformedResponse)
	}

	var items []geminiIngredient
	if strings.HasPrefix(fragment, "[") {
		if err := json.Unmarshal([]byte(fragment), &items); err != nil {
			return nil, apperr.Mark(apperr.Wrap(err, "gemini: decode ingredient list"), apperr.ErrMalformedResponse)
		}
	} else {
		var wrapper struct {
			Ingredients []geminiIngredient `json:"ingredients"`
		}
		if err := json.Unmarshal([]byte(fragment), &wrapper); err != nil {
			return nil, apperr.Mark(apperr.Wrap(err, "gemini: decode ingredients"), apperr.ErrMalformedResponse)
		}
		items = wrapper.Ingredients
	}

	out := make([]RawObservation, 0, len(items))
	for _, it := range items {
		obs := RawObservation{Name: it.Name, Note: it.Note}
		switch conf := decodeConfidence(it.Confidence).(type) {
		case float64:
			obs.Score = &conf
		case string:
			obs.Level = conf
		}
		out = append(out, obs)
	}
	return out, nil
}

// decodeConfidence returns a float64, a string, or nil.
func decodeConfidence(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch c := v.(type) {
	case float64, string:
		return c
	}
	return nil
}
