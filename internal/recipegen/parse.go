package recipegen

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
	"pantry-service/internal/llmjson"
)

const DefaultTitle = "Untitled Recipe"

// recipeSchema holds what a generated recipe must carry to be stored.
const recipeSchema = `{
  "type": "object",
  "required": ["ingredients", "instructions"],
  "properties": {
    "ingredients": {
      "type": "array",
      "minItems": 1,
      "items": {
        "anyOf": [
          {"type": "object", "required": ["name"], "properties": {"name": {"type": "string", "minLength": 1}}},
          {"type": "string", "minLength": 1}
        ]
      }
    },
    "instructions": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

var compiledSchema = mustCompile(recipeSchema)

func mustCompile(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("recipe.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("recipe.json")
}

// Draft is a validated generated recipe not yet owned or stored.
type Draft struct {
	Title              string
	Description        string
	CookingTimeMinutes *int
	Difficulty         entity.Difficulty
	Ingredients        []entity.RecipeIngredient
	Instructions       []string
	Nutrition          map[string]any
}

// Parse decodes raw model output. A payload that is not a JSON object is
// apperr.ErrMalformedResponse; an object without usable ingredients or
// instructions is apperr.ErrIncompleteRecipe.
func Parse(raw string) (*Draft, error) {
	fragment := llmjson.ExtractFragment(raw)
	if fragment == "" || !strings.HasPrefix(fragment, "{") {
		return nil, apperr.Wrap(apperr.ErrMalformedResponse, "recipegen: response is not a JSON object")
	}

	var doc any
	if err := json.Unmarshal([]byte(fragment), &doc); err != nil {
		return nil, apperr.Wrapf(apperr.ErrMalformedResponse, "recipegen: decode: %v", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrMalformedResponse, "recipegen: response is not a JSON object")
	}

	if err := compiledSchema.Validate(obj); err != nil {
		return nil, apperr.Wrapf(apperr.ErrIncompleteRecipe, "recipegen: %v", err)
	}

	d := &Draft{
		Title:              stringOr(obj["title"], DefaultTitle),
		Description:        stringOr(obj["description"], ""),
		CookingTimeMinutes: minutes(obj["cooking_time"]),
		Difficulty:         difficulty(obj["difficulty"]),
		Ingredients:        ingredients(obj["ingredients"]),
		Instructions:       instructions(obj["instructions"]),
		Nutrition:          nutrition(obj["nutrition"]),
	}
	if len(d.Ingredients) == 0 {
		return nil, apperr.Wrap(apperr.ErrIncompleteRecipe, "recipegen: no usable ingredients")
	}
	if len(d.Instructions) == 0 {
		return nil, apperr.Wrap(apperr.ErrIncompleteRecipe, "recipegen: no usable instructions")
	}
	return d, nil
}

// Recipe materializes the draft for owner.
func (d *Draft) Recipe(ownerID string, now time.Time) *entity.Recipe {
	return &entity.Recipe{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Title:              d.Title,
		Description:        d.Description,
		CookingTimeMinutes: d.CookingTimeMinutes,
		Difficulty:         d.Difficulty,
		Ingredients:        d.Ingredients,
		Instructions:       d.Instructions,
		Nutrition:          d.Nutrition,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func stringOr(v any, def string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func difficulty(v any) entity.Difficulty {
	s, _ := v.(string)
	if d, ok := entity.ParseDifficulty(strings.ToLower(strings.TrimSpace(s))); ok {
		return d
	}
	return entity.DifficultyEasy
}

// minutes accepts 30, 30.0, "30" or "30 minutes".
func minutes(v any) *int {
	var n int
	switch t := v.(type) {
	case float64:
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		n = int(math.Round(t))
	case string:
		s := strings.TrimSpace(t)
		end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		if end == 0 {
			return nil
		}
		if end > 0 {
			s = s[:end]
		}
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

func ingredients(v any) []entity.RecipeIngredient {
	items, _ := v.([]any)
	out := make([]entity.RecipeIngredient, 0, len(items))
	for _, it := range items {
		switch t := it.(type) {
		case string:
			if name := strings.TrimSpace(t); name != "" {
				out = append(out, entity.RecipeIngredient{Name: name})
			}
		case map[string]any:
			name := stringOr(t["name"], "")
			if name == "" {
				continue
			}
			out = append(out, entity.RecipeIngredient{Name: name, Amount: amount(t["amount"])})
		}
	}
	return out
}

func amount(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func instructions(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func nutrition(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return m
}
