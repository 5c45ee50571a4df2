// Package recipegen builds recipe generation prompts and turns model output
// into recipe drafts.
package recipegen

import (
	"strings"
)

const (
	DefaultSkillLevel = "Home cook"
	DefaultTimeLimit  = "30-45 minutes"
)

const promptTemplate = `Create one practical recipe for a {{SKILL_LEVEL}} that can be cooked in {{TIME_LIMIT}}.

Available ingredients: {{INGREDIENT_LIST}}

Use mainly the available ingredients. Common pantry staples (salt, pepper, oil, water) may be added.
Give clear numbered-free steps, one action per step.

Return the result in strictly JSON format with this structure:
{
  "title": "Recipe Name",
  "description": "A short appetizing description",
  "cooking_time": 30,
  "difficulty": "easy|medium|hard",
  "ingredients": [
    {"name": "ingredient name", "amount": "quantity and unit"}
  ],
  "instructions": [
    "Step 1 description"
  ],
  "nutrition": {
    "calories": "approx kcal",
    "protein": "grams",
    "fat": "grams",
    "carbs": "grams"
  }
}`

// BuildPrompt fills the recipe template for the given ingredient names.
func BuildPrompt(names []string) string {
	return BuildPromptWith(names, DefaultSkillLevel, DefaultTimeLimit)
}

func BuildPromptWith(names []string, skillLevel, timeLimit string) string {
	return strings.NewReplacer(
		"{{INGREDIENT_LIST}}", strings.Join(names, ", "),
		"{{SKILL_LEVEL}}", skillLevel,
		"{{TIME_LIMIT}}", timeLimit,
	).Replace(promptTemplate)
}
