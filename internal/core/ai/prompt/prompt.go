// Package prompt 建構送往推論服務的請求文字。
package prompt

import (
	"fmt"
	"strings"
)

// Intent 推論請求的用途，用於日誌與指標
type Intent string

const (
	IntentIngredients Intent = "ingredients"
	IntentBanners     Intent = "banners"
	IntentFullRecipe  Intent = "full_recipe"
)

const ingredientDetection = `Analyze this image and identify all visible food ingredients.
Return ONLY valid JSON with ingredient names in PORTUGUESE (Brazilian Portuguese).
Format: {"ingredients":["ingrediente1","ingrediente2"]}
No additional text, just JSON.`

// IngredientDetection 食材辨識提示，呼叫端需一併附上圖片
func IngredientDetection() string {
	return ingredientDetection
}

// Banners 以食材產生 3 個不同的食譜摘要
func Banners(ingredients []string) string {
	list := strings.Join(ingredients, ", ")
	quoted := quoteAll(ingredients)

	var b strings.Builder
	fmt.Fprintf(&b, "Create 3 different recipe banners using these ingredients: %s\n\n", list)
	b.WriteString("IMPORTANT: Write the recipe names and descriptions in PORTUGUESE (Brazilian Portuguese).\n\n")
	b.WriteString("Return EXACTLY this JSON structure with REAL VALUES (never the word \"string\" or any other placeholder):\n")
	b.WriteString("{\n  \"recipes\": [\n")
	times := []string{"45 minutos", "30 minutos", "60 minutos"}
	servings := []string{"4 porções", "2 porções", "6 porções"}
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, `    {
      "name": "actual recipe name %[1]d in PORTUGUESE",
      "description": "actual description %[1]d in PORTUGUESE",
      "ingredients": [%[2]s],
      "imageUrl": "actual image url here",
      "estimatedTime": "actual time like '%[3]s'",
      "difficulty": "fácil/médio/difícil",
      "servings": "actual number like '%[4]s'"
    }`, i+1, quoted, times[i], servings[i])
		if i < 2 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ]\n}\n\n")
	b.WriteString("Make each recipe different in cooking style and complexity. Replace ALL placeholder values with real content. No additional text, just JSON.")
	return b.String()
}

// FullRecipe 產生單一完整食譜
func FullRecipe(name string, ingredients []string) string {
	return fmt.Sprintf(`Create a complete recipe for: %s
Using these ingredients: %s

IMPORTANT: Write the recipe name, description and instructions in PORTUGUESE (Brazilian Portuguese).

Return EXACTLY this JSON structure with REAL VALUES (never the word "string" or any other placeholder):
{
  "receita": {
    "name": "actual recipe name in PORTUGUESE",
    "description": "actual description in PORTUGUESE",
    "imageUrl": "actual image url",
    "estimatedTime": "actual time like '45 minutos'",
    "difficulty": "fácil/médio/difícil",
    "servings": "actual number like '4 porções'",
    "ingredients": [
      {
        "name": "actual ingredient name in PORTUGUESE",
        "quantity": "actual quantity like '2 xícaras'"
      }
    ],
    "instructions": ["step 1 description in PORTUGUESE", "step 2 description in PORTUGUESE"],
    "preparationTime": "actual prep time like '15 minutos'",
    "cookingTime": "actual cook time like '30 minutos'",
    "totalTime": "actual total time like '45 minutos'"
  }
}

Replace ALL placeholder values with real content. No additional text, just JSON.`, name, strings.Join(ingredients, ", "))
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}
