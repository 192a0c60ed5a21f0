package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngredientDetection(t *testing.T) {
	p := IngredientDetection()

	assert.Contains(t, p, `{"ingredients":[`)
	assert.Contains(t, p, "PORTUGUESE")
	assert.Contains(t, p, "No additional text")
}

func TestBannersContainsEveryIngredient(t *testing.T) {
	cases := [][]string{
		{"tomate"},
		{"tomate", "queijo", "manjericão"},
		{"farinha de trigo", "ovo", "leite", "açúcar mascavo"},
	}

	for _, ingredients := range cases {
		p := Banners(ingredients)
		for _, name := range ingredients {
			assert.Contains(t, p, name)
		}
		assert.Contains(t, p, `"recipes"`)
		assert.Equal(t, 3, strings.Count(p, `"estimatedTime"`))
	}
}

func TestBannersForbidsPlaceholders(t *testing.T) {
	p := Banners([]string{"arroz"})

	assert.Contains(t, p, `never the word "string"`)
	assert.Contains(t, p, "Replace ALL placeholder values")
}

func TestFullRecipe(t *testing.T) {
	p := FullRecipe("Bolo de cenoura", []string{"cenoura", "ovo"})

	assert.Contains(t, p, "Create a complete recipe for: Bolo de cenoura")
	assert.Contains(t, p, "cenoura, ovo")
	assert.Contains(t, p, `"receita"`)
	assert.Contains(t, p, `"quantity"`)
}
