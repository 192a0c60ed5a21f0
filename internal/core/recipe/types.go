package recipe

import (
	"encoding/json"
	"errors"
	"time"
)

// Difficulty 難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "fácil"
	DifficultyMedium Difficulty = "médio"
	DifficultyHard   Difficulty = "difícil"
)

// IngredientLine 食材行，Quantity 可為空
type IngredientLine struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

// Display 顯示用字串：「數量 de 名稱」
func (l IngredientLine) Display() string {
	if l.Quantity == "" {
		return l.Name
	}
	return l.Quantity + " de " + l.Name
}

// MarshalJSON 無數量時輸出純字串
func (l IngredientLine) MarshalJSON() ([]byte, error) {
	if l.Quantity == "" {
		return json.Marshal(l.Name)
	}
	type plain IngredientLine
	return json.Marshal(plain(l))
}

// UnmarshalJSON 接受字串或 {name|nome, quantity|quantidade}
func (l *IngredientLine) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	line, ok := lineFrom(v)
	if !ok {
		return errors.New("ingredient must be a string or an object with a name")
	}
	*l = line
	return nil
}

// Recipe 標準化後的完整食譜
type Recipe struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	EstimatedTime   string           `json:"estimatedTime,omitempty"`
	Difficulty      Difficulty       `json:"difficulty,omitempty"`
	Servings        string           `json:"servings,omitempty"`
	Ingredients     []IngredientLine `json:"ingredients"`
	Instructions    []string         `json:"instructions,omitempty"`
	PreparationTime string           `json:"preparationTime,omitempty"`
	CookingTime     string           `json:"cookingTime,omitempty"`
	TotalTime       string           `json:"totalTime,omitempty"`
}

// DisplayIngredients 食材顯示字串
func (r *Recipe) DisplayIngredients() []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, l := range r.Ingredients {
		out = append(out, l.Display())
	}
	return out
}

// IngredientNames 只取食材名稱
func (r *Recipe) IngredientNames() []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, l := range r.Ingredients {
		out = append(out, l.Name)
	}
	return out
}

// Banner 列表用的投影
func (r *Recipe) Banner() Banner {
	return Banner{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Ingredients:   r.DisplayIngredients(),
		ImageURL:      r.ImageURL,
		EstimatedTime: r.EstimatedTime,
		Difficulty:    r.Difficulty,
		Servings:      r.Servings,
	}
}

// Banner 食譜摘要
type Banner struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Ingredients   []string   `json:"ingredients"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	EstimatedTime string     `json:"estimatedTime,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Servings      string     `json:"servings,omitempty"`
}

// Favorite 使用者收藏
type Favorite struct {
	UserID      string    `json:"userId"`
	RecipeID    string    `json:"recipeId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FavoriteKey 收藏的複合主鍵
func FavoriteKey(userID, recipeID string) string {
	return userID + "_" + recipeID
}
