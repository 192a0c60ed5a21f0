package recipe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 欄位優先順序：第一個存在且非空的鍵勝出
var (
	keysID              = []string{"id"}
	keysName            = []string{"name", "title", "nome"}
	keysDescription     = []string{"description", "descricao"}
	keysIngredients     = []string{"ingredients", "ingredientes"}
	keysImageURL        = []string{"imageUrl", "image"}
	keysEstimatedTime   = []string{"estimatedTime", "preparationTime", "tempoPreparo"}
	keysDifficulty      = []string{"difficulty", "dificuldade"}
	keysServings        = []string{"servings", "porcoes"}
	keysInstructions    = []string{"instructions", "modoPreparo"}
	keysQuantity        = []string{"quantity", "quantidade"}
	keysRecipes         = []string{"recipes", "receitas"}
	keysPreparationTime = []string{"preparationTime"}
	keysCookingTime     = []string{"cookingTime"}
	keysTotalTime       = []string{"totalTime"}
)

var difficulties = map[string]Difficulty{
	string(DifficultyEasy):   DifficultyEasy,
	string(DifficultyMedium): DifficultyMedium,
	string(DifficultyHard):   DifficultyHard,
}

// Normalize 將任一命名慣例的紀錄轉為標準 Recipe
func Normalize(raw map[string]any) *Recipe {
	if raw == nil {
		return &Recipe{}
	}
	return &Recipe{
		ID:              firstString(raw, keysID...),
		Name:            firstString(raw, keysName...),
		Description:     firstString(raw, keysDescription...),
		ImageURL:        firstString(raw, keysImageURL...),
		EstimatedTime:   firstString(raw, keysEstimatedTime...),
		Difficulty:      normalizeDifficulty(firstString(raw, keysDifficulty...)),
		Servings:        firstString(raw, keysServings...),
		Ingredients:     normalizeLines(first(raw, keysIngredients...)),
		Instructions:    normalizeInstructions(first(raw, keysInstructions...)),
		PreparationTime: firstString(raw, keysPreparationTime...),
		CookingTime:     firstString(raw, keysCookingTime...),
		TotalTime:       firstString(raw, keysTotalTime...),
	}
}

// NormalizeBanner 將摘要紀錄轉為 Banner
func NormalizeBanner(raw map[string]any) Banner {
	return Normalize(raw).Banner()
}

// NormalizeBanners 取出食譜清單中的每一筆摘要
func NormalizeBanners(payload map[string]any) []Banner {
	list, _ := first(payload, keysRecipes...).([]any)
	banners := make([]Banner, 0, len(list))
	for _, item := range list {
		if raw, ok := item.(map[string]any); ok {
			banners = append(banners, NormalizeBanner(raw))
		}
	}
	return banners
}

// NormalizeIngredients 取出食材清單的名稱
func NormalizeIngredients(payload map[string]any) []string {
	lines := normalizeLines(first(payload, keysIngredients...))
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.Name)
	}
	return names
}

// ToMap 轉為持久化用的欄位，空值省略
func (r *Recipe) ToMap() map[string]any {
	m := map[string]any{
		"name":        r.Name,
		"ingredients": linesToAny(r.Ingredients),
	}
	putString(m, "id", r.ID)
	putString(m, "description", r.Description)
	putString(m, "imageUrl", r.ImageURL)
	putString(m, "estimatedTime", r.EstimatedTime)
	putString(m, "difficulty", string(r.Difficulty))
	putString(m, "servings", r.Servings)
	putString(m, "preparationTime", r.PreparationTime)
	putString(m, "cookingTime", r.CookingTime)
	putString(m, "totalTime", r.TotalTime)
	if len(r.Instructions) > 0 {
		steps := make([]any, len(r.Instructions))
		for i, s := range r.Instructions {
			steps[i] = s
		}
		m["instructions"] = steps
	}
	return m
}

// ToMap 摘要的持久化欄位
func (b Banner) ToMap() map[string]any {
	ingredients := make([]any, len(b.Ingredients))
	for i, s := range b.Ingredients {
		ingredients[i] = s
	}
	m := map[string]any{
		"name":        b.Name,
		"ingredients": ingredients,
	}
	putString(m, "id", b.ID)
	putString(m, "description", b.Description)
	putString(m, "imageUrl", b.ImageURL)
	putString(m, "estimatedTime", b.EstimatedTime)
	putString(m, "difficulty", string(b.Difficulty))
	putString(m, "servings", b.Servings)
	return m
}

func first(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		if list, isList := v.([]any); isList && len(list) == 0 {
			continue
		}
		return v
	}
	return nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString 字串與數字轉為修剪後的字串，其他型別回傳空字串
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func normalizeDifficulty(s string) Difficulty {
	return difficulties[strings.ToLower(s)]
}

func normalizeLines(v any) []IngredientLine {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var lines []IngredientLine
	for _, item := range list {
		if line, ok := lineFrom(item); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func lineFrom(v any) (IngredientLine, bool) {
	switch t := v.(type) {
	case string:
		name := strings.TrimSpace(t)
		return IngredientLine{Name: name}, name != ""
	case map[string]any:
		name := firstString(t, keysName...)
		return IngredientLine{Name: name, Quantity: firstString(t, keysQuantity...)}, name != ""
	}
	return IngredientLine{}, false
}

func normalizeInstructions(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var steps []string
		for _, item := range t {
			if s := scalarString(item); s != "" {
				steps = append(steps, s)
			}
		}
		return steps
	}
	return nil
}

func linesToAny(lines []IngredientLine) []any {
	out := make([]any, len(lines))
	for i, l := range lines {
		if l.Quantity == "" {
			out[i] = l.Name
			continue
		}
		out[i] = map[string]any{"name": l.Name, "quantity": l.Quantity}
	}
	return out
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// String 方便日誌輸出
func (r *Recipe) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ID)
}
