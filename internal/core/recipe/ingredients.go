package recipe

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"recipe-scanner/internal/infrastructure/config"
)

var (
	ErrEmptyIngredient     = errors.New("ingredient name is empty")
	ErrIngredientTooShort  = errors.New("ingredient name is too short")
	ErrIngredientTooLong   = errors.New("ingredient name is too long")
	ErrDuplicateIngredient = errors.New("ingredient already in list")
	ErrTooManyIngredients  = errors.New("too many ingredients")
	ErrNoIngredients       = errors.New("no ingredients")
	ErrIngredientIndex     = errors.New("ingredient index out of range")
)

// IngredientRules 食材清單限制
type IngredientRules struct {
	MinLength int
	MaxLength int
	MaxItems  int
}

// RulesFromConfig 從設定建立限制
func RulesFromConfig(cfg config.RecipeConfig) IngredientRules {
	return IngredientRules{
		MinLength: cfg.MinIngredientLength,
		MaxLength: cfg.MaxIngredientLength,
		MaxItems:  cfg.MaxIngredients,
	}
}

// IngredientList 可編輯的食材清單，非併發安全
type IngredientList struct {
	rules IngredientRules
	items []string
}

// NewIngredientList 以偵測結果建立清單：修剪、忽略大小寫去重、截斷至上限
func NewIngredientList(rules IngredientRules, initial []string) *IngredientList {
	l := &IngredientList{rules: rules}
	for _, name := range initial {
		name = strings.TrimSpace(name)
		if name == "" || l.contains(name) {
			continue
		}
		if l.full() {
			break
		}
		l.items = append(l.items, name)
	}
	return l
}

// Add 手動新增食材
func (l *IngredientList) Add(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return ErrEmptyIngredient
	case l.rules.MinLength > 0 && n < l.rules.MinLength:
		return fmt.Errorf("%w: minimum %d characters", ErrIngredientTooShort, l.rules.MinLength)
	case l.rules.MaxLength > 0 && n > l.rules.MaxLength:
		return fmt.Errorf("%w: maximum %d characters", ErrIngredientTooLong, l.rules.MaxLength)
	case l.contains(name):
		return fmt.Errorf("%w: %s", ErrDuplicateIngredient, name)
	case l.full():
		return fmt.Errorf("%w: maximum %d", ErrTooManyIngredients, l.rules.MaxItems)
	}
	l.items = append(l.items, name)
	return nil
}

// Remove 依索引移除食材
func (l *IngredientList) Remove(index int) error {
	if index < 0 || index >= len(l.items) {
		return fmt.Errorf("%w: %d", ErrIngredientIndex, index)
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

// Items 回傳副本
func (l *IngredientList) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// Len 食材數量
func (l *IngredientList) Len() int {
	return len(l.items)
}

func (l *IngredientList) contains(name string) bool {
	for _, item := range l.items {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}

func (l *IngredientList) full() bool {
	return l.rules.MaxItems > 0 && len(l.items) >= l.rules.MaxItems
}
