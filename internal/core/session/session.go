// Package session 管理單次分析流程的狀態機：拍照、辨識食材、編輯、生成摘要、生成完整食譜。
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"
)

// State 流程狀態
type State string

const (
	StateIdle                 State = "idle"
	StateImageCaptured        State = "image_captured"
	StateAnalyzing            State = "analyzing"
	StateIngredientsEditable  State = "ingredients_editable"
	StateGeneratingBanners    State = "generating_banners"
	StateBannersShown         State = "banners_shown"
	StateGeneratingFullRecipe State = "generating_full_recipe"
	StateRecipeShown          State = "recipe_shown"
	StateError                State = "error"
)

var (
	ErrBusy              = errors.New("session has a request in flight")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotFound          = errors.New("session not found")
)

// InFlight 是否有推論呼叫進行中
func (s State) InFlight() bool {
	switch s {
	case StateAnalyzing, StateGeneratingBanners, StateGeneratingFullRecipe:
		return true
	}
	return false
}

// editable 失敗後可返回的狀態
var editable = map[State]State{
	StateAnalyzing:            StateImageCaptured,
	StateGeneratingBanners:    StateIngredientsEditable,
	StateGeneratingFullRecipe: StateBannersShown,
}

// Session 單次分析流程
type Session struct {
	ID string

	mu          sync.Mutex
	state       State
	failedStage State
	lastErr     error
	image       *image.Image
	ingredients *recipe.IngredientList
	banners     []recipe.Banner
	selected    int
	recipe      *recipe.Recipe
	rules       recipe.IngredientRules
	createdAt   time.Time
	updatedAt   time.Time
}

// Snapshot 對外輸出的 session 狀態
type Snapshot struct {
	ID          string          `json:"id"`
	State       State           `json:"state"`
	HasImage    bool            `json:"hasImage"`
	Ingredients []string        `json:"ingredients"`
	Banners     []recipe.Banner `json:"banners,omitempty"`
	Selected    *int            `json:"selected,omitempty"`
	Recipe      *recipe.Recipe  `json:"recipe,omitempty"`
	FailedStage State           `json:"failedStage,omitempty"`
	Error       string          `json:"error,omitempty"`
	Recoverable bool            `json:"recoverable,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func newSession(id string, rules recipe.IngredientRules, now time.Time) *Session {
	return &Session{
		ID:          id,
		state:       StateIdle,
		rules:       rules,
		ingredients: recipe.NewIngredientList(rules, nil),
		selected:    -1,
		createdAt:   now,
		updatedAt:   now,
	}
}

// State 目前狀態
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot 取得狀態快照
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		State:       s.state,
		HasImage:    s.image != nil,
		Ingredients: s.ingredients.Items(),
		Banners:     append([]recipe.Banner(nil), s.banners...),
		Recipe:      s.recipe,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.selected >= 0 {
		selected := s.selected
		snap.Selected = &selected
	}
	if s.state == StateError {
		snap.FailedStage = s.failedStage
		if s.lastErr != nil {
			snap.Error = s.lastErr.Error()
			snap.Recoverable = common.IsRecoverable(s.lastErr)
		}
	}
	return snap
}

// Capture 拍攝新圖片，重置整個流程
func (s *Session) Capture(img *image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InFlight() {
		return ErrBusy
	}
	s.image = img
	s.ingredients = recipe.NewIngredientList(s.rules, nil)
	s.banners = nil
	s.selected = -1
	s.recipe = nil
	s.lastErr = nil
	s.failedStage = ""
	s.transition(StateImageCaptured)
	return nil
}

// BeginAnalyze 進入辨識中，回傳要送出的圖片
func (s *Session) BeginAnalyze() (*image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(StateAnalyzing, StateImageCaptured); err != nil {
		return nil, err
	}
	return s.image, nil
}

// FinishAnalyze 寫入辨識結果或錯誤
func (s *Session) FinishAnalyze(names []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(StateAnalyzing, err) {
		s.ingredients = recipe.NewIngredientList(s.rules, names)
		s.transition(StateIngredientsEditable)
	}
}

// AddIngredient 手動新增食材
func (s *Session) AddIngredient(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(StateIngredientsEditable); err != nil {
		return err
	}
	if err := s.ingredients.Add(name); err != nil {
		return err
	}
	s.touch()
	return nil
}

// RemoveIngredient 依索引移除食材
func (s *Session) RemoveIngredient(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(StateIngredientsEditable); err != nil {
		return err
	}
	if err := s.ingredients.Remove(index); err != nil {
		return err
	}
	s.touch()
	return nil
}

// BeginBanners 進入摘要生成中，回傳食材清單
func (s *Session) BeginBanners() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIngredientsEditable && s.ingredients.Len() == 0 {
		return nil, recipe.ErrNoIngredients
	}
	if err := s.begin(StateGeneratingBanners, StateIngredientsEditable); err != nil {
		return nil, err
	}
	return s.ingredients.Items(), nil
}

// FinishBanners 寫入摘要結果或錯誤
func (s *Session) FinishBanners(banners []recipe.Banner, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(StateGeneratingBanners, err) {
		s.banners = banners
		s.selected = -1
		s.recipe = nil
		s.transition(StateBannersShown)
	}
}

// BeginRecipe 選擇摘要並進入完整食譜生成中
func (s *Session) BeginRecipe(index int) (recipe.Banner, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateBannersShown && (index < 0 || index >= len(s.banners)) {
		return recipe.Banner{}, nil, fmt.Errorf("%w: banner %d", ErrInvalidTransition, index)
	}
	if err := s.begin(StateGeneratingFullRecipe, StateBannersShown); err != nil {
		return recipe.Banner{}, nil, err
	}
	s.selected = index
	return s.banners[index], s.ingredients.Items(), nil
}

// FinishRecipe 寫入完整食譜或錯誤
func (s *Session) FinishRecipe(r *recipe.Recipe, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(StateGeneratingFullRecipe, err) {
		s.recipe = r
		s.transition(StateRecipeShown)
	}
}

// Retry 從錯誤狀態返回失敗前的可編輯狀態，回傳失敗的階段
func (s *Session) Retry() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateError {
		return "", fmt.Errorf("%w: retry from %s", ErrInvalidTransition, s.state)
	}
	failed := s.failedStage
	s.lastErr = nil
	s.failedStage = ""
	s.transition(editable[failed])
	return failed, nil
}

// Back 返回上一步：RecipeShown → BannersShown → IngredientsEditable
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRecipeShown:
		s.recipe = nil
		s.selected = -1
		s.transition(StateBannersShown)
	case StateBannersShown:
		s.banners = nil
		s.transition(StateIngredientsEditable)
	case StateError:
		s.lastErr = nil
		s.transition(editable[s.failedStage])
		s.failedStage = ""
	default:
		if s.state.InFlight() {
			return ErrBusy
		}
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.state)
	}
	return nil
}

// SelectedIndex 目前選擇的摘要索引，未選擇時為 -1
func (s *Session) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) begin(next, from State) error {
	if s.state.InFlight() {
		return ErrBusy
	}
	if s.state != from {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s.state, next)
	}
	s.transition(next)
	return nil
}

// finish 結束推論呼叫，回傳 true 表示成功且呼叫端應寫入結果
func (s *Session) finish(stage State, err error) bool {
	if s.state != stage {
		return false
	}
	if err != nil {
		s.lastErr = err
		s.failedStage = stage
		s.transition(StateError)
		return false
	}
	return true
}

func (s *Session) require(state State) error {
	if s.state.InFlight() {
		return ErrBusy
	}
	if s.state != state {
		return fmt.Errorf("%w: requires %s, current %s", ErrInvalidTransition, state, s.state)
	}
	return nil
}

func (s *Session) transition(next State) {
	s.state = next
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.InFlight() && now.Sub(s.updatedAt) > ttl
}
