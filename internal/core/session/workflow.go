package session

import (
	"context"
	"fmt"

	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Pipeline 流程使用的生成管線
type Pipeline interface {
	DetectIngredients(ctx context.Context, img *image.Image) ([]string, error)
	GenerateBanners(ctx context.Context, ingredients []string) ([]recipe.Banner, error)
	GenerateFullRecipe(ctx context.Context, name string, ingredients []string) (*recipe.Recipe, error)
}

// Workflow 依 session 狀態驅動生成管線
type Workflow struct {
	sessions *Manager
	pipeline Pipeline
}

// NewWorkflow 創建流程
func NewWorkflow(sessions *Manager, pipeline Pipeline) *Workflow {
	return &Workflow{sessions: sessions, pipeline: pipeline}
}

// Sessions session 管理器
func (w *Workflow) Sessions() *Manager {
	return w.sessions
}

// Capture 設定新圖片
func (w *Workflow) Capture(id string, img *image.Image) (Snapshot, error) {
	return w.apply(id, func(s *Session) error { return s.Capture(img) })
}

// Analyze 辨識食材；推論失敗時 session 進入錯誤狀態並回傳錯誤
func (w *Workflow) Analyze(ctx context.Context, id string) (Snapshot, error) {
	s, err := w.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	img, err := s.BeginAnalyze()
	if err != nil {
		return s.Snapshot(), err
	}
	names, err := w.pipeline.DetectIngredients(ctx, img)
	s.FinishAnalyze(names, err)
	w.logStage(s, StateAnalyzing, err)
	return s.Snapshot(), err
}

// AddIngredient 新增食材
func (w *Workflow) AddIngredient(id, name string) (Snapshot, error) {
	return w.apply(id, func(s *Session) error { return s.AddIngredient(name) })
}

// RemoveIngredient 移除食材
func (w *Workflow) RemoveIngredient(id string, index int) (Snapshot, error) {
	return w.apply(id, func(s *Session) error { return s.RemoveIngredient(index) })
}

// GenerateBanners 生成食譜摘要
func (w *Workflow) GenerateBanners(ctx context.Context, id string) (Snapshot, error) {
	s, err := w.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	ingredients, err := s.BeginBanners()
	if err != nil {
		return s.Snapshot(), err
	}
	banners, err := w.pipeline.GenerateBanners(ctx, ingredients)
	s.FinishBanners(banners, err)
	w.logStage(s, StateGeneratingBanners, err)
	return s.Snapshot(), err
}

// SelectRecipe 選擇摘要並生成完整食譜
func (w *Workflow) SelectRecipe(ctx context.Context, id string, index int) (Snapshot, error) {
	s, err := w.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	banner, ingredients, err := s.BeginRecipe(index)
	if err != nil {
		return s.Snapshot(), err
	}
	r, err := w.pipeline.GenerateFullRecipe(ctx, banner.Name, ingredients)
	if err == nil && r.ImageURL == "" {
		r.ImageURL = banner.ImageURL
	}
	s.FinishRecipe(r, err)
	w.logStage(s, StateGeneratingFullRecipe, err)
	return s.Snapshot(), err
}

// Retry 重新執行失敗的階段
func (w *Workflow) Retry(ctx context.Context, id string) (Snapshot, error) {
	s, err := w.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	failed, err := s.Retry()
	if err != nil {
		return s.Snapshot(), err
	}

	switch failed {
	case StateAnalyzing:
		return w.Analyze(ctx, id)
	case StateGeneratingBanners:
		return w.GenerateBanners(ctx, id)
	case StateGeneratingFullRecipe:
		index := s.SelectedIndex()
		if index < 0 {
			return s.Snapshot(), fmt.Errorf("%w: no recipe selected", ErrInvalidTransition)
		}
		return w.SelectRecipe(ctx, id, index)
	}
	return s.Snapshot(), nil
}

// Back 返回上一步
func (w *Workflow) Back(id string) (Snapshot, error) {
	return w.apply(id, func(s *Session) error { return s.Back() })
}

func (w *Workflow) apply(id string, fn func(*Session) error) (Snapshot, error) {
	s, err := w.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	err = fn(s)
	return s.Snapshot(), err
}

func (w *Workflow) logStage(s *Session, stage State, err error) {
	if err != nil {
		common.LogWarn("流程階段失敗",
			zap.String("session_id", s.ID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		return
	}
	common.LogDebug("流程階段完成",
		zap.String("session_id", s.ID),
		zap.String("stage", string(stage)))
}
