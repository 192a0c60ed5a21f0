package recipe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipe-scanner/internal/core/ai/extract"
	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/core/ai/prompt"
	"recipe-scanner/internal/core/ai/schema"
	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/infrastructure/metrics"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrEmptyRecipeName 未指定食譜名稱
var ErrEmptyRecipeName = errors.New("recipe name is empty")

// Generator AI 服務介面
type Generator interface {
	Generate(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error)
	Evict(ctx context.Context, req *gemini.Request)
}

// Pipeline 食材辨識與食譜生成管線
type Pipeline struct {
	ai         Generator
	rules      IngredientRules
	maxRecipes int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewPipeline 創建生成管線
func NewPipeline(ai Generator, cfg config.RecipeConfig, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		ai:         ai,
		rules:      RulesFromConfig(cfg),
		maxRecipes: cfg.MaxRecipes,
		metrics:    m,
		now:        time.Now,
	}
}

// Rules 食材清單限制
func (p *Pipeline) Rules() IngredientRules {
	return p.rules
}

// DetectIngredients 辨識圖片中的食材
func (p *Pipeline) DetectIngredients(ctx context.Context, img *image.Image) ([]string, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, common.NewError(common.ErrCodeInvalidRequest, "image is required", http.StatusBadRequest, nil)
	}

	req := gemini.NewImageRequest(prompt.IntentIngredients, prompt.IngredientDetection(), img.Data, img.MimeType)
	payload, err := p.run(ctx, req, schema.KindIngredients)
	if err != nil {
		return nil, err
	}

	names := NewIngredientList(p.rules, NormalizeIngredients(payload)).Items()
	if len(names) == 0 {
		p.metrics.PipelineFailure("normalize", "empty")
		return nil, ErrNoIngredients
	}
	common.LogInfo("食材辨識完成", zap.Int("count", len(names)))
	return names, nil
}

// GenerateBanners 依食材生成食譜摘要，最多 maxRecipes 筆
func (p *Pipeline) GenerateBanners(ctx context.Context, ingredients []string) ([]Banner, error) {
	list := NewIngredientList(p.rules, ingredients)
	if list.Len() == 0 {
		return nil, ErrNoIngredients
	}

	req := gemini.NewTextRequest(prompt.IntentBanners, prompt.Banners(list.Items()))
	payload, err := p.run(ctx, req, schema.KindRecipeList)
	if err != nil {
		return nil, err
	}

	banners := NormalizeBanners(payload)
	if p.maxRecipes > 0 && len(banners) > p.maxRecipes {
		banners = banners[:p.maxRecipes]
	}
	common.LogInfo("食譜摘要生成完成", zap.Int("count", len(banners)))
	return banners, nil
}

// GenerateFullRecipe 生成指定食譜的完整內容，回應沒有 id 時自動產生
func (p *Pipeline) GenerateFullRecipe(ctx context.Context, name string, ingredients []string) (*Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRecipeName
	}
	list := NewIngredientList(p.rules, ingredients)
	if list.Len() == 0 {
		return nil, ErrNoIngredients
	}

	req := gemini.NewTextRequest(prompt.IntentFullRecipe, prompt.FullRecipe(name, list.Items()))
	payload, err := p.run(ctx, req, schema.KindRecipe)
	if err != nil {
		return nil, err
	}

	raw, _ := payload["receita"].(map[string]any)
	r := Normalize(raw)
	if r.ID == "" {
		r.ID = NewRecipeID(r.Name, p.now())
	}
	common.LogInfo("完整食譜生成完成", zap.String("recipe", r.String()))
	return r, nil
}

// run 呼叫推論服務、取出 JSON 並驗證；回應不可用時移除快取
func (p *Pipeline) run(ctx context.Context, req *gemini.Request, kind schema.Kind) (extract.Payload, error) {
	raw, err := p.ai.Generate(ctx, req)
	if err != nil {
		p.metrics.PipelineFailure("inference", failureKind(err))
		return nil, err
	}

	payload, err := extract.JSON(raw)
	if err != nil {
		p.ai.Evict(ctx, req)
		p.metrics.PipelineFailure("extract", "malformed")
		common.LogWarn("回應無法解析",
			zap.String("intent", string(req.Intent)),
			zap.Error(err))
		return nil, err
	}

	if err := schema.Validate(payload, kind).Err(kind); err != nil {
		p.ai.Evict(ctx, req)
		p.metrics.PipelineFailure("validate", "invalid")
		common.LogWarn("回應結構不符",
			zap.String("intent", string(req.Intent)),
			zap.Error(err))
		return nil, err
	}
	return payload, nil
}

func failureKind(err error) string {
	var svcErr *common.ServiceError
	switch {
	case errors.As(err, &svcErr) && svcErr.Timeout:
		return "timeout"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &svcErr):
		return "service"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "unknown"
}
