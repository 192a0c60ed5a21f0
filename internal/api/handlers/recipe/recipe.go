package recipe

import (
	"net/http"

	"recipe-scanner/internal/api/handlers"
	"recipe-scanner/internal/core/image"
	recipeService "recipe-scanner/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// IngredientRequest 食材辨識請求
type IngredientRequest struct {
	Image string `json:"image" binding:"required"` // data URI 或 base64
}

// IngredientResponse 食材辨識響應
type IngredientResponse struct {
	Ingredients []string `json:"ingredients"`
}

// BannersRequest 食譜摘要請求
type BannersRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
}

// BannersResponse 食譜摘要響應
type BannersResponse struct {
	Recipes []recipeService.Banner `json:"recipes"`
}

// FullRecipeRequest 完整食譜請求
type FullRecipeRequest struct {
	Name        string   `json:"name" binding:"required"`
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
}

// FullRecipeResponse 完整食譜響應
type FullRecipeResponse struct {
	Recipe *recipeService.Recipe `json:"receita"`
}

// Handler 無狀態的生成端點
type Handler struct {
	pipeline  *recipeService.Pipeline
	favorites *recipeService.FavoriteService
	images    *image.Service
	debug     bool
}

// NewHandler 創建食譜處理器
func NewHandler(pipeline *recipeService.Pipeline, favorites *recipeService.FavoriteService, images *image.Service, debug bool) *Handler {
	return &Handler{
		pipeline:  pipeline,
		favorites: favorites,
		images:    images,
		debug:     debug,
	}
}

// HandleIngredient 辨識圖片中的食材
func (h *Handler) HandleIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	img, err := h.images.Decode(req.Image)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	names, err := h.pipeline.DetectIngredients(c.Request.Context(), img)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, IngredientResponse{Ingredients: names})
}

// HandleBanners 依食材生成食譜摘要
func (h *Handler) HandleBanners(c *gin.Context) {
	var req BannersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	banners, err := h.pipeline.GenerateBanners(c.Request.Context(), req.Ingredients)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, BannersResponse{Recipes: banners})
}

// HandleFullRecipe 生成完整食譜
func (h *Handler) HandleFullRecipe(c *gin.Context) {
	var req FullRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	r, err := h.pipeline.GenerateFullRecipe(c.Request.Context(), req.Name, req.Ingredients)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, FullRecipeResponse{Recipe: r})
}

// HandleGetRecipe 讀取已保存的完整食譜
func (h *Handler) HandleGetRecipe(c *gin.Context) {
	r, err := h.favorites.FullRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, r)
}
