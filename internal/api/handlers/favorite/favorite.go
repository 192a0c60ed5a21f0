package favorite

import (
	"net/http"

	"recipe-scanner/internal/api/handlers"
	recipeService "recipe-scanner/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// ToggleResponse 切換結果
type ToggleResponse struct {
	RecipeID string `json:"recipeId"`
	Favorite bool   `json:"favorite"`
}

// Handler 收藏端點
type Handler struct {
	favorites *recipeService.FavoriteService
	debug     bool
}

// NewHandler 創建收藏處理器
func NewHandler(favorites *recipeService.FavoriteService, debug bool) *Handler {
	return &Handler{favorites: favorites, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.PUT("/toggle", h.Toggle)
	g.GET("/:recipeId", h.Status)
	g.DELETE("/:recipeId", h.Remove)
}

// List 列出收藏
func (h *Handler) List(c *gin.Context) {
	favs, err := h.favorites.List(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

// Add 加入收藏，請求體接受任一命名慣例的食譜
func (h *Handler) Add(c *gin.Context) {
	r, ok := h.bindRecipe(c)
	if !ok {
		return
	}
	fav, err := h.favorites.Add(c.Request.Context(), c.Param("userId"), r)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

// Toggle 切換收藏
func (h *Handler) Toggle(c *gin.Context) {
	r, ok := h.bindRecipe(c)
	if !ok {
		return
	}
	on, err := h.favorites.Toggle(c.Request.Context(), c.Param("userId"), r)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{RecipeID: r.ID, Favorite: on})
}

// Status 是否已收藏
func (h *Handler) Status(c *gin.Context) {
	recipeID := c.Param("recipeId")
	on, err := h.favorites.IsFavorite(c.Request.Context(), c.Param("userId"), recipeID)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{RecipeID: recipeID, Favorite: on})
}

// Remove 取消收藏
func (h *Handler) Remove(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), c.Param("userId"), c.Param("recipeId")); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindRecipe(c *gin.Context) (*recipeService.Recipe, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		handlers.BadRequest(c, err)
		return nil, false
	}
	return recipeService.Normalize(raw), true
}
