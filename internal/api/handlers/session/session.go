package session

import (
	"net/http"
	"strconv"

	"recipe-scanner/internal/api/handlers"
	"recipe-scanner/internal/core/image"
	sessionService "recipe-scanner/internal/core/session"

	"github.com/gin-gonic/gin"
)

// ImageRequest 上傳圖片
type ImageRequest struct {
	Image string `json:"image" binding:"required"`
}

// IngredientRequest 新增食材
type IngredientRequest struct {
	Name string `json:"name" binding:"required"`
}

// SelectRequest 選擇摘要
type SelectRequest struct {
	Index *int `json:"index" binding:"required"`
}

// Handler 分析流程端點
type Handler struct {
	workflow *sessionService.Workflow
	images   *image.Service
	debug    bool
}

// NewHandler 創建流程處理器
func NewHandler(workflow *sessionService.Workflow, images *image.Service, debug bool) *Handler {
	return &Handler{workflow: workflow, images: images, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/image", h.Capture)
	g.POST("/:id/analyze", h.Analyze)
	g.POST("/:id/ingredients", h.AddIngredient)
	g.DELETE("/:id/ingredients/:index", h.RemoveIngredient)
	g.POST("/:id/banners", h.GenerateBanners)
	g.POST("/:id/recipe", h.SelectRecipe)
	g.POST("/:id/retry", h.Retry)
	g.POST("/:id/back", h.Back)
}

// Create 建立 session
func (h *Handler) Create(c *gin.Context) {
	s := h.workflow.Sessions().Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

// Get 讀取 session
func (h *Handler) Get(c *gin.Context) {
	s, err := h.workflow.Sessions().Get(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Delete 刪除 session
func (h *Handler) Delete(c *gin.Context) {
	if err := h.workflow.Sessions().Delete(c.Param("id")); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.Status(http.StatusNoContent)
}

// Capture 上傳新圖片
func (h *Handler) Capture(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	img, err := h.images.Decode(req.Image)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	h.respond(c)(h.workflow.Capture(c.Param("id"), img))
}

// Analyze 辨識食材
func (h *Handler) Analyze(c *gin.Context) {
	h.respond(c)(h.workflow.Analyze(c.Request.Context(), c.Param("id")))
}

// AddIngredient 新增食材
func (h *Handler) AddIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	h.respond(c)(h.workflow.AddIngredient(c.Param("id"), req.Name))
}

// RemoveIngredient 移除食材
func (h *Handler) RemoveIngredient(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		handlers.BadRequest(c, err)
		return
	}
	h.respond(c)(h.workflow.RemoveIngredient(c.Param("id"), index))
}

// GenerateBanners 生成食譜摘要
func (h *Handler) GenerateBanners(c *gin.Context) {
	h.respond(c)(h.workflow.GenerateBanners(c.Request.Context(), c.Param("id")))
}

// SelectRecipe 選擇摘要並生成完整食譜
func (h *Handler) SelectRecipe(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	h.respond(c)(h.workflow.SelectRecipe(c.Request.Context(), c.Param("id"), *req.Index))
}

// Retry 重試失敗的階段
func (h *Handler) Retry(c *gin.Context) {
	h.respond(c)(h.workflow.Retry(c.Request.Context(), c.Param("id")))
}

// Back 返回上一步
func (h *Handler) Back(c *gin.Context) {
	h.respond(c)(h.workflow.Back(c.Param("id")))
}

func (h *Handler) respond(c *gin.Context) func(sessionService.Snapshot, error) {
	return func(snap sessionService.Snapshot, err error) {
		if err != nil {
			handlers.RespondError(c, err, h.debug)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
