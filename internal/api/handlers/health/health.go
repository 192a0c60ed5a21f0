package health

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"recipe-scanner/internal/core/ai/queue"
	"recipe-scanner/internal/core/session"
	"recipe-scanner/internal/infrastructure/store"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
	Sessions  int                    `json:"sessions"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// CacheStats 提供快取統計
type CacheStats interface {
	GetStats() map[string]interface{}
}

// Handler 健康檢查處理器
type Handler struct {
	version  string
	started  time.Time
	store    store.DocumentStore
	sessions *session.Manager
	queue    *queue.Manager
	cache    CacheStats
}

// NewHandler 創建健康檢查處理器，q 與 cache 可為 nil
func NewHandler(version string, s store.DocumentStore, sessions *session.Manager, q *queue.Manager, cache CacheStats) *Handler {
	return &Handler{
		version:  version,
		started:  time.Now(),
		store:    s,
		sessions: sessions,
		queue:    q,
		cache:    cache,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var qs *queue.Status
	if h.queue != nil {
		qs = h.queue.GetQueueStatus()
	}
	var cs map[string]interface{}
	if h.cache != nil {
		cs = h.cache.GetStats()
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Sessions: h.sessions.Len(),
		Queue:    qs,
		Cache:    cs,
	})
}

// ReadinessCheck 就緒檢查：文件儲存可讀取
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	_, err := h.store.Get(ctx, store.CollectionFullRecipe, "__readiness__")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"store":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
