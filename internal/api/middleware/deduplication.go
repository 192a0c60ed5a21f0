package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"

	"recipe-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InFlightGuard 相同的 POST（路徑與請求體相同）在前一個完成前一律拒絕
type InFlightGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewInFlightGuard 創建請求去重器
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{inFlight: make(map[string]struct{})}
}

func (g *InFlightGuard) acquire(fingerprint string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[fingerprint]; busy {
		return false
	}
	g.inFlight[fingerprint] = struct{}{}
	return true
}

func (g *InFlightGuard) release(fingerprint string) {
	g.mu.Lock()
	delete(g.inFlight, fingerprint)
	g.mu.Unlock()
}

// Deduplication 請求去重中間件
func Deduplication(g *InFlightGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
					Code:    common.ErrCodeInvalidRequest,
					Message: "Failed to read request body",
				})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		hash := sha256.Sum256(body)
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + hex.EncodeToString(hash[:])

		if !g.acquire(fingerprint) {
			c.AbortWithStatusJSON(http.StatusConflict, common.ErrorResponse{
				Code:    common.ErrCodeConflict,
				Message: "An identical request is already in progress",
			})
			return
		}
		defer g.release(fingerprint)

		c.Next()
	}
}
