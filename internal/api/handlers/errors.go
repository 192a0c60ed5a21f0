// Package handlers 放置各 HTTP 處理器共用的錯誤回應。
package handlers

import (
	"errors"
	"net/http"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/core/session"
	"recipe-scanner/internal/infrastructure/store"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var badInput = []error{
	recipe.ErrEmptyIngredient,
	recipe.ErrIngredientTooShort,
	recipe.ErrIngredientTooLong,
	recipe.ErrTooManyIngredients,
	recipe.ErrNoIngredients,
	recipe.ErrIngredientIndex,
	recipe.ErrEmptyRecipeName,
	recipe.ErrInvalidFavorite,
}

// domainError 將領域錯誤對應為帶狀態碼的 CustomError，其餘原樣回傳
func domainError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return common.NewError(common.ErrCodeNotFound, "Session not found", http.StatusNotFound, err)
	case errors.Is(err, store.ErrNotFound):
		return common.NewError(common.ErrCodeNotFound, "Recipe not found", http.StatusNotFound, err)
	case errors.Is(err, session.ErrBusy):
		return common.NewError(common.ErrCodeConflict, "A request is already in progress for this session", http.StatusConflict, err)
	case errors.Is(err, session.ErrInvalidTransition):
		return common.NewError("INVALID_TRANSITION", err.Error(), http.StatusConflict, err)
	case errors.Is(err, recipe.ErrDuplicateIngredient):
		return common.NewError(common.ErrCodeConflict, err.Error(), http.StatusConflict, err)
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return common.NewError(common.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
		}
	}
	return err
}

// RespondError 寫入錯誤回應
func RespondError(c *gin.Context, err error, debug bool) {
	status, resp := common.BuildErrorResponse(domainError(err), debug)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求處理失敗", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error) {
	common.LogWarn("請求格式無效",
		zap.Error(err),
		zap.String("request_id", requestid.Get(c)))
	c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: "Invalid request format",
		Details: []string{err.Error()},
	})
}
