package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string   `json:"code"`              // 錯誤代碼
	Message string   `json:"message"`           // 錯誤信息
	Details []string `json:"details,omitempty"` // 詳細信息
	Raw     string   `json:"raw,omitempty"`     // 原始 AI 回應（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ConfigurationError 設定缺失或無效，啟動時即失敗
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError 創建設定錯誤
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// ServiceError 推論服務呼叫失敗（網路、非 2xx、逾時、回應封包無效）
type ServiceError struct {
	StatusCode int    // 上游 HTTP 狀態碼，網路錯誤時為 0
	Message    string // 上游錯誤訊息（若有）
	Timeout    bool
	Err        error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	b.WriteString("inference service error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Timeout {
		b.WriteString(": timeout")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// MalformedResponseError AI 回應中找不到文字或無法解析為 JSON
type MalformedResponseError struct {
	Reason string
	Raw    string // 原始文字，供診斷
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	Shape  string
	Errors []string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	if e.Shape == "" {
		return strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("invalid %s: %s", e.Shape, strings.Join(e.Errors, "; "))
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRecoverable 判斷錯誤是否允許使用者重試
func IsRecoverable(err error) bool {
	var (
		se *ServiceError
		me *MalformedResponseError
		ve *ValidationError
	)
	return errors.As(err, &se) || errors.As(err, &me) || errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeUnprocessable   = "INVALID_AI_OUTPUT" // 422
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError     = "INTERNAL_ERROR"      // 500
	ErrCodeConfiguration     = "CONFIGURATION_ERROR" // 500
	ErrCodeAIService         = "AI_SERVICE_ERROR"    // 502
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"  // 502
	ErrCodeGatewayTimeout    = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "緩存未命中", http.StatusNotFound, nil)
)

// ToCustomError 將錯誤轉換為帶有代碼與狀態碼的 CustomError
func ToCustomError(err error) *CustomError {
	if err == nil {
		return nil
	}

	var (
		ce  *CustomError
		cfg *ConfigurationError
		se  *ServiceError
		me  *MalformedResponseError
		ve  *ValidationError
	)
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.As(err, &cfg):
		return NewError(ErrCodeConfiguration, cfg.Error(), http.StatusInternalServerError, err)
	case errors.As(err, &se):
		if se.Timeout {
			return NewError(ErrCodeGatewayTimeout, "AI 服務逾時，請重試", http.StatusGatewayTimeout, err)
		}
		return NewError(ErrCodeAIService, "AI 服務錯誤，請重試", http.StatusBadGateway, err)
	case errors.As(err, &me):
		return NewError(ErrCodeMalformedResponse, "AI 回應格式錯誤，請重試", http.StatusBadGateway, err)
	case errors.As(err, &ve):
		return NewError(ErrCodeUnprocessable, "AI 回應內容不符合預期，請重試", http.StatusUnprocessableEntity, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, err)
	}
	return NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, err)
}
