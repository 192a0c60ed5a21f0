package common

import (
	"errors"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// BuildErrorResponse 將錯誤轉換為 HTTP 狀態碼與響應內容，debug 時附上原始錯誤與 AI 回應
func BuildErrorResponse(err error, debug bool) (int, ErrorResponse) {
	ce := ToCustomError(err)
	resp := ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		resp.Details = append(resp.Details, ve.Errors...)
	}

	if debug {
		var me *MalformedResponseError
		if errors.As(err, &me) {
			resp.Raw = me.Raw
		}
		if ce.Err != nil && ve == nil {
			resp.Details = append(resp.Details, ce.Err.Error())
		}
	}
	return ce.Status, resp
}
