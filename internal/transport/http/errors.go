package httptransport

import (
	"nakupenda/backend/internal/service"
	"nakupenda/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 客户端消息）
var errorMessages = map[error]string{
	service.ErrRecipientRequired: "recipient name is required",
	service.ErrMessageRequired:   "message is required",
	storage.ErrLetterNotFound:    "letter not found",
}

// GetErrorMessage 获取错误的客户端消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "invalid request"
	MsgInvalidForm    = "invalid multipart form"

	// 信件相关
	MsgLetterCreateFailed = "failed to create letter"
	MsgLetterNotFound     = "letter not found"
	MsgLetterGetFailed    = "failed to load letter"

	// 服务器错误
	MsgInternalError = "internal server error"
)
