package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse 错误响应结构。前端按 error 字段展示提示，
// 所以错误响应不使用额外的包装层。
type errorResponse struct {
	Error string `json:"error"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功响应（201）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// NotFound 资源不存在错误（404）
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// RequestTooLarge 请求体过大错误（413）
func RequestTooLarge(c *gin.Context, msg string) {
	c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: msg})
}

// InternalError 服务器内部错误（500）
func InternalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}
