package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 请求本身不合法（参数、地址、查询失败），不涉及程序调用
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// InvocationErrorResponse 调用被运行时或程序拒绝，errorKind 为稳定的错误分类，
// message 为具体原因，data 携带回执
func InvocationErrorResponse(c *gin.Context, kind, message string, receipt *ReceiptResponse) {
	c.JSON(statusForKind(kind), Response{
		Success:   false,
		Message:   message,
		ErrorKind: kind,
		Data:      receipt,
	})
}

// statusForKind 错误分类到 HTTP 状态码
func statusForKind(kind string) int {
	switch kind {
	case "SignatureVerificationFailed", "Unauthorized":
		return http.StatusUnauthorized
	case "UnknownProgram", "InvalidInstructionData", "NotEnoughAccountKeys", "InvalidArgument":
		return http.StatusBadRequest
	case "DuplicateTransaction":
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}
