package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 的 HTTP 头
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID 读取或生成请求 ID，写回响应头并保存到 gin.Context。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 返回当前请求的 ID，没有时返回空字符串。
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
