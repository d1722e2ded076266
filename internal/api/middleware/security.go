package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders API 响应安全头
// 响应包含成绩、评分等个人数据：禁止缓存、禁止嵌入、禁止 MIME 嗅探
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
