package handler

import (
	"github.com/gin-gonic/gin"

	"tams/pkg/response"
)

// MustGetNetID 从 Gin 上下文中安全提取 net_id。
// 如果 JWT 中间件未正确注入 net_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetNetID(c *gin.Context) (string, bool) {
	v, exists := c.Get("net_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustParam 读取必填路径参数，缺失时写入 400
func mustParam(c *gin.Context, name, message string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, message)
		return "", false
	}
	return v, true
}
