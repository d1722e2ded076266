package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"tams/pkg/jwt"
	"tams/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "" && claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		c.Set("net_id", claims.NetID)
		c.Next()
	}
}

// LecturerChecker 讲师身份查询
type LecturerChecker interface {
	IsResponsibleLecturer(ctx context.Context, netID, courseID string) (bool, error)
}

// CourseLecturer 课程讲师权限中间件
// 要求当前用户是路径参数 :course_id 对应课程的负责讲师；
// 课程查询失败一律按课程不存在处理
func CourseLecturer(dir LecturerChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		netID := c.GetString("net_id")
		if netID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		courseID := c.Param("course_id")
		ok, err := dir.IsResponsibleLecturer(c.Request.Context(), netID, courseID)
		if err != nil {
			response.NotFound(c, 20001, "课程不存在")
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, 10003, "仅课程负责讲师可操作")
			c.Abort()
			return
		}

		c.Next()
	}
}
