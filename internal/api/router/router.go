package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tams/config"
	"tams/internal/api/handler"
	"tams/internal/api/middleware"
	"tams/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流（Redis 未连接）
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	courses middleware.LecturerChecker,
	limiter middleware.Limiter,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	lecturer := middleware.CourseLecturer(courses)
	limited := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 本人视角
		v1.GET("/applications/me", h.Application.ListMine)
		v1.GET("/contracts/me", h.Contract.ListMine)
		v1.POST("/contracts/ratings", h.Contract.AverageRatings)

		// 工时申报（审核权限在 Handler 内按申报所属课程校验）
		hours := v1.Group("/hours")
		{
			hours.GET("/:id", h.Hour.Get)
			hours.PUT("/:id/approve", limited, h.Hour.Approve)
		}

		course := v1.Group("/courses/:course_id")
		{
			// 申请模块
			apps := course.Group("/applications")
			{
				apps.POST("", limited, h.Application.Submit)
				apps.GET("/me", h.Application.GetMine)
				apps.DELETE("/me", limited, h.Application.Withdraw)
				apps.GET("", lecturer, h.Application.ListPending)
				apps.GET("/recommendations", lecturer, h.Application.Recommend)
				apps.POST("/:net_id/accept", lecturer, limited, h.Application.Accept)
				apps.POST("/:net_id/reject", lecturer, limited, h.Application.Reject)
			}

			// 合同模块
			contracts := course.Group("/contracts")
			{
				contracts.POST("", lecturer, limited, h.Contract.Create)
				contracts.GET("", lecturer, h.Contract.ListByCourse)
				contracts.GET("/me", h.Contract.GetMine)
				contracts.POST("/me/sign", limited, h.Contract.Sign)
				contracts.GET("/me/hours", h.Hour.ListMine)
				contracts.PUT("/:net_id/rating", lecturer, limited, h.Contract.Rate)
				contracts.PUT("/:net_id/hours", lecturer, limited, h.Contract.UpdateHours)
			}

			// 工时模块
			course.POST("/hours", limited, h.Hour.Submit)
			course.GET("/hours/open", lecturer, h.Hour.ListOpen)

			// 导出模块
			course.GET("/export", lecturer, h.Export.ExportCourse)
		}
	}

	return r
}
