package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tams/config"
	"tams/internal/api/handler"
	"tams/internal/api/middleware"
	"tams/internal/api/router"
	"tams/internal/coursedir"
	"tams/internal/repository"
	"tams/internal/service"
	"tams/pkg/clock"
	"tams/pkg/database"
	"tams/pkg/jwt"
	applogger "tams/pkg/logger"
	"tams/pkg/mail"
	"tams/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 存储后端
	var (
		db   *gorm.DB
		repo *repository.Repository
	)
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("使用内存存储，进程退出后数据丢失")
		repo = repository.NewMemoryRepository()
	default:
		db, err = database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		logger.Info("数据库连接成功")

		// 3.1 执行数据库迁移
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		repo = repository.NewRepository(db)
	}

	// 4. 连接 Redis（可选：连接失败时降级为进程内缓存，且不限流）
	var (
		cache   coursedir.Cache
		limiter middleware.Limiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，课程缓存降级为进程内缓存，限流不可用", zap.Error(err))
		rdb = nil
		cache = coursedir.NewLocalCache(cfg.CourseService.CacheTTL)
	} else {
		cache = rdb
		limiter = rdb
	}

	// 5. 外部依赖：课程服务、邮件
	courses := coursedir.NewCached(
		coursedir.NewClient(&cfg.CourseService, logger),
		cache, cfg.CourseService.CacheTTL, cfg.CourseService.Timeout, logger,
	)
	mailer := mail.NewSender(&cfg.Mail, logger)

	// 6. 初始化 JWT 管理器与自定义校验
	jwtMgr := jwt.NewManager(&cfg.Auth)
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	svc := service.NewService(repo, courses, mailer, clock.Real{}, logger)
	h := handler.NewHandler(svc, courses)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, courses, limiter, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待在途邮件投递完成
	mailer.Close()

	// 关闭数据库连接
	if db != nil {
		if closeDB, _ := db.DB(); closeDB != nil {
			closeDB.Close()
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
