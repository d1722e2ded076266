// Package logger 基于 Zap 的日志初始化与请求上下文辅助。
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tams/config"
)

// NewLogger 根据配置初始化 Zap 日志实例
// format=console 为开发模式彩色输出，其余为 JSON；
// 时间统一 ISO8601，堆栈只在 Error 及以上附带
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "time"
		// 审核、录取等业务日志需要完整保留，关闭采样
		zapCfg.Sampling = nil
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", "tams")),
	)
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger, nil
}

// FromContext 返回附带请求 ID 的子日志器
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if rid := RequestIDFrom(ctx); rid != "" {
		return base.With(zap.String("request_id", rid))
	}
	return base
}
