package service

import (
	"context"

	"tams/internal/model"
)

// CourseDirectory 课程服务（外部）
// 任何失败（包括课程不存在）都按"课程不存在"处理
type CourseDirectory interface {
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	IsResponsibleLecturer(ctx context.Context, netID, courseID string) (bool, error)
}

// Notifier 邮件通知（外部），尽力投递，错误只记日志
type Notifier interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}
