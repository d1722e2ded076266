// Package mail 邮件发送实现：SendGrid、日志输出，以及异步投递包装。
package mail

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"tams/config"
)

// Sender 可发送纯文本邮件的服务
type Sender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// NewSender 按配置创建 Sender，外层统一包装为异步投递
func NewSender(cfg *config.MailConfig, logger *zap.Logger) *Async {
	var s Sender
	switch cfg.Provider {
	case "sendgrid":
		s = NewSendGridSender(cfg.APIKey, cfg.FromName, cfg.From)
	default:
		s = NewLogSender(logger)
	}
	return NewAsync(s, cfg.Timeout, logger)
}

// ── SendGrid ──

// SendGridSender 通过 SendGrid v3 API 发送邮件
type SendGridSender struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

var _ Sender = (*SendGridSender)(nil)

func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, recipient, subject, body string) error {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + subject
	p.AddTos(sgmail.NewEmail("", recipient))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(s.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", body))

	res, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid 请求失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid 返回 %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ── 日志输出（开发环境） ──

// LogSender 只把邮件写入日志，不真正投递
type LogSender struct {
	logger *zap.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(_ context.Context, recipient, subject, body string) error {
	s.logger.Info("邮件（未投递）",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// ── 异步投递 ──

// Async 在后台 goroutine 中投递邮件，调用方立即返回。
// 投递失败只记录日志；Close 等待所有在途邮件结束。
type Async struct {
	next    Sender
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

var _ Sender = (*Async)(nil)

func NewAsync(next Sender, timeout time.Duration, logger *zap.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, timeout: timeout, logger: logger}
}

func (a *Async) SendEmail(_ context.Context, recipient, subject, body string) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("邮件投递 panic", zap.Any("panic", r), zap.String("to", recipient))
			}
		}()

		// 请求上下文可能早已结束，投递使用独立超时
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.SendEmail(ctx, recipient, subject, body); err != nil {
			a.logger.Warn("邮件投递失败", zap.String("to", recipient), zap.Error(err))
		}
	}()
	return nil
}

// Close 等待在途邮件投递完成
func (a *Async) Close() {
	a.wg.Wait()
}
