// Package mailer 负责通知邮件的 SMTP 投递。
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sunilprojects/smart-campus-resource-management/config"
)

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender 基于 gomail 的 SMTP 发送器
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// New 根据配置创建发送器；未配置 SMTP 主机时返回仅记录日志的发送器
func New(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("未配置 SMTP，通知邮件仅记录日志")
		return &LogSender{logger: logger}
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(compose(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func compose(from, to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// LogSender 只记录日志，不实际投递
type LogSender struct {
	logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("模拟发送邮件", zap.String("to", to), zap.String("subject", subject))
	return nil
}
