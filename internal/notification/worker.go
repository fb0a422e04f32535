package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/mailer"
)

// Worker 消费通知事件并发送邮件
type Worker struct {
	sub    message.Subscriber
	topic  string
	sender mailer.Sender
	logs   repository.EmailLogRepository
	logger *zap.Logger
}

// NewWorker 创建通知 Worker
func NewWorker(sub message.Subscriber, topic string, sender mailer.Sender, logs repository.EmailLogRepository, logger *zap.Logger) *Worker {
	return &Worker{sub: sub, topic: topic, sender: sender, logs: logs, logger: logger}
}

// Start 同步完成订阅后在后台消费，返回的通道在消费结束时关闭
func (w *Worker) Start(ctx context.Context) (<-chan struct{}, error) {
	msgs, err := w.sub.Subscribe(ctx, w.topic)
	if err != nil {
		return nil, fmt.Errorf("订阅通知主题失败: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			w.handle(ctx, msg)
			msg.Ack()
		}
		w.logger.Info("通知 Worker 已停止")
	}()

	w.logger.Info("通知 Worker 已启动", zap.String("topic", w.topic))
	return done, nil
}

// handle 处理单条消息；任何失败都只记录，不重投
func (w *Worker) handle(ctx context.Context, msg *message.Message) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		w.logger.Error("通知载荷无法解析", zap.String("message_id", msg.UUID), zap.Error(err))
		return
	}
	if ev.Recipient == "" {
		w.logger.Warn("通知缺少收件人", zap.String("kind", string(ev.Kind)))
		return
	}

	subject, body := Render(ev)
	entry := &model.EmailLog{
		Recipient: ev.Recipient,
		Subject:   subject,
		Kind:      string(ev.Kind),
		Status:    model.EmailStatusSent,
		SentAt:    time.Now(),
	}
	if ev.BookingID != "" {
		id := ev.BookingID
		entry.BookingID = &id
	}

	if err := w.sender.Send(ctx, ev.Recipient, subject, body); err != nil {
		entry.Status = model.EmailStatusFailed
		entry.ErrorMessage = err.Error()
		w.logger.Error("发送通知邮件失败",
			zap.String("kind", string(ev.Kind)),
			zap.String("recipient", ev.Recipient),
			zap.Error(err),
		)
	}

	if err := w.logs.Create(ctx, entry); err != nil {
		w.logger.Error("写入邮件日志失败", zap.String("recipient", ev.Recipient), zap.Error(err))
	}
}
