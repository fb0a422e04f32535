// Package notification 负责预约相关通知：事务提交后发布到消息总线，
// 由后台 Worker 消费并通过邮件投递，投递结果写入 email_logs。
package notification

import "time"

// Kind 通知类型
type Kind string

const (
	KindWelcome              Kind = "welcome"
	KindBookingConfirmed     Kind = "booking_confirmed"
	KindBookingCancelled     Kind = "booking_cancelled"
	KindMaintenanceCancelled Kind = "maintenance_cancelled"
	KindBookingCompleted     Kind = "booking_completed"
	KindBookingNoShow        Kind = "booking_no_show"
)

// Event 总线上传递的通知载荷
type Event struct {
	Kind          Kind      `json:"kind"`
	Recipient     string    `json:"recipient"`
	RecipientName string    `json:"recipient_name"`
	BookingID     string    `json:"booking_id,omitempty"`
	ResourceName  string    `json:"resource_name,omitempty"`
	Date          string    `json:"date,omitempty"`
	StartTime     string    `json:"start_time,omitempty"`
	EndTime       string    `json:"end_time,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
