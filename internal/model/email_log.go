package model

import "time"

// 邮件发送状态
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog 邮件发送记录 — 对应 email_logs
type EmailLog struct {
	EmailLogID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"email_log_id"`
	Recipient    string    `gorm:"type:varchar(255);not null"                     json:"recipient"`
	Subject      string    `gorm:"type:varchar(255);not null"                     json:"subject"`
	Kind         string    `gorm:"type:varchar(50);not null"                      json:"kind"`
	Status       string    `gorm:"type:varchar(20);not null"                      json:"status"`
	ErrorMessage string    `gorm:"type:text;not null;default:''"                  json:"error_message,omitempty"`
	BookingID    *string   `gorm:"type:uuid"                                      json:"booking_id,omitempty"`
	SentAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"sent_at"`
}

// TableName 指定表名
func (EmailLog) TableName() string { return "email_logs" }
