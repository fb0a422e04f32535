package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
)

// 预约状态
const (
	BookingStatusConfirmed = string(booking.StatusConfirmed)
	BookingStatusCompleted = string(booking.StatusCompleted)
	BookingStatusCancelled = string(booking.StatusCancelled)
	BookingStatusNoShow    = string(booking.StatusNoShow)
)

// Booking 预约表 — 对应 bookings
// StartTime/EndTime 以 "HH:MM" 写入，读取时可能为 "HH:MM:SS"
type Booking struct {
	BookingID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	UserID             string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ResourceID         string     `gorm:"type:uuid;not null;index"                       json:"resource_id"`
	BookingDate        time.Time  `gorm:"type:date;not null"                             json:"booking_date"`
	StartTime          string     `gorm:"type:time;not null"                             json:"start_time"`
	EndTime            string     `gorm:"type:time;not null"                             json:"end_time"`
	Duration           int        `gorm:"not null"                                       json:"duration"`
	Purpose            string     `gorm:"type:text;not null"                             json:"purpose"`
	AttendeesCount     *int       `json:"attendees_count,omitempty"`
	Status             string     `gorm:"type:varchar(20);not null;default:'confirmed'"  json:"status"`
	CancellationReason *string    `gorm:"type:text"                                     json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *string    `gorm:"type:uuid"                                     json:"cancelled_by,omitempty"`
	VersionedModel

	// 关联
	User     *User     `gorm:"foreignKey:UserID;references:UserID"         json:"user,omitempty"`
	Resource *Resource `gorm:"foreignKey:ResourceID;references:ResourceID" json:"resource,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// Interval 预约所占的时间区间
func (b *Booking) Interval() (booking.Interval, error) {
	start, err := booking.ParseClock(b.StartTime)
	if err != nil {
		return booking.Interval{}, err
	}
	end, err := booking.ParseClock(b.EndTime)
	if err != nil {
		return booking.Interval{}, err
	}
	return booking.NewInterval(b.BookingDate, start, end)
}

// BeforeSave 每次写入前根据起止时间重算时长
func (b *Booking) BeforeSave(*gorm.DB) error {
	iv, err := b.Interval()
	if err != nil {
		return fmt.Errorf("预约时间无效: %w", err)
	}
	b.Duration = iv.Minutes()
	return nil
}

// IntervalsOf 转换一组预约；时间格式损坏的记录被跳过
func IntervalsOf(bookings []Booking) []booking.Interval {
	out := make([]booking.Interval, 0, len(bookings))
	for i := range bookings {
		if iv, err := bookings[i].Interval(); err == nil {
			out = append(out, iv)
		}
	}
	return out
}
