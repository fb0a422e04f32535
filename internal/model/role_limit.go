package model

import (
	"time"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
)

// RoleLimit 角色预约配额表 — 对应 role_limits，-1 表示不限
type RoleLimit struct {
	Role               string    `gorm:"type:varchar(20);primaryKey"          json:"role"`
	MaxActiveBookings  int       `gorm:"not null"                             json:"max_active_bookings"`
	AdvanceDays        int       `gorm:"not null"                             json:"advance_days"`
	MaxDurationMinutes int       `gorm:"not null"                             json:"max_duration_minutes"`
	CancelLeadHours    int       `gorm:"not null"                             json:"cancel_lead_hours"`
	UpdatedBy          *string   `gorm:"type:uuid"                            json:"updated_by,omitempty"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"updated_at"`
}

// TableName 指定表名
func (RoleLimit) TableName() string { return "role_limits" }

// Limits 转换为规则引擎配额
func (r RoleLimit) Limits() booking.Limits {
	return booking.Limits{
		MaxActiveBookings:  r.MaxActiveBookings,
		AdvanceDays:        r.AdvanceDays,
		MaxDurationMinutes: r.MaxDurationMinutes,
		CancelLeadHours:    r.CancelLeadHours,
	}
}

// LimitTableOf 由数据库记录构造查找表，缺失的角色沿用内置默认
func LimitTableOf(rows []RoleLimit) booking.LimitTable {
	overrides := make(booking.LimitTable, len(rows))
	for _, r := range rows {
		overrides[booking.Role(r.Role)] = r.Limits()
	}
	return booking.DefaultLimitTable().Merge(overrides)
}
