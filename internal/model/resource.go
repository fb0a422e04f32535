package model

import (
	"time"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
)

// 资源状态
const (
	ResourceStatusAvailable        = string(booking.ResourceAvailable)
	ResourceStatusUnderMaintenance = string(booking.ResourceUnderMaintenance)
	ResourceStatusUnavailable      = string(booking.ResourceUnavailable)
)

// ResourceCategory 资源分类表 — 对应 resource_categories
type ResourceCategory struct {
	CategoryID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"category_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	Icon        string `gorm:"type:varchar(50);not null;default:''"           json:"icon"`
	BaseModel
}

// TableName 指定表名
func (ResourceCategory) TableName() string { return "resource_categories" }

// Resource 可预约资源表 — 对应 resources
type Resource struct {
	ResourceID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"resource_id"`
	Name               string     `gorm:"type:varchar(150);not null"                     json:"name"`
	CategoryID         *string    `gorm:"type:uuid"                                      json:"category_id"`
	Description        string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Capacity           int        `gorm:"not null;default:1"                             json:"capacity"`
	Location           string     `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	Amenities          string     `gorm:"type:text;not null;default:''"                  json:"amenities"`
	ImageURL           string     `gorm:"type:varchar(500);not null;default:''"          json:"image_url"`
	Status             string     `gorm:"type:varchar(30);not null;default:'available'"  json:"status"`
	MinBookingDuration int        `gorm:"not null;default:60"                            json:"min_booking_duration"`
	MaxBookingDuration int        `gorm:"not null;default:180"                           json:"max_booking_duration"`
	AdvanceBookingDays int        `gorm:"not null;default:7"                             json:"advance_booking_days"`
	MaintenanceStart   *time.Time `json:"maintenance_start,omitempty"`
	MaintenanceEnd     *time.Time `json:"maintenance_end,omitempty"`
	MaintenanceReason  string     `gorm:"type:text;not null;default:''"                  json:"maintenance_reason,omitempty"`
	AuditModel

	// 关联
	Category *ResourceCategory `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
}

// TableName 指定表名
func (Resource) TableName() string { return "resources" }

// State 规则引擎使用的资源快照
func (r *Resource) State() booking.ResourceState {
	return booking.ResourceState{
		Status:           booking.ResourceStatus(r.Status),
		Capacity:         r.Capacity,
		MinDuration:      r.MinBookingDuration,
		MaxDuration:      r.MaxBookingDuration,
		MaintenanceStart: r.MaintenanceStart,
		MaintenanceEnd:   r.MaintenanceEnd,
	}
}

// CategoryName 分类名，未分类时为空
func (r *Resource) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.Name
}
