package dto

// ── 角色限额配置 DTO ──

// UpdateRoleLimitRequest 更新某角色的预约限额，-1 表示不限
type UpdateRoleLimitRequest struct {
	MaxActiveBookings  int `json:"max_active_bookings"  binding:"min=-1,max=100"`
	AdvanceDays        int `json:"advance_days"         binding:"min=-1,max=365"`
	MaxDurationMinutes int `json:"max_duration_minutes" binding:"min=-1,max=1440"`
	CancelLeadHours    int `json:"cancel_lead_hours"    binding:"min=0,max=168"`
}

// RoleLimitResponse 角色限额响应
type RoleLimitResponse struct {
	Role               string `json:"role"`
	MaxActiveBookings  int    `json:"max_active_bookings"`
	AdvanceDays        int    `json:"advance_days"`
	MaxDurationMinutes int    `json:"max_duration_minutes"`
	CancelLeadHours    int    `json:"cancel_lead_hours"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}
