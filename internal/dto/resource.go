package dto

// ── 资源分类 DTO ──

// CreateCategoryRequest 创建分类
type CreateCategoryRequest struct {
	Name        string `json:"name"        binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Icon        string `json:"icon"        binding:"omitempty,max=50"`
}

// UpdateCategoryRequest 更新分类
type UpdateCategoryRequest struct {
	Name        *string `json:"name"        binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Icon        *string `json:"icon"        binding:"omitempty,max=50"`
}

// CategoryResponse 分类响应
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// ── 资源 DTO ──

// ResourceListRequest 资源列表查询参数
type ResourceListRequest struct {
	PaginationRequest
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=available under_maintenance unavailable"`
	Keyword    string `form:"keyword"     binding:"omitempty,max=50"`
}

// CreateResourceRequest 创建资源
type CreateResourceRequest struct {
	Name               string  `json:"name"                 binding:"required,max=150"`
	CategoryID         *string `json:"category_id"          binding:"omitempty,uuid"`
	Description        string  `json:"description"          binding:"omitempty,max=2000"`
	Capacity           int     `json:"capacity"             binding:"required,min=1"`
	Location           string  `json:"location"             binding:"omitempty,max=200"`
	Amenities          string  `json:"amenities"            binding:"omitempty,max=1000"`
	ImageURL           string  `json:"image_url"            binding:"omitempty,url,max=500"`
	MinBookingDuration int     `json:"min_booking_duration" binding:"omitempty,min=15"`
	MaxBookingDuration int     `json:"max_booking_duration" binding:"omitempty,min=15"`
	AdvanceBookingDays int     `json:"advance_booking_days" binding:"omitempty,min=1"`
}

// UpdateResourceRequest 更新资源（部分字段）
type UpdateResourceRequest struct {
	Name               *string `json:"name"                 binding:"omitempty,max=150"`
	CategoryID         *string `json:"category_id"          binding:"omitempty,uuid"`
	Description        *string `json:"description"          binding:"omitempty,max=2000"`
	Capacity           *int    `json:"capacity"             binding:"omitempty,min=1"`
	Location           *string `json:"location"             binding:"omitempty,max=200"`
	Amenities          *string `json:"amenities"            binding:"omitempty,max=1000"`
	ImageURL           *string `json:"image_url"            binding:"omitempty,max=500"`
	MinBookingDuration *int    `json:"min_booking_duration" binding:"omitempty,min=15"`
	MaxBookingDuration *int    `json:"max_booking_duration" binding:"omitempty,min=15"`
	AdvanceBookingDays *int    `json:"advance_booking_days" binding:"omitempty,min=1"`
}

// UpdateResourceStatusRequest 更新资源状态；维护状态需走维护接口
type UpdateResourceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available unavailable"`
}

// ScheduleMaintenanceRequest 安排维护
// 时间为 RFC3339，未带时区的值按预约时区解释
type ScheduleMaintenanceRequest struct {
	Start  string `json:"start"  binding:"required"`
	End    string `json:"end"    binding:"required"`
	Reason string `json:"reason" binding:"required,max=500"`
}

// MaintenanceResponse 维护安排结果
type MaintenanceResponse struct {
	Resource          ResourceResponse `json:"resource"`
	CancelledBookings []string         `json:"cancelled_bookings"`
}

// ResourceResponse 资源响应
type ResourceResponse struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Category           *CategoryResponse `json:"category,omitempty"`
	Description        string            `json:"description"`
	Capacity           int               `json:"capacity"`
	Location           string            `json:"location"`
	Amenities          string            `json:"amenities"`
	ImageURL           string            `json:"image_url"`
	Status             string            `json:"status"`
	MinBookingDuration int               `json:"min_booking_duration"`
	MaxBookingDuration int               `json:"max_booking_duration"`
	AdvanceBookingDays int               `json:"advance_booking_days"`
	MaintenanceStart   *string           `json:"maintenance_start,omitempty"`
	MaintenanceEnd     *string           `json:"maintenance_end,omitempty"`
	MaintenanceReason  string            `json:"maintenance_reason,omitempty"`
}
