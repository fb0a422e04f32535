package dto

// ── 预约模块 DTO ──

// CreateBookingRequest 创建预约
type CreateBookingRequest struct {
	ResourceID     string `json:"resource_id"     binding:"required,uuid"`
	BookingDate    string `json:"booking_date"    binding:"required,date"`
	StartTime      string `json:"start_time"      binding:"required,clock"`
	EndTime        string `json:"end_time"        binding:"required,clock"`
	Purpose        string `json:"purpose"         binding:"required,max=500"`
	AttendeesCount *int   `json:"attendees_count" binding:"omitempty,min=1"`
}

// SlotQuery 时段查询
type SlotQuery struct {
	ResourceID string `form:"resource_id" binding:"required,uuid"`
	Date       string `form:"date"        binding:"required,date"`
}

// AvailabilityQuery 可用性查询
type AvailabilityQuery struct {
	ResourceID string `form:"resource_id" binding:"required,uuid"`
	Date       string `form:"date"        binding:"required,date"`
	StartTime  string `form:"start_time"  binding:"required,clock"`
	EndTime    string `form:"end_time"    binding:"required,clock"`
}

// CancelBookingRequest 取消预约
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// BookingListRequest 预约列表查询参数
type BookingListRequest struct {
	PaginationRequest
	Status     string `form:"status"      binding:"omitempty,oneof=confirmed completed cancelled no_show"`
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id"     binding:"omitempty,uuid"`
	DateFrom   string `form:"date_from"   binding:"omitempty,date"`
	DateTo     string `form:"date_to"     binding:"omitempty,date"`
}

// BookingResponse 预约响应
type BookingResponse struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"user_id"`
	UserName           string  `json:"user_name,omitempty"`
	ResourceID         string  `json:"resource_id"`
	ResourceName       string  `json:"resource_name,omitempty"`
	BookingDate        string  `json:"booking_date"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	Duration           int     `json:"duration"`
	Purpose            string  `json:"purpose"`
	AttendeesCount     *int    `json:"attendees_count,omitempty"`
	Status             string  `json:"status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancelledBy        *string `json:"cancelled_by,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

// SlotResponse 单个时段
type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// AvailabilityResponse 可用性结果
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// BookingStatisticsResponse 预约统计
type BookingStatisticsResponse struct {
	Total           int            `json:"total"`
	Confirmed       int            `json:"confirmed"`
	Completed       int            `json:"completed"`
	Cancelled       int            `json:"cancelled"`
	NoShow          int            `json:"no_show"`
	AverageDuration float64        `json:"average_duration"`
	ByCategory      map[string]int `json:"by_category"`
}
