package dto

// ── 仪表盘 DTO ──

// UserDashboardResponse 学生/教师仪表盘
type UserDashboardResponse struct {
	TotalBookings     int               `json:"total_bookings"`
	ActiveBookings    int               `json:"active_bookings"`
	CompletedBookings int               `json:"completed_bookings"`
	CancelledBookings int               `json:"cancelled_bookings"`
	Upcoming          []BookingResponse `json:"upcoming"`
}

// AdminDashboardResponse 管理员仪表盘
type AdminDashboardResponse struct {
	UsersByRole        map[string]int64        `json:"users_by_role"`
	ResourcesByStatus  map[string]int64        `json:"resources_by_status"`
	BookingsByStatus   map[string]int          `json:"bookings_by_status"`
	TodayBookings      int                     `json:"today_bookings"`
	WeekBookings       int                     `json:"week_bookings"`
	MonthBookings      int                     `json:"month_bookings"`
	BookingsByCategory map[string]int          `json:"bookings_by_category"`
	TopResources       []ResourceUsageResponse `json:"top_resources"`
	Upcoming           []BookingResponse       `json:"upcoming"`
}

// ResourceUsageResponse 资源使用情况；utilization 为估算值
type ResourceUsageResponse struct {
	ResourceID  string  `json:"resource_id"`
	Name        string  `json:"name"`
	Completed   int     `json:"completed_bookings"`
	Utilization float64 `json:"utilization"`
}

// HourCountResponse 按小时统计
type HourCountResponse struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// WeekdayCountResponse 按星期统计
type WeekdayCountResponse struct {
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

// DayCountResponse 按日期统计
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TrendQuery 趋势查询
type TrendQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// SystemHealthResponse 系统健康
type SystemHealthResponse struct {
	Database        string `json:"database"`
	Redis           string `json:"redis"`
	EmailsSent24h   int64  `json:"emails_sent_24h"`
	EmailsFailed24h int64  `json:"emails_failed_24h"`
}
