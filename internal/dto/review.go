package dto

// ── 评价模块 DTO ──

// CreateReviewRequest 创建评价
type CreateReviewRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Rating    int    `json:"rating"     binding:"required,min=1,max=5"`
	Comment   string `json:"comment"    binding:"omitempty,max=1000"`
}

// UpdateReviewRequest 更新评价
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"  binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}

// ReviewResponse 评价响应
type ReviewResponse struct {
	ID         string `json:"id"`
	BookingID  string `json:"booking_id"`
	ResourceID string `json:"resource_id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// RatingSummaryResponse 资源评分汇总
type RatingSummaryResponse struct {
	ResourceID   string         `json:"resource_id"`
	Average      float64        `json:"average"`
	Count        int            `json:"count"`
	Distribution map[string]int `json:"distribution"`
}
