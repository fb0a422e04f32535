package model

// Review 评价表 — 对应 reviews，每个预约至多一条
type Review struct {
	ReviewID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	BookingID  string `gorm:"type:uuid;not null;uniqueIndex"                 json:"booking_id"`
	ResourceID string `gorm:"type:uuid;not null;index"                       json:"resource_id"`
	UserID     string `gorm:"type:uuid;not null"                             json:"user_id"`
	Rating     int    `gorm:"not null"                                       json:"rating"`
	Comment    string `gorm:"type:text;not null;default:''"                  json:"comment"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }
