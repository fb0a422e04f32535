package model

// 用户角色
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Phone        string `gorm:"type:varchar(20);not null;default:''"           json:"phone"`
	StudentID    string `gorm:"type:varchar(20);not null;default:''"           json:"student_id"`
	EmployeeID   string `gorm:"type:varchar(20);not null;default:''"           json:"employee_id"`
	Department   string `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsActive 非活跃用户不能登录
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
