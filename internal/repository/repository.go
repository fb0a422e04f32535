package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User      UserRepository
	Category  CategoryRepository
	Resource  ResourceRepository
	Booking   BookingRepository
	Review    ReviewRepository
	EmailLog  EmailLogRepository
	RoleLimit RoleLimitRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		User:      NewUserRepo(db),
		Category:  NewCategoryRepo(db),
		Resource:  NewResourceRepo(db),
		Booking:   NewBookingRepo(db),
		Review:    NewReviewRepo(db),
		EmailLog:  NewEmailLogRepo(db),
		RoleLimit: NewRoleLimitRepo(db),
	}
}

// Transaction 在可串行化事务中执行 fn，fn 收到的 Repository 绑定到该事务。
// 未持有数据库连接时（单元测试中手工组装的聚合）直接以自身调用 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return translateError(err)
}

// dateParam 以 YYYY-MM-DD 传参，避免 time.Time 在 date 列上的时区歧义
func dateParam(t time.Time) string {
	return t.Format(time.DateOnly)
}
