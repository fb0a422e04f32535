package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/config"
	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/jwt"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/lock"
)

// Notifier 通知出口，事务提交后调用；失败只记录日志
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) error
}

// TokenStore Token 黑名单存储，Redis 未配置时为 nil
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// HealthProbe 系统健康检查项
type HealthProbe interface {
	Ping(ctx context.Context) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Resource  ResourceService
	Booking   BookingService
	Review    ReviewService
	Dashboard DashboardService
	Report    ReportService
	RoleLimit RoleLimitService
}

// Deps 构造 Service 聚合所需的依赖
type Deps struct {
	Config   *config.Config
	Repo     *repository.Repository
	JWT      *jwt.Manager
	Locker   lock.Locker
	Notifier Notifier
	Tokens   TokenStore
	Database HealthProbe
	Redis    HealthProbe
	Logger   *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	rt := &runtime{
		repo:     d.Repo,
		locker:   d.Locker,
		notifier: d.Notifier,
		engine:   booking.NewEngine(),
		loc:      d.Config.Booking.Location(),
		now:      time.Now,
		logger:   d.Logger,
	}
	if rt.locker == nil {
		rt.locker = lock.NewLocal()
	}

	return &Service{
		Auth:      NewAuthService(d.Config, d.Repo, d.JWT, d.Tokens, rt, d.Logger),
		User:      NewUserService(d.Repo, d.Logger),
		Resource:  NewResourceService(rt),
		Booking:   NewBookingService(rt),
		Review:    NewReviewService(d.Repo, d.Logger),
		Dashboard: NewDashboardService(rt, d.Database, d.Redis),
		Report:    NewReportService(rt),
		RoleLimit: NewRoleLimitService(d.Repo, d.Logger),
	}
}

// runtime 预约相关 Service 共享的运行时依赖
type runtime struct {
	repo     *repository.Repository
	locker   lock.Locker
	notifier Notifier
	engine   *booking.Engine
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// today 预约时区下的当前日期
func (rt *runtime) today() time.Time {
	return booking.DateOf(rt.now().In(rt.loc))
}

// limits 读取角色配额表，数据库缺失的角色沿用内置默认
func (rt *runtime) limits(ctx context.Context, repo *repository.Repository) (booking.LimitTable, error) {
	rows, err := repo.RoleLimit.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.LimitTableOf(rows), nil
}

// notify 逐条发送通知，任何失败都只记录日志
func (rt *runtime) notify(ctx context.Context, events ...notification.Event) {
	if rt.notifier == nil {
		return
	}
	for _, ev := range events {
		if err := rt.notifier.Notify(ctx, ev); err != nil {
			rt.logger.Warn("发送通知失败",
				zap.String("kind", string(ev.Kind)),
				zap.String("booking_id", ev.BookingID),
				zap.Error(err),
			)
		}
	}
}

// withResourceLock 在资源锁与事务内 advisory 锁下执行 fn，与预约创建互斥
func (rt *runtime) withResourceLock(ctx context.Context, resourceID string, fn func(tx *repository.Repository) error) error {
	unlock, err := rt.locker.Lock(ctx, resourceLockKey(resourceID))
	if err != nil {
		return err
	}
	defer unlock()

	return rt.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Booking.LockResource(ctx, resourceID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func resourceLockKey(resourceID string) string {
	return "resource:" + resourceID
}
