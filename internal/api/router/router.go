package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/config"
	"github.com/sunilprojects/smart-campus-resource-management/internal/api/handler"
	"github.com/sunilprojects/smart-campus-resource-management/internal/api/middleware"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/jwt"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/redis"
)

const (
	maxBodyBytes    = 1 << 20
	catalogCacheTTL = 30 * time.Second
)

// Setup 初始化并返回 Gin 路由引擎
// blacklist 为 nil 时不做 Token 注销检查；rdb 为 nil 时限流退化为进程内令牌桶
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, blacklist middleware.TokenBlacklist, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	catalogCache := middleware.NewResponseCache(catalogCacheTTL)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", admin, h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)    // admin 或本人（Service 层鉴权）
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.PUT("/:id/role", admin, h.User.AssignRole)
				users.PUT("/:id/status", admin, h.User.UpdateStatus)
			}

			// 资源分类
			categories := authorized.Group("/categories")
			categories.Use(catalogCache.Handler())
			{
				categories.GET("", h.Resource.ListCategories)
				categories.POST("", admin, h.Resource.CreateCategory)
				categories.PUT("/:id", admin, h.Resource.UpdateCategory)
				categories.DELETE("/:id", admin, h.Resource.DeleteCategory)
			}

			// 资源模块
			resources := authorized.Group("/resources")
			resources.Use(catalogCache.Handler())
			{
				resources.GET("", h.Resource.ListResources)
				resources.GET("/top", h.Resource.TopResources)
				resources.GET("/:id", h.Resource.GetResource)
				resources.POST("", admin, h.Resource.CreateResource)
				resources.PUT("/:id", admin, h.Resource.UpdateResource)
				resources.DELETE("/:id", admin, h.Resource.DeleteResource)
				resources.PUT("/:id/status", admin, h.Resource.UpdateResourceStatus)
				resources.POST("/:id/maintenance", admin, h.Resource.ScheduleMaintenance)
			}

			// 预约模块
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.CreateBooking)
				bookings.GET("/slots", h.Booking.GetSlots)
				bookings.GET("/availability", h.Booking.CheckAvailability)
				bookings.GET("/my", h.Booking.ListMyBookings)
				bookings.GET("/my/calendar", h.Export.ExportMyCalendar)
				bookings.GET("/statistics", h.Booking.Statistics)
				bookings.GET("", admin, h.Booking.ListBookings)
				bookings.GET("/:id", h.Booking.GetBooking)
				bookings.PUT("/:id/cancel", h.Booking.CancelBooking)
				bookings.PUT("/:id/complete", admin, h.Booking.CompleteBooking)
				bookings.PUT("/:id/no-show", admin, h.Booking.MarkNoShow)
			}

			// 评价模块
			reviews := authorized.Group("/reviews")
			{
				reviews.POST("", h.Review.CreateReview)
				reviews.GET("/my", h.Review.ListMine)
				reviews.GET("/resource/:id", h.Review.ListByResource)
				reviews.GET("/resource/:id/summary", h.Review.Summary)
				reviews.PUT("/:id", h.Review.UpdateReview)
				reviews.DELETE("/:id", h.Review.DeleteReview)
			}

			// 仪表盘
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("", h.Dashboard.Overview)
				dashboard.GET("/peak-hours", h.Dashboard.PeakHours)
				dashboard.GET("/weekdays", h.Dashboard.Weekdays)
				dashboard.GET("/trend", h.Dashboard.Trend)
				dashboard.GET("/category-utilization", h.Dashboard.CategoryUtilization)
				dashboard.GET("/system-health", admin, h.Dashboard.SystemHealth)
			}

			// 导出（管理员）
			authorized.GET("/export/bookings", admin, h.Export.ExportBookings)

			// 系统配置
			sysConfig := authorized.Group("/system-config")
			{
				sysConfig.GET("/role-limits", h.SystemConfig.ListRoleLimits)
				sysConfig.PUT("/role-limits/:role", admin, h.SystemConfig.UpdateRoleLimit)
			}
		}
	}

	return r
}
