package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/config"
	"github.com/sunilprojects/smart-campus-resource-management/internal/api/handler"
	"github.com/sunilprojects/smart-campus-resource-management/internal/api/middleware"
	"github.com/sunilprojects/smart-campus-resource-management/internal/api/router"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/database"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/jwt"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/lock"
	applogger "github.com/sunilprojects/smart-campus-resource-management/pkg/logger"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/mailer"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config.yaml 与 ./config/config.yaml")
	rollback := flag.Int("rollback", 0, "回滚最近 N 个数据库迁移后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("booking_timezone", cfg.Booking.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if *rollback > 0 {
		if err := database.RollbackMigrations(sqlDB, *rollback, logger); err != nil {
			logger.Fatal("数据库迁移回滚失败", zap.Error(err))
		}
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时降级为进程内锁与限流，Token 注销不可用）
	var (
		rdb       *redis.Client
		tokens    service.TokenStore
		blacklist middleware.TokenBlacklist
		redisPing service.HealthProbe
		locker    lock.Locker
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，降级运行", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		tokens, blacklist, redisPing = rdb, rdb, rdb
		locker = lock.NewDistributed(rdb, cfg.Booking.LockTTL, logger)
	} else {
		locker = lock.NewLocal()
	}

	// 5. 认证与持久化
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)

	// 6. 通知总线：事务提交后发布，后台 Worker 投递邮件
	bus, err := notification.NewBus(&cfg.Notification, applogger.NewWatermillAdapter(logger))
	if err != nil {
		logger.Fatal("创建通知总线失败", zap.Error(err))
	}
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := notification.NewWorker(bus.Subscriber, cfg.Notification.Topic, mailer.New(&cfg.Mail, logger), repo.EmailLog, logger)
	workerDone, err := worker.Start(workerCtx)
	if err != nil {
		logger.Fatal("启动通知 Worker 失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	svc := service.NewService(service.Deps{
		Config:   cfg,
		Repo:     repo,
		JWT:      jwtMgr,
		Locker:   locker,
		Notifier: notification.NewPublisher(bus.Publisher, cfg.Notification.Topic),
		Tokens:   tokens,
		Database: database.NewProbe(db),
		Redis:    redisPing,
		Logger:   logger,
	})
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, blacklist, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 先关总线让 Worker 处理完已取出的消息
	if err := bus.Close(); err != nil {
		logger.Error("通知总线关闭异常", zap.Error(err))
	}
	select {
	case <-workerDone:
	case <-ctx.Done():
		logger.Warn("等待通知 Worker 退出超时")
	}
	stopWorker()

	if err := sqlDB.Close(); err != nil {
		logger.Error("数据库关闭异常", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
