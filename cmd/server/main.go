package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/api/handler"
	"github.com/korekulturteacher-afk/village-photos/internal/api/router"
	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/cache"
	"github.com/korekulturteacher-afk/village-photos/pkg/database"
	"github.com/korekulturteacher-afk/village-photos/pkg/jwt"
	applogger "github.com/korekulturteacher-afk/village-photos/pkg/logger"
	"github.com/korekulturteacher-afk/village-photos/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
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
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，IP 限流与令牌黑名单功能将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 Google Drive 客户端与缩略图缓存
	driveClient, err := drive.NewClient(&cfg.Drive, logger)
	if err != nil {
		logger.Fatal("初始化 Drive 客户端失败", zap.Error(err))
	}
	thumbCache := cache.NewLRU(cfg.Cache.ThumbnailMaxEntries, cfg.Cache.ThumbnailTTL)

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, driveClient, thumbCache, jwtMgr, logger)
	h := handler.NewHandler(svc, rdb)

	// 7.1 播种管理员初始口令（幂等）
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.SeedAdminPassword(seedCtx); err != nil {
		logger.Fatal("播种管理员口令失败", zap.Error(err))
	}
	seedCancel()

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // 打包下载耗时较长
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

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
