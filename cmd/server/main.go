package main

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/SlpAus/aom-parse-server/api"
	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
	"github.com/SlpAus/aom-parse-server/internal/platform/health"
	"github.com/SlpAus/aom-parse-server/internal/platform/logger"
	"github.com/SlpAus/aom-parse-server/internal/platform/shutdown"
	"github.com/SlpAus/aom-parse-server/internal/platform/startup"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/SlpAus/aom-parse-server/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const workerTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		panic(fmt.Sprintf("创建日志器失败: %v", err))
	}
	defer func() { _ = log.Sync() }()

	// 1. 初始化数据库和Redis
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	if err := database.InitRedis(cfg.Database.Redis); err != nil {
		// 缓存只是加速层，连不上时直接访问数据库
		log.Warn("Redis不可用，会话缓存已禁用", zap.Error(err))
	}

	// 2. 迁移表结构
	if err := startup.InitializeApplication(database.DB); err != nil {
		log.Fatal("应用初始化失败，无法启动", zap.Error(err))
	}

	// 3. 组装服务
	accounts := account.NewService(database.DB, account.NewSessionCache(database.RDB), cfg.Parse.SessionTTL)
	battles := battle.NewService(database.DB)
	svc := api.Services{
		Accounts:  accounts,
		Summaries: summary.NewService(database.DB, accounts),
		Saves:     gamedata.NewService(database.DB, accounts),
		Friends:   friend.NewService(database.DB, accounts, battles),
		Battles:   battles,
		Notices:   notice.NewService(database.DB),
		Mail:      mail.NewService(database.DB, accounts),
		Coupons:   coupon.NewService(database.DB),
		Health:    health.NewChecker(database.DB, database.RDB),
	}
	handler, err := api.NewHandler(cfg, svc)
	if err != nil {
		log.Fatal("无法构造客户端参数", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.Cors)))
	api.SetupRoutes(r, handler)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	workers := lifecycle.NewManager()
	if cfg.Parse.SessionSweepInterval > 0 {
		if err := workers.Go("session-sweeper", accounts.SessionSweeper(cfg.Parse.SessionSweepInterval)); err != nil {
			log.Fatal("无法启动会话清理任务", zap.Error(err))
		}
	}

	coordinator := shutdown.NewCoordinator()
	coordinator.OnShutdown("workers", func() error {
		if remaining := workers.Stop(workerTimeout); len(remaining) > 0 {
			return fmt.Errorf("后台任务未能按时退出: %v", remaining)
		}
		return nil
	})
	coordinator.OnShutdown("redis", database.CloseRedis)
	coordinator.OnShutdown("database", database.Close)

	go func() {
		log.Info("服务器已准备就绪",
			zap.String("address", cfg.Server.Address),
			zap.String("parseEndpoint", "/parse/"),
			zap.String("applicationId", cfg.Parse.ApplicationID))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	coordinator.ListenForSignalsAndShutdown(server)
}

// corsConfig 构造CORS配置，允许列表中出现 "*" 时放行所有来源
func corsConfig(c config.CorsConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}
