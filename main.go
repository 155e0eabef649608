package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/constants"
	_ "github.com/Xushengqwer/identity_link/docs"
	"github.com/Xushengqwer/identity_link/initialization"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/router"
)

// @title           Identity Link API
// @version         1.0
// @description     身份提供方用户与 CMS 本地用户的关联、合并视图与管理接口
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8082
// @schemes http https
func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// .env 只用于本地开发，不存在时忽略
	if err := godotenv.Load(); err == nil {
		log.Println("已加载 .env 文件")
	}

	// 1. 加载配置并应用环境变量覆盖
	var cfg config.IdentityLinkConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}
	config.ApplyEnvOverrides(&cfg)

	// 2. Logger
	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步日志...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功")

	// 3. TracerProvider (如果启用)
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(
			constants.ServiceName,
			constants.ServiceVersion,
			cfg.TracerConfig,
		)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("正在关闭 TracerProvider...")
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// 4. 基础依赖
	appDeps, err := initialization.SetupDependencies(&cfg, logger)
	if err != nil {
		logger.Fatal("初始化基础依赖失败", zap.Error(err))
	}

	// 5. 服务层
	appServices := initialization.SetupServices(appDeps)
	logger.Info("服务层初始化成功")

	// 6. 装载身份提供方凭证；未配置时服务照常启动，相关接口返回配置错误
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := appServices.Settings.LoadOnStartup(startupCtx, cfg.FirebaseConfig); err != nil {
		logger.Error("装载身份提供方凭证失败", zap.Error(err))
	}
	cancelStartup()

	// 7. 后台任务
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if cfg.ActivityConfig.RetentionDays > 0 {
		go appServices.Activity.RunCleanupLoop(bgCtx, cfg.ActivityConfig.CleanupInterval, cfg.ActivityConfig.RetentionDays)
	}

	if cfg.ReconcileConfig.AutoLinkOnStartup {
		go func() {
			result, err := appServices.AutoLink.LinkAllUsers(bgCtx, dto.AutoLinkOptions{})
			if err != nil {
				logger.Error("启动时自动关联失败", zap.Error(err))
				return
			}
			logger.Info("启动时自动关联完成",
				zap.Int("linked", result.Linked),
				zap.Int("skipped", result.Skipped),
				zap.Int("errors", result.Errors),
			)
		}()
	}

	// 8. 路由与 HTTP 服务器
	setupRouter := router.SetupRouter(logger, &cfg, appServices)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	srv := &http.Server{
		Addr:    serverAddress,
		Handler: otelhttp.NewHandler(setupRouter, "HTTPServer"),
	}

	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	recSignal := <-quit
	logger.Info("接收到关停信号", zap.String("signal", recSignal.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP 服务器优雅关停失败", zap.Error(err))
	} else {
		logger.Info("HTTP 服务器已成功关闭")
	}

	cancelBackground()
	if err := appServices.Close(ctxShutdown); err != nil {
		logger.Error("关闭后台服务失败", zap.Error(err))
	}

	if sqlDB, err := appDeps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := appDeps.RedisClient.Close(); err != nil {
		logger.Warn("关闭 Redis 连接失败", zap.Error(err))
	}

	logger.Info("服务已完全关闭")
}
