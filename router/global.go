package router

import (
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/controller"
	_ "github.com/Xushengqwer/identity_link/docs"
	"github.com/Xushengqwer/identity_link/initialization"
)

// SetupRouter 初始化 Gin 引擎，注册全局中间件、业务路由、Swagger 和 /metrics。
// 管理接口 (/admin/*) 的认证与管理员权限由上游网关负责。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *config.IdentityLinkConfig,
	appServices *initialization.AppServices,
) *gin.Engine {
	logger.Info("开始设置 Gin 路由...")

	router := gin.Default()

	// 1. OTel (最先，处理追踪上下文和 Span)
	router.Use(otelgin.Middleware(constants.ServiceName))

	// 2. Panic Recovery
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))

	// 3. 访问日志
	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
	} else {
		logger.Warn("无法获取底层的 *zap.Logger，跳过 RequestLoggerMiddleware 注册")
	}

	// 4. CORS，管理后台与 CMS 不同源时需要
	if len(cfg.CORSConfig.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSConfig.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Platform", "X-User-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 5. 超时控制
	requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	// 6. 网关注入的用户信息
	router.Use(commonMiddleware.UserContextMiddleware())

	v1 := router.Group("api/v1/identity-link")
	logger.Info("API 路由将注册到 api/v1/identity-link 分组下")

	tokenCtrl := controller.NewAuthTokenController(appServices.TokenService, appServices.Reconcile, appServices.ResetLimiter, logger, cfg.CookieConfig)
	adminUserCtrl := controller.NewAdminUserController(appServices.Reconcile, logger)
	linkCtrl := controller.NewLinkController(appServices.LinkTable, appServices.AutoLink, logger)
	settingsCtrl := controller.NewSettingsController(appServices.Settings, logger)
	activityCtrl := controller.NewActivityController(appServices.Activity, logger)

	tokenCtrl.RegisterRoutes(v1)
	adminUserCtrl.RegisterRoutes(v1)
	linkCtrl.RegisterRoutes(v1)
	settingsCtrl.RegisterRoutes(v1)
	activityCtrl.RegisterRoutes(v1)

	logger.Info("所有业务路由已成功注册")

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logger.Info("Swagger UI 路由已注册，访问路径: /swagger/index.html")

	return router
}
