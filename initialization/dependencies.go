package initialization

import (
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/service/notify"
	"github.com/Xushengqwer/identity_link/utils"
)

// AppDependencies 封装了应用运行所需的所有基础依赖项，在服务层之间共享。
type AppDependencies struct {
	Config      *config.IdentityLinkConfig
	Logger      *core.ZapLogger
	DB          *gorm.DB
	RedisClient *redis.Client
	JwtToken    dependencies.JWTTokenInterface

	// Provider 身份提供方客户端句柄；凭证由 SettingsService 在启动或上传时装载
	Provider *dependencies.ProviderHandle

	// Archive 审计日志归档，COS 未配置或未开启归档时为 nil
	Archive dependencies.ArchiveStore

	// SecretBox 服务账号凭证加密；主密钥未配置时为 nil，此时不能上传凭证
	SecretBox *utils.SecretBox

	Notifier *notify.Chain
}

// SetupDependencies 按顺序初始化基础依赖。关键依赖失败时返回错误，由 main 决定退出。
func SetupDependencies(cfg *config.IdentityLinkConfig, logger *core.ZapLogger) (*AppDependencies, error) {
	var deps AppDependencies
	deps.Config = cfg
	deps.Logger = logger

	// 1. 注册自定义验证器
	if err := utils.RegisterCustomValidators(); err != nil {
		return nil, fmt.Errorf("注册自定义验证器失败: %w", err)
	}
	logger.Info("自定义验证器注册成功")

	// 2. 数据库连接与迁移
	db, err := dependencies.InitMySQL(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	deps.DB = db
	logger.Info("数据库连接初始化成功")

	// 3. Redis
	redisClient, err := dependencies.InitRedis(&cfg.RedisConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化 Redis 失败: %w", err)
	}
	deps.RedisClient = redisClient
	logger.Info("Redis 连接初始化成功")

	// 4. JWT
	deps.JwtToken = dependencies.NewJWTUtility(&cfg.JWTConfig)
	logger.Info("JWT 工具初始化成功")

	// 5. 身份提供方句柄，此时尚未装载凭证
	deps.Provider = dependencies.NewProviderHandle(dependencies.FirebaseFactory(cfg.FirebaseConfig.CallTimeout), logger)

	// 6. 凭证加密
	if cfg.SecretConfig.MasterKey != "" {
		box, err := utils.NewSecretBox(cfg.SecretConfig.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("初始化凭证加密失败: %w", err)
		}
		deps.SecretBox = box
	} else {
		logger.Warn("secretConfig.master_key 未配置，无法通过接口上传服务账号")
	}

	// 7. COS 归档
	if cfg.ActivityConfig.ArchiveToCOS {
		archive, err := dependencies.InitCOS(&cfg.COSConfig, logger)
		if err != nil {
			logger.Error("初始化 COS 客户端失败", zap.Error(err))
			return nil, fmt.Errorf("初始化 COS 客户端失败: %w", err)
		}
		deps.Archive = archive
	}

	// 8. 通知发送链
	deps.Notifier = notify.BuildChain(cfg.NotifyConfig, logger)

	logger.Info("所有基础依赖项初始化完成")
	return &deps, nil
}
