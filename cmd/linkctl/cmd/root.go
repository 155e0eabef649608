package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	sharedCore "github.com/Xushengqwer/go-common/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/initialization"
)

var (
	cfgFile string

	// 由 PersistentPreRunE 装配，子命令直接使用
	logger   *sharedCore.ZapLogger
	appDeps  *initialization.AppDependencies
	services *initialization.AppServices
)

var rootCmd = &cobra.Command{
	Use:   "linkctl",
	Short: "linkctl 在命令行执行身份关联的运维任务",
	Long:  `linkctl 复用服务端的配置与依赖，执行自动关联、重复关联检查和审计日志清理等一次性任务。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var cfg config.IdentityLinkConfig
		if err := sharedCore.LoadConfig(cfgFile, &cfg); err != nil {
			return fmt.Errorf("加载配置失败 (%s): %w", cfgFile, err)
		}
		config.ApplyEnvOverrides(&cfg)

		var err error
		logger, err = sharedCore.NewZapLogger(cfg.ZapConfig)
		if err != nil {
			return fmt.Errorf("初始化 ZapLogger 失败: %w", err)
		}

		appDeps, err = initialization.SetupDependencies(&cfg, logger)
		if err != nil {
			return err
		}
		services = initialization.SetupServices(appDeps)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		return services.Settings.LoadOnStartup(ctx, cfg.FirebaseConfig)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if services == nil {
			return nil
		}
		if err := services.CloseWithTimeout(); err != nil {
			logger.Warn("关闭服务失败", zap.Error(err))
		}
		_ = logger.Logger().Sync()
		return nil
	},
}

// Execute 执行根命令，失败时以非零状态退出
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error("linkctl 执行失败", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "linkctl 执行失败:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.development.yaml", "配置文件路径")
	rootCmd.SilenceUsage = true
}
