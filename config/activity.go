package config

import "time"

// ActivityConfig 审计日志队列与保留策略
type ActivityConfig struct {
	QueueSize       int           `mapstructure:"queue_size" yaml:"queue_size"`
	RetentionDays   int           `mapstructure:"retention_days" yaml:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
	ArchiveToCOS    bool          `mapstructure:"archive_to_cos" yaml:"archive_to_cos"` // 删除前是否归档到 COS
}

// RateLimitConfig 固定窗口限流
type RateLimitConfig struct {
	ExchangeMax    int           `mapstructure:"exchange_max" yaml:"exchange_max"`
	ExchangeWindow time.Duration `mapstructure:"exchange_window" yaml:"exchange_window"`
	ResetMax       int           `mapstructure:"reset_max" yaml:"reset_max"`
	ResetWindow    time.Duration `mapstructure:"reset_window" yaml:"reset_window"`
}

// CORSConfig 管理后台跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}
