package config

import "time"

// ReconcileConfig 控制用户合并、搜索以及首次登录建档的行为。
type ReconcileConfig struct {
	// ExactMatchOrder 精确搜索的尝试顺序，取值 phone / email / uid / local_id
	ExactMatchOrder []string `mapstructure:"exact_match_order" yaml:"exact_match_order"`

	// ProviderPageSize 全量拉取身份提供方用户时每页的大小 (Firebase 上限 1000)
	ProviderPageSize int `mapstructure:"provider_page_size" yaml:"provider_page_size"`

	// DefaultRole 新建本地用户时分配的角色类型
	DefaultRole string `mapstructure:"default_role" yaml:"default_role"`

	// RequireEmail 为 true 时，只有手机号的身份也会被分配一个占位邮箱
	RequireEmail bool `mapstructure:"require_email" yaml:"require_email"`

	// PlaceholderEmailPattern 占位邮箱模板，支持 {phoneNumber} {uid} {random}
	PlaceholderEmailPattern string `mapstructure:"placeholder_email_pattern" yaml:"placeholder_email_pattern"`
	PlaceholderMaxAttempts  int    `mapstructure:"placeholder_max_attempts" yaml:"placeholder_max_attempts"`
	UsernameMaxAttempts     int    `mapstructure:"username_max_attempts" yaml:"username_max_attempts"`

	// AppleRelayDomain 邮件中继域名，命中时邮箱记录到 appleEmail 而非主邮箱
	AppleRelayDomain string `mapstructure:"apple_relay_domain" yaml:"apple_relay_domain"`

	// ProviderTimeout 面向用户的单次身份提供方调用 (如生成重置链接) 的超时
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout"`

	// FirstLoginTimeout 合并后的首次登录建档的整体超时，不随单个调用方断开而取消
	FirstLoginTimeout time.Duration `mapstructure:"first_login_timeout" yaml:"first_login_timeout"`

	// ResetContinueURL 重置密码完成后的跳转地址；ResetFallbackURL 超时降级时使用的链接
	ResetContinueURL string `mapstructure:"reset_continue_url" yaml:"reset_continue_url"`
	ResetFallbackURL string `mapstructure:"reset_fallback_url" yaml:"reset_fallback_url"`

	// CursorTTL 页码到续页令牌映射的缓存时间
	CursorTTL time.Duration `mapstructure:"cursor_ttl" yaml:"cursor_ttl"`

	// AutoLinkOnStartup 启动时在后台执行一次自动关联 (环境变量 AUTO_LINK_ON_STARTUP)
	AutoLinkOnStartup bool `mapstructure:"auto_link_on_startup" yaml:"auto_link_on_startup"`
}
