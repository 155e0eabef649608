package config

import "time"

// NotifyConfig 定义通知发送链 (SMTP -> Webhook -> 控制台) 的配置。
type NotifyConfig struct {
	SMTP    SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Webhook WebhookConfig `mapstructure:"webhook" yaml:"webhook"`
}

// SMTPConfig 为空 Host 时跳过 SMTP 发送器。
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
	SSL      bool   `mapstructure:"ssl" yaml:"ssl"`
}

// WebhookConfig 为空 URL 时跳过自定义钩子。
type WebhookConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Secret  string        `mapstructure:"secret" yaml:"secret"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}
