package config

import "time"

// FirebaseConfig 定义身份提供方 (Firebase Authentication) 的连接配置。
// 数据库中保存的加密服务账号优先于 CredentialsFile。
type FirebaseConfig struct {
	ProjectID       string        `mapstructure:"project_id" yaml:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file" yaml:"credentials_file"` // 服务账号 JSON 文件路径，可为空
	CallTimeout     time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`         // 单次 API 调用超时
}

// SecretConfig 定义加密服务账号凭证所用的主密钥。
type SecretConfig struct {
	MasterKey string `mapstructure:"master_key" yaml:"master_key"`
}
