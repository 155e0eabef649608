package config

// JWTConfig CMS 会话令牌的签名配置。令牌由身份提供方 ID Token 交换得到。
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key" yaml:"secret_key"`         // 会话令牌签名密钥
	Issuer        string `mapstructure:"issuer" yaml:"issuer"`                 // JWT的签发者
	RefreshSecret string `mapstructure:"refresh_secret" yaml:"refresh_secret"` // 刷新令牌签名密钥
}
