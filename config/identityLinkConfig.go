package config

import (
	"github.com/Xushengqwer/go-common/config"
)

// IdentityLinkConfig 是服务的全局配置，由 core.LoadConfig 从 YAML 加载，并可被环境变量覆盖。
type IdentityLinkConfig struct {
	ZapConfig       config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig   config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig    config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig    config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	JWTConfig       JWTConfig            `mapstructure:"jwtConfig" json:"jwtConfig" yaml:"jwtConfig"`
	MySQLConfig     MySQLConfig          `mapstructure:"mySQLConfig" json:"mySQLConfig" yaml:"mySQLConfig"`
	RedisConfig     RedisConfig          `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	FirebaseConfig  FirebaseConfig       `mapstructure:"firebaseConfig" json:"firebaseConfig" yaml:"firebaseConfig"`
	SecretConfig    SecretConfig         `mapstructure:"secretConfig" json:"secretConfig" yaml:"secretConfig"`
	ReconcileConfig ReconcileConfig      `mapstructure:"reconcileConfig" json:"reconcileConfig" yaml:"reconcileConfig"`
	NotifyConfig    NotifyConfig         `mapstructure:"notifyConfig" json:"notifyConfig" yaml:"notifyConfig"`
	ActivityConfig  ActivityConfig       `mapstructure:"activityConfig" json:"activityConfig" yaml:"activityConfig"`
	RateLimitConfig RateLimitConfig      `mapstructure:"rateLimitConfig" json:"rateLimitConfig" yaml:"rateLimitConfig"`
	COSConfig       COSConfig            `mapstructure:"cosConfig" json:"cosConfig" yaml:"cosConfig"`
	CookieConfig    CookieConfig         `mapstructure:"cookieConfig" json:"cookieConfig" yaml:"cookieConfig"`
	CORSConfig      CORSConfig           `mapstructure:"corsConfig" json:"corsConfig" yaml:"corsConfig"`
}
