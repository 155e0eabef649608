package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides 用环境变量覆盖文件配置 (生产环境部署时注入密钥等)。
// 只打印被覆盖的键，不打印密钥值。
func ApplyEnvOverrides(cfg *IdentityLinkConfig) {
	log.Println("检查环境变量以覆盖 Identity Link 的文件配置...")

	// Server & Log
	overrideString("ZAPCONFIG_LEVEL", &cfg.ZapConfig.Level, true)
	overrideString("GORMLOGCONFIG_LEVEL", &cfg.GormLogConfig.Level, true)
	overrideString("SERVERCONFIG_PORT", &cfg.ServerConfig.Port, true)
	overrideBool("TRACERCONFIG_ENABLED", &cfg.TracerConfig.Enabled)

	// JWT
	overrideString("JWTCONFIG_SECRET_KEY", &cfg.JWTConfig.SecretKey, false)
	overrideString("JWTCONFIG_REFRESH_SECRET", &cfg.JWTConfig.RefreshSecret, false)

	// 数据库 & Redis
	overrideString("MYSQLCONFIG_DRIVER", &cfg.MySQLConfig.Driver, true)
	overrideString("MYSQLCONFIG_DSN", &cfg.MySQLConfig.DSN, false)
	overrideString("REDISCONFIG_ADDRESS", &cfg.RedisConfig.Address, true)
	overrideString("REDISCONFIG_PASSWORD", &cfg.RedisConfig.Password, false)

	// 身份提供方
	overrideString("FIREBASECONFIG_PROJECT_ID", &cfg.FirebaseConfig.ProjectID, true)
	overrideString("FIREBASECONFIG_CREDENTIALS_FILE", &cfg.FirebaseConfig.CredentialsFile, true)
	overrideString("GOOGLE_APPLICATION_CREDENTIALS", &cfg.FirebaseConfig.CredentialsFile, true)
	overrideString("SECRETCONFIG_MASTER_KEY", &cfg.SecretConfig.MasterKey, false)

	// 合并与建档
	overrideBool("AUTO_LINK_ON_STARTUP", &cfg.ReconcileConfig.AutoLinkOnStartup)
	overrideBool("RECONCILECONFIG_REQUIRE_EMAIL", &cfg.ReconcileConfig.RequireEmail)
	overrideString("RECONCILECONFIG_RESET_CONTINUE_URL", &cfg.ReconcileConfig.ResetContinueURL, true)
	if order := os.Getenv("RECONCILECONFIG_EXACT_MATCH_ORDER"); order != "" {
		cfg.ReconcileConfig.ExactMatchOrder = strings.Split(order, ",")
		log.Printf("通过环境变量覆盖了 ReconcileConfig.ExactMatchOrder: %s\n", order)
	}

	// 通知
	overrideString("NOTIFYCONFIG_SMTP_HOST", &cfg.NotifyConfig.SMTP.Host, true)
	overrideString("NOTIFYCONFIG_SMTP_USERNAME", &cfg.NotifyConfig.SMTP.Username, true)
	overrideString("NOTIFYCONFIG_SMTP_PASSWORD", &cfg.NotifyConfig.SMTP.Password, false)
	overrideString("NOTIFYCONFIG_WEBHOOK_URL", &cfg.NotifyConfig.Webhook.URL, true)
	overrideString("NOTIFYCONFIG_WEBHOOK_SECRET", &cfg.NotifyConfig.Webhook.Secret, false)

	// COS
	overrideString("COSCONFIG_SECRET_ID", &cfg.COSConfig.SecretID, false)
	overrideString("COSCONFIG_SECRET_KEY", &cfg.COSConfig.SecretKey, false)
	overrideString("COSCONFIG_BUCKET_NAME", &cfg.COSConfig.BucketName, true)
	overrideString("COSCONFIG_APP_ID", &cfg.COSConfig.AppID, true)
	overrideString("COSCONFIG_REGION", &cfg.COSConfig.Region, true)

	// Cookie & CORS
	overrideBool("COOKIECONFIG_SECURE", &cfg.CookieConfig.Secure)
	overrideString("COOKIECONFIG_DOMAIN", &cfg.CookieConfig.Domain, true)
	overrideString("COOKIECONFIG_REFRESH_TOKEN_NAME", &cfg.CookieConfig.RefreshTokenName, true)
	if origins := os.Getenv("CORSCONFIG_ALLOW_ORIGINS"); origins != "" {
		cfg.CORSConfig.AllowOrigins = strings.Split(origins, ",")
		log.Printf("通过环境变量覆盖了 CORSConfig.AllowOrigins: %s\n", origins)
	}
}

func overrideString(key string, target *string, printValue bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*target = v
	if printValue {
		log.Printf("通过环境变量覆盖了 %s: %s\n", key, v)
	} else {
		log.Printf("通过环境变量覆盖了 %s\n", key)
	}
}

func overrideBool(key string, target *bool) {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return
	}
	*target = v
	log.Printf("通过环境变量覆盖了 %s: %t\n", key, v)
}
