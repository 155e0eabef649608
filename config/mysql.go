package config

// MySQLConfig 定义关系型数据库连接的相关配置
type MySQLConfig struct {
	// Driver 选择 gorm 驱动: "mysql" (默认) 或 "postgres"
	Driver      string `mapstructure:"driver" yaml:"driver"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`                     // DSN，例如 "user:password@tcp(host:port)/database?charset=utf8mb4&parseTime=True&loc=Local"
	MaxOpenConn int    `mapstructure:"max_open_conn" yaml:"max_open_conn"` // 最大打开连接数
	MaxIdleConn int    `mapstructure:"max_idle_conn" yaml:"max_idle_conn"` // 最大空闲连接数
}
