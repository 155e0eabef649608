// Package testsupport 提供包级测试共用的日志、SQLite 数据库和内存版身份提供方。
package testsupport

import (
	"fmt"
	"testing"

	"github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Xushengqwer/identity_link/dependencies"
)

// NewLogger 返回只输出错误级别的日志记录器
func NewLogger(t testing.TB) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(config.ZapConfig{Level: "error"})
	require.NoError(t, err)
	return logger
}

// NewDB 返回执行过全部迁移的独立内存 SQLite 数据库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite 单写者，串行化连接避免 "database is locked"
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, dependencies.Migrate(db))
	return db
}
