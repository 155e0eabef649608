package dependencies

import (
	"context"
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/models/entities"
	linkrepo "github.com/Xushengqwer/identity_link/repository/mysql"
)

// LinkLocalUserUniqueIndex 本地用户外键上的延迟唯一索引
const LinkLocalUserUniqueIndex = "uidx_user_links_local_user"

// Migrations 按 ID 顺序执行，ID 一旦发布不可修改
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20250601-0000",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&entities.LocalUser{}, &entities.UserLink{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&entities.UserLink{}, &entities.LocalUser{})
			},
		},
		{
			ID: "20250601-0001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&entities.ActivityLog{}, &entities.PluginSetting{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&entities.ActivityLog{}, &entities.PluginSetting{})
			},
		},
	}
}

// Migrate 执行全部未执行的迁移
func Migrate(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, Migrations()).Migrate()
}

// EnsureLinkUniqueness 若关联表中不存在同一本地用户的重复关联，则补建唯一索引。
// 存在重复时不建索引，返回重复的本地用户 ID 供调用方报告。
func EnsureLinkUniqueness(ctx context.Context, db *gorm.DB) ([]uint, error) {
	duplicates, err := linkrepo.NewLinkRepository(db).FindDuplicates(ctx)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		ids := make([]uint, 0, len(duplicates))
		for _, d := range duplicates {
			ids = append(ids, d.LocalUserID)
		}
		return ids, nil
	}

	if db.Migrator().HasIndex(&entities.UserLink{}, LinkLocalUserUniqueIndex) {
		return nil, nil
	}
	stmt := fmt.Sprintf("CREATE UNIQUE INDEX %s ON user_links (local_user_id)", LinkLocalUserUniqueIndex)
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return nil, fmt.Errorf("创建关联表唯一索引失败: %w", err)
	}
	return nil, nil
}
