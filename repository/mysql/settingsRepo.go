package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/identity_link/models/entities"
)

// SettingsRepository 插件配置键值表
type SettingsRepository interface {
	// Get 未找到返回 commonerrors.ErrRepoNotFound
	Get(ctx context.Context, key string) (*entities.PluginSetting, error)
	// Upsert 按 key 插入或覆盖 value
	Upsert(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*entities.PluginSetting, error) {
	var setting entities.PluginSetting
	err := r.db.WithContext(ctx).Where(&entities.PluginSetting{Key: key}).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("settingsRepo.Get: 查询配置失败 (Key: %s): %w", key, err)
	}
	return &setting, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key, value string) error {
	setting := entities.PluginSetting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("settingsRepo.Upsert: 保存配置失败 (Key: %s): %w", key, err)
	}
	return nil
}

func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where(&entities.PluginSetting{Key: key}).Delete(&entities.PluginSetting{}).Error; err != nil {
		return fmt.Errorf("settingsRepo.Delete: 删除配置失败 (Key: %s): %w", key, err)
	}
	return nil
}
