package entities

import "time"

// PluginSetting 键值配置，Value 为 secretbox 加密后的 base64 文本
type PluginSetting struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Key       string `gorm:"type:varchar(128);not null;uniqueIndex"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
	CreatedAt time.Time
}

func (PluginSetting) TableName() string { return "plugin_settings" }
