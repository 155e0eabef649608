package entities

import (
	"time"
)

// UserLink 关联表：一个本地用户最多对应一个身份提供方 UID。
// LocalUserID 初始只建普通索引，待历史重复数据清理后由迁移补建唯一索引 (见 dependencies.EnsureLinkUniqueness)。
type UserLink struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// 关联 LocalUser，可为空；本地用户删除时级联删除
	LocalUserID *uint      `gorm:"index:idx_user_links_local_user"`
	LocalUser   *LocalUser `gorm:"foreignKey:LocalUserID;references:ID;constraint:OnDelete:CASCADE"`

	// 身份提供方 UID，必填且全局唯一
	FirebaseUID string `gorm:"column:firebase_uid;type:varchar(128);not null;uniqueIndex:uidx_user_links_firebase_uid"`

	// 邮件中继 (如 Apple 隐藏邮箱) 场景下的副邮箱，不作为主邮箱展示或匹配
	AppleEmail *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserLink) TableName() string { return "user_links" }
