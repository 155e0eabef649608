package entities

import (
	"time"
)

// LocalUser 本地 (CMS) 用户表中的一条记录
type LocalUser struct {
	// 本地数字 ID，自增主键
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// 稳定的文档 ID (UUID)，跨版本保持不变
	DocumentID string `gorm:"type:char(36);not null;uniqueIndex" json:"documentId"`

	Username string `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`

	// 邮箱与手机号均可为空；邮箱唯一
	Email       *string `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PhoneNumber *string `gorm:"type:varchar(32);index" json:"phoneNumber,omitempty"`

	FirstName string `gorm:"type:varchar(128)" json:"firstName,omitempty"`
	LastName  string `gorm:"type:varchar(128)" json:"lastName,omitempty"`

	// bcrypt 哈希，本服务创建的用户使用随机密码，不用于登录
	Password string `gorm:"type:varchar(255)" json:"-"`

	// Provider 创建来源，本服务创建的用户固定为 "firebase"
	Provider string `gorm:"type:varchar(32);default:'local'" json:"provider"`

	// RoleType 角色类型，例如 authenticated / admin
	RoleType string `gorm:"type:varchar(64);not null;default:'authenticated'" json:"role"`

	Confirmed bool `gorm:"not null;default:false" json:"confirmed"`
	Blocked   bool `gorm:"not null;default:false" json:"blocked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LocalUser) TableName() string { return "local_users" }
