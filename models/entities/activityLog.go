package entities

import (
	"time"
)

// ActivityLog 只追加的审计记录，按身份提供方 UID 归档
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirebaseUID string    `gorm:"column:firebase_uid;type:varchar(128);index" json:"firebaseUid"`
	Action      string    `gorm:"type:varchar(64);not null;index" json:"action"`
	ActorType   string    `gorm:"type:varchar(32)" json:"actorType"` // admin / user / system
	ActorID     string    `gorm:"type:varchar(128)" json:"actorId,omitempty"`
	Details     string    `gorm:"type:text" json:"details,omitempty"` // JSON 文本
	IP          string    `gorm:"type:varchar(64)" json:"ip,omitempty"`
	UserAgent   string    `gorm:"type:varchar(512)" json:"userAgent,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
