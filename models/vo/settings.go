package vo

import (
	"time"

	"github.com/Xushengqwer/identity_link/models/entities"
)

// SettingsStatus 不包含私钥
type SettingsStatus struct {
	Configured  bool       `json:"configured"`
	ProjectID   string     `json:"projectId,omitempty"`
	ClientEmail string     `json:"clientEmail,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ActivityList 审计日志分页结果
type ActivityList struct {
	Data  []entities.ActivityLog `json:"data"`
	Total int64                  `json:"total"`
}
