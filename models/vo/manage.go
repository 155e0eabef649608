package vo

import "github.com/Xushengqwer/identity_link/models/enums"

// SideResult 单端 (身份提供方或本地) 的操作结果
type SideResult struct {
	Status enums.SideStatus `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

// DeleteResult 两端分别报告，不合并为单一成功/失败
type DeleteResult struct {
	UID      string     `json:"uid"`
	Provider SideResult `json:"provider"`
	Local    SideResult `json:"local"`
}

// CreateUserResult 创建用户的两端结果；本地失败不回滚身份提供方
type CreateUserResult struct {
	User  *MergedUserView `json:"user,omitempty"`
	Local SideResult      `json:"local"`
}

// ResetLinkResult Degraded 为 true 表示生成超时后使用的降级链接
type ResetLinkResult struct {
	Email     string `json:"email"`
	Link      string `json:"-"`
	Degraded  bool   `json:"degraded"`
	Delivered bool   `json:"delivered"`
	Channel   string `json:"channel,omitempty"`
}
