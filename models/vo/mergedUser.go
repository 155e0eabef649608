package vo

import (
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
)

// MergedUserView 身份提供方记录与本地用户合并后的只读视图
type MergedUserView struct {
	ID string `json:"id"` // 始终为身份提供方 UID

	UID                  string               `json:"uid"`
	Email                string               `json:"email,omitempty"`
	PhoneNumber          string               `json:"phoneNumber,omitempty"`
	DisplayName          string               `json:"displayName,omitempty"`
	PhotoURL             string               `json:"photoURL,omitempty"`
	EmailVerified        bool                 `json:"emailVerified"`
	Disabled             bool                 `json:"disabled"`
	ProviderData         []dto.ProviderInfo   `json:"providerData"`
	Metadata             dto.IdentityMetadata `json:"metadata"`
	TokensValidAfterTime string               `json:"tokensValidAfterTime,omitempty"`

	// 本地用户字段，未关联时为空
	StrapiID         *uint  `json:"strapiId,omitempty"`
	StrapiDocumentID string `json:"strapiDocumentId,omitempty"`
	Username         string `json:"username,omitempty"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Role             string `json:"role,omitempty"`
	Confirmed        bool   `json:"confirmed"`
	Blocked          bool   `json:"blocked"`
	AppleEmail       string `json:"appleEmail,omitempty"`

	LinkStatus  enums.LinkStatus   `json:"linkStatus"`
	MatchMethod *enums.MatchMethod `json:"matchMethod"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// Pagination 分页信息；搜索时 Total 为过滤后的数量
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

type ListMeta struct {
	Pagination Pagination `json:"pagination"`
}

// UserListResult 用户列表结果；PageToken 仅默认分页路径返回
type UserListResult struct {
	Data      []MergedUserView `json:"data"`
	Meta      ListMeta         `json:"meta"`
	PageToken string           `json:"pageToken,omitempty"`
}
