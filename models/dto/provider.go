package dto

// IdentityRecord 身份提供方的一条用户记录 (以 UID 为主键)
type IdentityRecord struct {
	UID                  string           `json:"uid"`
	Email                string           `json:"email,omitempty"`
	PhoneNumber          string           `json:"phoneNumber,omitempty"`
	DisplayName          string           `json:"displayName,omitempty"`
	PhotoURL             string           `json:"photoURL,omitempty"`
	EmailVerified        bool             `json:"emailVerified"`
	Disabled             bool             `json:"disabled"`
	ProviderData         []ProviderInfo   `json:"providerData"`
	Metadata             IdentityMetadata `json:"metadata"`
	TokensValidAfterTime string           `json:"tokensValidAfterTime,omitempty"`
}

// ProviderInfo 绑定在身份上的一种登录方式 (password, google.com, apple.com, phone ...)
type ProviderInfo struct {
	ProviderID  string `json:"providerId"`
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// IdentityMetadata 时间均为 RFC1123 格式的字符串，未知时为空
type IdentityMetadata struct {
	CreationTime   string `json:"creationTime,omitempty"`
	LastSignInTime string `json:"lastSignInTime,omitempty"`
}

// DecodedIdentity 校验 ID Token 后得到的身份信息
type DecodedIdentity struct {
	UID            string `json:"uid"`
	Email          string `json:"email,omitempty"`
	EmailVerified  bool   `json:"email_verified"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Name           string `json:"name,omitempty"`
	SignInProvider string `json:"sign_in_provider,omitempty"`
}

// ProviderPage 分页列举的一页结果；PageToken 为空表示没有下一页
type ProviderPage struct {
	Users     []IdentityRecord
	PageToken string
}

// ProviderUserToCreate 在身份提供方创建用户的参数，空值字段不提交
type ProviderUserToCreate struct {
	UID           string
	Email         string
	PhoneNumber   string
	DisplayName   string
	Password      string
	EmailVerified bool
	Disabled      bool
}

// ProviderUserToUpdate 为 nil 的字段保持不变
type ProviderUserToUpdate struct {
	Email         *string
	PhoneNumber   *string
	DisplayName   *string
	Password      *string
	EmailVerified *bool
	Disabled      *bool
}

// DeleteUsersResult 批量删除结果
type DeleteUsersResult struct {
	SuccessCount int
	FailureCount int
	Errors       []DeleteUserError
}

// DeleteUserError 对应输入切片中的下标
type DeleteUserError struct {
	Index  int
	Reason string
}
