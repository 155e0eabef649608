package dto

// TokenExchangeRequest 使用身份提供方的 ID Token 换取会话令牌
type TokenExchangeRequest struct {
	IDToken string `json:"idToken" binding:"required" example:"eyJhbGciOiJSUzI1NiIs..."`
}

// RefreshTokenRequest 刷新令牌也可以放在 Cookie 中
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest 公开的忘记密码入口
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"a@x.com"`
}

// RequestMeta 请求来源信息，写入审计日志
type RequestMeta struct {
	IP        string
	UserAgent string
	ActorID   string
}
