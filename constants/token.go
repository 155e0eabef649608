package constants

import (
	"time"
)

const (
	// 会话令牌和刷新令牌的过期时间

	AccessTokenTTL = 2 * time.Hour // 会话令牌（Access Token）的有效期

	RefreshTokenTTL = 10 * 24 * time.Hour // 刷新令牌（Refresh Token）的有效期
)
