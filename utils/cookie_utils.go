package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/Xushengqwer/identity_link/config"
)

// RefreshTokenCookie 按配置构造刷新令牌 Cookie；maxAge <= 0 时生成一个立即过期的空 Cookie，用于退出登录
func RefreshTokenCookie(cfg config.CookieConfig, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     cfg.RefreshTokenName,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HttpOnly,
		SameSite: ParseSameSiteString(cfg.SameSite),
		MaxAge:   int(maxAge.Seconds()),
	}
	if maxAge <= 0 {
		c.Value = ""
		c.MaxAge = -1
	}
	return c
}

// ParseSameSiteString 将配置中的 SameSite 字符串转换为 http.SameSite，无法识别时返回 Lax
func ParseSameSiteString(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
