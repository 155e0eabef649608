package config

// CookieConfig Web 平台刷新令牌 Cookie 的属性。
// Cookie 的 MaxAge 取 constants.RefreshTokenTTL，生产环境应开启 Secure 和 HttpOnly。
type CookieConfig struct {
	Domain   string `mapstructure:"domain" json:"domain" yaml:"domain"` // 留空表示仅当前主机
	Path     string `mapstructure:"path" json:"path" yaml:"path"`
	Secure   bool   `mapstructure:"secure" json:"secure" yaml:"secure"`
	HttpOnly bool   `mapstructure:"http_only" json:"http_only" yaml:"http_only"`

	// SameSite 取值 Lax / Strict / None，无法识别时按 Lax 处理；None 需要同时开启 Secure
	SameSite string `mapstructure:"same_site" json:"same_site" yaml:"same_site"`

	RefreshTokenName string `mapstructure:"refresh_token_name" json:"refresh_token_name" yaml:"refresh_token_name"`
}
