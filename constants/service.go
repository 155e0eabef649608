package constants

const (
	ServiceName    = "identity-link"
	ServiceVersion = "1.0.0"

	// UserIDKey 网关注入的用户 ID 在 gin.Context 中的键
	UserIDKey = "UserID"

	// LocalUserProvider 本服务创建的本地用户的 provider 字段取值
	LocalUserProvider = "firebase"
)
