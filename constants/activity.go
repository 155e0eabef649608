package constants

// 审计日志动作
const (
	ActionTokenExchange   = "token_exchange"
	ActionUserCreated     = "user_created"
	ActionUserUpdated     = "user_updated"
	ActionUserDeleted     = "user_deleted"
	ActionLinkCreated     = "link_created"
	ActionLinkRemoved     = "link_removed"
	ActionPasswordReset   = "password_reset"
	ActionSettingsUpdated = "settings_updated"
	ActionAutoLink        = "auto_link"
)

// SettingKeyServiceAccount 加密服务账号在 plugin_settings 表中的键
const SettingKeyServiceAccount = "firebase_service_account"
