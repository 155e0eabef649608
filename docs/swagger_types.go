package docs

// 这个文件定义了专门用于 Swagger 文档注解的类型。
// swaggo/swag 不支持直接解析泛型类型（如 response.APIResponse[T]），
// 因此为控制器注解中用到的每个具体实例化类型定义一个非泛型的包装器。

import (
	"github.com/Xushengqwer/go-common/response"

	"github.com/Xushengqwer/identity_link/models/vo"
)

// --- 成功响应包装类型 ---

// SwaggerAPIEmptyResponse 包装了 response.APIResponse[vo.Empty]
// 用于 AuthTokenController.Logout, AuthTokenController.ForgotPassword, LinkController.Unlink, SettingsController.Delete
type SwaggerAPIEmptyResponse struct {
	response.APIResponse[vo.Empty]
}

// SwaggerAPIExchangeResponse 包装了 response.APIResponse[vo.ExchangeResponse]
// 用于 AuthTokenController.Exchange
type SwaggerAPIExchangeResponse struct {
	response.APIResponse[vo.ExchangeResponse]
}

// SwaggerAPITokenPairResponse 包装了 response.APIResponse[vo.TokenPair]
// 用于 AuthTokenController.Refresh
type SwaggerAPITokenPairResponse struct {
	response.APIResponse[vo.TokenPair]
}

// SwaggerAPIUserListResponse 包装了 response.APIResponse[vo.UserListResult]
// 用于 AdminUserController.ListUsers
type SwaggerAPIUserListResponse struct {
	response.APIResponse[vo.UserListResult]
}

// SwaggerAPIMergedUserResponse 包装了 response.APIResponse[vo.MergedUserView]
// 用于 AdminUserController.GetUser, AdminUserController.UpdateUser
type SwaggerAPIMergedUserResponse struct {
	response.APIResponse[vo.MergedUserView]
}

// SwaggerAPICreateUserResponse 包装了 response.APIResponse[vo.CreateUserResult]
type SwaggerAPICreateUserResponse struct {
	response.APIResponse[vo.CreateUserResult]
}

// SwaggerAPIDeleteResponse 包装了 response.APIResponse[vo.DeleteResult]
type SwaggerAPIDeleteResponse struct {
	response.APIResponse[vo.DeleteResult]
}

// SwaggerAPIDeleteManyResponse 包装了 response.APIResponse[[]vo.DeleteResult]
type SwaggerAPIDeleteManyResponse struct {
	response.APIResponse[[]vo.DeleteResult]
}

// SwaggerAPIResetLinkResponse 包装了 response.APIResponse[vo.ResetLinkResult]
type SwaggerAPIResetLinkResponse struct {
	response.APIResponse[vo.ResetLinkResult]
}

// SwaggerAPIAutoLinkResponse 包装了 response.APIResponse[vo.AutoLinkResult]
type SwaggerAPIAutoLinkResponse struct {
	response.APIResponse[vo.AutoLinkResult]
}

// SwaggerAPIDuplicateLinksResponse 包装了 response.APIResponse[[]vo.DuplicateLink]
type SwaggerAPIDuplicateLinksResponse struct {
	response.APIResponse[[]vo.DuplicateLink]
}

// SwaggerAPILinkResponse 包装了 response.APIResponse[vo.LinkVO]
type SwaggerAPILinkResponse struct {
	response.APIResponse[vo.LinkVO]
}

// SwaggerAPISettingsStatusResponse 包装了 response.APIResponse[vo.SettingsStatus]
type SwaggerAPISettingsStatusResponse struct {
	response.APIResponse[vo.SettingsStatus]
}

// SwaggerAPIActivityListResponse 包装了 response.APIResponse[vo.ActivityList]
type SwaggerAPIActivityListResponse struct {
	response.APIResponse[vo.ActivityList]
}

// --- 失败响应包装类型 ---

// SwaggerAPIErrorResponseString 包装了 response.APIResponse[string]
type SwaggerAPIErrorResponseString struct {
	response.APIResponse[string]
}
