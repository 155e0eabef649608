package dto

// ListUsersQuery 管理端分页查询合并用户视图的参数
type ListUsersQuery struct {
	// 页码，默认 1
	Page int `form:"page" binding:"omitempty,gte=1" example:"1"`
	// 每页大小，默认 10
	PageSize int `form:"pageSize" binding:"omitempty,gte=1,lte=1000" example:"10"`
	// 排序，格式 "field:ASC" 或 "field:DESC"
	Sort string `form:"sort" binding:"omitempty,sortexpr" example:"createdAt:DESC"`
	// 搜索词
	Search string `form:"search" binding:"omitempty,max=256" example:"+15551234567"`
	// 身份提供方续页令牌 (仅默认分页路径使用)
	PageToken string `form:"pageToken" binding:"omitempty"`
}
