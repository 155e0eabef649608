package dto

// CreateUserRequest 管理员创建用户：先在身份提供方创建，再建立本地用户与关联
type CreateUserRequest struct {
	Email         string `json:"email" binding:"omitempty,email" example:"a@x.com"`
	PhoneNumber   string `json:"phoneNumber" binding:"omitempty,e164" example:"+15551234567"`
	DisplayName   string `json:"displayName" binding:"omitempty,max=128"`
	Password      string `json:"password" binding:"omitempty,min=6,max=128"`
	EmailVerified bool   `json:"emailVerified"`
	Disabled      bool   `json:"disabled"`
	FirstName     string `json:"firstName" binding:"omitempty,max=128"`
	LastName      string `json:"lastName" binding:"omitempty,max=128"`
}

// UpdateUserRequest 为 nil 的字段保持不变
type UpdateUserRequest struct {
	Email         *string `json:"email" binding:"omitempty,email"`
	PhoneNumber   *string `json:"phoneNumber" binding:"omitempty,e164"`
	DisplayName   *string `json:"displayName" binding:"omitempty,max=128"`
	Password      *string `json:"password" binding:"omitempty,min=6,max=128"`
	EmailVerified *bool   `json:"emailVerified"`
	Disabled      *bool   `json:"disabled"`
	FirstName     *string `json:"firstName" binding:"omitempty,max=128"`
	LastName      *string `json:"lastName" binding:"omitempty,max=128"`
}

// DeleteManyRequest 批量删除
type DeleteManyRequest struct {
	UIDs        []string `json:"uids" binding:"required,min=1,max=1000,dive,required"`
	Destination string   `json:"destination" binding:"omitempty,linkdestination"`
}
