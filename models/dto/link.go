package dto

// LinkUpdate 关联表的 upsert 参数；首次建立关联时 FirebaseUID 必填
type LinkUpdate struct {
	FirebaseUID *string `json:"firebaseUID" binding:"omitempty,min=1,max=128"`
	AppleEmail  *string `json:"appleEmail" binding:"omitempty,email"`
}

// AutoLinkOptions DryRun 只返回匹配结果不写入
type AutoLinkOptions struct {
	DryRun bool `json:"dryRun" form:"dryRun"`
}
