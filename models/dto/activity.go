package dto

// ActivityQuery 审计日志分页查询
type ActivityQuery struct {
	FirebaseUID string `form:"uid"`
	Action      string `form:"action"`
	Page        int    `form:"page" binding:"omitempty,gte=1"`
	PageSize    int    `form:"pageSize" binding:"omitempty,gte=1,lte=200"`
}

// ActivityEntry 写入审计队列的条目
type ActivityEntry struct {
	FirebaseUID string
	Action      string
	ActorType   string
	ActorID     string
	Details     map[string]any
	IP          string
	UserAgent   string
}
