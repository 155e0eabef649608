package vo

import "time"

// LinkVO 关联表记录
type LinkVO struct {
	ID          uint      `json:"id"`
	LocalUserID *uint     `json:"localUserId"`
	FirebaseUID string    `json:"firebaseUID"`
	AppleEmail  string    `json:"appleEmail,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AutoLinkMatch 自动关联 (或演练模式) 下的一条匹配
type AutoLinkMatch struct {
	LocalUserID uint   `json:"localUserId"`
	FirebaseUID string `json:"firebaseUID"`
	MatchedBy   string `json:"matchedBy"` // email / phone
}

// AutoLinkResult 自动关联汇总
type AutoLinkResult struct {
	TotalLocal    int             `json:"totalLocal"`
	TotalProvider int             `json:"totalProvider"`
	Linked        int             `json:"linked"`
	Skipped       int             `json:"skipped"`
	Errors        int             `json:"errors"`
	DryRun        bool            `json:"dryRun"`
	Matches       []AutoLinkMatch `json:"matches,omitempty"`
}

// DuplicateLink 同一本地用户存在多条关联记录
type DuplicateLink struct {
	LocalUserID  uint     `json:"localUserId"`
	FirebaseUIDs []string `json:"firebaseUIDs"`
}
