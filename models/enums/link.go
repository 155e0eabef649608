package enums

// LinkStatus 合并视图中的关联状态
type LinkStatus string

const (
	LinkStatusLinked   LinkStatus = "linked"
	LinkStatusUnlinked LinkStatus = "unlinked"
)

// MatchMethod 合并视图命中本地用户的方式；只按 UID 关联
type MatchMethod string

const (
	MatchMethodUID MatchMethod = "uid"
)

// 合并视图的警告
const (
	WarningEmailMismatch = "email_mismatch"
	WarningPhoneMismatch = "phone_mismatch"
)

// ExactMatchKind 精确搜索的查找方式
type ExactMatchKind string

const (
	ExactMatchPhone   ExactMatchKind = "phone"
	ExactMatchEmail   ExactMatchKind = "email"
	ExactMatchUID     ExactMatchKind = "uid"
	ExactMatchLocalID ExactMatchKind = "local_id"
)

// DefaultExactMatchOrder 默认精确搜索顺序
var DefaultExactMatchOrder = []ExactMatchKind{ExactMatchPhone, ExactMatchEmail, ExactMatchUID, ExactMatchLocalID}

// ParseExactMatchKind 解析配置中的取值，未知取值返回 false
func ParseExactMatchKind(s string) (ExactMatchKind, bool) {
	switch ExactMatchKind(s) {
	case ExactMatchPhone, ExactMatchEmail, ExactMatchUID, ExactMatchLocalID:
		return ExactMatchKind(s), true
	}
	return "", false
}
