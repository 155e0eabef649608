package reconcile

import (
	"strconv"
	"strings"

	"github.com/Xushengqwer/identity_link/models/vo"
)

// FilterUsers 大小写不敏感的子串匹配，范围为 UID、邮箱、手机号、显示名、用户名、姓名和本地 ID
func FilterUsers(views []vo.MergedUserView, term string) []vo.MergedUserView {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return views
	}
	out := make([]vo.MergedUserView, 0)
	for _, v := range views {
		if matches(&v, term) {
			out = append(out, v)
		}
	}
	return out
}

func matches(v *vo.MergedUserView, term string) bool {
	fields := []string{v.UID, v.Email, v.PhoneNumber, v.DisplayName, v.Username, v.FirstName, v.LastName}
	if v.StrapiID != nil {
		fields = append(fields, strconv.FormatUint(uint64(*v.StrapiID), 10))
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
