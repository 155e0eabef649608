package reconcile

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
)

// SortSpec 排序字段与方向
type SortSpec struct {
	Field     string
	Direction enums.SortDirection
}

// ParseSort 解析 "field" 或 "field:ASC|DESC"，未指定方向时为升序
func ParseSort(expr string) (SortSpec, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return SortSpec{}, false
	}
	field, dir, _ := strings.Cut(expr, ":")
	spec := SortSpec{Field: strings.TrimSpace(field), Direction: enums.SortASC}
	if strings.EqualFold(strings.TrimSpace(dir), string(enums.SortDESC)) {
		spec.Direction = enums.SortDESC
	}
	return spec, spec.Field != ""
}

type sortKind int

const (
	sortString sortKind = iota
	sortNumber
)

// sortValue 取排序值；ok 为 false 表示空值，空值总是排在最后
type sortValue struct {
	kind sortKind
	num  float64
	str  string
	ok   bool
}

var timeLayouts = []string{http.TimeFormat, time.RFC1123, time.RFC1123Z, time.RFC3339Nano, time.RFC3339}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func timeValue(s string) sortValue {
	t, ok := parseTime(s)
	if !ok {
		return sortValue{kind: sortNumber}
	}
	return sortValue{kind: sortNumber, num: float64(t.UnixMilli()), ok: true}
}

func boolValue(b bool) sortValue {
	if b {
		return sortValue{kind: sortNumber, num: 1, ok: true}
	}
	return sortValue{kind: sortNumber, num: 0, ok: true}
}

func stringValue(s string) sortValue {
	return sortValue{kind: sortString, str: s, ok: s != ""}
}

func strapiIDValue(v *vo.MergedUserView) sortValue {
	if v.StrapiID == nil {
		return sortValue{kind: sortNumber}
	}
	return sortValue{kind: sortNumber, num: float64(*v.StrapiID), ok: true}
}

func matchMethodValue(v *vo.MergedUserView) sortValue {
	if v.MatchMethod == nil {
		return sortValue{}
	}
	return stringValue(string(*v.MatchMethod))
}

// sortFields 可排序字段 (JSON 字段名及别名) 到取值函数的映射。
// lastSignInTime 只取身份提供方记录，从未登录的用户视为空。
var sortFields = map[string]func(v *vo.MergedUserView) sortValue{
	"createdAt":               func(v *vo.MergedUserView) sortValue { return timeValue(v.Metadata.CreationTime) },
	"creationTime":            func(v *vo.MergedUserView) sortValue { return timeValue(v.Metadata.CreationTime) },
	"metadata.creationTime":   func(v *vo.MergedUserView) sortValue { return timeValue(v.Metadata.CreationTime) },
	"lastSignInTime":          func(v *vo.MergedUserView) sortValue { return timeValue(v.Metadata.LastSignInTime) },
	"metadata.lastSignInTime": func(v *vo.MergedUserView) sortValue { return timeValue(v.Metadata.LastSignInTime) },
	"tokensValidAfterTime":    func(v *vo.MergedUserView) sortValue { return timeValue(v.TokensValidAfterTime) },
	"strapiId":                strapiIDValue,
	"emailVerified":           func(v *vo.MergedUserView) sortValue { return boolValue(v.EmailVerified) },
	"disabled":                func(v *vo.MergedUserView) sortValue { return boolValue(v.Disabled) },
	"confirmed":               func(v *vo.MergedUserView) sortValue { return boolValue(v.Confirmed) },
	"blocked":                 func(v *vo.MergedUserView) sortValue { return boolValue(v.Blocked) },
	"id":                      func(v *vo.MergedUserView) sortValue { return stringValue(v.UID) },
	"uid":                     func(v *vo.MergedUserView) sortValue { return stringValue(v.UID) },
	"email":                   func(v *vo.MergedUserView) sortValue { return stringValue(v.Email) },
	"phoneNumber":             func(v *vo.MergedUserView) sortValue { return stringValue(v.PhoneNumber) },
	"displayName":             func(v *vo.MergedUserView) sortValue { return stringValue(v.DisplayName) },
	"photoURL":                func(v *vo.MergedUserView) sortValue { return stringValue(v.PhotoURL) },
	"strapiDocumentId":        func(v *vo.MergedUserView) sortValue { return stringValue(v.StrapiDocumentID) },
	"username":                func(v *vo.MergedUserView) sortValue { return stringValue(v.Username) },
	"firstName":               func(v *vo.MergedUserView) sortValue { return stringValue(v.FirstName) },
	"lastName":                func(v *vo.MergedUserView) sortValue { return stringValue(v.LastName) },
	"role":                    func(v *vo.MergedUserView) sortValue { return stringValue(v.Role) },
	"appleEmail":              func(v *vo.MergedUserView) sortValue { return stringValue(v.AppleEmail) },
	"linkStatus":              func(v *vo.MergedUserView) sortValue { return stringValue(string(v.LinkStatus)) },
	"matchMethod":             matchMethodValue,
}

// SortableField 报告字段能否参与排序；providerData、metadata、warnings 等复合字段不可排序
func SortableField(field string) bool {
	_, ok := sortFields[field]
	return ok
}

func valueOf(v *vo.MergedUserView, field string) sortValue {
	if fn, ok := sortFields[field]; ok {
		return fn(v)
	}
	return sortValue{}
}

// SortUsers 稳定排序；空值在两个方向上都排在最后
func SortUsers(views []vo.MergedUserView, spec SortSpec) {
	col := collate.New(language.Und, collate.IgnoreCase)
	keys := make([]sortValue, len(views))
	for i := range views {
		keys[i] = valueOf(&views[i], spec.Field)
	}
	idx := make([]int, len(views))
	for i := range idx {
		idx[i] = i
	}

	desc := spec.Direction == enums.SortDESC
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if !ka.ok || !kb.ok {
			return ka.ok && !kb.ok
		}
		var c int
		if ka.kind == sortNumber {
			switch {
			case ka.num < kb.num:
				c = -1
			case ka.num > kb.num:
				c = 1
			}
		} else {
			c = col.CompareString(ka.str, kb.str)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]vo.MergedUserView, len(views))
	for i, j := range idx {
		sorted[i] = views[j]
	}
	copy(views, sorted)
}
