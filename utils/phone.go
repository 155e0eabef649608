package utils

import (
	"regexp"
	"strings"
)

var (
	// phoneLikeRegex 看起来像电话号码：可选 +，后跟至少 6 位数字，允许空格、括号和连字符
	phoneLikeRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,}$`)
	emailLikeRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// uidLikeRegex 身份提供方 UID：1-128 位，不含空白和 @
	uidLikeRegex = regexp.MustCompile(`^[A-Za-z0-9_\-:.]{16,128}$`)
	localIDRegex = regexp.MustCompile(`^[0-9]{1,9}$`)
)

// DigitsOnly 去掉所有非数字字符
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone 转换为 E.164 形式 (+ 加数字)；没有数字时返回空串
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func LooksLikePhone(s string) bool   { return phoneLikeRegex.MatchString(s) }
func LooksLikeEmail(s string) bool   { return emailLikeRegex.MatchString(s) }
func LooksLikeUID(s string) bool     { return uidLikeRegex.MatchString(s) }
func LooksLikeLocalID(s string) bool { return localIDRegex.MatchString(s) }
