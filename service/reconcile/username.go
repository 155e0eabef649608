package reconcile

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/utils"
)

const (
	usernameMinLen = 5
	usernameMaxLen = 20
	suffixLen      = 4
)

// usernameBase 用户名前缀：优先邮箱本地部分，其次手机号数字，最后 UID
func usernameBase(identity dto.DecodedIdentity, phone string, relay bool) string {
	if identity.Email != "" && !relay {
		local, _, _ := strings.Cut(identity.Email, "@")
		if b := alnum(local); b != "" {
			return b
		}
	}
	if digits := utils.DigitsOnly(phone); digits != "" {
		return digits
	}
	return alnum(identity.UID)
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fitUsername 把候选用户名约束到 5-20 个字符
func fitUsername(base string) string {
	if len(base) < usernameMinLen {
		base = "user" + base
	}
	for len(base) < usernameMinLen {
		base += "0"
	}
	if len(base) > usernameMaxLen {
		// 手机号保留末尾数字区分度更高
		base = base[len(base)-usernameMaxLen:]
	}
	return base
}

func (s *reconcileService) generateUsername(ctx context.Context, identity dto.DecodedIdentity, phone string) (string, error) {
	base := fitUsername(usernameBase(identity, phone, s.isRelayEmail(identity.Email)))
	candidate := base
	for attempt := 0; attempt < s.cfg.UsernameMaxAttempts; attempt++ {
		if attempt > 0 {
			stem := base
			if len(stem) > usernameMaxLen-suffixLen {
				stem = stem[len(stem)-(usernameMaxLen-suffixLen):]
			}
			candidate = stem + utils.RandomSuffix(suffixLen)
		}
		exists, err := s.userRepo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", apperrors.Application("检查用户名失败", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.Configuration(fmt.Sprintf(
		"无法生成唯一用户名 (前缀 %q)：已尝试 %d 次，请调大 reconcile.username_max_attempts",
		base, s.cfg.UsernameMaxAttempts,
	))
}

// generatePlaceholderEmail 按模板生成占位邮箱，支持 {phoneNumber} {uid} {random}
func (s *reconcileService) generatePlaceholderEmail(ctx context.Context, identity dto.DecodedIdentity, phone string) (string, error) {
	pattern := s.cfg.PlaceholderEmailPattern
	digits := utils.DigitsOnly(phone)
	if digits == "" {
		digits = alnum(identity.UID)
	}
	for attempt := 0; attempt < s.cfg.PlaceholderMaxAttempts; attempt++ {
		candidate := strings.NewReplacer(
			"{phoneNumber}", digits,
			"{uid}", alnum(identity.UID),
			"{random}", utils.RandomSuffix(6),
		).Replace(pattern)
		candidate = strings.ToLower(candidate)
		if !utils.LooksLikeEmail(candidate) {
			return "", apperrors.Configuration(fmt.Sprintf(
				"占位邮箱模板 reconcile.placeholder_email_pattern=%q 生成的 %q 不是合法邮箱", pattern, candidate,
			))
		}
		exists, err := s.userRepo.ExistsByEmail(ctx, candidate)
		if err != nil {
			return "", apperrors.Application("检查邮箱失败", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.Configuration(fmt.Sprintf(
		"无法生成唯一占位邮箱：模板 reconcile.placeholder_email_pattern=%q 在 %d 次尝试后仍然冲突，请在模板中加入 {random} 或 {uid}，或调大 reconcile.placeholder_max_attempts",
		pattern, s.cfg.PlaceholderMaxAttempts,
	))
}
