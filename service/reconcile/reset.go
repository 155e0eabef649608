package reconcile

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/notify"
)

func (s *reconcileService) ResetPassword(ctx context.Context, uid string, meta dto.RequestMeta) (*vo.ResetLinkResult, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	record, err := s.provider.GetUser(lookupCtx, uid)
	cancel()
	if err != nil {
		return nil, providerError(err, "查询身份提供方用户失败")
	}
	if record.Email == "" {
		return nil, apperrors.Validation("该用户没有邮箱，无法发送重置密码邮件")
	}
	meta.ActorID = firstNonEmpty(meta.ActorID, "admin")
	return s.sendReset(ctx, record.Email, uid, "admin", meta)
}

// SendPasswordResetEmail 邮箱不存在时返回 Delivered=false 且不报错，调用方不应据此区分账号是否存在
func (s *reconcileService) SendPasswordResetEmail(ctx context.Context, email string, meta dto.RequestMeta) (*vo.ResetLinkResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.Validation("email 不能为空")
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	record, err := s.provider.GetUserByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		if errors.Is(err, dependencies.ErrProviderUserNotFound) {
			return &vo.ResetLinkResult{Email: email}, nil
		}
		return nil, providerError(err, "查询身份提供方用户失败")
	}
	return s.sendReset(ctx, record.Email, record.UID, "user", meta)
}

// sendReset 生成链接有超时；超时后使用降级链接继续投递，其他错误直接失败
func (s *reconcileService) sendReset(ctx context.Context, email, uid, actorType string, meta dto.RequestMeta) (*vo.ResetLinkResult, error) {
	const operation = "ReconcileService.sendReset"

	linkCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	link, err := s.provider.PasswordResetLink(linkCtx, email, s.cfg.ResetContinueURL)
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(linkCtx.Err(), context.DeadlineExceeded)
	cancel()

	result := &vo.ResetLinkResult{Email: email}
	switch {
	case err == nil:
		result.Link = link
	case timedOut && ctx.Err() == nil:
		s.logger.Warn("生成重置链接超时，使用降级链接",
			zap.String("operation", operation),
			zap.String("uid", uid),
			zap.Duration("timeout", s.cfg.ProviderTimeout),
		)
		result.Link = s.degradedResetLink(email)
		result.Degraded = true
	default:
		return nil, providerError(err, "生成重置密码链接失败")
	}

	channel, err := s.notifier.Send(ctx, resetMessage(email, result.Link, result.Degraded))
	if err != nil {
		s.logger.Error("重置密码邮件投递失败",
			zap.String("operation", operation),
			zap.String("uid", uid),
			zap.Error(err),
		)
	} else {
		result.Delivered = true
		result.Channel = channel
	}

	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: uid,
		Action:      constants.ActionPasswordReset,
		ActorType:   actorType,
		ActorID:     meta.ActorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"degraded": result.Degraded, "delivered": result.Delivered, "channel": result.Channel},
	})
	return result, nil
}

func (s *reconcileService) degradedResetLink(email string) string {
	base := s.cfg.ResetFallbackURL
	if base == "" {
		base = s.cfg.ResetContinueURL
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + url.Values{"email": {email}, "degraded": {"1"}}.Encode()
}

func resetMessage(email, link string, degraded bool) notify.Message {
	text := fmt.Sprintf("请点击以下链接重置密码：\n%s\n如果不是您本人操作，请忽略此邮件。", link)
	return notify.Message{
		Kind:    constants.ActionPasswordReset,
		To:      email,
		Subject: "重置密码",
		Text:    text,
		HTML:    fmt.Sprintf(`<p>请点击以下链接重置密码：</p><p><a href="%s">重置密码</a></p>`, html.EscapeString(link)),
		Data:    map[string]string{"link": link, "degraded": fmt.Sprintf("%t", degraded)},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
