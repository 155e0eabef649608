// Package notify 按顺序尝试多个通知发送器，第一个成功者生效。
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
)

// Message 一条待投递的通知
type Message struct {
	Kind    string            `json:"kind"` // 例如 password_reset
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	HTML    string            `json:"html,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Sender 单个投递渠道，失败时必须返回错误
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Chain 有序的发送器列表
type Chain struct {
	senders []Sender
	logger  *core.ZapLogger
}

func NewChain(logger *core.ZapLogger, senders ...Sender) *Chain {
	return &Chain{senders: senders, logger: logger}
}

// BuildChain 按配置组装 SMTP -> Webhook -> 控制台，未配置的渠道跳过
func BuildChain(cfg config.NotifyConfig, logger *core.ZapLogger) *Chain {
	var senders []Sender
	if cfg.SMTP.Host != "" {
		senders = append(senders, NewSMTPSender(cfg.SMTP))
	}
	if cfg.Webhook.URL != "" {
		senders = append(senders, NewWebhookSender(cfg.Webhook))
	}
	senders = append(senders, NewConsoleSender(logger))
	return NewChain(logger, senders...)
}

// Send 依次尝试，返回成功渠道的名字；全部失败时返回合并后的错误
func (c *Chain) Send(ctx context.Context, msg Message) (string, error) {
	const operation = "NotifyChain.Send"
	var errs []error
	for _, s := range c.senders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := s.Send(ctx, msg)
		if err == nil {
			return s.Name(), nil
		}
		c.logger.Warn("通知渠道发送失败，尝试下一个",
			zap.String("operation", operation),
			zap.String("channel", s.Name()),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if len(errs) == 0 {
		return "", errors.New("no notification sender configured")
	}
	return "", errors.Join(errs...)
}
