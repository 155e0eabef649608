package notify

import (
	"context"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
)

// ConsoleSender 只写日志，用于本地开发；总是成功
type ConsoleSender struct {
	logger *core.ZapLogger
}

func NewConsoleSender(logger *core.ZapLogger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (c *ConsoleSender) Name() string { return "console" }

func (c *ConsoleSender) Send(_ context.Context, msg Message) error {
	c.logger.Info("通知未配置投递渠道，输出到日志",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
