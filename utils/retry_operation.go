package utils

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOperation 按固定间隔重试 operation，最多 retries 次。
func RetryOperation(ctx context.Context, wait time.Duration, retries int, operation func() error) error {
	bo := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(wait),
		uint64(retries),
	)
	bo = backoff.WithContext(bo, ctx)
	return backoff.Retry(operation, bo)
}

// RetryOperationForErrors 只在 operation 返回 retryable 中的错误时重试，其余错误立即返回。
func RetryOperationForErrors(ctx context.Context, wait time.Duration, retries int, retryable []error, operation func() error) error {
	err := RetryOperation(ctx, wait, retries, func() error {
		err := operation()
		if err == nil {
			return nil
		}
		for _, target := range retryable {
			if errors.Is(err, target) {
				return err
			}
		}
		return backoff.Permanent(err)
	})
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
