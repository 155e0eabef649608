package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRetryOperationForErrors(t *testing.T) {
	permanentErr := errors.New("permanent")
	tests := []struct {
		name          string
		failures      int
		failWith      error
		retries       int
		expectedErr   error
		expectedCalls int
	}{
		{
			name:          "success on first attempt",
			failures:      0,
			retries:       1,
			expectedCalls: 1,
		},
		{
			name:          "duplicate key retried once then succeeds",
			failures:      1,
			failWith:      gorm.ErrDuplicatedKey,
			retries:       1,
			expectedCalls: 2,
		},
		{
			name:          "non retryable error returned immediately",
			failures:      5,
			failWith:      permanentErr,
			retries:       3,
			expectedErr:   permanentErr,
			expectedCalls: 1,
		},
		{
			name:          "retryable error exhausted",
			failures:      5,
			failWith:      gorm.ErrDuplicatedKey,
			retries:       2,
			expectedErr:   gorm.ErrDuplicatedKey,
			expectedCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryOperationForErrors(context.Background(), time.Millisecond, tt.retries, []error{gorm.ErrDuplicatedKey}, func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}
