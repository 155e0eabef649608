package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"wrapped not found", fmt.Errorf("ctx: %w", NotFound("missing")), KindNotFound},
		{"unauthorized", Unauthorized("token", errors.New("expired")), KindUnauthorized},
		{"repo not found", fmt.Errorf("repo: %w", commonerrors.ErrRepoNotFound), KindNotFound},
		{"conflict", Conflict("busy"), KindConflict},
		{"rate limited", TooManyRequests("slow down"), KindTooManyRequests},
		{"plain", errors.New("boom"), KindApplication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad input", PublicMessage(Validation("bad input")))
	assert.Equal(t, commonerrors.ErrSystemError.Error(), PublicMessage(Application("db down", errors.New("dial tcp"))))
	assert.Equal(t, "adjust pattern x", PublicMessage(Configuration("adjust pattern x")))
	assert.Equal(t, commonerrors.ErrSystemError.Error(), PublicMessage(errors.New("raw")))
}
