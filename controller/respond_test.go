package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/testsupport"
)

func TestRespondServiceError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testsupport.NewLogger(t)

	tests := []struct {
		name     string
		err      error
		want     int
		wantCode int
	}{
		{name: "validation", err: apperrors.Validation("bad"), want: http.StatusBadRequest, wantCode: response.ErrCodeClientInvalidInput},
		{name: "not found", err: apperrors.NotFound("missing"), want: http.StatusNotFound, wantCode: response.ErrCodeClientResourceNotFound},
		{name: "unauthorized", err: apperrors.Unauthorized("nope", nil), want: http.StatusUnauthorized, wantCode: response.ErrCodeClientUnauthorized},
		{name: "conflict", err: apperrors.Conflict("busy"), want: http.StatusConflict, wantCode: errCodeClientConflict},
		{name: "too many", err: apperrors.TooManyRequests("slow down"), want: http.StatusTooManyRequests, wantCode: response.ErrCodeClientRateLimitExceeded},
		{name: "application", err: apperrors.Application("db", errors.New("connection refused")), want: http.StatusInternalServerError, wantCode: response.ErrCodeServerInternal},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError, wantCode: response.ErrCodeServerInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, logger, "test", tt.err)
			assert.Equal(t, tt.want, w.Code)

			var body response.APIResponse[any]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondServiceError(c, testsupport.NewLogger(t), "test", apperrors.Application("查询失败", errors.New("dial tcp 10.0.0.3:3306")))

	assert.NotContains(t, w.Body.String(), "10.0.0.3")
	assert.Contains(t, w.Body.String(), commonerrors.ErrSystemError.Error())
}
