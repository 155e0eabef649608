package controller_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/controller"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/notify"
	"github.com/Xushengqwer/identity_link/service/reconcile"
	"github.com/Xushengqwer/identity_link/service/token"
	"github.com/Xushengqwer/identity_link/testsupport"
)

const cookieName = "refresh_token"

type authFixture struct {
	router   *gin.Engine
	provider *testsupport.MemoryProvider
}

func newAuthFixture(t *testing.T, resetMax int64) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testsupport.NewDB(t)
	logger := testsupport.NewLogger(t)
	provider := testsupport.NewMemoryProvider()
	linkRepo := mysql.NewLinkRepository(db)
	userRepo := mysql.NewLocalUserRepository(db)
	links := linktable.NewLinkTableService(linkRepo, userRepo, db, logger)
	chain := notify.NewChain(logger, notify.NewConsoleSender(logger))
	rec := reconcile.NewReconcileService(provider, links, linkRepo, userRepo, db, chain, nil, config.ReconcileConfig{}, logger)
	t.Cleanup(rec.Close)

	jwtUtil := dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "identity-link"})
	tokenService := token.NewAuthTokenService(provider, rec, userRepo, testsupport.NewMemoryBlacklist(), testsupport.NewCountingLimiter(0), jwtUtil, nil, logger)

	ctrl := controller.NewAuthTokenController(tokenService, rec, testsupport.NewCountingLimiter(resetMax), logger,
		config.CookieConfig{Path: "/", HttpOnly: true, SameSite: "Lax", RefreshTokenName: cookieName})

	router := gin.New()
	ctrl.RegisterRoutes(router.Group("/api/v1/identity-link"))
	return &authFixture{router: router, provider: provider}
}

func (f *authFixture) post(path, platform, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identity-link"+path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if platform != "" {
		req.Header.Set("X-Platform", platform)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestExchange_WebSetsRefreshCookie(t *testing.T) {
	f := newAuthFixture(t, 0)
	f.provider.AddToken("tok-web", dto.DecodedIdentity{UID: "uid-web", Email: "web@example.com"})

	w := f.post("/auth/exchange", "web", `{"idToken":"tok-web"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	c := refreshCookie(w)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.NotContains(t, w.Body.String(), c.Value)

	// Cookie 中的刷新令牌可以换取新令牌
	w = f.post("/auth/refresh", "web", "", c)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := refreshCookie(w)
	require.NotNil(t, rotated)
	assert.NotEqual(t, c.Value, rotated.Value)

	// 旧刷新令牌已吊销
	w = f.post("/auth/refresh", "web", "", c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExchange_AppReturnsRefreshTokenInBody(t *testing.T) {
	f := newAuthFixture(t, 0)
	f.provider.AddToken("tok-app", dto.DecodedIdentity{UID: "uid-app", Email: "app@example.com"})

	w := f.post("/auth/exchange", "app", `{"idToken":"tok-app"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, refreshCookie(w))
	assert.Contains(t, w.Body.String(), `"refresh_token":"ey`)
}

func TestExchange_Errors(t *testing.T) {
	f := newAuthFixture(t, 0)

	tests := []struct {
		name     string
		platform string
		body     string
		want     int
	}{
		{name: "无效平台", platform: "fax", body: `{"idToken":"x"}`, want: http.StatusBadRequest},
		{name: "缺少 idToken", platform: "web", body: `{}`, want: http.StatusBadRequest},
		{name: "伪造令牌", platform: "web", body: `{"idToken":"forged"}`, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post("/auth/exchange", tt.platform, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	f := newAuthFixture(t, 0)

	assert.Equal(t, http.StatusBadRequest, f.post("/auth/refresh", "web", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.post("/auth/refresh", "app", `{}`).Code)
}

func TestLogout_WebClearsCookie(t *testing.T) {
	f := newAuthFixture(t, 0)
	f.provider.AddToken("tok-out", dto.DecodedIdentity{UID: "uid-out", Email: "out@example.com"})

	w := f.post("/auth/exchange", "web", `{"idToken":"tok-out"}`)
	require.Equal(t, http.StatusOK, w.Code)
	c := refreshCookie(w)
	require.NotNil(t, c)

	w = f.post("/auth/logout", "web", "", c)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := refreshCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = f.post("/auth/refresh", "web", "", c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgotPassword_AlwaysSucceeds(t *testing.T) {
	f := newAuthFixture(t, 1)
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-f", Email: "forgot@example.com"})

	w := f.post("/auth/forgot-password", "", `{"email":"forgot@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, f.provider.Calls("PasswordResetLink"))

	// 同一邮箱超过限额后不再发送，但响应不变
	w = f.post("/auth/forgot-password", "", `{"email":"FORGOT@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.provider.Calls("PasswordResetLink"))

	// 未注册的邮箱同样返回成功
	w = f.post("/auth/forgot-password", "", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.post("/auth/forgot-password", "", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
