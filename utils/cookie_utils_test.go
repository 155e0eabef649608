package utils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Xushengqwer/identity_link/config"
)

func TestRefreshTokenCookie(t *testing.T) {
	cfg := config.CookieConfig{Path: "/", Secure: true, HttpOnly: true, SameSite: "Strict", RefreshTokenName: "rt"}

	c := RefreshTokenCookie(cfg, "token", time.Hour)
	assert.Equal(t, "rt", c.Name)
	assert.Equal(t, "token", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, c.Secure)

	cleared := RefreshTokenCookie(cfg, "ignored", 0)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestParseSameSiteString(t *testing.T) {
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSiteString("lax"))
	assert.Equal(t, http.SameSiteNoneMode, ParseSameSiteString(" None "))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSiteString("bogus"))
}
