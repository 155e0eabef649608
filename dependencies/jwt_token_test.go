package dependencies

import (
	"testing"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/config"
)

func TestJWTUtilityRoundTrip(t *testing.T) {
	util := NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "identity-link"})
	subject := SessionSubject{
		LocalUserID: 42,
		DocumentID:  "doc-42",
		FirebaseUID: "abc123",
		Role:        enums.RoleUser,
		Status:      enums.StatusActive,
		Platform:    enums.PlatformWeb,
	}

	access, err := util.GenerateAccessToken(subject)
	require.NoError(t, err)
	claims, err := util.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.LocalUserID)
	assert.Equal(t, "abc123", claims.FirebaseUID)
	assert.Equal(t, "doc-42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	refresh, err := util.GenerateRefreshToken(subject)
	require.NoError(t, err)
	_, err = util.ParseAccessToken(refresh)
	assert.Error(t, err, "refresh token must not validate with the access secret")
	refreshClaims, err := util.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "doc-42", refreshClaims.Subject)
}
