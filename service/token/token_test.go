package token_test

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/reconcile"
	"github.com/Xushengqwer/identity_link/service/token"
	"github.com/Xushengqwer/identity_link/testsupport"
)

type tokenFixture struct {
	svc       token.AuthTokenService
	provider  *testsupport.MemoryProvider
	blacklist *testsupport.MemoryBlacklist
	jwtUtil   dependencies.JWTTokenInterface
	db        *gorm.DB
}

func newTokenFixture(t *testing.T, maxPerIP int64) *tokenFixture {
	t.Helper()
	db := testsupport.NewDB(t)
	logger := testsupport.NewLogger(t)
	provider := testsupport.NewMemoryProvider()
	linkRepo := mysql.NewLinkRepository(db)
	userRepo := mysql.NewLocalUserRepository(db)
	links := linktable.NewLinkTableService(linkRepo, userRepo, db, logger)
	linker := reconcile.NewReconcileService(provider, links, linkRepo, userRepo, db, nil, nil, config.ReconcileConfig{}, logger)
	t.Cleanup(linker.Close)

	blacklist := testsupport.NewMemoryBlacklist()
	jwtUtil := dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "identity-link"})
	svc := token.NewAuthTokenService(provider, linker, userRepo, blacklist, testsupport.NewCountingLimiter(maxPerIP), jwtUtil, nil, logger)
	return &tokenFixture{svc: svc, provider: provider, blacklist: blacklist, jwtUtil: jwtUtil, db: db}
}

var meta = dto.RequestMeta{IP: "203.0.113.7", UserAgent: "test"}

func TestExchange_IssuesSessionForNewIdentity(t *testing.T) {
	f := newTokenFixture(t, 0)
	f.provider.AddToken("tok-1", dto.DecodedIdentity{UID: "uid-x", Email: "x.user@example.com", SignInProvider: "password"})

	res, err := f.svc.Exchange(context.Background(), "tok-1", enums.PlatformWeb, meta)
	require.NoError(t, err)
	assert.Equal(t, "uid-x", res.User.FirebaseUID)
	assert.Equal(t, "x.user@example.com", res.User.Email)
	assert.True(t, res.User.Confirmed)

	claims, err := f.jwtUtil.ParseAccessToken(res.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.LocalUserID)
	assert.Equal(t, "uid-x", claims.FirebaseUID)
	assert.Equal(t, res.User.DocumentID, claims.Subject)
	assert.Equal(t, enums.RoleUser, claims.Role)

	// 再次交换复用同一个本地用户
	again, err := f.svc.Exchange(context.Background(), "tok-1", enums.PlatformWeb, meta)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestExchange_InvalidToken(t *testing.T) {
	f := newTokenFixture(t, 0)

	_, err := f.svc.Exchange(context.Background(), "forged", enums.PlatformWeb, meta)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = f.svc.Exchange(context.Background(), "  ", enums.PlatformWeb, meta)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestExchange_RateLimitedPerIP(t *testing.T) {
	f := newTokenFixture(t, 2)
	f.provider.AddToken("tok-1", dto.DecodedIdentity{UID: "uid-x"})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, meta)
		require.NoError(t, err)
	}
	_, err := f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, meta)
	assert.Equal(t, apperrors.KindTooManyRequests, apperrors.KindOf(err))
	assert.Equal(t, 2, f.provider.Calls("VerifyIDToken"))

	// 其他 IP 不受影响
	_, err = f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, dto.RequestMeta{IP: "198.51.100.1"})
	assert.NoError(t, err)
}

func TestExchange_BlockedUserRejected(t *testing.T) {
	f := newTokenFixture(t, 0)
	f.provider.AddToken("tok-1", dto.DecodedIdentity{UID: "uid-x"})
	ctx := context.Background()

	res, err := f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, meta)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&entities.LocalUser{}).Where("id = ?", res.User.ID).Update("blocked", true).Error)

	_, err = f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, meta)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = f.svc.RefreshToken(ctx, res.Token.RefreshToken)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestRefreshToken_RotatesAndRevokesOld(t *testing.T) {
	f := newTokenFixture(t, 0)
	f.provider.AddToken("tok-1", dto.DecodedIdentity{UID: "uid-x"})
	ctx := context.Background()
	res, err := f.svc.Exchange(ctx, "tok-1", enums.PlatformApp, meta)
	require.NoError(t, err)

	pair, err := f.svc.RefreshToken(ctx, res.Token.RefreshToken)
	require.NoError(t, err)
	claims, err := f.jwtUtil.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-x", claims.FirebaseUID)
	assert.Equal(t, enums.PlatformApp, claims.Platform)

	_, err = f.svc.RefreshToken(ctx, res.Token.RefreshToken)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = f.svc.RefreshToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newTokenFixture(t, 0)
	f.provider.AddToken("tok-1", dto.DecodedIdentity{UID: "uid-x"})
	ctx := context.Background()
	res, err := f.svc.Exchange(ctx, "tok-1", enums.PlatformWeb, meta)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.Token.AccessToken, res.Token.RefreshToken))

	access, err := f.jwtUtil.ParseAccessToken(res.Token.AccessToken)
	require.NoError(t, err)
	revoked, err := f.blacklist.IsJtiBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.RefreshToken(ctx, res.Token.RefreshToken)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	// 无效令牌不报错
	assert.NoError(t, f.svc.Logout(ctx, "garbage", ""))
}
