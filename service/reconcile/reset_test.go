package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/models/dto"
)

func TestResetPassword_SendsLink(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{ResetContinueURL: "https://cms.example.com/login"})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-r", Email: "reset@example.com"})

	res, err := f.svc.ResetPassword(context.Background(), "uid-r", dto.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.True(t, res.Delivered)
	assert.Equal(t, "test", res.Channel)
	assert.Contains(t, res.Link, "mode=resetPassword")

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "reset@example.com", f.notifier.sent[0].To)
	assert.Contains(t, f.notifier.sent[0].Text, res.Link)
}

func TestResetPassword_TimeoutFallsBackToDegradedLink(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{
		ProviderTimeout:  50 * time.Millisecond,
		ResetFallbackURL: "https://cms.example.com/forgot",
	})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-slow", Email: "slow@example.com"})
	f.provider.ResetDelay = 500 * time.Millisecond

	start := time.Now()
	res, err := f.svc.ResetPassword(context.Background(), "uid-slow", dto.RequestMeta{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	assert.True(t, res.Degraded)
	assert.True(t, res.Delivered)
	assert.Contains(t, res.Link, "https://cms.example.com/forgot?")
	assert.Contains(t, res.Link, "degraded=1")
	assert.Contains(t, res.Link, "email=slow%40example.com")
}

func TestResetPassword_UserWithoutEmail(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-phone", PhoneNumber: "+15550001111"})

	_, err := f.svc.ResetPassword(context.Background(), "uid-phone", dto.RequestMeta{})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Empty(t, f.notifier.sent)
}

func TestResetPassword_UnknownUser(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})

	_, err := f.svc.ResetPassword(context.Background(), "uid-nobody", dto.RequestMeta{})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestSendPasswordResetEmail_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})

	res, err := f.svc.SendPasswordResetEmail(context.Background(), "ghost@example.com", dto.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Empty(t, f.notifier.sent)
	assert.Zero(t, f.provider.Calls("PasswordResetLink"))
}

func TestSendPasswordResetEmail_DeliveryFailureIsReported(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-m", Email: "mail@example.com"})
	f.notifier.err = errors.New("smtp down")

	res, err := f.svc.SendPasswordResetEmail(context.Background(), "MAIL@example.com", dto.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Equal(t, "mail@example.com", res.Email)
}
