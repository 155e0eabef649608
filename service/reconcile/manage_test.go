package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/enums"
)

func TestCreateUser_CreatesBothSides(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})

	res, err := f.svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Email:     "new@example.com",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, dto.RequestMeta{ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.SideFulfilled, res.Local.Status)
	require.NotNil(t, res.User)
	assert.Equal(t, enums.LinkStatusLinked, res.User.LinkStatus)
	assert.Equal(t, "Ada", res.User.FirstName)
	assert.Equal(t, "Lovelace", res.User.LastName)
	assert.Equal(t, 1, f.provider.UserCount())
	assert.EqualValues(t, 1, f.linkCount(t))
}

func TestCreateUser_RequiresContact(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})

	_, err := f.svc.CreateUser(context.Background(), dto.CreateUserRequest{DisplayName: "nobody"}, dto.RequestMeta{})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Zero(t, f.provider.Calls("CreateUser"))
}

func TestCreateUser_LocalFailureKeepsProviderUser(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{
		RequireEmail:            true,
		PlaceholderEmailPattern: "{phoneNumber}@phone.local",
		PlaceholderMaxAttempts:  1,
	})
	f.addLocalUser(t, entities.LocalUser{Username: "taken", Email: strPtr("15550002222@phone.local")})

	res, err := f.svc.CreateUser(context.Background(), dto.CreateUserRequest{PhoneNumber: "+15550002222"}, dto.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, enums.SideRejected, res.Local.Status)
	assert.NotEmpty(t, res.Local.Reason)
	assert.Equal(t, enums.LinkStatusUnlinked, res.User.LinkStatus)
	assert.Equal(t, 1, f.provider.UserCount())
	assert.Zero(t, f.linkCount(t))
}

func TestUpdateUser_MirrorsLocalFields(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})
	ctx := context.Background()
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-u", Email: "before@example.com"})
	local := f.addLocalUser(t, entities.LocalUser{Username: "updatable", Email: strPtr("before@example.com")})
	f.link(t, local.ID, "uid-u")

	view, err := f.svc.UpdateUser(ctx, "uid-u", dto.UpdateUserRequest{
		Email:     strPtr("after@example.com"),
		FirstName: strPtr("Grace"),
	}, dto.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "after@example.com", view.Email)
	assert.Equal(t, "Grace", view.FirstName)
	assert.Empty(t, view.Warnings)

	var stored entities.LocalUser
	require.NoError(t, f.db.First(&stored, local.ID).Error)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "after@example.com", *stored.Email)
	assert.Equal(t, "Grace", stored.FirstName)
}

func TestUpdateUser_ProviderOnlyFieldsSkipLocalSync(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-d"})
	local := f.addLocalUser(t, entities.LocalUser{Username: "display"})
	f.link(t, local.ID, "uid-d")

	view, err := f.svc.UpdateUser(context.Background(), "uid-d", dto.UpdateUserRequest{DisplayName: strPtr("Shown Name")}, dto.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Shown Name", view.DisplayName)
	assert.Empty(t, view.Warnings)
}

func TestUpdateUser_UnknownUser(t *testing.T) {
	f := newFixture(t, config.ReconcileConfig{})

	_, err := f.svc.UpdateUser(context.Background(), "uid-none", dto.UpdateUserRequest{DisplayName: strPtr("x")}, dto.RequestMeta{})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
