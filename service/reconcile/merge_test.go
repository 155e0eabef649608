package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/reconcile"
)

func TestMergeUsers_ProviderWinsWithLocalFallback(t *testing.T) {
	records := []dto.IdentityRecord{
		{
			UID:           "uid-1",
			Email:         "provider@x.com",
			EmailVerified: true,
			Disabled:      true,
			ProviderData:  []dto.ProviderInfo{{ProviderID: "google.com", UID: "g-1"}},
			Metadata:      dto.IdentityMetadata{CreationTime: "Mon, 02 Jan 2006 15:04:05 GMT"},
		},
		{UID: "uid-2", Email: "solo@x.com"},
	}
	index := linktable.LinkIndex{
		"uid-1": {
			LocalUser: entities.LocalUser{
				ID:          7,
				DocumentID:  "doc-7",
				Username:    "local7",
				Email:       strPtr("LOCAL@x.com"),
				PhoneNumber: strPtr("+15550000007"),
				FirstName:   "Ada",
				LastName:    "Lovelace",
				RoleType:    "editor",
				Confirmed:   true,
			},
			FirebaseUID: "uid-1",
			AppleEmail:  "relay@privaterelay.appleid.com",
		},
	}

	views := reconcile.MergeUsers(records, index)
	require.Len(t, views, 2)

	linked := views[0]
	assert.Equal(t, "uid-1", linked.ID)
	assert.Equal(t, "provider@x.com", linked.Email)
	assert.Equal(t, "+15550000007", linked.PhoneNumber, "provider empty, local fills in")
	assert.Equal(t, "Ada Lovelace", linked.DisplayName)
	assert.True(t, linked.EmailVerified)
	assert.True(t, linked.Disabled)
	assert.Equal(t, records[0].ProviderData, linked.ProviderData)
	assert.Equal(t, records[0].Metadata, linked.Metadata)
	require.NotNil(t, linked.StrapiID)
	assert.EqualValues(t, 7, *linked.StrapiID)
	assert.Equal(t, "doc-7", linked.StrapiDocumentID)
	assert.Equal(t, "editor", linked.Role)
	assert.Equal(t, "relay@privaterelay.appleid.com", linked.AppleEmail)
	assert.Equal(t, enums.LinkStatusLinked, linked.LinkStatus)
	require.NotNil(t, linked.MatchMethod)
	assert.Equal(t, enums.MatchMethodUID, *linked.MatchMethod)
	assert.Equal(t, []string{enums.WarningEmailMismatch}, linked.Warnings)

	unlinked := views[1]
	assert.Equal(t, enums.LinkStatusUnlinked, unlinked.LinkStatus)
	assert.Nil(t, unlinked.StrapiID)
	assert.Nil(t, unlinked.MatchMethod)
	assert.Empty(t, unlinked.Username)
	assert.NotNil(t, unlinked.ProviderData)
}

func TestMergeUsers_CaseInsensitiveEmailAndPhoneMismatch(t *testing.T) {
	records := []dto.IdentityRecord{{UID: "u", Email: "Same@X.com", PhoneNumber: "+111111111"}}
	index := linktable.LinkIndex{"u": {LocalUser: entities.LocalUser{ID: 1, Email: strPtr("same@x.com"), PhoneNumber: strPtr("+222222222")}}}

	views := reconcile.MergeUsers(records, index)
	assert.Equal(t, []string{enums.WarningPhoneMismatch}, views[0].Warnings)
	assert.Equal(t, "+111111111", views[0].PhoneNumber)
}

func TestMergeUsers_LocalOnlyUsersInvisible(t *testing.T) {
	index := linktable.LinkIndex{"ghost": {LocalUser: entities.LocalUser{ID: 9}}}
	assert.Empty(t, reconcile.MergeUsers(nil, index))
}
