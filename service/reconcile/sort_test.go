package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/reconcile"
)

func uids(views []vo.MergedUserView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.UID
	}
	return out
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr string
		want reconcile.SortSpec
		ok   bool
	}{
		{"", reconcile.SortSpec{}, false},
		{"email", reconcile.SortSpec{Field: "email", Direction: enums.SortASC}, true},
		{"createdAt:desc", reconcile.SortSpec{Field: "createdAt", Direction: enums.SortDESC}, true},
		{"username:ASC", reconcile.SortSpec{Field: "username", Direction: enums.SortASC}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := reconcile.ParseSort(tt.expr)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSortUsers_DescMirrorsAscWithNullsLast(t *testing.T) {
	base := func() []vo.MergedUserView {
		return []vo.MergedUserView{
			{UID: "b", Email: "bravo@x.com", Metadata: dto.IdentityMetadata{LastSignInTime: "Tue, 03 Jan 2006 10:00:00 GMT"}},
			{UID: "n1"},
			{UID: "a", Email: "Alpha@x.com", Metadata: dto.IdentityMetadata{LastSignInTime: "Mon, 02 Jan 2006 10:00:00 GMT"}},
			{UID: "c", Email: "charlie@x.com", Metadata: dto.IdentityMetadata{LastSignInTime: "Wed, 04 Jan 2006 10:00:00 GMT"}},
			{UID: "n2"},
		}
	}

	for _, field := range []string{"email", "lastSignInTime"} {
		t.Run(field, func(t *testing.T) {
			asc := base()
			reconcile.SortUsers(asc, reconcile.SortSpec{Field: field, Direction: enums.SortASC})
			desc := base()
			reconcile.SortUsers(desc, reconcile.SortSpec{Field: field, Direction: enums.SortDESC})

			assert.Equal(t, []string{"a", "b", "c", "n1", "n2"}, uids(asc))
			assert.Equal(t, []string{"c", "b", "a", "n1", "n2"}, uids(desc))
		})
	}
}

func TestSortUsers_NumericAndBoolean(t *testing.T) {
	id := func(n uint) *uint { return &n }
	views := []vo.MergedUserView{
		{UID: "ten", StrapiID: id(10)},
		{UID: "two", StrapiID: id(2)},
		{UID: "none"},
		{UID: "nine", StrapiID: id(9)},
	}
	reconcile.SortUsers(views, reconcile.SortSpec{Field: "strapiId", Direction: enums.SortASC})
	assert.Equal(t, []string{"two", "nine", "ten", "none"}, uids(views))

	flags := []vo.MergedUserView{{UID: "on", Disabled: true}, {UID: "off"}}
	reconcile.SortUsers(flags, reconcile.SortSpec{Field: "disabled"})
	assert.Equal(t, []string{"off", "on"}, uids(flags))
}

func TestSortUsers_RemainingStringFields(t *testing.T) {
	uid := enums.MatchMethodUID
	base := func() []vo.MergedUserView {
		return []vo.MergedUserView{
			{UID: "z", AppleEmail: "Zed@privaterelay.appleid.com", StrapiDocumentID: "doc-z", MatchMethod: &uid},
			{UID: "n"},
			{UID: "m", AppleEmail: "mia@privaterelay.appleid.com", StrapiDocumentID: "doc-m", MatchMethod: &uid},
		}
	}
	for _, field := range []string{"appleEmail", "strapiDocumentId"} {
		t.Run(field, func(t *testing.T) {
			views := base()
			reconcile.SortUsers(views, reconcile.SortSpec{Field: field, Direction: enums.SortASC})
			assert.Equal(t, []string{"m", "z", "n"}, uids(views))
		})
	}

	views := base()
	reconcile.SortUsers(views, reconcile.SortSpec{Field: "matchMethod", Direction: enums.SortDESC})
	assert.Equal(t, "n", views[2].UID)
}

func TestSortableField(t *testing.T) {
	for _, field := range []string{"photoURL", "appleEmail", "strapiDocumentId", "tokensValidAfterTime", "matchMethod", "createdAt"} {
		assert.True(t, reconcile.SortableField(field), field)
	}
	for _, field := range []string{"providerData", "metadata", "warnings", "nope"} {
		assert.False(t, reconcile.SortableField(field), field)
	}
}

func TestFilterUsers(t *testing.T) {
	id := uint(42)
	views := []vo.MergedUserView{
		{UID: "u1", Email: "alice@x.com"},
		{UID: "u2", DisplayName: "Bob Builder"},
		{UID: "u3", StrapiID: &id, Username: "carol"},
	}
	assert.Equal(t, []string{"u2"}, uids(reconcile.FilterUsers(views, "BUILDER")))
	assert.Equal(t, []string{"u3"}, uids(reconcile.FilterUsers(views, "42")))
	assert.Len(t, reconcile.FilterUsers(views, "  "), 3)
	assert.Empty(t, reconcile.FilterUsers(views, "zzz"))
}
