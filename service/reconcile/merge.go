package reconcile

import (
	"strings"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/linktable"
)

// MergeUsers 每条身份记录输出一个合并视图，输出长度等于输入长度。
// 未被身份提供方记录引用的本地用户不会出现在结果中。
func MergeUsers(records []dto.IdentityRecord, index linktable.LinkIndex) []vo.MergedUserView {
	out := make([]vo.MergedUserView, 0, len(records))
	for _, r := range records {
		if linked, ok := index[r.UID]; ok {
			out = append(out, mergeOne(r, &linked))
		} else {
			out = append(out, mergeOne(r, nil))
		}
	}
	return out
}

func mergeOne(r dto.IdentityRecord, linked *linktable.LinkedUser) vo.MergedUserView {
	view := vo.MergedUserView{
		ID:                   r.UID,
		UID:                  r.UID,
		Email:                r.Email,
		PhoneNumber:          r.PhoneNumber,
		DisplayName:          r.DisplayName,
		PhotoURL:             r.PhotoURL,
		EmailVerified:        r.EmailVerified,
		Disabled:             r.Disabled,
		ProviderData:         r.ProviderData,
		Metadata:             r.Metadata,
		TokensValidAfterTime: r.TokensValidAfterTime,
		LinkStatus:           enums.LinkStatusUnlinked,
	}
	if view.ProviderData == nil {
		view.ProviderData = []dto.ProviderInfo{}
	}
	if linked == nil {
		return view
	}

	local := linked.LocalUser
	localEmail := deref(local.Email)
	localPhone := deref(local.PhoneNumber)

	// 身份提供方为空时才回落到本地值
	if view.Email == "" {
		view.Email = localEmail
	}
	if view.PhoneNumber == "" {
		view.PhoneNumber = localPhone
	}
	if view.DisplayName == "" {
		view.DisplayName = strings.TrimSpace(local.FirstName + " " + local.LastName)
	}

	id := local.ID
	method := enums.MatchMethodUID
	view.StrapiID = &id
	view.StrapiDocumentID = local.DocumentID
	view.Username = local.Username
	view.FirstName = local.FirstName
	view.LastName = local.LastName
	view.Role = local.RoleType
	view.Confirmed = local.Confirmed
	view.Blocked = local.Blocked
	view.AppleEmail = linked.AppleEmail
	view.LinkStatus = enums.LinkStatusLinked
	view.MatchMethod = &method

	if r.Email != "" && localEmail != "" && !strings.EqualFold(r.Email, localEmail) {
		view.Warnings = append(view.Warnings, enums.WarningEmailMismatch)
	}
	if r.PhoneNumber != "" && localPhone != "" && r.PhoneNumber != localPhone {
		view.Warnings = append(view.Warnings, enums.WarningPhoneMismatch)
	}
	return view
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
