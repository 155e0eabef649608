package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/utils"
)

// warningLocalSyncFailed 身份提供方已更新，但同步本地用户失败
const warningLocalSyncFailed = "local_sync_failed"

func (s *reconcileService) GetUser(ctx context.Context, uid string) (*vo.MergedUserView, error) {
	record, err := s.provider.GetUser(ctx, uid)
	if err != nil {
		return nil, providerError(err, "查询身份提供方用户失败")
	}
	return s.mergedView(ctx, *record)
}

func (s *reconcileService) mergedView(ctx context.Context, record dto.IdentityRecord) (*vo.MergedUserView, error) {
	index, err := s.links.BuildLinkIndexFor(ctx, []string{record.UID})
	if err != nil {
		return nil, err
	}
	views := MergeUsers([]dto.IdentityRecord{record}, index)
	return &views[0], nil
}

func (s *reconcileService) CreateUser(ctx context.Context, req dto.CreateUserRequest, meta dto.RequestMeta) (*vo.CreateUserResult, error) {
	const operation = "ReconcileService.CreateUser"
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Email == "" && req.PhoneNumber == "" {
		return nil, apperrors.Validation("email 与 phoneNumber 至少提供一个")
	}

	record, err := s.provider.CreateUser(ctx, dto.ProviderUserToCreate{
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		EmailVerified: req.EmailVerified,
		Disabled:      req.Disabled,
	})
	if err != nil {
		s.logger.Error("身份提供方创建用户失败",
			zap.String("operation", operation),
			zap.String("email", req.Email),
			zap.Error(err),
		)
		return nil, providerError(err, "身份提供方创建用户失败")
	}

	result := &vo.CreateUserResult{Local: fulfilled}
	name := req.DisplayName
	if req.FirstName != "" || req.LastName != "" {
		name = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}
	if _, err := s.CreateOrLinkUser(ctx, dto.DecodedIdentity{
		UID:           record.UID,
		Email:         record.Email,
		EmailVerified: record.EmailVerified,
		PhoneNumber:   record.PhoneNumber,
		Name:          name,
	}); err != nil {
		// 身份提供方账号保留，本地记录可在下次登录时补建
		s.logger.Warn("本地建档失败，身份提供方用户已保留",
			zap.String("operation", operation),
			zap.String("uid", record.UID),
			zap.Error(err),
		)
		result.Local = rejected(apperrors.PublicMessage(err))
	}

	view, err := s.mergedView(ctx, *record)
	if err != nil {
		return nil, err
	}
	result.User = view

	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: record.UID,
		Action:      constants.ActionUserCreated,
		ActorType:   "admin",
		ActorID:     meta.ActorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"local": result.Local.Status},
	})
	return result, nil
}

func (s *reconcileService) UpdateUser(ctx context.Context, uid string, req dto.UpdateUserRequest, meta dto.RequestMeta) (*vo.MergedUserView, error) {
	const operation = "ReconcileService.UpdateUser"

	record, err := s.provider.UpdateUser(ctx, uid, dto.ProviderUserToUpdate{
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		EmailVerified: req.EmailVerified,
		Disabled:      req.Disabled,
	})
	if err != nil {
		return nil, providerError(err, "身份提供方更新用户失败")
	}

	view, err := s.mergedView(ctx, *record)
	if err != nil {
		return nil, err
	}

	if view.LinkStatus == enums.LinkStatusLinked && view.StrapiID != nil {
		fields := map[string]any{}
		if req.Email != nil && !s.isRelayEmail(*req.Email) {
			fields["email"] = *req.Email
		}
		if req.PhoneNumber != nil {
			fields["phone_number"] = utils.NormalizePhone(*req.PhoneNumber)
		}
		if req.FirstName != nil {
			fields["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			fields["last_name"] = *req.LastName
		}
		if len(fields) > 0 {
			if err := s.userRepo.Updates(ctx, *view.StrapiID, fields); err != nil {
				s.logger.Warn("同步本地用户失败",
					zap.String("operation", operation),
					zap.String("uid", uid),
					zap.Uint("localUserID", *view.StrapiID),
					zap.Error(err),
				)
				view.Warnings = append(view.Warnings, warningLocalSyncFailed)
			} else if refreshed, err := s.mergedView(ctx, *record); err == nil {
				view = refreshed
			}
		}
	}

	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: uid,
		Action:      constants.ActionUserUpdated,
		ActorType:   "admin",
		ActorID:     meta.ActorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	})
	return view, nil
}
