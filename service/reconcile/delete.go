package reconcile

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
)

var (
	skipped   = vo.SideResult{Status: enums.SideSkipped}
	fulfilled = vo.SideResult{Status: enums.SideFulfilled}
)

func rejected(reason string) vo.SideResult {
	return vo.SideResult{Status: enums.SideRejected, Reason: reason}
}

func includesProvider(d enums.DeleteDestination) bool {
	return d == enums.DestinationBoth || d == enums.DestinationProvider
}

func includesLocal(d enums.DeleteDestination) bool {
	return d == enums.DestinationBoth || d == enums.DestinationLocal
}

// DeleteUser 两端互不依赖，各自报告结果；不存在跨端事务
func (s *reconcileService) DeleteUser(ctx context.Context, uid string, destination enums.DeleteDestination, meta dto.RequestMeta) (*vo.DeleteResult, error) {
	if uid == "" {
		return nil, apperrors.Validation("uid 不能为空")
	}
	if !destination.Valid() {
		return nil, apperrors.Validationf("destination 取值非法: %s", destination)
	}

	res := vo.DeleteResult{UID: uid, Provider: skipped, Local: skipped}
	if includesProvider(destination) {
		res.Provider = s.deleteProviderSide(ctx, uid)
	}
	if includesLocal(destination) {
		res.Local = s.deleteLocalSide(ctx, uid)
	}
	s.recordDelete(res, destination, meta)
	return &res, nil
}

func (s *reconcileService) DeleteMany(ctx context.Context, uids []string, destination enums.DeleteDestination, meta dto.RequestMeta) ([]vo.DeleteResult, error) {
	const operation = "ReconcileService.DeleteMany"
	if len(uids) == 0 {
		return nil, apperrors.Validation("uids 不能为空")
	}
	if !destination.Valid() {
		return nil, apperrors.Validationf("destination 取值非法: %s", destination)
	}

	results := make([]vo.DeleteResult, len(uids))
	for i, uid := range uids {
		results[i] = vo.DeleteResult{UID: uid, Provider: skipped, Local: skipped}
	}

	if includesProvider(destination) {
		batch, err := s.provider.DeleteUsers(ctx, uids)
		if err != nil {
			s.logger.Error("批量删除身份提供方用户失败",
				zap.String("operation", operation),
				zap.Int("count", len(uids)),
				zap.Error(err),
			)
			for i := range results {
				results[i].Provider = rejected(sideReason(err))
			}
		} else {
			for i := range results {
				results[i].Provider = fulfilled
			}
			for _, e := range batch.Errors {
				if e.Index >= 0 && e.Index < len(results) {
					results[e.Index].Provider = rejected(e.Reason)
				}
			}
		}
	}
	if includesLocal(destination) {
		for i := range results {
			results[i].Local = s.deleteLocalSide(ctx, results[i].UID)
		}
	}
	for _, r := range results {
		s.recordDelete(r, destination, meta)
	}
	return results, nil
}

func (s *reconcileService) deleteProviderSide(ctx context.Context, uid string) vo.SideResult {
	if err := s.provider.DeleteUser(ctx, uid); err != nil {
		s.logger.Warn("删除身份提供方用户失败",
			zap.String("operation", "ReconcileService.DeleteUser"),
			zap.String("uid", uid),
			zap.Error(err),
		)
		return rejected(sideReason(err))
	}
	return fulfilled
}

// deleteLocalSide 删除与 UID 关联的本地用户，关联记录随之删除
func (s *reconcileService) deleteLocalSide(ctx context.Context, uid string) vo.SideResult {
	link, err := s.linkRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return rejected("no linked local user")
		}
		return rejected(sideReason(err))
	}
	if link.LocalUserID == nil {
		return rejected("no linked local user")
	}
	if err := s.userRepo.Delete(ctx, *link.LocalUserID); err != nil {
		s.logger.Warn("删除本地用户失败",
			zap.String("operation", "ReconcileService.DeleteUser"),
			zap.String("uid", uid),
			zap.Uint("localUserID", *link.LocalUserID),
			zap.Error(err),
		)
		return rejected(sideReason(err))
	}
	return fulfilled
}

// sideReason 单端失败原因，只暴露可公开的信息
func sideReason(err error) string {
	switch {
	case errors.Is(err, dependencies.ErrProviderUserNotFound):
		return "user not found"
	case errors.Is(err, dependencies.ErrProviderNotConfigured):
		return dependencies.ErrProviderNotConfigured.Error()
	case errors.Is(err, commonerrors.ErrRepoNotFound):
		return "user not found"
	default:
		return apperrors.PublicMessage(err)
	}
}

func (s *reconcileService) recordDelete(res vo.DeleteResult, destination enums.DeleteDestination, meta dto.RequestMeta) {
	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: res.UID,
		Action:      constants.ActionUserDeleted,
		ActorType:   "admin",
		ActorID:     meta.ActorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details: map[string]any{
			"destination": destinationLabel(destination),
			"provider":    res.Provider.Status,
			"local":       res.Local.Status,
		},
	})
}

func destinationLabel(d enums.DeleteDestination) string {
	if d == enums.DestinationBoth {
		return "both"
	}
	return string(d)
}
