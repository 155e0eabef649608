// Package linktable 管理本地用户与身份提供方 UID 的关联表。
package linktable

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/utils"
)

// raceRetryWait 插入冲突后重新读取前的等待
const raceRetryWait = 20 * time.Millisecond

// LinkedUser 关联索引中的一项：本地用户加上关联信息
type LinkedUser struct {
	entities.LocalUser
	FirebaseUID string
	AppleEmail  string
}

// LinkIndex 以身份提供方 UID 为键的关联索引，只在一次顶层操作内有效
type LinkIndex map[string]LinkedUser

// LinkTableService 关联表的读写入口。
type LinkTableService interface {
	// UpdateForUser 按本地用户 upsert 关联。
	// 首次关联必须提供 FirebaseUID；并发插入触发唯一约束时重新读取已有记录并在其上应用更新。
	UpdateForUser(ctx context.Context, localUserID uint, update dto.LinkUpdate) (*entities.UserLink, error)

	// BuildLinkIndex 加载全部关联及其本地用户，本地用户缺失的关联记警告后跳过。
	BuildLinkIndex(ctx context.Context) (LinkIndex, error)

	// BuildLinkIndexFor 只为给定 UID 构建索引，用于单页合并
	BuildLinkIndexFor(ctx context.Context, uids []string) (LinkIndex, error)

	// GetByFirebaseUID 未关联时返回 NotFound
	GetByFirebaseUID(ctx context.Context, uid string) (*entities.UserLink, error)

	// Unlink 删除本地用户的关联
	Unlink(ctx context.Context, localUserID uint) error

	// FindDuplicates 报告同一本地用户的重复关联
	FindDuplicates(ctx context.Context) ([]vo.DuplicateLink, error)
}

type linkTableService struct {
	linkRepo mysql.LinkRepository
	userRepo mysql.LocalUserRepository
	db       *gorm.DB
	logger   *core.ZapLogger
}

func NewLinkTableService(
	linkRepo mysql.LinkRepository,
	userRepo mysql.LocalUserRepository,
	db *gorm.DB,
	logger *core.ZapLogger,
) LinkTableService {
	return &linkTableService{linkRepo: linkRepo, userRepo: userRepo, db: db, logger: logger}
}

func (s *linkTableService) UpdateForUser(ctx context.Context, localUserID uint, update dto.LinkUpdate) (*entities.UserLink, error) {
	const operation = "LinkTableService.UpdateForUser"

	if update.FirebaseUID != nil {
		trimmed := strings.TrimSpace(*update.FirebaseUID)
		update.FirebaseUID = &trimmed
	}

	if _, err := s.userRepo.GetByID(ctx, localUserID); err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.NotFound("本地用户不存在")
		}
		return nil, apperrors.Application("查询本地用户失败", err)
	}

	var (
		result    *entities.UserLink
		attempted bool
	)
	op := func() error {
		if attempted {
			s.logger.Warn("关联写入遇到唯一约束冲突，重新读取后重试",
				zap.String("operation", operation),
				zap.Uint("localUserID", localUserID),
			)
			dependencies.LinkOperations.WithLabelValues("race_recovered", "retry").Inc()
		}
		attempted = true

		link, err := s.upsertOnce(ctx, localUserID, update)
		if err != nil {
			return utils.NormalizeDuplicateError(err)
		}
		result = link
		return nil
	}

	err := utils.RetryOperationForErrors(ctx, raceRetryWait, 1, []error{gorm.ErrDuplicatedKey}, op)
	if err != nil {
		dependencies.LinkOperations.WithLabelValues("upsert", "error").Inc()
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.logger.Error("写入关联失败",
			zap.String("operation", operation),
			zap.Uint("localUserID", localUserID),
			zap.Error(err),
		)
		return nil, apperrors.Application("写入关联失败", err)
	}
	return result, nil
}

// upsertOnce 一次读取-写入，插入冲突原样返回由调用方决定是否重试
func (s *linkTableService) upsertOnce(ctx context.Context, localUserID uint, update dto.LinkUpdate) (*entities.UserLink, error) {
	existing, err := s.linkRepo.GetByLocalUserID(ctx, localUserID)
	switch {
	case err == nil:
		return s.applyUpdate(ctx, existing, update)
	case !errors.Is(err, commonerrors.ErrRepoNotFound):
		return nil, err
	}

	if update.FirebaseUID == nil || *update.FirebaseUID == "" {
		return nil, apperrors.Validation("首次建立关联必须提供 firebaseUID")
	}
	uid := *update.FirebaseUID

	if err := s.ensureUIDFree(ctx, uid, localUserID); err != nil {
		return nil, err
	}

	link := &entities.UserLink{LocalUserID: &localUserID, FirebaseUID: uid, AppleEmail: nonEmpty(update.AppleEmail)}
	if err := s.linkRepo.Create(ctx, s.db, link); err != nil {
		return nil, err
	}
	dependencies.LinkOperations.WithLabelValues("created", "ok").Inc()
	return link, nil
}

func (s *linkTableService) applyUpdate(ctx context.Context, link *entities.UserLink, update dto.LinkUpdate) (*entities.UserLink, error) {
	fields := map[string]any{}
	if update.FirebaseUID != nil && *update.FirebaseUID != "" && *update.FirebaseUID != link.FirebaseUID {
		if err := s.ensureUIDFree(ctx, *update.FirebaseUID, *link.LocalUserID); err != nil {
			return nil, err
		}
		fields["firebase_uid"] = *update.FirebaseUID
		link.FirebaseUID = *update.FirebaseUID
	}
	if update.AppleEmail != nil {
		link.AppleEmail = nonEmpty(update.AppleEmail)
		fields["apple_email"] = link.AppleEmail
	}
	if len(fields) == 0 {
		return link, nil
	}
	if err := s.linkRepo.UpdateFields(ctx, s.db, link.ID, fields); err != nil {
		return nil, err
	}
	dependencies.LinkOperations.WithLabelValues("updated", "ok").Inc()
	return link, nil
}

// ensureUIDFree UID 已关联到其他本地用户时返回校验错误
func (s *linkTableService) ensureUIDFree(ctx context.Context, uid string, localUserID uint) error {
	other, err := s.linkRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil
		}
		return err
	}
	if other.LocalUserID != nil && *other.LocalUserID == localUserID {
		return nil
	}
	return apperrors.Validationf("firebaseUID %s 已关联到其他本地用户", uid)
}

func (s *linkTableService) BuildLinkIndex(ctx context.Context) (LinkIndex, error) {
	links, err := s.linkRepo.ListWithUsers(ctx)
	if err != nil {
		return nil, apperrors.Application("加载关联表失败", err)
	}
	return s.indexOf(links), nil
}

func (s *linkTableService) BuildLinkIndexFor(ctx context.Context, uids []string) (LinkIndex, error) {
	links, err := s.linkRepo.ListByFirebaseUIDs(ctx, uids)
	if err != nil {
		return nil, apperrors.Application("加载关联表失败", err)
	}
	return s.indexOf(links), nil
}

func (s *linkTableService) indexOf(links []entities.UserLink) LinkIndex {
	const operation = "LinkTableService.BuildLinkIndex"
	index := make(LinkIndex, len(links))
	for _, l := range links {
		if l.LocalUser == nil {
			s.logger.Warn("关联记录的本地用户不存在，已跳过",
				zap.String("operation", operation),
				zap.Uint("linkID", l.ID),
				zap.String("firebaseUID", l.FirebaseUID),
			)
			continue
		}
		entry := LinkedUser{LocalUser: *l.LocalUser, FirebaseUID: l.FirebaseUID}
		if l.AppleEmail != nil {
			entry.AppleEmail = *l.AppleEmail
		}
		index[l.FirebaseUID] = entry
	}
	return index
}

func (s *linkTableService) GetByFirebaseUID(ctx context.Context, uid string) (*entities.UserLink, error) {
	link, err := s.linkRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.NotFound("关联不存在")
		}
		return nil, apperrors.Application("查询关联失败", err)
	}
	return link, nil
}

func (s *linkTableService) Unlink(ctx context.Context, localUserID uint) error {
	const operation = "LinkTableService.Unlink"
	n, err := s.linkRepo.DeleteByLocalUserID(ctx, localUserID)
	if err != nil {
		return apperrors.Application("删除关联失败", err)
	}
	if n == 0 {
		return apperrors.NotFound("关联不存在")
	}
	dependencies.LinkOperations.WithLabelValues("removed", "ok").Inc()
	s.logger.Info("已删除关联",
		zap.String("operation", operation),
		zap.Uint("localUserID", localUserID),
		zap.Int64("rows", n),
	)
	return nil
}

func (s *linkTableService) FindDuplicates(ctx context.Context) ([]vo.DuplicateLink, error) {
	dups, err := s.linkRepo.FindDuplicates(ctx)
	if err != nil {
		return nil, apperrors.Application("查询重复关联失败", err)
	}
	if dups == nil {
		dups = []vo.DuplicateLink{}
	}
	return dups, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
