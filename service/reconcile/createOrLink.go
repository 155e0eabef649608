package reconcile

import (
	"context"
	"errors"
	"strings"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/utils"
)

func (s *reconcileService) CreateOrLinkUser(ctx context.Context, identity dto.DecodedIdentity) (*entities.LocalUser, error) {
	identity.UID = strings.TrimSpace(identity.UID)
	if identity.UID == "" {
		return nil, apperrors.Validation("身份信息缺少 uid")
	}
	// 同一进程内同一 UID 的并发首次登录合并为一次；共享调用脱离首个调用方的取消，另设超时
	v, err, _ := s.firstLogin.Do(identity.UID, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FirstLoginTimeout)
		defer cancel()
		return s.createOrLink(sharedCtx, identity)
	})
	if err != nil {
		return nil, err
	}
	user := *v.(*entities.LocalUser)
	return &user, nil
}

func (s *reconcileService) createOrLink(ctx context.Context, identity dto.DecodedIdentity) (*entities.LocalUser, error) {
	const operation = "ReconcileService.CreateOrLinkUser"

	// 1. 已关联
	user, orphan, err := s.linkedUser(ctx, identity.UID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// 2. 尚未关联的历史账号：按邮箱 (含中继副邮箱) 或手机号匹配，补建关联
	if orphan == nil {
		legacy, err := s.findLegacyUser(ctx, identity)
		if err != nil {
			return nil, err
		}
		if legacy != nil {
			if err := s.linkLegacy(ctx, legacy, identity); err != nil {
				// 并发请求可能已为该 UID 建立关联
				if linked, _, lookupErr := s.linkedUser(ctx, identity.UID); lookupErr == nil && linked != nil {
					return linked, nil
				}
				return nil, err
			}
			s.logger.Info("历史账号已补建关联",
				zap.String("operation", operation),
				zap.String("uid", identity.UID),
				zap.Uint("localUserID", legacy.ID),
			)
			return legacy, nil
		}
	}

	// 3. 新建本地用户
	return s.createLocalUser(ctx, identity, orphan)
}

// linkedUser 返回已关联的本地用户；关联存在但本地用户缺失时返回该孤立关联
func (s *reconcileService) linkedUser(ctx context.Context, uid string) (*entities.LocalUser, *entities.UserLink, error) {
	link, err := s.linkRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.Application("查询关联失败", err)
	}
	if link.LocalUser == nil {
		s.logger.Warn("关联记录的本地用户不存在，将重新建档",
			zap.String("operation", "ReconcileService.linkedUser"),
			zap.String("uid", uid),
			zap.Uint("linkID", link.ID),
		)
		return nil, link, nil
	}
	return link.LocalUser, nil, nil
}

func (s *reconcileService) findLegacyUser(ctx context.Context, identity dto.DecodedIdentity) (*entities.LocalUser, error) {
	candidates := make([]*entities.LocalUser, 0, 2)

	if identity.Email != "" {
		u, err := s.userRepo.GetByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			candidates = append(candidates, u)
		case !errors.Is(err, commonerrors.ErrRepoNotFound):
			return nil, apperrors.Application("按邮箱查询本地用户失败", err)
		}
		link, err := s.linkRepo.GetByAppleEmail(ctx, identity.Email)
		switch {
		case err == nil && link.LocalUser != nil:
			candidates = append(candidates, link.LocalUser)
		case err != nil && !errors.Is(err, commonerrors.ErrRepoNotFound):
			return nil, apperrors.Application("按副邮箱查询关联失败", err)
		}
	}
	if identity.PhoneNumber != "" {
		u, err := s.userRepo.GetByPhone(ctx, utils.NormalizePhone(identity.PhoneNumber))
		switch {
		case err == nil:
			candidates = append(candidates, u)
		case !errors.Is(err, commonerrors.ErrRepoNotFound):
			return nil, apperrors.Application("按手机号查询本地用户失败", err)
		}
	}

	for _, c := range candidates {
		existing, err := s.linkRepo.GetByLocalUserID(ctx, c.ID)
		if err == nil && existing.FirebaseUID != identity.UID {
			// 已属于另一个身份，不能改绑
			s.logger.Warn("匹配到的本地用户已关联其他 UID，跳过",
				zap.String("uid", identity.UID),
				zap.Uint("localUserID", c.ID),
			)
			continue
		}
		if err != nil && !errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.Application("查询关联失败", err)
		}
		return c, nil
	}
	return nil, nil
}

func (s *reconcileService) linkLegacy(ctx context.Context, user *entities.LocalUser, identity dto.DecodedIdentity) error {
	update := dto.LinkUpdate{FirebaseUID: &identity.UID}
	if s.isRelayEmail(identity.Email) {
		update.AppleEmail = &identity.Email
	}
	if _, err := s.links.UpdateForUser(ctx, user.ID, update); err != nil {
		return err
	}
	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: identity.UID,
		Action:      constants.ActionLinkCreated,
		ActorType:   "system",
		Details:     map[string]any{"localUserId": user.ID, "via": "legacy_match"},
	})
	return nil
}

func (s *reconcileService) createLocalUser(ctx context.Context, identity dto.DecodedIdentity, orphan *entities.UserLink) (*entities.LocalUser, error) {
	const operation = "ReconcileService.createLocalUser"

	phone := ""
	if identity.PhoneNumber != "" {
		phone = utils.NormalizePhone(identity.PhoneNumber)
	}
	var email, appleEmail *string
	if identity.Email != "" {
		e := strings.TrimSpace(identity.Email)
		if s.isRelayEmail(e) {
			appleEmail = &e
		} else {
			email = &e
		}
	}

	if email != nil {
		taken, err := s.userRepo.ExistsByEmail(ctx, *email)
		if err != nil {
			return nil, apperrors.Application("检查邮箱失败", err)
		}
		if taken {
			// 邮箱属于已关联其他身份的本地用户
			s.logger.Warn("邮箱已被其他本地用户占用，新用户不设置主邮箱",
				zap.String("operation", operation),
				zap.String("uid", identity.UID),
			)
			email = nil
		}
	}

	username, err := s.generateUsername(ctx, identity, phone)
	if err != nil {
		return nil, err
	}
	if email == nil && s.cfg.RequireEmail {
		placeholder, err := s.generatePlaceholderEmail(ctx, identity, phone)
		if err != nil {
			return nil, err
		}
		email = &placeholder
	}

	password, err := utils.RandomPasswordHash()
	if err != nil {
		return nil, apperrors.Application("生成随机密码失败", err)
	}

	firstName, lastName := splitName(identity.Name)
	user := &entities.LocalUser{
		DocumentID: uuid.NewString(),
		Username:   username,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Password:   password,
		Provider:   constants.LocalUserProvider,
		RoleType:   s.cfg.DefaultRole,
		Confirmed:  true,
	}
	if phone != "" {
		user.PhoneNumber = &phone
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		if orphan != nil {
			return s.linkRepo.UpdateFields(ctx, tx, orphan.ID, map[string]any{"local_user_id": user.ID, "apple_email": appleEmail})
		}
		return s.linkRepo.Create(ctx, tx, &entities.UserLink{LocalUserID: &user.ID, FirebaseUID: identity.UID, AppleEmail: appleEmail})
	})
	if err != nil {
		if utils.IsDuplicateError(err) {
			// 另一个实例抢先建档：以已存在的关联为准
			if existing, _, lookupErr := s.linkedUser(ctx, identity.UID); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		// 身份提供方的账号保留，本地记录可重试修复
		s.logger.Error("创建本地用户失败",
			zap.String("operation", operation),
			zap.String("uid", identity.UID),
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, apperrors.Application("创建本地用户失败", err)
	}

	s.logger.Info("已为身份创建本地用户",
		zap.String("operation", operation),
		zap.String("uid", identity.UID),
		zap.Uint("localUserID", user.ID),
		zap.String("username", username),
	)
	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: identity.UID,
		Action:      constants.ActionUserCreated,
		ActorType:   "system",
		Details:     map[string]any{"localUserId": user.ID, "username": username},
	})
	return user, nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
