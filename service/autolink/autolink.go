// Package autolink 一次性迁移任务：按邮箱/手机号为历史本地用户建立关联。
// 仅由运维入口触发，登录路径从不调用。
package autolink

import (
	"context"
	"errors"
	"strings"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/repository/redis"
	"github.com/Xushengqwer/identity_link/service/activity"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/utils"
)

const (
	matchedByEmail = "email"
	matchedByPhone = "phone"
)

// ErrAlreadyRunning 另一个进程正持有自动关联锁
var ErrAlreadyRunning = apperrors.Conflict("已有自动关联任务在运行")

type AutoLinkService interface {
	// LinkAllUsers 单个用户失败只计数，不中断整体流程
	LinkAllUsers(ctx context.Context, opts dto.AutoLinkOptions) (*vo.AutoLinkResult, error)
}

type autoLinkService struct {
	provider dependencies.IdentityProvider
	links    linktable.LinkTableService
	linkRepo mysql.LinkRepository
	userRepo mysql.LocalUserRepository
	lock     redis.JobLock // 可为 nil，此时不做跨进程互斥
	recorder activity.Recorder
	pageSize int
	logger   *core.ZapLogger
}

func NewAutoLinkService(
	provider dependencies.IdentityProvider,
	links linktable.LinkTableService,
	linkRepo mysql.LinkRepository,
	userRepo mysql.LocalUserRepository,
	lock redis.JobLock,
	recorder activity.Recorder,
	pageSize int,
	logger *core.ZapLogger,
) AutoLinkService {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &autoLinkService{
		provider: provider,
		links:    links,
		linkRepo: linkRepo,
		userRepo: userRepo,
		lock:     lock,
		recorder: recorder,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (s *autoLinkService) LinkAllUsers(ctx context.Context, opts dto.AutoLinkOptions) (*vo.AutoLinkResult, error) {
	const operation = "AutoLinkService.LinkAllUsers"

	if s.lock != nil {
		release, ok, err := s.lock.TryAcquire(ctx, constants.AutoLinkLockKey, constants.AutoLinkLockTTL)
		if err != nil {
			return nil, apperrors.Application("获取自动关联锁失败", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			// 原 ctx 可能已取消，释放锁使用独立的 ctx
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("释放自动关联锁失败", zap.String("operation", operation), zap.Error(err))
			}
		}()
	}

	var (
		locals        []entities.LocalUser
		existing      []entities.UserLink
		providerUsers []dto.IdentityRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locals, err = s.userRepo.ListWithContact(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.linkRepo.ListWithUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		providerUsers, err = dependencies.ListAllUsers(gctx, s.provider, s.pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, dependencies.ErrProviderNotConfigured) {
			return nil, apperrors.Configuration(dependencies.ErrProviderNotConfigured.Error())
		}
		return nil, apperrors.Application("加载自动关联数据失败", err)
	}

	linkedLocal := make(map[uint]struct{}, len(existing))
	linkedUID := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		if l.LocalUserID != nil {
			linkedLocal[*l.LocalUserID] = struct{}{}
		}
		linkedUID[l.FirebaseUID] = struct{}{}
	}

	byEmail := make(map[string]string, len(providerUsers))
	byPhone := make(map[string]string, len(providerUsers))
	for _, u := range providerUsers {
		if u.Email != "" {
			byEmail[strings.ToLower(u.Email)] = u.UID
		}
		if u.PhoneNumber != "" {
			byPhone[u.PhoneNumber] = u.UID
		}
	}

	result := &vo.AutoLinkResult{
		TotalLocal:    len(locals),
		TotalProvider: len(providerUsers),
		DryRun:        opts.DryRun,
	}
	for _, local := range locals {
		if _, ok := linkedLocal[local.ID]; ok {
			result.Skipped++
			continue
		}
		uid, matchedBy := match(local, byEmail, byPhone)
		if uid == "" {
			result.Skipped++
			continue
		}
		if _, taken := linkedUID[uid]; taken {
			s.logger.Debug("匹配到的 UID 已关联其他本地用户，跳过",
				zap.String("operation", operation),
				zap.Uint("localUserID", local.ID),
				zap.String("uid", uid),
			)
			result.Skipped++
			continue
		}

		if opts.DryRun {
			result.Matches = append(result.Matches, vo.AutoLinkMatch{LocalUserID: local.ID, FirebaseUID: uid, MatchedBy: matchedBy})
			// 同一 UID 只提议一次
			linkedUID[uid] = struct{}{}
			continue
		}

		if _, err := s.links.UpdateForUser(ctx, local.ID, dto.LinkUpdate{FirebaseUID: &uid}); err != nil {
			s.logger.Warn("自动关联单个用户失败",
				zap.String("operation", operation),
				zap.Uint("localUserID", local.ID),
				zap.String("uid", uid),
				zap.String("matchedBy", matchedBy),
				zap.Error(err),
			)
			result.Errors++
			continue
		}
		linkedUID[uid] = struct{}{}
		result.Linked++
		result.Matches = append(result.Matches, vo.AutoLinkMatch{LocalUserID: local.ID, FirebaseUID: uid, MatchedBy: matchedBy})
	}

	dependencies.AutoLinkResults.WithLabelValues("linked").Add(float64(result.Linked))
	dependencies.AutoLinkResults.WithLabelValues("skipped").Add(float64(result.Skipped))
	dependencies.AutoLinkResults.WithLabelValues("error").Add(float64(result.Errors))

	s.logger.Info("自动关联完成",
		zap.String("operation", operation),
		zap.Bool("dryRun", opts.DryRun),
		zap.Int("totalLocal", result.TotalLocal),
		zap.Int("totalProvider", result.TotalProvider),
		zap.Int("linked", result.Linked),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
	)
	if !opts.DryRun {
		s.recorder.Record(dto.ActivityEntry{
			Action:    constants.ActionAutoLink,
			ActorType: "system",
			Details: map[string]any{
				"linked":  result.Linked,
				"skipped": result.Skipped,
				"errors":  result.Errors,
			},
		})
	}
	return result, nil
}

// match 先按邮箱 (忽略大小写) 再按手机号
func match(local entities.LocalUser, byEmail, byPhone map[string]string) (string, string) {
	if local.Email != nil && *local.Email != "" {
		if uid, ok := byEmail[strings.ToLower(strings.TrimSpace(*local.Email))]; ok {
			return uid, matchedByEmail
		}
	}
	if local.PhoneNumber != nil && *local.PhoneNumber != "" {
		if uid, ok := byPhone[utils.NormalizePhone(*local.PhoneNumber)]; ok {
			return uid, matchedByPhone
		}
	}
	return "", ""
}
