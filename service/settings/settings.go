// Package settings 管理加密保存的身份提供方服务账号，并在变更时切换客户端。
package settings

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/activity"
	"github.com/Xushengqwer/identity_link/utils"
)

const (
	statusCacheKey = "status"
	statusCacheTTL = time.Minute
)

type SettingsService interface {
	// SaveServiceAccount 校验并加密保存服务账号；新凭证无法初始化客户端时不落库，当前客户端保持不变
	SaveServiceAccount(ctx context.Context, rawJSON string, meta dto.RequestMeta) (*vo.SettingsStatus, error)

	// GetStatus 返回配置状态，不包含私钥
	GetStatus(ctx context.Context) (*vo.SettingsStatus, error)

	// DeleteServiceAccount 删除保存的服务账号并清空客户端
	DeleteServiceAccount(ctx context.Context, meta dto.RequestMeta) error

	// LoadOnStartup 优先使用数据库中的服务账号，其次是配置的凭证文件
	LoadOnStartup(ctx context.Context, cfg config.FirebaseConfig) error
}

type settingsService struct {
	repo     mysql.SettingsRepository
	box      *utils.SecretBox // 主密钥未配置时为 nil
	handle   *dependencies.ProviderHandle
	recorder activity.Recorder
	cache    *gocache.Cache
	logger   *core.ZapLogger
}

func NewSettingsService(
	repo mysql.SettingsRepository,
	box *utils.SecretBox,
	handle *dependencies.ProviderHandle,
	recorder activity.Recorder,
	logger *core.ZapLogger,
) SettingsService {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &settingsService{
		repo:     repo,
		box:      box,
		handle:   handle,
		recorder: recorder,
		cache:    gocache.New(statusCacheTTL, 5*time.Minute),
		logger:   logger,
	}
}

// parseServiceAccount 只做结构校验，真正可用性由客户端初始化决定
func parseServiceAccount(raw []byte) (*dto.ServiceAccount, error) {
	var sa dto.ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, apperrors.Validation("服务账号不是合法的 JSON")
	}
	if sa.Type != "service_account" {
		return nil, apperrors.Validation("服务账号 type 必须为 service_account")
	}
	if sa.ProjectID == "" || sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, apperrors.Validation("服务账号缺少 project_id、client_email 或 private_key")
	}
	if block, _ := pem.Decode([]byte(sa.PrivateKey)); block == nil {
		return nil, apperrors.Validation("服务账号 private_key 不是 PEM 格式")
	}
	return &sa, nil
}

func (s *settingsService) SaveServiceAccount(ctx context.Context, rawJSON string, meta dto.RequestMeta) (*vo.SettingsStatus, error) {
	const operation = "SettingsService.SaveServiceAccount"

	if s.box == nil {
		return nil, apperrors.Configuration("secretConfig.master_key 未配置，无法保存服务账号")
	}
	raw := []byte(strings.TrimSpace(rawJSON))
	sa, err := parseServiceAccount(raw)
	if err != nil {
		return nil, err
	}

	if err := s.handle.Reinit(ctx, raw, sa.ProjectID); err != nil {
		return nil, apperrors.Validation("服务账号无法初始化身份提供方客户端，请检查凭证")
	}

	sealed, err := s.box.Encrypt(raw)
	if err != nil {
		return nil, apperrors.Application("加密服务账号失败", err)
	}
	if err := s.repo.Upsert(ctx, constants.SettingKeyServiceAccount, sealed); err != nil {
		// 客户端已切换，但重启后会回到旧凭证
		s.logger.Error("保存服务账号失败，新凭证仅在本进程生效",
			zap.String("operation", operation),
			zap.String("projectId", sa.ProjectID),
			zap.Error(err),
		)
		return nil, apperrors.Application("保存服务账号失败", err)
	}
	s.cache.Delete(statusCacheKey)

	s.logger.Info("服务账号已更新",
		zap.String("operation", operation),
		zap.String("projectId", sa.ProjectID),
		zap.String("clientEmail", sa.ClientEmail),
	)
	s.recorder.Record(dto.ActivityEntry{
		Action:    constants.ActionSettingsUpdated,
		ActorType: "admin",
		ActorID:   meta.ActorID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"projectId": sa.ProjectID, "op": "save"},
	})
	return s.GetStatus(ctx)
}

func (s *settingsService) GetStatus(ctx context.Context) (*vo.SettingsStatus, error) {
	if cached, ok := s.cache.Get(statusCacheKey); ok {
		status := cached.(vo.SettingsStatus)
		return &status, nil
	}

	status := vo.SettingsStatus{Configured: s.handle.Configured(), ProjectID: s.handle.ProjectID()}
	setting, err := s.repo.Get(ctx, constants.SettingKeyServiceAccount)
	switch {
	case errors.Is(err, commonerrors.ErrRepoNotFound):
		// 未上传过，可能使用的是凭证文件
	case err != nil:
		return nil, apperrors.Application("查询服务账号配置失败", err)
	case s.box != nil:
		raw, err := s.box.Decrypt(setting.Value)
		if err != nil {
			return nil, apperrors.Application("解密服务账号失败", err)
		}
		if sa, err := parseServiceAccount(raw); err == nil {
			status.ProjectID = sa.ProjectID
			status.ClientEmail = sa.ClientEmail
		}
		updatedAt := setting.UpdatedAt
		status.UpdatedAt = &updatedAt
	}

	s.cache.SetDefault(statusCacheKey, status)
	return &status, nil
}

func (s *settingsService) DeleteServiceAccount(ctx context.Context, meta dto.RequestMeta) error {
	if err := s.repo.Delete(ctx, constants.SettingKeyServiceAccount); err != nil && !errors.Is(err, commonerrors.ErrRepoNotFound) {
		return apperrors.Application("删除服务账号失败", err)
	}
	s.handle.Clear()
	s.cache.Delete(statusCacheKey)

	s.recorder.Record(dto.ActivityEntry{
		Action:    constants.ActionSettingsUpdated,
		ActorType: "admin",
		ActorID:   meta.ActorID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"op": "delete"},
	})
	return nil
}

func (s *settingsService) LoadOnStartup(ctx context.Context, cfg config.FirebaseConfig) error {
	const operation = "SettingsService.LoadOnStartup"

	if s.box != nil {
		setting, err := s.repo.Get(ctx, constants.SettingKeyServiceAccount)
		switch {
		case err == nil:
			raw, err := s.box.Decrypt(setting.Value)
			if err != nil {
				s.logger.Error("解密已保存的服务账号失败，尝试凭证文件", zap.String("operation", operation), zap.Error(err))
				break
			}
			sa, err := parseServiceAccount(raw)
			if err != nil {
				s.logger.Error("已保存的服务账号格式错误，尝试凭证文件", zap.String("operation", operation), zap.Error(err))
				break
			}
			if err := s.handle.Reinit(ctx, raw, sa.ProjectID); err == nil {
				s.logger.Info("已使用数据库中的服务账号初始化身份提供方", zap.String("projectId", sa.ProjectID))
				return nil
			}
		case !errors.Is(err, commonerrors.ErrRepoNotFound):
			s.logger.Error("读取已保存的服务账号失败", zap.String("operation", operation), zap.Error(err))
		}
	}

	if cfg.CredentialsFile == "" {
		s.logger.Warn("未配置服务账号，身份提供方相关接口将不可用", zap.String("operation", operation))
		return nil
	}
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return apperrors.Configuration("无法读取 firebaseConfig.credentials_file: " + cfg.CredentialsFile)
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		if sa, err := parseServiceAccount(raw); err == nil {
			projectID = sa.ProjectID
		}
	}
	if err := s.handle.Reinit(ctx, raw, projectID); err != nil {
		return apperrors.Application("使用凭证文件初始化身份提供方失败", err)
	}
	s.logger.Info("已使用凭证文件初始化身份提供方",
		zap.String("operation", operation),
		zap.String("file", cfg.CredentialsFile),
	)
	return nil
}
