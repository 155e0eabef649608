package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
)

// LinkRepository 定义了关联表 (user_links) 的数据访问接口。
// - 关联表是本地用户与身份提供方 UID 对应关系的唯一事实来源。
type LinkRepository interface {
	// GetByFirebaseUID 按身份提供方 UID 查询关联，并预加载本地用户。
	// - 未找到返回 commonerrors.ErrRepoNotFound。
	GetByFirebaseUID(ctx context.Context, uid string) (*entities.UserLink, error)

	// GetByLocalUserID 按本地用户 ID 查询关联。
	// - 唯一索引建立前可能存在重复记录，此时返回 ID 最小的一条。
	GetByLocalUserID(ctx context.Context, localUserID uint) (*entities.UserLink, error)

	// GetByAppleEmail 按中继副邮箱 (大小写不敏感) 查询关联，并预加载本地用户。
	GetByAppleEmail(ctx context.Context, email string) (*entities.UserLink, error)

	// Create 插入关联记录；违反唯一约束时返回包装了 gorm.ErrDuplicatedKey 的错误。
	Create(ctx context.Context, db *gorm.DB, link *entities.UserLink) error

	// UpdateFields 按关联 ID 更新 firebase_uid / apple_email。
	UpdateFields(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error

	// DeleteByLocalUserID 删除本地用户的全部关联，返回删除条数。
	DeleteByLocalUserID(ctx context.Context, localUserID uint) (int64, error)

	// ListWithUsers 返回全部关联记录并预加载本地用户；本地用户不存在时 LocalUser 为 nil。
	ListWithUsers(ctx context.Context) ([]entities.UserLink, error)

	// ListByFirebaseUIDs 只加载给定 UID 的关联，预加载本地用户。
	ListByFirebaseUIDs(ctx context.Context, uids []string) ([]entities.UserLink, error)

	// FindDuplicates 查找同一本地用户存在多条关联的情况。
	FindDuplicates(ctx context.Context) ([]vo.DuplicateLink, error)
}

// linkRepository 是 LinkRepository 基于 GORM 的实现。
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository 创建一个新的 linkRepository 实例。
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) GetByFirebaseUID(ctx context.Context, uid string) (*entities.UserLink, error) {
	var link entities.UserLink
	err := r.db.WithContext(ctx).Preload("LocalUser").Where("firebase_uid = ?", uid).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("linkRepo.GetByFirebaseUID: 查询关联失败 (UID: %s): %w", uid, err)
	}
	return &link, nil
}

func (r *linkRepository) GetByLocalUserID(ctx context.Context, localUserID uint) (*entities.UserLink, error) {
	var link entities.UserLink
	err := r.db.WithContext(ctx).Where("local_user_id = ?", localUserID).Order("id ASC").First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("linkRepo.GetByLocalUserID: 查询关联失败 (LocalUserID: %d): %w", localUserID, err)
	}
	return &link, nil
}

func (r *linkRepository) GetByAppleEmail(ctx context.Context, email string) (*entities.UserLink, error) {
	var link entities.UserLink
	err := r.db.WithContext(ctx).Preload("LocalUser").
		Where("LOWER(apple_email) = ?", strings.ToLower(email)).
		Order("id ASC").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("linkRepo.GetByAppleEmail: 按副邮箱查询关联失败: %w", err)
	}
	return &link, nil
}

func (r *linkRepository) Create(ctx context.Context, db *gorm.DB, link *entities.UserLink) error {
	if err := db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("linkRepo.Create: 创建关联失败 (UID: %s): %w", link.FirebaseUID, err)
	}
	return nil
}

func (r *linkRepository) UpdateFields(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Model(&entities.UserLink{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("linkRepo.UpdateFields: 更新关联失败 (ID: %d): %w", id, err)
	}
	return nil
}

func (r *linkRepository) DeleteByLocalUserID(ctx context.Context, localUserID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("local_user_id = ?", localUserID).Delete(&entities.UserLink{})
	if result.Error != nil {
		return 0, fmt.Errorf("linkRepo.DeleteByLocalUserID: 删除关联失败 (LocalUserID: %d): %w", localUserID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *linkRepository) ListWithUsers(ctx context.Context) ([]entities.UserLink, error) {
	var links []entities.UserLink
	if err := r.db.WithContext(ctx).Preload("LocalUser").Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("linkRepo.ListWithUsers: 查询关联列表失败: %w", err)
	}
	return links, nil
}

func (r *linkRepository) ListByFirebaseUIDs(ctx context.Context, uids []string) ([]entities.UserLink, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	var links []entities.UserLink
	if err := r.db.WithContext(ctx).Preload("LocalUser").Where("firebase_uid IN ?", uids).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("linkRepo.ListByFirebaseUIDs: 查询关联失败 (%d 个 UID): %w", len(uids), err)
	}
	return links, nil
}

func (r *linkRepository) FindDuplicates(ctx context.Context) ([]vo.DuplicateLink, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.UserLink{}).
		Where("local_user_id IS NOT NULL").
		Group("local_user_id").
		Having("COUNT(*) > 1").
		Order("local_user_id ASC").
		Pluck("local_user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("linkRepo.FindDuplicates: 统计重复关联失败: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var links []entities.UserLink
	if err := r.db.WithContext(ctx).Where("local_user_id IN ?", ids).Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("linkRepo.FindDuplicates: 查询重复关联失败: %w", err)
	}

	byUser := make(map[uint][]string, len(ids))
	for _, l := range links {
		byUser[*l.LocalUserID] = append(byUser[*l.LocalUserID], l.FirebaseUID)
	}
	out := make([]vo.DuplicateLink, 0, len(ids))
	for _, id := range ids {
		out = append(out, vo.DuplicateLink{LocalUserID: id, FirebaseUIDs: byUser[id]})
	}
	return out, nil
}
