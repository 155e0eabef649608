package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/models/entities"
)

// LocalUserRepository 定义了本地 (CMS) 用户表的数据访问接口。
// - 写操作接收 db 参数，便于参与外部事务。
type LocalUserRepository interface {
	// Create 持久化一个新的本地用户。
	// - 用户名或邮箱冲突时返回包装了 gorm.ErrDuplicatedKey 的错误。
	Create(ctx context.Context, db *gorm.DB, user *entities.LocalUser) error

	// GetByID 根据本地数字 ID 查询，未找到返回 commonerrors.ErrRepoNotFound。
	GetByID(ctx context.Context, id uint) (*entities.LocalUser, error)

	// GetByEmail 邮箱精确匹配 (大小写不敏感)，未找到返回 commonerrors.ErrRepoNotFound。
	GetByEmail(ctx context.Context, email string) (*entities.LocalUser, error)

	// GetByPhone 手机号精确匹配，未找到返回 commonerrors.ErrRepoNotFound。
	GetByPhone(ctx context.Context, phone string) (*entities.LocalUser, error)

	// ExistsByUsername / ExistsByEmail 供生成用户名、占位邮箱时检查冲突。
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListWithContact 返回邮箱或手机号非空的全部本地用户，供自动关联使用。
	ListWithContact(ctx context.Context) ([]entities.LocalUser, error)

	// Updates 按 ID 更新指定列，fields 的键为列名。
	Updates(ctx context.Context, id uint, fields map[string]any) error

	// Delete 删除本地用户及其关联记录，二者在同一事务中完成。
	// - 用户不存在时返回 commonerrors.ErrRepoNotFound。
	Delete(ctx context.Context, id uint) error
}

// localUserRepository 是 LocalUserRepository 基于 GORM 的实现。
type localUserRepository struct {
	db *gorm.DB
}

// NewLocalUserRepository 创建一个新的 localUserRepository 实例。
func NewLocalUserRepository(db *gorm.DB) LocalUserRepository {
	return &localUserRepository{db: db}
}

func (r *localUserRepository) Create(ctx context.Context, db *gorm.DB, user *entities.LocalUser) error {
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("localUserRepo.Create: 创建本地用户失败 (Username: %s): %w", user.Username, err)
	}
	return nil
}

func (r *localUserRepository) GetByID(ctx context.Context, id uint) (*entities.LocalUser, error) {
	var user entities.LocalUser
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("localUserRepo.GetByID: 查询本地用户失败 (ID: %d): %w", id, err)
	}
	return &user, nil
}

func (r *localUserRepository) GetByEmail(ctx context.Context, email string) (*entities.LocalUser, error) {
	var user entities.LocalUser
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("localUserRepo.GetByEmail: 按邮箱查询本地用户失败: %w", err)
	}
	return &user, nil
}

func (r *localUserRepository) GetByPhone(ctx context.Context, phone string) (*entities.LocalUser, error) {
	var user entities.LocalUser
	err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("localUserRepo.GetByPhone: 按手机号查询本地用户失败: %w", err)
	}
	return &user, nil
}

func (r *localUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.LocalUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("localUserRepo.ExistsByUsername: 检查用户名失败: %w", err)
	}
	return count > 0, nil
}

func (r *localUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.LocalUser{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("localUserRepo.ExistsByEmail: 检查邮箱失败: %w", err)
	}
	return count > 0, nil
}

func (r *localUserRepository) ListWithContact(ctx context.Context) ([]entities.LocalUser, error) {
	var users []entities.LocalUser
	err := r.db.WithContext(ctx).
		Where("(email IS NOT NULL AND email <> '') OR (phone_number IS NOT NULL AND phone_number <> '')").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("localUserRepo.ListWithContact: 查询本地用户失败: %w", err)
	}
	return users, nil
}

func (r *localUserRepository) Updates(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entities.LocalUser{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("localUserRepo.Updates: 更新本地用户失败 (ID: %d): %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *localUserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键级联在 SQLite 等驱动上可能未开启，显式删除关联记录
		if err := tx.Where("local_user_id = ?", id).Delete(&entities.UserLink{}).Error; err != nil {
			return fmt.Errorf("localUserRepo.Delete: 删除关联记录失败 (ID: %d): %w", id, err)
		}
		result := tx.Delete(&entities.LocalUser{}, id)
		if result.Error != nil {
			return fmt.Errorf("localUserRepo.Delete: 删除本地用户失败 (ID: %d): %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return commonerrors.ErrRepoNotFound
		}
		return nil
	})
}
