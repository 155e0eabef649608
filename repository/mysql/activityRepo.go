package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/models/entities"
)

// ActivityFilter 审计日志查询条件，空字段不参与过滤
type ActivityFilter struct {
	FirebaseUID string
	Action      string
	Offset      int
	Limit       int
}

// ActivityRepository 审计日志表的数据访问接口，只追加不修改。
type ActivityRepository interface {
	// CreateBatch 批量写入，由后台队列调用
	CreateBatch(ctx context.Context, logs []entities.ActivityLog) error
	// List 按创建时间倒序分页，同时返回满足条件的总数
	List(ctx context.Context, filter ActivityFilter) ([]entities.ActivityLog, int64, error)
	// ListOlderThan 返回早于 before 的记录，按 ID 升序，最多 limit 条
	ListOlderThan(ctx context.Context, before time.Time, limit int) ([]entities.ActivityLog, error)
	// DeleteByIDs 删除指定记录，返回删除条数
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreateBatch(ctx context.Context, logs []entities.ActivityLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(logs, 100).Error; err != nil {
		return fmt.Errorf("activityRepo.CreateBatch: 写入审计日志失败 (%d 条): %w", len(logs), err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]entities.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.ActivityLog{})
	if filter.FirebaseUID != "" {
		query = query.Where("firebase_uid = ?", filter.FirebaseUID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("activityRepo.List: 统计审计日志失败: %w", err)
	}

	var logs []entities.ActivityLog
	if err := query.Order("created_at DESC, id DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("activityRepo.List: 查询审计日志失败: %w", err)
	}
	return logs, total, nil
}

func (r *activityRepository) ListOlderThan(ctx context.Context, before time.Time, limit int) ([]entities.ActivityLog, error) {
	var logs []entities.ActivityLog
	err := r.db.WithContext(ctx).Where("created_at < ?", before).Order("id ASC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("activityRepo.ListOlderThan: 查询过期审计日志失败: %w", err)
	}
	return logs, nil
}

func (r *activityRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entities.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("activityRepo.DeleteByIDs: 删除审计日志失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
