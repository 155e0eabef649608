package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/models/entities"
)

const cleanupBatch = 500

func (s *activityService) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	const operation = "ActivityService.Cleanup"
	if retentionDays <= 0 {
		return 0, apperrors.Validation("retentionDays 必须大于 0")
	}
	before := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var total int64
	for {
		logs, err := s.repo.ListOlderThan(ctx, before, cleanupBatch)
		if err != nil {
			return total, apperrors.Application("查询过期审计日志失败", err)
		}
		if len(logs) == 0 {
			break
		}
		if s.archive != nil {
			if err := s.archiveBatch(ctx, logs); err != nil {
				// 归档失败时保留数据，下次再试
				return total, apperrors.Application("归档审计日志失败", err)
			}
		}
		ids := make([]uint, len(logs))
		for i, l := range logs {
			ids[i] = l.ID
		}
		n, err := s.repo.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, apperrors.Application("删除过期审计日志失败", err)
		}
		total += n
		if len(logs) < cleanupBatch {
			break
		}
	}

	s.logger.Info("审计日志清理完成",
		zap.String("operation", operation),
		zap.Int("retentionDays", retentionDays),
		zap.Int64("deleted", total),
	)
	return total, nil
}

// archiveBatch 以 JSON Lines 上传，对象键形如 2025/06/01/activity-12-511.jsonl
func (s *activityService) archiveBatch(ctx context.Context, logs []entities.ActivityLog) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, l := range logs {
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	first, last := logs[0], logs[len(logs)-1]
	key := fmt.Sprintf("%s/activity-%d-%d.jsonl", first.CreatedAt.UTC().Format("2006/01/02"), first.ID, last.ID)
	return s.archive.UploadObject(ctx, key, &buf, int64(buf.Len()), "application/x-ndjson")
}

func (s *activityService) RunCleanupLoop(ctx context.Context, interval time.Duration, retentionDays int) {
	if interval <= 0 || retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, retentionDays); err != nil {
				s.logger.Error("定时清理审计日志失败", zap.Error(err))
			}
		}
	}
}
