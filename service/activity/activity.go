// Package activity 审计日志：请求路径只入队，由后台 worker 批量落库。
package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
)

const (
	defaultQueueSize = 1024
	maxBatch         = 64
	writeTimeout     = 5 * time.Second
)

// Recorder 只负责入队，永不阻塞也不返回错误
type Recorder interface {
	Record(entry dto.ActivityEntry)
}

// NopRecorder 丢弃全部条目
type NopRecorder struct{}

func (NopRecorder) Record(dto.ActivityEntry) {}

// ActivityService 审计日志的写入、查询与过期清理
type ActivityService interface {
	Recorder

	// List 按时间倒序分页查询
	List(ctx context.Context, query dto.ActivityQuery) (*vo.ActivityList, error)

	// Cleanup 删除早于 retentionDays 天的记录，配置了归档时先上传到 COS；返回删除条数
	Cleanup(ctx context.Context, retentionDays int) (int64, error)

	// RunCleanupLoop 按 interval 周期清理，直到 ctx 结束
	RunCleanupLoop(ctx context.Context, interval time.Duration, retentionDays int)

	// Close 停止接收新条目并等待队列中的条目写完
	Close(ctx context.Context) error
}

type activityService struct {
	repo    mysql.ActivityRepository
	archive dependencies.ArchiveStore // 可为 nil
	logger  *core.ZapLogger

	mu     sync.RWMutex
	closed bool
	queue  chan entities.ActivityLog
	done   chan struct{}
}

// NewActivityService 创建服务并启动后台写入 worker
func NewActivityService(repo mysql.ActivityRepository, archive dependencies.ArchiveStore, queueSize int, logger *core.ZapLogger) ActivityService {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	s := &activityService{
		repo:    repo,
		archive: archive,
		logger:  logger,
		queue:   make(chan entities.ActivityLog, queueSize),
		done:    make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *activityService) Record(entry dto.ActivityEntry) {
	log := entities.ActivityLog{
		FirebaseUID: entry.FirebaseUID,
		Action:      entry.Action,
		ActorType:   entry.ActorType,
		ActorID:     entry.ActorID,
		IP:          entry.IP,
		UserAgent:   entry.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}
	if len(entry.Details) > 0 {
		if b, err := json.Marshal(entry.Details); err == nil {
			log.Details = string(b)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(log, "closed")
		return
	}
	select {
	case s.queue <- log:
	default:
		s.drop(log, "queue_full")
	}
}

func (s *activityService) drop(log entities.ActivityLog, reason string) {
	dependencies.ActivityDropped.Inc()
	s.logger.Warn("审计日志被丢弃",
		zap.String("reason", reason),
		zap.String("action", log.Action),
		zap.String("firebaseUID", log.FirebaseUID),
	)
}

func (s *activityService) worker() {
	defer close(s.done)
	batch := make([]entities.ActivityLog, 0, maxBatch)
	for first := range s.queue {
		batch = append(batch[:0], first)
	fill:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-s.queue:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		s.flush(batch)
	}
}

func (s *activityService) flush(batch []entities.ActivityLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("审计日志写入失败",
			zap.String("operation", "ActivityService.flush"),
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
	}
}

func (s *activityService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *activityService) List(ctx context.Context, query dto.ActivityQuery) (*vo.ActivityList, error) {
	page, size := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	logs, total, err := s.repo.List(ctx, mysql.ActivityFilter{
		FirebaseUID: query.FirebaseUID,
		Action:      query.Action,
		Offset:      (page - 1) * size,
		Limit:       size,
	})
	if err != nil {
		return nil, apperrors.Application("查询审计日志失败", err)
	}
	if logs == nil {
		logs = []entities.ActivityLog{}
	}
	return &vo.ActivityList{Data: logs, Total: total}, nil
}
