package reconcile

import (
	"context"
	"strconv"
	"strings"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/utils"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

func (s *reconcileService) ListUsers(ctx context.Context, query dto.ListUsersQuery) (*vo.UserListResult, error) {
	page, pageSize := query.Page, query.PageSize
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	term := strings.TrimSpace(query.Search)

	if term != "" {
		if view, ok := s.exactMatch(ctx, term); ok {
			dependencies.ListStrategy.WithLabelValues("exact").Inc()
			return &vo.UserListResult{
				Data: []vo.MergedUserView{*view},
				Meta: vo.ListMeta{Pagination: vo.Pagination{Page: 1, PageSize: pageSize, Total: 1, PageCount: 1}},
			}, nil
		}
	}

	spec, sorted := ParseSort(query.Sort)
	if sorted && !SortableField(spec.Field) {
		return nil, apperrors.Validationf("不支持按字段 %q 排序", spec.Field)
	}
	if term != "" || sorted {
		dependencies.ListStrategy.WithLabelValues("full").Inc()
		return s.listAll(ctx, page, pageSize, term, spec, sorted)
	}
	dependencies.ListStrategy.WithLabelValues("page").Inc()
	return s.listPage(ctx, page, pageSize, query.PageToken, query.Page > 0)
}

// exactMatch 按配置顺序尝试精确查找，首个命中即返回；查找失败不算错误，回落到全量搜索
func (s *reconcileService) exactMatch(ctx context.Context, term string) (*vo.MergedUserView, bool) {
	const operation = "ReconcileService.exactMatch"
	for _, kind := range s.order {
		var (
			record *dto.IdentityRecord
			err    error
		)
		switch kind {
		case enums.ExactMatchPhone:
			if !utils.LooksLikePhone(term) {
				continue
			}
			record, err = s.provider.GetUserByPhoneNumber(ctx, utils.NormalizePhone(term))
		case enums.ExactMatchEmail:
			if !utils.LooksLikeEmail(term) {
				continue
			}
			record, err = s.provider.GetUserByEmail(ctx, term)
		case enums.ExactMatchUID:
			if !utils.LooksLikeUID(term) {
				continue
			}
			record, err = s.provider.GetUser(ctx, term)
		case enums.ExactMatchLocalID:
			if !utils.LooksLikeLocalID(term) {
				continue
			}
			record, err = s.recordByLocalID(ctx, term)
		}
		if err != nil {
			s.logger.Debug("精确查找未命中，尝试下一种方式",
				zap.String("operation", operation),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}

		index, err := s.links.BuildLinkIndexFor(ctx, []string{record.UID})
		if err != nil {
			s.logger.Warn("精确查找加载关联失败",
				zap.String("operation", operation),
				zap.String("uid", record.UID),
				zap.Error(err),
			)
			continue
		}
		views := MergeUsers([]dto.IdentityRecord{*record}, index)
		return &views[0], true
	}
	return nil, false
}

func (s *reconcileService) recordByLocalID(ctx context.Context, term string) (*dto.IdentityRecord, error) {
	id, err := strconv.ParseUint(term, 10, 32)
	if err != nil {
		return nil, err
	}
	link, err := s.linkRepo.GetByLocalUserID(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	return s.provider.GetUser(ctx, link.FirebaseUID)
}

// listAll 全量拉取后在内存中过滤、排序、切页；拉取完成前不开始合并
func (s *reconcileService) listAll(ctx context.Context, page, pageSize int, term string, spec SortSpec, sorted bool) (*vo.UserListResult, error) {
	var (
		records []dto.IdentityRecord
		index   linktable.LinkIndex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = dependencies.ListAllUsers(gctx, s.provider, s.cfg.ProviderPageSize)
		if err != nil {
			return providerError(err, "拉取身份提供方用户失败")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		index, err = s.links.BuildLinkIndex(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := FilterUsers(MergeUsers(records, index), term)
	if sorted {
		SortUsers(views, spec)
	}

	total := len(views)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return &vo.UserListResult{
		Data: views[start:end],
		Meta: vo.ListMeta{Pagination: vo.Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			PageCount: (total + pageSize - 1) / pageSize,
		}},
	}, nil
}

// listPage 只取一页。没有续页令牌时用缓存的页码游标；缓存缺失则从第一页顺序翻到目标页。
// 调用方只给令牌不给页码时无法确定页码，不写游标缓存。
func (s *reconcileService) listPage(ctx context.Context, page, pageSize int, pageToken string, explicitPage bool) (*vo.UserListResult, error) {
	cacheable := pageToken == "" || explicitPage
	if pageToken == "" && page > 1 {
		token, walked, err := s.cursorFor(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		if token == "" {
			// 目标页超出末页，报告翻页途中实际数到的数量
			return &vo.UserListResult{
				Data: []vo.MergedUserView{},
				Meta: vo.ListMeta{Pagination: vo.Pagination{Page: page, PageSize: pageSize, Total: walked, PageCount: (walked + pageSize - 1) / pageSize}},
			}, nil
		}
		pageToken = token
	}

	result, err := s.provider.ListUsers(ctx, pageSize, pageToken)
	if err != nil {
		return nil, providerError(err, "拉取身份提供方用户失败")
	}
	if result.PageToken != "" && cacheable {
		s.cursors.Set(cursorKey{pageSize: pageSize, page: page + 1}, result.PageToken, ttlcache.DefaultTTL)
	}

	uids := make([]string, len(result.Users))
	for i, u := range result.Users {
		uids[i] = u.UID
	}
	index, err := s.links.BuildLinkIndexFor(ctx, uids)
	if err != nil {
		return nil, err
	}

	// 总数未知：报告已知数量，有下一页时页数加一
	total := (page-1)*pageSize + len(result.Users)
	pageCount := page
	if result.PageToken != "" {
		pageCount = page + 1
	}
	return &vo.UserListResult{
		Data:      MergeUsers(result.Users, index),
		PageToken: result.PageToken,
		Meta:      vo.ListMeta{Pagination: vo.Pagination{Page: page, PageSize: pageSize, Total: total, PageCount: pageCount}},
	}, nil
}

// cursorFor 返回目标页的续页令牌；空串表示目标页不存在，此时 walked 为翻到末页时的用户总数
func (s *reconcileService) cursorFor(ctx context.Context, page, pageSize int) (token string, walked int, err error) {
	if item := s.cursors.Get(cursorKey{pageSize: pageSize, page: page}); item != nil {
		return item.Value(), 0, nil
	}
	for p := 1; p < page; p++ {
		if item := s.cursors.Get(cursorKey{pageSize: pageSize, page: p + 1}); item != nil {
			token = item.Value()
			continue
		}
		result, err := s.provider.ListUsers(ctx, pageSize, token)
		if err != nil {
			return "", 0, providerError(err, "拉取身份提供方用户失败")
		}
		if result.PageToken == "" {
			return "", (p-1)*pageSize + len(result.Users), nil
		}
		token = result.PageToken
		s.cursors.Set(cursorKey{pageSize: pageSize, page: p + 1}, token, ttlcache.DefaultTTL)
	}
	return token, 0, nil
}
