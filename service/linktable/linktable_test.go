package linktable_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/testsupport"
)

func newService(t *testing.T) (linktable.LinkTableService, *gorm.DB) {
	t.Helper()
	db := testsupport.NewDB(t)
	svc := linktable.NewLinkTableService(
		mysql.NewLinkRepository(db),
		mysql.NewLocalUserRepository(db),
		db,
		testsupport.NewLogger(t),
	)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.LocalUser {
	t.Helper()
	u := &entities.LocalUser{DocumentID: uuid.NewString(), Username: username}
	require.NoError(t, db.Create(u).Error)
	return u
}

func ptr(s string) *string { return &s }

func countLinks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entities.UserLink{}).Count(&n).Error)
	return n
}

func TestUpdateForUser_FirstLinkRequiresUID(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, "alice")

	_, err := svc.UpdateForUser(context.Background(), u.ID, dto.LinkUpdate{AppleEmail: ptr("x@privaterelay.appleid.com")})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestUpdateForUser_CreateThenUpdate(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := seedUser(t, db, "alice")

	link, err := svc.UpdateForUser(ctx, u.ID, dto.LinkUpdate{FirebaseUID: ptr("uid-1")})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", link.FirebaseUID)

	link, err = svc.UpdateForUser(ctx, u.ID, dto.LinkUpdate{AppleEmail: ptr("relay@privaterelay.appleid.com")})
	require.NoError(t, err)
	require.NotNil(t, link.AppleEmail)
	assert.Equal(t, "relay@privaterelay.appleid.com", *link.AppleEmail)
	assert.Equal(t, "uid-1", link.FirebaseUID)
	assert.EqualValues(t, 1, countLinks(t, db))
}

func TestUpdateForUser_UnknownLocalUser(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.UpdateForUser(context.Background(), 999, dto.LinkUpdate{FirebaseUID: ptr("uid-1")})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateForUser_UIDClaimedByAnotherUser(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	a := seedUser(t, db, "a")
	b := seedUser(t, db, "b")

	_, err := svc.UpdateForUser(ctx, a.ID, dto.LinkUpdate{FirebaseUID: ptr("shared")})
	require.NoError(t, err)

	_, err = svc.UpdateForUser(ctx, b.ID, dto.LinkUpdate{FirebaseUID: ptr("shared")})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.EqualValues(t, 1, countLinks(t, db))
}

func TestUpdateForUser_ConcurrentCreateYieldsOneLink(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, "racer")

	const workers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateForUser(context.Background(), u.ID, dto.LinkUpdate{FirebaseUID: ptr("race-uid")})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, countLinks(t, db))
}

// racingLinkRepo 在第一次 Create 之前抢先为同一本地用户插入一条关联，模拟并发的另一次首次登录
type racingLinkRepo struct {
	mysql.LinkRepository
	db       *gorm.DB
	competer *entities.UserLink
	creates  int
}

func (r *racingLinkRepo) Create(ctx context.Context, db *gorm.DB, link *entities.UserLink) error {
	r.creates++
	if r.competer == nil {
		r.competer = &entities.UserLink{LocalUserID: link.LocalUserID, FirebaseUID: link.FirebaseUID}
		if err := r.LinkRepository.Create(ctx, r.db, r.competer); err != nil {
			return err
		}
	}
	return r.LinkRepository.Create(ctx, db, link)
}

func TestUpdateForUser_InsertConflictRefetchesAndApplies(t *testing.T) {
	db := testsupport.NewDB(t)
	repo := &racingLinkRepo{LinkRepository: mysql.NewLinkRepository(db), db: db}
	svc := linktable.NewLinkTableService(repo, mysql.NewLocalUserRepository(db), db, testsupport.NewLogger(t))
	u := seedUser(t, db, "racer")

	link, err := svc.UpdateForUser(context.Background(), u.ID, dto.LinkUpdate{
		FirebaseUID: ptr("race-uid"),
		AppleEmail:  ptr("relay@privaterelay.appleid.com"),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.competer)
	assert.Equal(t, 1, repo.creates)
	assert.EqualValues(t, 1, countLinks(t, db))

	// 重试读到抢先写入的那条记录，并把副邮箱更新到它上面
	assert.Equal(t, repo.competer.ID, link.ID)
	var stored entities.UserLink
	require.NoError(t, db.First(&stored, repo.competer.ID).Error)
	assert.Equal(t, "race-uid", stored.FirebaseUID)
	require.NotNil(t, stored.AppleEmail)
	assert.Equal(t, "relay@privaterelay.appleid.com", *stored.AppleEmail)
}

func TestBuildLinkIndex_SkipsOrphans(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := seedUser(t, db, "kept")

	_, err := svc.UpdateForUser(ctx, u.ID, dto.LinkUpdate{FirebaseUID: ptr("uid-kept"), AppleEmail: ptr("r@privaterelay.appleid.com")})
	require.NoError(t, err)
	// 关联指向不存在的本地用户
	require.NoError(t, db.Create(&entities.UserLink{FirebaseUID: "uid-orphan"}).Error)

	index, err := svc.BuildLinkIndex(ctx)
	require.NoError(t, err)
	require.Len(t, index, 1)
	entry, ok := index["uid-kept"]
	require.True(t, ok)
	assert.Equal(t, u.ID, entry.ID)
	assert.Equal(t, "r@privaterelay.appleid.com", entry.AppleEmail)
}

func TestUnlink(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := seedUser(t, db, "bye")

	_, err := svc.UpdateForUser(ctx, u.ID, dto.LinkUpdate{FirebaseUID: ptr("uid-bye")})
	require.NoError(t, err)
	require.NoError(t, svc.Unlink(ctx, u.ID))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(svc.Unlink(ctx, u.ID)))

	_, err = svc.GetByFirebaseUID(ctx, "uid-bye")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
