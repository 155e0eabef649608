package autolink_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/autolink"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/testsupport"
)

// failingLinks 对指定本地用户的关联写入失败
type failingLinks struct {
	linktable.LinkTableService
	failFor uint
}

func (l *failingLinks) UpdateForUser(ctx context.Context, localUserID uint, update dto.LinkUpdate) (*entities.UserLink, error) {
	if localUserID == l.failFor {
		return nil, errors.New("write failed")
	}
	return l.LinkTableService.UpdateForUser(ctx, localUserID, update)
}

type sweepFixture struct {
	db       *gorm.DB
	provider *testsupport.MemoryProvider
	links    linktable.LinkTableService
	linkRepo mysql.LinkRepository
	userRepo mysql.LocalUserRepository
	lock     *testsupport.MemoryLock
	users    map[string]*entities.LocalUser
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	db := testsupport.NewDB(t)
	logger := testsupport.NewLogger(t)
	linkRepo := mysql.NewLinkRepository(db)
	userRepo := mysql.NewLocalUserRepository(db)
	f := &sweepFixture{
		db:       db,
		provider: testsupport.NewMemoryProvider(),
		links:    linktable.NewLinkTableService(linkRepo, userRepo, db, logger),
		linkRepo: linkRepo,
		userRepo: userRepo,
		lock:     testsupport.NewMemoryLock(),
		users:    map[string]*entities.LocalUser{},
	}

	f.provider.AddUser(dto.IdentityRecord{UID: "uid-alice", Email: "alice@x.com"})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-bob", PhoneNumber: "+15550001111"})
	f.provider.AddUser(dto.IdentityRecord{UID: "uid-c", Email: "c@x.com"})

	f.addUser(t, "alice", entities.LocalUser{Email: strPtr("Alice@X.com")})
	f.addUser(t, "bob", entities.LocalUser{PhoneNumber: strPtr("+1 555 000 1111")})
	f.addUser(t, "carol", entities.LocalUser{Email: strPtr("old-c@x.com")})
	f.addUser(t, "dave", entities.LocalUser{Email: strPtr("dave@x.com")})
	f.addUser(t, "eve", entities.LocalUser{Email: strPtr("c@x.com")})
	// 没有联系方式的用户不参与
	f.addUser(t, "nocontact", entities.LocalUser{})

	uid := "uid-c"
	_, err := f.links.UpdateForUser(context.Background(), f.users["carol"].ID, dto.LinkUpdate{FirebaseUID: &uid})
	require.NoError(t, err)
	return f
}

func (f *sweepFixture) addUser(t *testing.T, name string, u entities.LocalUser) {
	t.Helper()
	u.Username = name
	u.DocumentID = "doc-" + name
	u.RoleType = "authenticated"
	require.NoError(t, f.db.Create(&u).Error)
	f.users[name] = &u
}

func (f *sweepFixture) service(t *testing.T, links linktable.LinkTableService) autolink.AutoLinkService {
	return autolink.NewAutoLinkService(f.provider, links, f.linkRepo, f.userRepo, f.lock, nil, 2, testsupport.NewLogger(t))
}

func (f *sweepFixture) linkedUID(t *testing.T, name string) string {
	t.Helper()
	link, err := f.linkRepo.GetByLocalUserID(context.Background(), f.users[name].ID)
	if err != nil {
		return ""
	}
	return link.FirebaseUID
}

func TestLinkAllUsers_MatchesByEmailThenPhone(t *testing.T) {
	f := newSweepFixture(t)

	res, err := f.service(t, f.links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalLocal)
	assert.Equal(t, 3, res.TotalProvider)
	assert.Equal(t, 2, res.Linked)
	assert.Equal(t, 3, res.Skipped)
	assert.Zero(t, res.Errors)

	assert.Equal(t, "uid-alice", f.linkedUID(t, "alice"))
	assert.Equal(t, "uid-bob", f.linkedUID(t, "bob"))
	assert.Equal(t, "uid-c", f.linkedUID(t, "carol"))
	assert.Empty(t, f.linkedUID(t, "dave"))
	// uid-c 已属于 carol，不会被 eve 抢走
	assert.Empty(t, f.linkedUID(t, "eve"))

	// 再次运行没有新的关联
	again, err := f.service(t, f.links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{})
	require.NoError(t, err)
	assert.Zero(t, again.Linked)
	assert.Equal(t, 5, again.Skipped)
}

func TestLinkAllUsers_DryRunWritesNothing(t *testing.T) {
	f := newSweepFixture(t)

	res, err := f.service(t, f.links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Zero(t, res.Linked)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "email", res.Matches[0].MatchedBy)
	assert.Equal(t, "uid-alice", res.Matches[0].FirebaseUID)
	assert.Equal(t, "phone", res.Matches[1].MatchedBy)

	assert.Empty(t, f.linkedUID(t, "alice"))
	assert.Empty(t, f.linkedUID(t, "bob"))
}

func TestLinkAllUsers_CountsPerUserFailures(t *testing.T) {
	f := newSweepFixture(t)
	links := &failingLinks{LinkTableService: f.links, failFor: f.users["alice"].ID}

	res, err := f.service(t, links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, "uid-bob", f.linkedUID(t, "bob"))
}

func TestLinkAllUsers_RefusesConcurrentSweep(t *testing.T) {
	f := newSweepFixture(t)
	release, ok, err := f.lock.TryAcquire(context.Background(), "identity_link:lock:autolink", 0)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.service(t, f.links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{})
	assert.ErrorIs(t, err, autolink.ErrAlreadyRunning)

	require.NoError(t, release(context.Background()))
	_, err = f.service(t, f.links).LinkAllUsers(context.Background(), dto.AutoLinkOptions{})
	assert.NoError(t, err)
}

func strPtr(s string) *string { return &s }
