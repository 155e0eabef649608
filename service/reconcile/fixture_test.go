package reconcile_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/notify"
	"github.com/Xushengqwer/identity_link/service/reconcile"
	"github.com/Xushengqwer/identity_link/testsupport"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, msg)
	return "test", nil
}

type fixture struct {
	svc      reconcile.ReconcileService
	provider *testsupport.MemoryProvider
	links    linktable.LinkTableService
	db       *gorm.DB
	notifier *recordingNotifier
}

func newFixture(t *testing.T, cfg config.ReconcileConfig) *fixture {
	t.Helper()
	db := testsupport.NewDB(t)
	logger := testsupport.NewLogger(t)
	provider := testsupport.NewMemoryProvider()
	linkRepo := mysql.NewLinkRepository(db)
	userRepo := mysql.NewLocalUserRepository(db)
	links := linktable.NewLinkTableService(linkRepo, userRepo, db, logger)
	notifier := &recordingNotifier{}

	svc := reconcile.NewReconcileService(provider, links, linkRepo, userRepo, db, notifier, nil, cfg, logger)
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, provider: provider, links: links, db: db, notifier: notifier}
}

func (f *fixture) addLocalUser(t *testing.T, u entities.LocalUser) *entities.LocalUser {
	t.Helper()
	if u.DocumentID == "" {
		u.DocumentID = uuid.NewString()
	}
	if u.RoleType == "" {
		u.RoleType = "authenticated"
	}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) link(t *testing.T, localUserID uint, uid string) {
	t.Helper()
	_, err := f.links.UpdateForUser(context.Background(), localUserID, dto.LinkUpdate{FirebaseUID: &uid})
	require.NoError(t, err)
}

// seedProvider 写入 n 个身份，uid 为 user-0000 起
func (f *fixture) seedProvider(n int) {
	for i := 0; i < n; i++ {
		f.provider.AddUser(dto.IdentityRecord{
			UID:          fmt.Sprintf("user-%04d", i),
			Email:        fmt.Sprintf("member%04d@example.com", i),
			ProviderData: []dto.ProviderInfo{{ProviderID: "password"}},
		})
	}
}

func (f *fixture) linkCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entities.UserLink{}).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }
