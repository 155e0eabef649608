package testsupport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
)

// MemoryProvider 内存版 IdentityProvider，记录每个方法的调用次数
type MemoryProvider struct {
	mu     sync.Mutex
	users  []dto.IdentityRecord
	tokens map[string]dto.DecodedIdentity
	calls  map[string]int
	seq    int

	// DeleteErr 非空时 DeleteUser / DeleteUsers 返回该错误
	DeleteErr error
	// ResetDelay 生成重置链接前的等待时间，用于超时测试
	ResetDelay time.Duration
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{tokens: map[string]dto.DecodedIdentity{}, calls: map[string]int{}}
}

var _ dependencies.IdentityProvider = (*MemoryProvider)(nil)

// AddUser 追加一条身份记录，保持插入顺序
func (p *MemoryProvider) AddUser(r dto.IdentityRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.ProviderData == nil {
		r.ProviderData = []dto.ProviderInfo{}
	}
	p.users = append(p.users, r)
}

// AddToken 注册一个可通过 VerifyIDToken 校验的 ID Token
func (p *MemoryProvider) AddToken(idToken string, identity dto.DecodedIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[idToken] = identity
}

// Calls 返回方法被调用的次数
func (p *MemoryProvider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

func (p *MemoryProvider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = map[string]int{}
}

// UserCount 当前用户数
func (p *MemoryProvider) UserCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}

func (p *MemoryProvider) record(method string) {
	p.calls[method]++
}

func (p *MemoryProvider) find(match func(dto.IdentityRecord) bool) (*dto.IdentityRecord, error) {
	for i := range p.users {
		if match(p.users[i]) {
			u := p.users[i]
			return &u, nil
		}
	}
	return nil, dependencies.ErrProviderUserNotFound
}

func (p *MemoryProvider) VerifyIDToken(_ context.Context, idToken string) (*dto.DecodedIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("VerifyIDToken")
	identity, ok := p.tokens[idToken]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", dependencies.ErrInvalidIDToken)
	}
	return &identity, nil
}

func (p *MemoryProvider) GetUser(_ context.Context, uid string) (*dto.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("GetUser")
	return p.find(func(r dto.IdentityRecord) bool { return r.UID == uid })
}

func (p *MemoryProvider) GetUserByEmail(_ context.Context, email string) (*dto.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("GetUserByEmail")
	return p.find(func(r dto.IdentityRecord) bool { return r.Email != "" && strings.EqualFold(r.Email, email) })
}

func (p *MemoryProvider) GetUserByPhoneNumber(_ context.Context, phone string) (*dto.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("GetUserByPhoneNumber")
	return p.find(func(r dto.IdentityRecord) bool { return r.PhoneNumber != "" && r.PhoneNumber == phone })
}

// ListUsers 的续页令牌是下一页起始下标
func (p *MemoryProvider) ListUsers(_ context.Context, pageSize int, pageToken string) (*dto.ProviderPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("ListUsers")
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid page token %q", pageToken)
		}
		start = n
	}
	if start > len(p.users) {
		start = len(p.users)
	}
	end := start + pageSize
	if end > len(p.users) {
		end = len(p.users)
	}
	page := &dto.ProviderPage{Users: append([]dto.IdentityRecord(nil), p.users[start:end]...)}
	if end < len(p.users) {
		page.PageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (p *MemoryProvider) CreateUser(_ context.Context, u dto.ProviderUserToCreate) (*dto.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("CreateUser")
	if u.Email != "" {
		if _, err := p.find(func(r dto.IdentityRecord) bool { return strings.EqualFold(r.Email, u.Email) }); err == nil {
			return nil, fmt.Errorf("email already exists: %s", u.Email)
		}
	}
	uid := u.UID
	if uid == "" {
		p.seq++
		uid = fmt.Sprintf("mem-uid-%04d", p.seq)
	}
	r := dto.IdentityRecord{
		UID:           uid,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
		ProviderData:  []dto.ProviderInfo{},
		Metadata:      dto.IdentityMetadata{CreationTime: time.Now().UTC().Format(http.TimeFormat)},
	}
	if u.Password != "" {
		r.ProviderData = append(r.ProviderData, dto.ProviderInfo{ProviderID: "password", UID: u.Email})
	}
	p.users = append(p.users, r)
	return &r, nil
}

func (p *MemoryProvider) UpdateUser(_ context.Context, uid string, u dto.ProviderUserToUpdate) (*dto.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("UpdateUser")
	for i := range p.users {
		if p.users[i].UID != uid {
			continue
		}
		r := &p.users[i]
		if u.Email != nil {
			r.Email = *u.Email
		}
		if u.PhoneNumber != nil {
			r.PhoneNumber = *u.PhoneNumber
		}
		if u.DisplayName != nil {
			r.DisplayName = *u.DisplayName
		}
		if u.EmailVerified != nil {
			r.EmailVerified = *u.EmailVerified
		}
		if u.Disabled != nil {
			r.Disabled = *u.Disabled
		}
		out := *r
		return &out, nil
	}
	return nil, dependencies.ErrProviderUserNotFound
}

func (p *MemoryProvider) DeleteUser(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("DeleteUser")
	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	for i := range p.users {
		if p.users[i].UID == uid {
			p.users = append(p.users[:i], p.users[i+1:]...)
			return nil
		}
	}
	return dependencies.ErrProviderUserNotFound
}

func (p *MemoryProvider) DeleteUsers(ctx context.Context, uids []string) (*dto.DeleteUsersResult, error) {
	p.mu.Lock()
	deleteErr := p.DeleteErr
	p.record("DeleteUsers")
	p.mu.Unlock()
	if deleteErr != nil {
		return nil, deleteErr
	}
	res := &dto.DeleteUsersResult{}
	for i, uid := range uids {
		p.mu.Lock()
		_, err := p.find(func(r dto.IdentityRecord) bool { return r.UID == uid })
		if err == nil {
			for j := range p.users {
				if p.users[j].UID == uid {
					p.users = append(p.users[:j], p.users[j+1:]...)
					break
				}
			}
		}
		p.mu.Unlock()
		if err != nil {
			res.FailureCount++
			res.Errors = append(res.Errors, dto.DeleteUserError{Index: i, Reason: err.Error()})
			continue
		}
		res.SuccessCount++
	}
	return res, nil
}

func (p *MemoryProvider) PasswordResetLink(ctx context.Context, email, continueURL string) (string, error) {
	p.mu.Lock()
	p.record("PasswordResetLink")
	delay := p.ResetDelay
	_, err := p.find(func(r dto.IdentityRecord) bool { return strings.EqualFold(r.Email, email) })
	p.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return "https://example.firebaseapp.com/__/auth/action?mode=resetPassword&oobCode=test&continueUrl=" + continueURL, nil
}
