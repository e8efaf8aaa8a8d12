package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
)

// ── Mock PhotoRepository ──

type mockPhotoRepo struct {
	photos map[string]*model.Photo
}

func newMockPhotoRepo() *mockPhotoRepo {
	return &mockPhotoRepo{photos: make(map[string]*model.Photo)}
}

func (m *mockPhotoRepo) BatchCreate(_ context.Context, photos []model.Photo) error {
	for i := range photos {
		p := photos[i]
		m.photos[p.ID] = &p
	}
	return nil
}

func (m *mockPhotoRepo) GetByID(_ context.Context, id string) (*model.Photo, error) {
	if p, ok := m.photos[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPhotoRepo) ListIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.photos))
	for id := range m.photos {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockPhotoRepo) ListVisible(_ context.Context) ([]model.Photo, error) {
	var result []model.Photo
	for _, p := range m.photos {
		if p.Visible() {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhotoRepo) ListByApproval(_ context.Context, approved *bool) ([]model.Photo, error) {
	var result []model.Photo
	for _, p := range m.photos {
		if approved == nil || p.IsApproved == *approved {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhotoRepo) ListByIDs(_ context.Context, ids []string) ([]model.Photo, error) {
	var result []model.Photo
	for _, id := range ids {
		if p, ok := m.photos[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhotoRepo) SetApproval(_ context.Context, ids []string, approved, public bool, reviewer string) (int64, error) {
	var n int64
	now := time.Now()
	for _, id := range ids {
		p, ok := m.photos[id]
		if !ok {
			continue
		}
		p.IsApproved = approved
		p.IsPublic = public
		if approved {
			p.ApprovedBy = &reviewer
			p.ApprovedAt = &now
		} else {
			p.ApprovedBy = nil
			p.ApprovedAt = nil
		}
		n++
	}
	return n, nil
}

func (m *mockPhotoRepo) SetPublic(_ context.Context, ids []string, public bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if p, ok := m.photos[id]; ok {
			p.IsPublic = public
			n++
		}
	}
	return n, nil
}

func (m *mockPhotoRepo) ApproveAllPending(_ context.Context, public bool, reviewer string) (int64, error) {
	var n int64
	now := time.Now()
	for _, p := range m.photos {
		if p.IsApproved {
			continue
		}
		p.IsApproved = true
		p.IsPublic = public
		p.ApprovedBy = &reviewer
		p.ApprovedAt = &now
		n++
	}
	return n, nil
}

func (m *mockPhotoRepo) Delete(_ context.Context, id string) error {
	delete(m.photos, id)
	return nil
}

// ── Mock DownloadRequestRepository ──

type mockDownloadRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.DownloadRequest
	seq      int
}

func newMockDownloadRequestRepo() *mockDownloadRequestRepo {
	return &mockDownloadRequestRepo{requests: make(map[string]*model.DownloadRequest)}
}

func (m *mockDownloadRequestRepo) Create(_ context.Context, req *model.DownloadRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		m.seq++
		req.ID = fmt.Sprintf("req-%d", m.seq)
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockDownloadRequestRepo) GetByID(_ context.Context, id string) (*model.DownloadRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDownloadRequestRepo) GetByIDForUser(_ context.Context, id, email string) (*model.DownloadRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok && r.UserEmail == email {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDownloadRequestRepo) ListByUser(_ context.Context, email string) ([]model.DownloadRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DownloadRequest
	for _, r := range m.requests {
		if r.UserEmail == email {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockDownloadRequestRepo) ListByStatus(_ context.Context, status string) ([]model.DownloadRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DownloadRequest
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockDownloadRequestRepo) CountPending(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.requests {
		if r.UserEmail == email && r.Status == model.RequestStatusPending {
			n++
		}
	}
	return n, nil
}

// Review 与真实实现一致：仅 pending 可写入终态
func (m *mockDownloadRequestRepo) Review(_ context.Context, id string, upd *repository.ReviewUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != model.RequestStatusPending {
		return false, nil
	}
	r.Status = upd.Status
	r.AdminNote = upd.AdminNote
	reviewedAt := upd.ReviewedAt
	r.ReviewedAt = &reviewedAt
	r.ReviewedBy = &upd.ReviewedBy
	r.DownloadExpiresAt = upd.DownloadExpiresAt
	return true, nil
}

func (m *mockDownloadRequestRepo) MarkDownloaded(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.DownloadedAt = &at
	}
	return nil
}

// ── Mock RateLimitRepository ──

// mockRateLimitRepo 复刻单条 upsert 的窗口语义：
// 窗口过期重置计数，达到上限时拒绝占用
type mockRateLimitRepo struct {
	mu     sync.Mutex
	counts map[string]*model.RateLimit
	now    func() time.Time
}

func newMockRateLimitRepo() *mockRateLimitRepo {
	return &mockRateLimitRepo{
		counts: make(map[string]*model.RateLimit),
		now:    time.Now,
	}
}

func (m *mockRateLimitRepo) TryAcquire(_ context.Context, email string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	rl, ok := m.counts[email]
	if !ok || !rl.ResetAt.After(now) {
		m.counts[email] = &model.RateLimit{
			UserEmail:    email,
			RequestCount: 1,
			ResetAt:      now.Add(window),
		}
		return true, nil
	}
	if rl.RequestCount >= limit {
		return false, nil
	}
	rl.RequestCount++
	return true, nil
}

func (m *mockRateLimitRepo) Get(_ context.Context, email string) (*model.RateLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rl, ok := m.counts[email]; ok {
		return rl, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock InviteCodeRepository ──

type mockInviteCodeRepo struct {
	codes  map[string]*model.InviteCode
	usages map[string]*model.InviteCodeUsage // key: code + "|" + email
}

func newMockInviteCodeRepo() *mockInviteCodeRepo {
	return &mockInviteCodeRepo{
		codes:  make(map[string]*model.InviteCode),
		usages: make(map[string]*model.InviteCodeUsage),
	}
}

func (m *mockInviteCodeRepo) Create(_ context.Context, code *model.InviteCode) error {
	m.codes[code.Code] = code
	return nil
}

func (m *mockInviteCodeRepo) GetByCode(_ context.Context, code string) (*model.InviteCode, error) {
	if c, ok := m.codes[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) List(_ context.Context) ([]model.InviteCode, error) {
	var result []model.InviteCode
	for _, c := range m.codes {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockInviteCodeRepo) Update(_ context.Context, code *model.InviteCode) error {
	m.codes[code.Code] = code
	return nil
}

func (m *mockInviteCodeRepo) Delete(_ context.Context, code string) error {
	delete(m.codes, code)
	return nil
}

func (m *mockInviteCodeRepo) IncrementUsedCount(_ context.Context, code string) error {
	if c, ok := m.codes[code]; ok {
		c.UsedCount++
	}
	return nil
}

func (m *mockInviteCodeRepo) GetUsage(_ context.Context, code, email string) (*model.InviteCodeUsage, error) {
	if u, ok := m.usages[code+"|"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) CreateUsage(_ context.Context, usage *model.InviteCodeUsage) error {
	m.usages[usage.Code+"|"+usage.UserEmail] = usage
	return nil
}

// ── Mock AllowedUserRepository ──

type mockAllowedUserRepo struct {
	users map[string]*model.AllowedUser
}

func newMockAllowedUserRepo() *mockAllowedUserRepo {
	return &mockAllowedUserRepo{users: make(map[string]*model.AllowedUser)}
}

func (m *mockAllowedUserRepo) Create(_ context.Context, user *model.AllowedUser) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockAllowedUserRepo) GetByEmail(_ context.Context, email string) (*model.AllowedUser, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAllowedUserRepo) List(_ context.Context) ([]model.AllowedUser, error) {
	var result []model.AllowedUser
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

// ── Mock AdminConfigRepository ──

type mockAdminConfigRepo struct {
	cfg *model.AdminConfig
}

func newMockAdminConfigRepo() *mockAdminConfigRepo {
	return &mockAdminConfigRepo{}
}

func (m *mockAdminConfigRepo) Get(_ context.Context) (*model.AdminConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.cfg, nil
}

func (m *mockAdminConfigRepo) Upsert(_ context.Context, passwordHash string) error {
	m.cfg = &model.AdminConfig{ID: 1, PasswordHash: passwordHash, UpdatedAt: time.Now()}
	return nil
}

// ── Mock DownloadLogRepository ──

type mockDownloadLogRepo struct {
	logs []model.DownloadLog
}

func newMockDownloadLogRepo() *mockDownloadLogRepo {
	return &mockDownloadLogRepo{}
}

func (m *mockDownloadLogRepo) Create(_ context.Context, log *model.DownloadLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

// ── Mock Drive Client ──

// mockDriveClient 以内存 map 模拟远端文件存储
type mockDriveClient struct {
	files    map[string]drive.File
	contents map[string][]byte
	failIDs  map[string]bool // 指定 ID 的下载返回错误

	mu        sync.Mutex
	downloads int // Download/DownloadThumbnail 调用计数
}

func newMockDriveClient() *mockDriveClient {
	return &mockDriveClient{
		files:    make(map[string]drive.File),
		contents: make(map[string][]byte),
		failIDs:  make(map[string]bool),
	}
}

func (m *mockDriveClient) addFile(id, name string, content []byte) {
	m.files[id] = drive.File{ID: id, Name: name, MimeType: "image/jpeg"}
	m.contents[id] = content
}

func (m *mockDriveClient) ListFiles(_ context.Context, _ []string) ([]drive.File, error) {
	var result []drive.File
	for _, f := range m.files {
		result = append(result, f)
	}
	return result, nil
}

func (m *mockDriveClient) GetFile(_ context.Context, fileID string) (*drive.File, error) {
	if f, ok := m.files[fileID]; ok {
		return &f, nil
	}
	return nil, drive.ErrFileNotFound
}

func (m *mockDriveClient) Download(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	m.downloads++
	m.mu.Unlock()
	if m.failIDs[fileID] {
		return nil, fmt.Errorf("模拟下载失败: %s", fileID)
	}
	if data, ok := m.contents[fileID]; ok {
		return data, nil
	}
	return nil, drive.ErrFileNotFound
}

func (m *mockDriveClient) DownloadThumbnail(ctx context.Context, fileID string, _ int) ([]byte, error) {
	return m.Download(ctx, fileID)
}

// ── 测试辅助 ──

// testRepos 持有各 mock 实例，便于测试断言内部状态
type testRepos struct {
	photo       *mockPhotoRepo
	request     *mockDownloadRequestRepo
	rateLimit   *mockRateLimitRepo
	inviteCode  *mockInviteCodeRepo
	allowedUser *mockAllowedUserRepo
	adminConfig *mockAdminConfigRepo
	downloadLog *mockDownloadLogRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	mocks := &testRepos{
		photo:       newMockPhotoRepo(),
		request:     newMockDownloadRequestRepo(),
		rateLimit:   newMockRateLimitRepo(),
		inviteCode:  newMockInviteCodeRepo(),
		allowedUser: newMockAllowedUserRepo(),
		adminConfig: newMockAdminConfigRepo(),
		downloadLog: newMockDownloadLogRepo(),
	}
	repo := &repository.Repository{
		Photo:           mocks.photo,
		DownloadRequest: mocks.request,
		RateLimit:       mocks.rateLimit,
		InviteCode:      mocks.inviteCode,
		AllowedUser:     mocks.allowedUser,
		AdminConfig:     mocks.adminConfig,
		DownloadLog:     mocks.downloadLog,
	}
	return repo, mocks
}
