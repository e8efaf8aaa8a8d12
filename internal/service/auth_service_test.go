package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-0123456789",
			AccessTokenTTL: 24 * time.Hour,
			AdminTokenTTL:  2 * time.Hour,
		},
		Admin: config.AdminConfig{
			InitialPassword: "village-admin-2024",
		},
		Drive: config.DriveConfig{
			FolderIDs:           []string{"folder-a"},
			DownloadConcurrency: 4,
		},
		Limits: config.LimitsConfig{
			MaxPendingRequests: 3,
			MaxRequestsPerHour: 3,
			RateWindow:         time.Hour,
			DownloadWindow:     168 * time.Hour,
		},
	}
}

func newTestAuthService(t *testing.T) (AuthService, *testRepos) {
	t.Helper()
	cfg := testConfig()
	repo, mocks := newTestRepos()
	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), zap.NewNop())
	return svc, mocks
}

func strPtr(s string) *string { return &s }

func TestAuthService_CreateSession_Allowed(t *testing.T) {
	svc, mocks := newTestAuthService(t)
	ctx := context.Background()

	mocks.allowedUser.Create(ctx, &model.AllowedUser{
		Email:     "kim@example.com",
		Name:      strPtr("Kim"),
		InvitedBy: strPtr("VILLAGE24"),
	})

	resp, err := svc.CreateSession(ctx, &dto.SessionRequest{Email: "kim@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("应返回会话令牌")
	}
	if resp.User.Email != "kim@example.com" || resp.User.Name != "Kim" {
		t.Errorf("用户信息不符: %+v", resp.User)
	}
	if resp.User.InvitedBy != "VILLAGE24" {
		t.Errorf("invited_by 不符: %s", resp.User.InvitedBy)
	}
	if resp.ExpiresIn != int((24 * time.Hour).Seconds()) {
		t.Errorf("ExpiresIn 不符: %d", resp.ExpiresIn)
	}
}

func TestAuthService_CreateSession_NotAllowed(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.CreateSession(context.Background(), &dto.SessionRequest{Email: "stranger@example.com"})
	if !errors.Is(err, ErrNotAllowed) {
		t.Errorf("期望 ErrNotAllowed, 得到 %v", err)
	}
}

func TestAuthService_GetProfile(t *testing.T) {
	svc, mocks := newTestAuthService(t)
	ctx := context.Background()

	mocks.allowedUser.Create(ctx, &model.AllowedUser{
		Email:     "kim@example.com",
		Name:      strPtr("Kim"),
		InvitedBy: strPtr("VILLAGE24"),
	})

	profile, err := svc.GetProfile(ctx, "kim@example.com")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Email != "kim@example.com" || profile.Name != "Kim" || profile.InvitedBy != "VILLAGE24" {
		t.Errorf("资料不符: %+v", profile)
	}

	if _, err := svc.GetProfile(ctx, "stranger@example.com"); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("期望 ErrNotAllowed, 得到 %v", err)
	}
}

func TestAuthService_AdminLogin(t *testing.T) {
	svc, mocks := newTestAuthService(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	mocks.adminConfig.Upsert(ctx, string(hash))

	resp, err := svc.AdminLogin(ctx, &dto.AdminLoginRequest{Password: "correct-password"})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("应返回管理员令牌")
	}

	_, err = svc.AdminLogin(ctx, &dto.AdminLoginRequest{Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials, 得到 %v", err)
	}
}

func TestAuthService_AdminLogin_PasswordNotSet(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.AdminLogin(context.Background(), &dto.AdminLoginRequest{Password: "anything"})
	if !errors.Is(err, ErrPasswordNotSet) {
		t.Errorf("期望 ErrPasswordNotSet, 得到 %v", err)
	}
}

func TestAuthService_SeedAdminPassword_Idempotent(t *testing.T) {
	svc, mocks := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.SeedAdminPassword(ctx); err != nil {
		t.Fatalf("SeedAdminPassword: %v", err)
	}
	first := mocks.adminConfig.cfg.PasswordHash
	if first == "" {
		t.Fatal("应播种初始口令哈希")
	}

	// 再次播种不覆盖已有哈希
	if err := svc.SeedAdminPassword(ctx); err != nil {
		t.Fatalf("SeedAdminPassword 二次调用: %v", err)
	}
	if mocks.adminConfig.cfg.PasswordHash != first {
		t.Error("重复播种不应覆盖已有口令")
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, mocks := newTestAuthService(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	mocks.adminConfig.Upsert(ctx, string(hash))

	err := svc.ChangePassword(ctx, &dto.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧口令错误应拒绝, 得到 %v", err)
	}

	err = svc.ChangePassword(ctx, &dto.ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-123",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(mocks.adminConfig.cfg.PasswordHash), []byte("new-password-123")) != nil {
		t.Error("新口令哈希未写入")
	}
}
