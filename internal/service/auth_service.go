package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
	"github.com/korekulturteacher-afk/village-photos/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrNotAllowed         = errors.New("该邮箱不在允许名单中，请先使用邀请码注册")
	ErrInvalidCredentials = errors.New("口令错误")
	ErrPasswordNotSet     = errors.New("管理员口令尚未初始化")
)

// AuthService 认证业务接口
//
// 设计说明：
//   - 身份提供方（Google）的 OAuth 流程在前端完成，后端只负责
//     校验回调带来的邮箱是否在允许名单内，并签发本服务会话令牌
//   - 管理员以独立口令登录，获得带 admin 角色的短时令牌
type AuthService interface {
	// CreateSession 以身份提供方返回的邮箱换取会话令牌
	CreateSession(ctx context.Context, req *dto.SessionRequest) (*dto.SessionResponse, error)
	// GetProfile 查询当前会话对应的允许名单记录
	GetProfile(ctx context.Context, email string) (*dto.UserResponse, error)
	// AdminLogin 管理员口令登录
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminSessionResponse, error)
	// ChangePassword 管理员修改口令
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error
	// SeedAdminPassword 管理员口令为空时以初始配置播种哈希，幂等
	SeedAdminPassword(ctx context.Context) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		logger: logger,
	}
}

func (s *authService) CreateSession(ctx context.Context, req *dto.SessionRequest) (*dto.SessionResponse, error) {
	// 1. 允许名单校验
	user, err := s.repo.AllowedUser.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAllowed
		}
		s.logger.Error("查询允许名单失败", zap.Error(err))
		return nil, err
	}

	// 2. 签发会话令牌
	name := req.Name
	if name == "" && user.Name != nil {
		name = *user.Name
	}
	token, err := s.jwtMgr.GenerateAccessToken(user.Email, name)
	if err != nil {
		s.logger.Error("签发会话令牌失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.SessionResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User: dto.UserResponse{
			Email:   user.Email,
			Name:    name,
			IsAdmin: user.IsAdmin,
		},
	}
	if user.InvitedBy != nil {
		resp.User.InvitedBy = *user.InvitedBy
	}
	return resp, nil
}

func (s *authService) GetProfile(ctx context.Context, email string) (*dto.UserResponse, error) {
	user, err := s.repo.AllowedUser.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAllowed
		}
		return nil, err
	}

	resp := &dto.UserResponse{
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	if user.Name != nil {
		resp.Name = *user.Name
	}
	if user.InvitedBy != nil {
		resp.InvitedBy = *user.InvitedBy
	}
	return resp, nil
}

func (s *authService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminSessionResponse, error) {
	adminCfg, err := s.repo.AdminConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPasswordNotSet
		}
		s.logger.Error("查询管理员口令失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(adminCfg.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtMgr.GenerateAdminToken()
	if err != nil {
		s.logger.Error("签发管理员令牌失败", zap.Error(err))
		return nil, err
	}

	return &dto.AdminSessionResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.Auth.AdminTokenTTL.Seconds()),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error {
	adminCfg, err := s.repo.AdminConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPasswordNotSet
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(adminCfg.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.AdminConfig.Upsert(ctx, string(hash))
}

func (s *authService) SeedAdminPassword(ctx context.Context) error {
	_, err := s.repo.AdminConfig.Get(ctx)
	if err == nil {
		return nil // 已有口令，不覆盖
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if s.cfg.Admin.InitialPassword == "" {
		s.logger.Warn("管理员口令未初始化，且未配置 admin.initial_password")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.InitialPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.AdminConfig.Upsert(ctx, string(hash)); err != nil {
		return err
	}
	s.logger.Info("已播种管理员初始口令")
	return nil
}
