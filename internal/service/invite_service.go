package service

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
)

// ── 邀请码模块业务错误 ──

var (
	ErrInviteInvalid   = errors.New("邀请码无效或已失效")
	ErrInviteExists    = errors.New("邀请码已存在")
	ErrUserAlreadyIn   = errors.New("该邮箱已在允许名单中")
	ErrInviteCodeEmpty = errors.New("邀请码不能为空")
)

// 随机邀请码字符集，去掉易混淆的 0/O/1/I
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteService 邀请码与允许名单业务接口
type InviteService interface {
	// Verify 预校验邀请码是否可兑换，不产生副作用
	Verify(ctx context.Context, req *dto.InviteVerifyRequest) (*dto.InviteVerifyResponse, error)
	// Redeem 兑换邀请码，将邮箱加入允许名单
	// 同一用户重复兑换同一码为幂等操作，不重复计数
	Redeem(ctx context.Context, req *dto.InviteRedeemRequest, ip string) (*dto.UserResponse, error)

	// ── 管理员操作 ──
	CreateCode(ctx context.Context, req *dto.CreateInviteCodeRequest, createdBy string) (*model.InviteCode, error)
	ListCodes(ctx context.Context) ([]model.InviteCode, error)
	UpdateCode(ctx context.Context, code string, req *dto.UpdateInviteCodeRequest) (*model.InviteCode, error)
	DeleteCode(ctx context.Context, code string) error
	ListAllowedUsers(ctx context.Context) ([]model.AllowedUser, error)
	AddAllowedUser(ctx context.Context, req *dto.AddAllowedUserRequest) (*model.AllowedUser, error)
}

type inviteService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewInviteService 创建 InviteService 实例
func NewInviteService(repo *repository.Repository, logger *zap.Logger) InviteService {
	return &inviteService{repo: repo, logger: logger}
}

func (s *inviteService) Verify(ctx context.Context, req *dto.InviteVerifyRequest) (*dto.InviteVerifyResponse, error) {
	code := normalizeCode(req.Code)
	invite, err := s.repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.InviteVerifyResponse{Valid: false}, nil
		}
		return nil, err
	}
	if !invite.Redeemable(time.Now()) {
		return &dto.InviteVerifyResponse{Valid: false}, nil
	}
	return &dto.InviteVerifyResponse{Valid: true, Code: invite.Code}, nil
}

func (s *inviteService) Redeem(ctx context.Context, req *dto.InviteRedeemRequest, ip string) (*dto.UserResponse, error) {
	code := normalizeCode(req.Code)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. 校验邀请码
	invite, err := s.repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		s.logger.Error("查询邀请码失败", zap.Error(err))
		return nil, err
	}
	if !invite.Redeemable(time.Now()) {
		return nil, ErrInviteInvalid
	}

	// 2. 同一用户重复兑换：直接返回现有名单记录，不重复计数
	if _, err := s.repo.InviteCode.GetUsage(ctx, code, email); err == nil {
		return s.allowedUserResponse(ctx, email, req.Name, code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 记录使用并递增计数
	usage := &model.InviteCodeUsage{
		Code:      code,
		UserEmail: email,
		UsedAt:    time.Now(),
	}
	if req.Name != "" {
		usage.UserName = &req.Name
	}
	if ip != "" {
		usage.IPAddress = &ip
	}
	if err := s.repo.InviteCode.CreateUsage(ctx, usage); err != nil {
		s.logger.Error("写入邀请码使用记录失败", zap.Error(err))
		return nil, err
	}
	if err := s.repo.InviteCode.IncrementUsedCount(ctx, code); err != nil {
		s.logger.Error("邀请码计数递增失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("邀请码兑换成功",
		zap.String("code", code),
		zap.String("email", email))

	return s.allowedUserResponse(ctx, email, req.Name, code)
}

// allowedUserResponse 确保邮箱在允许名单内并返回名单信息
func (s *inviteService) allowedUserResponse(ctx context.Context, email, name, code string) (*dto.UserResponse, error) {
	user, err := s.repo.AllowedUser.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user = &model.AllowedUser{
			Email:     email,
			InvitedBy: &code,
		}
		if name != "" {
			user.Name = &name
		}
		if err := s.repo.AllowedUser.Create(ctx, user); err != nil {
			s.logger.Error("写入允许名单失败", zap.Error(err))
			return nil, err
		}
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

// ── 管理员操作 ──

func (s *inviteService) CreateCode(ctx context.Context, req *dto.CreateInviteCodeRequest, createdBy string) (*model.InviteCode, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		var err error
		code, err = randomCode(8)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.InviteCode.GetByCode(ctx, code); err == nil {
		return nil, ErrInviteExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	invite := &model.InviteCode{
		Code:      code,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: time.Now(),
	}
	if req.MaxUses > 0 {
		invite.MaxUses = &req.MaxUses
	}
	if req.Note != "" {
		invite.Description = &req.Note
	}
	if createdBy != "" {
		invite.CreatedBy = &createdBy
	}

	if err := s.repo.InviteCode.Create(ctx, invite); err != nil {
		s.logger.Error("创建邀请码失败", zap.Error(err))
		return nil, err
	}
	return invite, nil
}

func (s *inviteService) ListCodes(ctx context.Context) ([]model.InviteCode, error) {
	return s.repo.InviteCode.List(ctx)
}

func (s *inviteService) UpdateCode(ctx context.Context, code string, req *dto.UpdateInviteCodeRequest) (*model.InviteCode, error) {
	invite, err := s.repo.InviteCode.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}

	if req.IsActive != nil {
		invite.IsActive = *req.IsActive
	}
	if req.MaxUses != nil {
		invite.MaxUses = req.MaxUses
	}
	if req.ExpiresAt != nil {
		invite.ExpiresAt = req.ExpiresAt
	}
	if req.Note != nil {
		invite.Description = req.Note
	}

	if err := s.repo.InviteCode.Update(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

func (s *inviteService) DeleteCode(ctx context.Context, code string) error {
	code = normalizeCode(code)
	if code == "" {
		return ErrInviteCodeEmpty
	}
	return s.repo.InviteCode.Delete(ctx, code)
}

func (s *inviteService) ListAllowedUsers(ctx context.Context) ([]model.AllowedUser, error) {
	return s.repo.AllowedUser.List(ctx)
}

func (s *inviteService) AddAllowedUser(ctx context.Context, req *dto.AddAllowedUserRequest) (*model.AllowedUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.AllowedUser.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &model.AllowedUser{Email: email}
	if req.Name != "" {
		user.Name = &req.Name
	}
	if err := s.repo.AllowedUser.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// normalizeCode 邀请码统一大写去空白
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// randomCode 生成指定长度的随机邀请码
func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
