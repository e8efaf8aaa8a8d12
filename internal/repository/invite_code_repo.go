package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// InviteCodeRepository 邀请码数据访问接口
type InviteCodeRepository interface {
	Create(ctx context.Context, code *model.InviteCode) error
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	List(ctx context.Context) ([]model.InviteCode, error)
	Update(ctx context.Context, code *model.InviteCode) error
	Delete(ctx context.Context, code string) error
	// IncrementUsedCount used_count 自增（以数据库表达式执行，避免读-改-写）
	IncrementUsedCount(ctx context.Context, code string) error
	GetUsage(ctx context.Context, code, email string) (*model.InviteCodeUsage, error)
	CreateUsage(ctx context.Context, usage *model.InviteCodeUsage) error
}

// inviteCodeRepo InviteCodeRepository 的 GORM 实现
type inviteCodeRepo struct {
	db *gorm.DB
}

// NewInviteCodeRepo 创建 InviteCodeRepository 实例
func NewInviteCodeRepo(db *gorm.DB) InviteCodeRepository {
	return &inviteCodeRepo{db: db}
}

func (r *inviteCodeRepo) Create(ctx context.Context, code *model.InviteCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *inviteCodeRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	var invite model.InviteCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteCodeRepo) List(ctx context.Context) ([]model.InviteCode, error) {
	var codes []model.InviteCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *inviteCodeRepo) Update(ctx context.Context, code *model.InviteCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *inviteCodeRepo) Delete(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&model.InviteCode{}).Error
}

func (r *inviteCodeRepo) IncrementUsedCount(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&model.InviteCode{}).
		Where("code = ?", code).
		Update("used_count", gorm.Expr("used_count + 1")).Error
}

func (r *inviteCodeRepo) GetUsage(ctx context.Context, code, email string) (*model.InviteCodeUsage, error) {
	var usage model.InviteCodeUsage
	err := r.db.WithContext(ctx).
		Where("code = ? AND user_email = ?", code, email).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *inviteCodeRepo) CreateUsage(ctx context.Context, usage *model.InviteCodeUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
