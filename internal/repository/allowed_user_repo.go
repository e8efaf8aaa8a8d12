package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// AllowedUserRepository 允许名单数据访问接口
type AllowedUserRepository interface {
	Create(ctx context.Context, user *model.AllowedUser) error
	GetByEmail(ctx context.Context, email string) (*model.AllowedUser, error)
	List(ctx context.Context) ([]model.AllowedUser, error)
}

// allowedUserRepo AllowedUserRepository 的 GORM 实现
type allowedUserRepo struct {
	db *gorm.DB
}

// NewAllowedUserRepo 创建 AllowedUserRepository 实例
func NewAllowedUserRepo(db *gorm.DB) AllowedUserRepository {
	return &allowedUserRepo{db: db}
}

func (r *allowedUserRepo) Create(ctx context.Context, user *model.AllowedUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *allowedUserRepo) GetByEmail(ctx context.Context, email string) (*model.AllowedUser, error) {
	var user model.AllowedUser
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *allowedUserRepo) List(ctx context.Context) ([]model.AllowedUser, error) {
	var users []model.AllowedUser
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
