package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// 管理员口令配置固定主键（单行表）
const adminConfigID = 1

// AdminConfigRepository 管理员口令数据访问接口
type AdminConfigRepository interface {
	Get(ctx context.Context) (*model.AdminConfig, error)
	// Upsert 写入或更新口令哈希
	Upsert(ctx context.Context, passwordHash string) error
}

// adminConfigRepo AdminConfigRepository 的 GORM 实现
type adminConfigRepo struct {
	db *gorm.DB
}

// NewAdminConfigRepo 创建 AdminConfigRepository 实例
func NewAdminConfigRepo(db *gorm.DB) AdminConfigRepository {
	return &adminConfigRepo{db: db}
}

func (r *adminConfigRepo) Get(ctx context.Context) (*model.AdminConfig, error) {
	var cfg model.AdminConfig
	err := r.db.WithContext(ctx).
		Where("id = ?", adminConfigID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *adminConfigRepo) Upsert(ctx context.Context, passwordHash string) error {
	cfg := model.AdminConfig{
		ID:           adminConfigID,
		PasswordHash: passwordHash,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
		}).
		Create(&cfg).Error
}
