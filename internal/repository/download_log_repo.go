package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// DownloadLogRepository 单文件下载审计数据访问接口
type DownloadLogRepository interface {
	Create(ctx context.Context, log *model.DownloadLog) error
}

// downloadLogRepo DownloadLogRepository 的 GORM 实现
type downloadLogRepo struct {
	db *gorm.DB
}

// NewDownloadLogRepo 创建 DownloadLogRepository 实例
func NewDownloadLogRepo(db *gorm.DB) DownloadLogRepository {
	return &downloadLogRepo{db: db}
}

func (r *downloadLogRepo) Create(ctx context.Context, log *model.DownloadLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
