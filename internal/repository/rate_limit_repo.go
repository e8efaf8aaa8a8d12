package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// RateLimitRepository 下载请求限流计数数据访问接口
type RateLimitRepository interface {
	// TryAcquire 原子地检查并占用一个限额名额
	// 单条 upsert 语句内完成窗口重置、上限检查与计数递增，
	// 并发请求下不会出现读-改-写竞态放行超额请求。
	// 返回 false 表示当前窗口内已达上限。
	TryAcquire(ctx context.Context, email string, limit int, window time.Duration) (bool, error)
	Get(ctx context.Context, email string) (*model.RateLimit, error)
}

// rateLimitRepo RateLimitRepository 的 GORM 实现
type rateLimitRepo struct {
	db *gorm.DB
}

// NewRateLimitRepo 创建 RateLimitRepository 实例
func NewRateLimitRepo(db *gorm.DB) RateLimitRepository {
	return &rateLimitRepo{db: db}
}

const tryAcquireSQL = `
INSERT INTO rate_limits (user_email, request_count, reset_at)
VALUES (?, 1, ?)
ON CONFLICT (user_email) DO UPDATE SET
    request_count = CASE WHEN rate_limits.reset_at <= ? THEN 1 ELSE rate_limits.request_count + 1 END,
    reset_at      = CASE WHEN rate_limits.reset_at <= ? THEN EXCLUDED.reset_at ELSE rate_limits.reset_at END
WHERE rate_limits.reset_at <= ? OR rate_limits.request_count < ?
RETURNING request_count`

func (r *rateLimitRepo) TryAcquire(ctx context.Context, email string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	resetAt := now.Add(window)

	var count int
	tx := r.db.WithContext(ctx).
		Raw(tryAcquireSQL, email, resetAt, now, now, now, limit).
		Scan(&count)
	if tx.Error != nil {
		return false, tx.Error
	}

	// 条件不满足时 upsert 不写任何行，RETURNING 为空
	return tx.RowsAffected > 0, nil
}

func (r *rateLimitRepo) Get(ctx context.Context, email string) (*model.RateLimit, error) {
	var rl model.RateLimit
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		First(&rl).Error
	if err != nil {
		return nil, err
	}
	return &rl, nil
}
