package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// ReviewUpdate 审核操作的写入内容
type ReviewUpdate struct {
	Status            string
	AdminNote         *string
	ReviewedBy        string
	ReviewedAt        time.Time
	DownloadExpiresAt *time.Time
}

// DownloadRequestRepository 下载请求数据访问接口
type DownloadRequestRepository interface {
	Create(ctx context.Context, req *model.DownloadRequest) error
	GetByID(ctx context.Context, id string) (*model.DownloadRequest, error)
	// GetByIDForUser 按 id + 请求人邮箱查询，用于所有权校验
	GetByIDForUser(ctx context.Context, id, email string) (*model.DownloadRequest, error)
	ListByUser(ctx context.Context, email string) ([]model.DownloadRequest, error)
	// ListByStatus status 为空串时返回全部
	ListByStatus(ctx context.Context, status string) ([]model.DownloadRequest, error)
	CountPending(ctx context.Context, email string) (int64, error)
	// Review 条件更新：仅当请求仍处于 pending 时写入终态
	// 返回 false 表示没有行被更新（请求不存在或已被审核）
	Review(ctx context.Context, id string, upd *ReviewUpdate) (bool, error)
	MarkDownloaded(ctx context.Context, id string, at time.Time) error
}

// downloadRequestRepo DownloadRequestRepository 的 GORM 实现
type downloadRequestRepo struct {
	db *gorm.DB
}

// NewDownloadRequestRepo 创建 DownloadRequestRepository 实例
func NewDownloadRequestRepo(db *gorm.DB) DownloadRequestRepository {
	return &downloadRequestRepo{db: db}
}

func (r *downloadRequestRepo) Create(ctx context.Context, req *model.DownloadRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *downloadRequestRepo) GetByID(ctx context.Context, id string) (*model.DownloadRequest, error) {
	var req model.DownloadRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *downloadRequestRepo) GetByIDForUser(ctx context.Context, id, email string) (*model.DownloadRequest, error) {
	var req model.DownloadRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_email = ?", id, email).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *downloadRequestRepo) ListByUser(ctx context.Context, email string) ([]model.DownloadRequest, error) {
	var reqs []model.DownloadRequest
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *downloadRequestRepo) ListByStatus(ctx context.Context, status string) ([]model.DownloadRequest, error) {
	db := r.db.WithContext(ctx).Model(&model.DownloadRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var reqs []model.DownloadRequest
	if err := db.Order("requested_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *downloadRequestRepo) CountPending(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DownloadRequest{}).
		Where("user_email = ? AND status = ?", email, model.RequestStatusPending).
		Count(&count).Error
	return count, err
}

// Review 以 status = pending 为写入前置条件（compare-and-swap），
// 防止对已终态请求的二次审核覆盖先前结果
func (r *downloadRequestRepo) Review(ctx context.Context, id string, upd *ReviewUpdate) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.DownloadRequest{}).
		Where("id = ? AND status = ?", id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":              upd.Status,
			"admin_note":          upd.AdminNote,
			"reviewed_at":         upd.ReviewedAt,
			"reviewed_by":         upd.ReviewedBy,
			"download_expires_at": upd.DownloadExpiresAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *downloadRequestRepo) MarkDownloaded(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.DownloadRequest{}).
		Where("id = ?", id).
		Update("downloaded_at", at).Error
}
