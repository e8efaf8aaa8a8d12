package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

// PhotoRepository 照片数据访问接口
type PhotoRepository interface {
	BatchCreate(ctx context.Context, photos []model.Photo) error
	GetByID(ctx context.Context, id string) (*model.Photo, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListVisible(ctx context.Context) ([]model.Photo, error)
	// ListByApproval approved 为 nil 时返回全部
	ListByApproval(ctx context.Context, approved *bool) ([]model.Photo, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Photo, error)
	// SetApproval 批量更新审核/公开状态
	SetApproval(ctx context.Context, ids []string, approved, public bool, reviewer string) (int64, error)
	// SetPublic 批量更新公开标记，不影响审核状态
	SetPublic(ctx context.Context, ids []string, public bool) (int64, error)
	// ApproveAllPending 将所有未审核照片置为已审核
	ApproveAllPending(ctx context.Context, public bool, reviewer string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// photoRepo PhotoRepository 的 GORM 实现
type photoRepo struct {
	db *gorm.DB
}

// NewPhotoRepo 创建 PhotoRepository 实例
func NewPhotoRepo(db *gorm.DB) PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) BatchCreate(ctx context.Context, photos []model.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&photos).Error
}

func (r *photoRepo) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	var photo model.Photo
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Photo{}).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListVisible 普通访客画廊可见的照片（已审核且公开）
func (r *photoRepo) ListVisible(ctx context.Context) ([]model.Photo, error) {
	var photos []model.Photo
	err := r.db.WithContext(ctx).
		Where("is_approved = ? AND is_public = ?", true, true).
		Order("created_time DESC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepo) ListByApproval(ctx context.Context, approved *bool) ([]model.Photo, error) {
	db := r.db.WithContext(ctx).Model(&model.Photo{})
	if approved != nil {
		db = db.Where("is_approved = ?", *approved)
	}

	var photos []model.Photo
	if err := db.Order("name ASC").Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var photos []model.Photo
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepo) SetApproval(ctx context.Context, ids []string, approved, public bool, reviewer string) (int64, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"is_approved": approved,
		"is_public":   public,
		"updated_at":  now,
	}
	if approved {
		updates["approved_by"] = reviewer
		updates["approved_at"] = now
	} else {
		updates["approved_by"] = nil
		updates["approved_at"] = nil
	}

	tx := r.db.WithContext(ctx).
		Model(&model.Photo{}).
		Where("id IN ?", ids).
		Updates(updates)
	return tx.RowsAffected, tx.Error
}

func (r *photoRepo) SetPublic(ctx context.Context, ids []string, public bool) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Photo{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_public":  public,
			"updated_at": time.Now(),
		})
	return tx.RowsAffected, tx.Error
}

func (r *photoRepo) ApproveAllPending(ctx context.Context, public bool, reviewer string) (int64, error) {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&model.Photo{}).
		Where("is_approved = ?", false).
		Updates(map[string]interface{}{
			"is_approved": true,
			"is_public":   public,
			"approved_by": reviewer,
			"approved_at": now,
			"updated_at":  now,
		})
	return tx.RowsAffected, tx.Error
}

func (r *photoRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Photo{}).Error
}
