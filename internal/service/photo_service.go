package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
	"github.com/korekulturteacher-afk/village-photos/pkg/cache"
)

// ── 照片模块业务错误 ──

var (
	ErrPhotoNotFound   = errors.New("照片不存在")
	ErrPhotoNotVisible = errors.New("照片尚未公开")
)

// 缩略图默认宽度（像素）
const defaultThumbnailWidth = 400

// PhotoService 照片业务接口
type PhotoService interface {
	// ListGallery 画廊可见照片（已审核且公开）
	ListGallery(ctx context.Context) ([]dto.PhotoResponse, error)
	// GetImage 获取照片完整字节，普通访客仅可访问可见照片
	GetImage(ctx context.Context, fileID string) ([]byte, string, error)
	// GetThumbnail 获取缩略图字节，结果经内存缓存
	GetThumbnail(ctx context.Context, fileID string, width int) ([]byte, error)
	// BatchThumbnails 批量获取缩略图（base64 data URL），单张失败不影响其余
	BatchThumbnails(ctx context.Context, req *dto.ThumbnailBatchRequest) []dto.ThumbnailItem

	// ── 管理员操作 ──
	AdminList(ctx context.Context, approved *bool) ([]model.Photo, error)
	// Sync 从远端文件夹同步照片元数据入库，幂等；
	// 顺带清理历史同步故障产生的脏 ID 记录
	Sync(ctx context.Context) (*dto.SyncResultResponse, error)
	SetApproval(ctx context.Context, req *dto.PhotoApprovalRequest, reviewer string) (int64, error)
	SetPublic(ctx context.Context, req *dto.PhotoPublishRequest) (int64, error)
	ApproveAll(ctx context.Context, reviewer string) (int64, error)
	Delete(ctx context.Context, fileID string) error
}

type photoService struct {
	cfg        *config.Config
	repo       *repository.Repository
	drive      drive.Client
	thumbCache *cache.LRU
	logger     *zap.Logger
}

// NewPhotoService 创建 PhotoService 实例
func NewPhotoService(
	cfg *config.Config,
	repo *repository.Repository,
	driveClient drive.Client,
	thumbCache *cache.LRU,
	logger *zap.Logger,
) PhotoService {
	return &photoService{
		cfg:        cfg,
		repo:       repo,
		drive:      driveClient,
		thumbCache: thumbCache,
		logger:     logger,
	}
}

func (s *photoService) ListGallery(ctx context.Context) ([]dto.PhotoResponse, error) {
	photos, err := s.repo.Photo.ListVisible(ctx)
	if err != nil {
		s.logger.Error("查询画廊照片失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		resp = append(resp, toPhotoResponse(&photos[i]))
	}
	return resp, nil
}

func (s *photoService) GetImage(ctx context.Context, fileID string) ([]byte, string, error) {
	photo, err := s.repo.Photo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPhotoNotFound
		}
		return nil, "", err
	}
	if !photo.Visible() {
		return nil, "", ErrPhotoNotVisible
	}

	data, err := s.drive.Download(ctx, fileID)
	if err != nil {
		if errors.Is(err, drive.ErrFileNotFound) {
			return nil, "", ErrPhotoNotFound
		}
		s.logger.Error("下载照片失败", zap.String("file_id", fileID), zap.Error(err))
		return nil, "", err
	}
	return data, photo.MimeType, nil
}

func (s *photoService) GetThumbnail(ctx context.Context, fileID string, width int) ([]byte, error) {
	if width <= 0 {
		width = defaultThumbnailWidth
	}

	key := "thumb:" + fileID + ":" + strconv.Itoa(width)
	if data, ok := s.thumbCache.Get(key); ok {
		return data, nil
	}

	photo, err := s.repo.Photo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	if !photo.Visible() {
		return nil, ErrPhotoNotVisible
	}

	data, err := s.drive.DownloadThumbnail(ctx, fileID, width)
	if err != nil {
		if errors.Is(err, drive.ErrFileNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	s.thumbCache.Set(key, data)
	return data, nil
}

func (s *photoService) BatchThumbnails(ctx context.Context, req *dto.ThumbnailBatchRequest) []dto.ThumbnailItem {
	items := make([]dto.ThumbnailItem, 0, len(req.FileIDs))
	for _, fileID := range req.FileIDs {
		item := dto.ThumbnailItem{FileID: fileID}
		data, err := s.GetThumbnail(ctx, fileID, req.Width)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.DataURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
		}
		items = append(items, item)
	}
	return items
}

// ── 管理员操作 ──

func (s *photoService) AdminList(ctx context.Context, approved *bool) ([]model.Photo, error) {
	return s.repo.Photo.ListByApproval(ctx, approved)
}

func (s *photoService) Sync(ctx context.Context) (*dto.SyncResultResponse, error) {
	files, err := s.drive.ListFiles(ctx, s.cfg.Drive.FolderIDs)
	if err != nil {
		s.logger.Error("列举远端照片失败", zap.Error(err))
		return nil, err
	}

	existingIDs, err := s.repo.Photo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	result := &dto.SyncResultResponse{Total: len(files)}

	// 1. 清理历史同步故障产生的脏 ID 记录
	for _, id := range existingIDs {
		if model.IsValidDriveID(id) {
			continue
		}
		if err := s.repo.Photo.Delete(ctx, id); err != nil {
			s.logger.Error("清理脏照片记录失败", zap.String("id", id), zap.Error(err))
			continue
		}
		result.Removed++
	}

	// 2. 新增照片入库，已存在的跳过（幂等）
	var toAdd []model.Photo
	for i := range files {
		f := &files[i]
		if !model.IsValidDriveID(f.ID) {
			s.logger.Warn("跳过无效文件 ID", zap.String("id", f.ID), zap.String("name", f.Name))
			result.Skipped++
			continue
		}
		if existing[f.ID] {
			continue
		}

		photo := model.Photo{
			ID:           f.ID,
			Name:         f.Name,
			MimeType:     f.MimeType,
			Size:         f.SizeBytes(),
			CreatedTime:  f.CreatedTime,
			ModifiedTime: f.ModifiedTime,
		}
		if f.ThumbnailLink != "" {
			photo.ThumbnailLink = &f.ThumbnailLink
		}
		if f.WebContentLink != "" {
			photo.WebContentLink = &f.WebContentLink
		}
		if f.WebViewLink != "" {
			photo.WebViewLink = &f.WebViewLink
		}
		toAdd = append(toAdd, photo)
	}

	if err := s.repo.Photo.BatchCreate(ctx, toAdd); err != nil {
		s.logger.Error("照片批量入库失败", zap.Error(err))
		return nil, err
	}
	result.Added = len(toAdd)

	// 有记录被清理时连带失效缩略图缓存
	if result.Removed > 0 {
		s.thumbCache.Clear()
	}

	s.logger.Info("照片同步完成",
		zap.Int("total", result.Total),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("removed", result.Removed))
	return result, nil
}

func (s *photoService) SetApproval(ctx context.Context, req *dto.PhotoApprovalRequest, reviewer string) (int64, error) {
	// 审核通过默认同时公开；撤销审核一并撤销公开
	return s.repo.Photo.SetApproval(ctx, req.PhotoIDs, req.Approved, req.Approved, reviewer)
}

func (s *photoService) SetPublic(ctx context.Context, req *dto.PhotoPublishRequest) (int64, error) {
	return s.repo.Photo.SetPublic(ctx, req.PhotoIDs, req.IsPublic)
}

func (s *photoService) ApproveAll(ctx context.Context, reviewer string) (int64, error) {
	return s.repo.Photo.ApproveAllPending(ctx, true, reviewer)
}

func (s *photoService) Delete(ctx context.Context, fileID string) error {
	if _, err := s.repo.Photo.GetByID(ctx, fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}
	return s.repo.Photo.Delete(ctx, fileID)
}

func toPhotoResponse(p *model.Photo) dto.PhotoResponse {
	resp := dto.PhotoResponse{
		ID:       p.ID,
		Name:     p.Name,
		MimeType: p.MimeType,
		Approved: p.IsApproved,
		IsPublic: p.IsPublic,
	}
	if p.ThumbnailLink != nil {
		resp.ThumbnailLink = *p.ThumbnailLink
	}
	if p.WebViewLink != nil {
		resp.WebViewLink = *p.WebViewLink
	}
	if p.CreatedTime != nil {
		resp.CreatedTime = p.CreatedTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}
