package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
)

// ── 下载请求模块业务错误 ──

var (
	ErrRequestNotFound  = errors.New("下载请求不存在")
	ErrTooManyPending   = errors.New("待审核请求数量已达上限，请等待管理员处理")
	ErrRateLimited      = errors.New("请求过于频繁，请稍后再试")
	ErrUnknownPhotos    = errors.New("请求包含不存在的照片")
	ErrAlreadyReviewed  = errors.New("该请求已被审核")
	ErrNoPhotosSelected = errors.New("未选择任何照片")
)

// RequestService 下载请求业务接口
type RequestService interface {
	// Create 创建下载请求
	// 顺序：照片存在性校验 → 待审核数量上限 → 频率限额（原子占用）→ 入库
	Create(ctx context.Context, email string, req *dto.CreateDownloadRequest) (*model.DownloadRequest, error)
	ListMine(ctx context.Context, email string) ([]model.DownloadRequest, error)
	// GetMine 按所有权查询单个请求
	GetMine(ctx context.Context, email, id string) (*model.DownloadRequest, error)

	// ── 管理员操作 ──
	AdminList(ctx context.Context, status string) ([]model.DownloadRequest, error)
	// Review 审批请求；对已终态请求返回 ErrAlreadyReviewed，先到者胜出
	Review(ctx context.Context, id, reviewer string, req *dto.ReviewRequest) (*model.DownloadRequest, error)
}

type requestService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) RequestService {
	return &requestService{cfg: cfg, repo: repo, logger: logger}
}

func (s *requestService) Create(ctx context.Context, email string, req *dto.CreateDownloadRequest) (*model.DownloadRequest, error) {
	// 1. 去重并保序
	photoIDs := dedupe(req.PhotoIDs)
	if len(photoIDs) == 0 {
		return nil, ErrNoPhotosSelected
	}

	// 2. 照片存在性校验
	photos, err := s.repo.Photo.ListByIDs(ctx, photoIDs)
	if err != nil {
		s.logger.Error("查询请求照片失败", zap.Error(err))
		return nil, err
	}
	if len(photos) != len(photoIDs) {
		return nil, ErrUnknownPhotos
	}

	// 3. 待审核数量上限
	pending, err := s.repo.DownloadRequest.CountPending(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending >= int64(s.cfg.Limits.MaxPendingRequests) {
		return nil, ErrTooManyPending
	}

	// 4. 频率限额：单条语句原子占用，占不到名额即拒绝
	ok, err := s.repo.RateLimit.TryAcquire(ctx, email,
		s.cfg.Limits.MaxRequestsPerHour, s.cfg.Limits.RateWindow)
	if err != nil {
		s.logger.Error("占用限额名额失败", zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrRateLimited
	}

	// 5. 入库
	request := &model.DownloadRequest{
		UserEmail:   email,
		UserName:    req.Name,
		UserPhone:   req.Phone,
		PhotoIDs:    photoIDs,
		Status:      model.RequestStatusPending,
		RequestedAt: time.Now(),
	}
	if req.Reason != "" {
		request.Reason = &req.Reason
	}
	if err := s.repo.DownloadRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建下载请求失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("下载请求已创建",
		zap.String("id", request.ID),
		zap.String("email", email),
		zap.Int("photos", len(photoIDs)))
	return request, nil
}

func (s *requestService) ListMine(ctx context.Context, email string) ([]model.DownloadRequest, error) {
	return s.repo.DownloadRequest.ListByUser(ctx, email)
}

func (s *requestService) GetMine(ctx context.Context, email, id string) (*model.DownloadRequest, error) {
	req, err := s.repo.DownloadRequest.GetByIDForUser(ctx, id, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// ── 管理员操作 ──

func (s *requestService) AdminList(ctx context.Context, status string) ([]model.DownloadRequest, error) {
	return s.repo.DownloadRequest.ListByStatus(ctx, status)
}

func (s *requestService) Review(ctx context.Context, id, reviewer string, req *dto.ReviewRequest) (*model.DownloadRequest, error) {
	now := time.Now()
	upd := &repository.ReviewUpdate{
		ReviewedBy: reviewer,
		ReviewedAt: now,
	}
	switch req.Action {
	case "approve":
		upd.Status = model.RequestStatusApproved
		expires := now.Add(s.cfg.Limits.DownloadWindow)
		upd.DownloadExpiresAt = &expires
	case "reject":
		upd.Status = model.RequestStatusRejected
	}
	if req.AdminNote != "" {
		upd.AdminNote = &req.AdminNote
	}

	// 条件更新：仅 pending 状态可写入终态，并发审核只有一方生效
	updated, err := s.repo.DownloadRequest.Review(ctx, id, upd)
	if err != nil {
		s.logger.Error("审核下载请求失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !updated {
		// 区分请求不存在与已被审核
		if _, err := s.repo.DownloadRequest.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRequestNotFound
			}
			return nil, err
		}
		return nil, ErrAlreadyReviewed
	}

	s.logger.Info("下载请求已审核",
		zap.String("id", id),
		zap.String("action", req.Action),
		zap.String("reviewer", reviewer))
	return s.repo.DownloadRequest.GetByID(ctx, id)
}

// dedupe 去重并保持原始顺序
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
