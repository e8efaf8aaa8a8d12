package service

import (
	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
	"github.com/korekulturteacher-afk/village-photos/pkg/cache"
	"github.com/korekulturteacher-afk/village-photos/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Invite  InviteService
	Photo   PhotoService
	Request RequestService
	Archive ArchiveService
	Export  ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	driveClient drive.Client,
	thumbCache *cache.LRU,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, logger),
		Invite:  NewInviteService(repo, logger),
		Photo:   NewPhotoService(cfg, repo, driveClient, thumbCache, logger),
		Request: NewRequestService(cfg, repo, logger),
		Archive: NewArchiveService(cfg, repo, driveClient, logger),
		Export:  NewExportService(repo, logger),
	}
}
