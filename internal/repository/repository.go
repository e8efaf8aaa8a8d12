package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Photo           PhotoRepository
	DownloadRequest DownloadRequestRepository
	RateLimit       RateLimitRepository
	InviteCode      InviteCodeRepository
	AllowedUser     AllowedUserRepository
	AdminConfig     AdminConfigRepository
	DownloadLog     DownloadLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Photo:           NewPhotoRepo(db),
		DownloadRequest: NewDownloadRequestRepo(db),
		RateLimit:       NewRateLimitRepo(db),
		InviteCode:      NewInviteCodeRepo(db),
		AllowedUser:     NewAllowedUserRepo(db),
		AdminConfig:     NewAdminConfigRepo(db),
		DownloadLog:     NewDownloadLogRepo(db),
	}
}
