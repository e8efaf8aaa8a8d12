package handler

import (
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/redis"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Invite   *InviteHandler
	Photo    *PhotoHandler
	Request  *RequestHandler
	Download *DownloadHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, rdb *redis.Client) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth, rdb),
		Invite:   NewInviteHandler(svc.Invite),
		Photo:    NewPhotoHandler(svc.Photo),
		Request:  NewRequestHandler(svc.Request),
		Download: NewDownloadHandler(svc.Archive, svc.Export),
	}
}
