package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/api/handler"
	"github.com/korekulturteacher-afk/village-photos/internal/api/middleware"
	"github.com/korekulturteacher-afk/village-photos/pkg/jwt"
	"github.com/korekulturteacher-afk/village-photos/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB，所有接口均为 JSON 小报文

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证与邀请（无需认证，IP 限流保护）
		auth := v1.Group("/auth")
		{
			auth.POST("/session", middleware.RateLimit(rdb, 20, time.Minute), h.Auth.CreateSession)
			auth.POST("/admin/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.AdminLogin)
		}

		invite := v1.Group("/invite")
		invite.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			invite.POST("/verify", h.Invite.Verify)
			invite.POST("/redeem", h.Invite.Redeem)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 照片画廊
			photos := authorized.Group("/photos")
			{
				photos.GET("", h.Photo.ListGallery)
				photos.GET("/:id/image", h.Photo.GetImage)
				photos.GET("/:id/thumbnail", h.Photo.GetThumbnail)
				photos.POST("/thumbnails", h.Photo.BatchThumbnails)
			}

			// 下载请求
			requests := authorized.Group("/requests")
			{
				requests.POST("", h.Request.Create)
				requests.GET("", h.Request.ListMine)
				requests.GET("/:id", h.Request.GetMine)
				requests.GET("/:id/archive", h.Download.DownloadArchive)
				requests.GET("/:id/photos/:photoId", h.Download.DownloadPhoto)
			}

			// 管理员模块
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth("admin"))
			{
				admin.PUT("/password", h.Auth.ChangePassword)

				admin.GET("/photos", h.Photo.AdminList)
				admin.POST("/photos/sync", h.Photo.Sync)
				admin.PUT("/photos/approval", h.Photo.SetApproval)
				admin.PUT("/photos/publish", h.Photo.SetPublic)
				admin.POST("/photos/approve-all", h.Photo.ApproveAll)
				admin.DELETE("/photos/:id", h.Photo.Delete)

				admin.GET("/requests", h.Request.AdminList)
				admin.GET("/requests/export", h.Download.ExportRequests)
				admin.POST("/requests/:id/review", h.Request.Review)
				admin.GET("/requests/:id/archive", h.Download.AdminDownloadArchive)

				admin.POST("/invites", h.Invite.CreateCode)
				admin.GET("/invites", h.Invite.ListCodes)
				admin.PATCH("/invites/:code", h.Invite.UpdateCode)
				admin.DELETE("/invites/:code", h.Invite.DeleteCode)

				admin.GET("/users", h.Invite.ListAllowedUsers)
				admin.POST("/users", h.Invite.AddAllowedUser)
			}
		}
	}

	return r
}
