package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/redis"
	"github.com/korekulturteacher-afk/village-photos/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	rdb     *redis.Client
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, rdb: rdb}
}

// CreateSession 以身份提供方回调的邮箱换取会话令牌
// POST /api/v1/auth/session
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.CreateSession(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			response.Forbidden(c, 11001, "该邮箱不在允许名单中，请先使用邀请码注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Me 查询当前会话的允许名单记录
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.authSvc.GetProfile(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			response.Forbidden(c, 11001, "该邮箱不在允许名单中，请先使用邀请码注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout 登出，将当前令牌加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.rdb != nil {
		jti := c.GetString("jti")
		if expiresAt, ok := c.Get("token_expires_at"); ok && jti != "" {
			if exp, ok := expiresAt.(time.Time); ok {
				_ = h.rdb.BlacklistToken(c.Request.Context(), jti, time.Until(exp))
			}
		}
	}
	response.OKMessage(c, "已登出", nil)
}

// AdminLogin 管理员口令登录
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11002, "口令错误")
		case errors.Is(err, service.ErrPasswordNotSet):
			response.Error(c, http.StatusConflict, 11003, "管理员口令尚未初始化")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// ChangePassword 管理员修改口令
// PUT /api/v1/admin/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11002, "口令错误")
		case errors.Is(err, service.ErrPasswordNotSet):
			response.Error(c, http.StatusConflict, 11003, "管理员口令尚未初始化")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OKMessage(c, "口令已更新", nil)
}
