package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/response"
)

// InviteHandler 邀请码与允许名单 HTTP 处理器
type InviteHandler struct {
	inviteSvc service.InviteService
}

// NewInviteHandler 创建 InviteHandler
func NewInviteHandler(inviteSvc service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

// Verify 预校验邀请码
// POST /api/v1/invite/verify
func (h *InviteHandler) Verify(c *gin.Context) {
	var req dto.InviteVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.inviteSvc.Verify(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Redeem 兑换邀请码，加入允许名单
// POST /api/v1/invite/redeem
func (h *InviteHandler) Redeem(c *gin.Context) {
	var req dto.InviteRedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.inviteSvc.Redeem(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrInviteInvalid) {
			response.BadRequest(c, 12001, "邀请码无效或已失效")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, result)
}

// ── 管理员操作 ──

// CreateCode 创建邀请码
// POST /api/v1/admin/invites
func (h *InviteHandler) CreateCode(c *gin.Context) {
	var req dto.CreateInviteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	invite, err := h.inviteSvc.CreateCode(c.Request.Context(), &req, "admin")
	if err != nil {
		if errors.Is(err, service.ErrInviteExists) {
			response.Conflict(c, 12002, "邀请码已存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, invite)
}

// ListCodes 邀请码列表
// GET /api/v1/admin/invites
func (h *InviteHandler) ListCodes(c *gin.Context) {
	codes, err := h.inviteSvc.ListCodes(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, codes)
}

// UpdateCode 更新邀请码
// PATCH /api/v1/admin/invites/:code
func (h *InviteHandler) UpdateCode(c *gin.Context) {
	var req dto.UpdateInviteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	invite, err := h.inviteSvc.UpdateCode(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		if errors.Is(err, service.ErrInviteInvalid) {
			response.NotFound(c, 12003, "邀请码不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, invite)
}

// DeleteCode 删除邀请码
// DELETE /api/v1/admin/invites/:code
func (h *InviteHandler) DeleteCode(c *gin.Context) {
	if err := h.inviteSvc.DeleteCode(c.Request.Context(), c.Param("code")); err != nil {
		if errors.Is(err, service.ErrInviteCodeEmpty) {
			response.BadRequest(c, 10001, "邀请码不能为空")
			return
		}
		response.InternalError(c)
		return
	}
	response.OKMessage(c, "邀请码已删除", nil)
}

// ListAllowedUsers 允许名单列表
// GET /api/v1/admin/users
func (h *InviteHandler) ListAllowedUsers(c *gin.Context) {
	users, err := h.inviteSvc.ListAllowedUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, users)
}

// AddAllowedUser 手工添加允许名单用户
// POST /api/v1/admin/users
func (h *InviteHandler) AddAllowedUser(c *gin.Context) {
	var req dto.AddAllowedUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.inviteSvc.AddAllowedUser(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyIn) {
			response.Conflict(c, 12004, "该邮箱已在允许名单中")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, user)
}
