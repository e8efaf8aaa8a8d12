package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/response"
)

// RequestHandler 下载请求模块 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Create 创建下载请求
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.CreateDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.requestSvc.Create(c.Request.Context(), email, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPhotosSelected):
			response.BadRequest(c, 14001, "未选择任何照片")
		case errors.Is(err, service.ErrUnknownPhotos):
			response.BadRequest(c, 14002, "请求包含不存在的照片")
		case errors.Is(err, service.ErrTooManyPending):
			response.Error(c, http.StatusTooManyRequests, 14003, "待审核请求数量已达上限，请等待管理员处理")
		case errors.Is(err, service.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, 14004, "请求过于频繁，请稍后再试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, toRequestResponse(result))
}

// ListMine 我的下载请求列表
// GET /api/v1/requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	requests, err := h.requestSvc.ListMine(c.Request.Context(), email)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, toRequestResponses(requests))
}

// GetMine 查询我的单个下载请求
// GET /api/v1/requests/:id
func (h *RequestHandler) GetMine(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.GetMine(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			response.NotFound(c, 14005, "下载请求不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, toRequestResponse(result))
}

// ── 管理员操作 ──

// AdminList 下载请求列表（可按状态过滤）
// GET /api/v1/admin/requests?status=pending
func (h *RequestHandler) AdminList(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", model.RequestStatusPending, model.RequestStatusApproved, model.RequestStatusRejected:
	default:
		response.BadRequest(c, 10001, "status 参数无效")
		return
	}

	requests, err := h.requestSvc.AdminList(c.Request.Context(), status)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, toRequestResponses(requests))
}

// Review 审批下载请求
// POST /api/v1/admin/requests/:id/review
func (h *RequestHandler) Review(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.requestSvc.Review(c.Request.Context(), c.Param("id"), "admin", &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.NotFound(c, 14005, "下载请求不存在")
		case errors.Is(err, service.ErrAlreadyReviewed):
			response.Conflict(c, 14006, "该请求已被审核")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, toRequestResponse(result))
}

func toRequestResponse(r *model.DownloadRequest) dto.DownloadRequestResponse {
	resp := dto.DownloadRequestResponse{
		ID:           r.ID,
		UserEmail:    r.UserEmail,
		Name:         r.UserName,
		Phone:        r.UserPhone,
		PhotoIDs:     r.PhotoIDs,
		PhotoCount:   len(r.PhotoIDs),
		Status:       r.Status,
		CreatedAt:    r.RequestedAt,
		ReviewedAt:   r.ReviewedAt,
		ExpiresAt:    r.DownloadExpiresAt,
		DownloadedAt: r.DownloadedAt,
	}
	if r.Reason != nil {
		resp.Reason = *r.Reason
	}
	if r.AdminNote != nil {
		resp.AdminNote = *r.AdminNote
	}
	return resp
}

func toRequestResponses(rs []model.DownloadRequest) []dto.DownloadRequestResponse {
	out := make([]dto.DownloadRequestResponse, 0, len(rs))
	for i := range rs {
		out = append(out, toRequestResponse(&rs[i]))
	}
	return out
}
