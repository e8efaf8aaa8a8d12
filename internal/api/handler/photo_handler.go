package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/response"
)

// PhotoHandler 照片模块 HTTP 处理器
type PhotoHandler struct {
	photoSvc service.PhotoService
}

// NewPhotoHandler 创建 PhotoHandler
func NewPhotoHandler(photoSvc service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoSvc: photoSvc}
}

// ListGallery 画廊照片列表
// GET /api/v1/photos
func (h *PhotoHandler) ListGallery(c *gin.Context) {
	photos, err := h.photoSvc.ListGallery(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, photos)
}

// GetImage 获取照片原图
// GET /api/v1/photos/:id/image
func (h *PhotoHandler) GetImage(c *gin.Context) {
	data, mime, err := h.photoSvc.GetImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePhotoError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, mime, data)
}

// GetThumbnail 获取照片缩略图
// GET /api/v1/photos/:id/thumbnail?width=400
func (h *PhotoHandler) GetThumbnail(c *gin.Context) {
	width, _ := strconv.Atoi(c.DefaultQuery("width", "400"))

	data, err := h.photoSvc.GetThumbnail(c.Request.Context(), c.Param("id"), width)
	if err != nil {
		h.handlePhotoError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// BatchThumbnails 批量获取缩略图
// POST /api/v1/photos/thumbnails
func (h *PhotoHandler) BatchThumbnails(c *gin.Context) {
	var req dto.ThumbnailBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	response.OK(c, h.photoSvc.BatchThumbnails(c.Request.Context(), &req))
}

// ── 管理员操作 ──

// AdminList 全量照片列表（可按审核状态过滤）
// GET /api/v1/admin/photos?approved=true|false
func (h *PhotoHandler) AdminList(c *gin.Context) {
	var approved *bool
	if q := c.Query("approved"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			response.BadRequest(c, 10001, "approved 参数无效")
			return
		}
		approved = &b
	}

	photos, err := h.photoSvc.AdminList(c.Request.Context(), approved)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, photos)
}

// Sync 从远端文件夹同步照片
// POST /api/v1/admin/photos/sync
func (h *PhotoHandler) Sync(c *gin.Context) {
	result, err := h.photoSvc.Sync(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// SetApproval 批量审批照片
// PUT /api/v1/admin/photos/approval
func (h *PhotoHandler) SetApproval(c *gin.Context) {
	var req dto.PhotoApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	n, err := h.photoSvc.SetApproval(c.Request.Context(), &req, "admin")
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"updated": n})
}

// SetPublic 批量设置公开标记
// PUT /api/v1/admin/photos/publish
func (h *PhotoHandler) SetPublic(c *gin.Context) {
	var req dto.PhotoPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	n, err := h.photoSvc.SetPublic(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"updated": n})
}

// ApproveAll 一键审批全部待审照片
// POST /api/v1/admin/photos/approve-all
func (h *PhotoHandler) ApproveAll(c *gin.Context) {
	n, err := h.photoSvc.ApproveAll(c.Request.Context(), "admin")
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"updated": n})
}

// Delete 删除照片记录
// DELETE /api/v1/admin/photos/:id
func (h *PhotoHandler) Delete(c *gin.Context) {
	if err := h.photoSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handlePhotoError(c, err)
		return
	}
	response.OKMessage(c, "照片已删除", nil)
}

func (h *PhotoHandler) handlePhotoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhotoNotFound):
		response.NotFound(c, 13001, "照片不存在")
	case errors.Is(err, service.ErrPhotoNotVisible):
		response.Forbidden(c, 13002, "照片尚未公开")
	default:
		response.InternalError(c)
	}
}
