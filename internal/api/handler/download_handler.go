package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/korekulturteacher-afk/village-photos/internal/service"
	"github.com/korekulturteacher-afk/village-photos/pkg/response"
)

const (
	zipContentType  = "application/zip"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DownloadHandler 打包下载与台账导出 HTTP 处理器
type DownloadHandler struct {
	archiveSvc service.ArchiveService
	exportSvc  service.ExportService
}

// NewDownloadHandler 创建 DownloadHandler
func NewDownloadHandler(archiveSvc service.ArchiveService, exportSvc service.ExportService) *DownloadHandler {
	return &DownloadHandler{archiveSvc: archiveSvc, exportSvc: exportSvc}
}

// DownloadArchive 下载已批准请求的照片压缩包
// GET /api/v1/requests/:id/archive
func (h *DownloadHandler) DownloadArchive(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	buf, filename, err := h.archiveSvc.BuildForUser(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	writeAttachment(c, filename, zipContentType, buf.Bytes())
}

// DownloadPhoto 下载请求内的单张照片
// GET /api/v1/requests/:id/photos/:photoId
func (h *DownloadHandler) DownloadPhoto(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	file, err := h.archiveSvc.DownloadSingle(c.Request.Context(), email, c.Param("id"), c.Param("photoId"))
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	writeAttachment(c, file.Name, file.ContentType, file.Data)
}

// ── 管理员操作 ──

// AdminDownloadArchive 管理员代为打包
// GET /api/v1/admin/requests/:id/archive
func (h *DownloadHandler) AdminDownloadArchive(c *gin.Context) {
	buf, filename, err := h.archiveSvc.BuildForAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleArchiveError(c, err)
		return
	}

	writeAttachment(c, filename, zipContentType, buf.Bytes())
}

// ExportRequests 导出下载请求台账
// GET /api/v1/admin/requests/export?status=pending
func (h *DownloadHandler) ExportRequests(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		if errors.Is(err, service.ErrExportNoRequests) {
			response.NotFound(c, 16001, "暂无下载请求可导出")
			return
		}
		response.InternalError(c)
		return
	}

	writeAttachment(c, filename, xlsxContentType, buf.Bytes())
}

func (h *DownloadHandler) handleArchiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 14005, "下载请求不存在")
	case errors.Is(err, service.ErrNotApproved):
		response.Forbidden(c, 15001, "请求尚未批准，无法下载")
	case errors.Is(err, service.ErrDownloadExpired):
		response.Error(c, http.StatusGone, 15002, "下载有效期已过")
	case errors.Is(err, service.ErrArchiveEmpty):
		response.Error(c, http.StatusBadGateway, 15003, "没有任何照片下载成功")
	case errors.Is(err, service.ErrPhotoNotInScope):
		response.NotFound(c, 15004, "该照片不属于此下载请求")
	default:
		response.InternalError(c)
	}
}

// writeAttachment 设置下载响应头并写入文件内容
func writeAttachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}
