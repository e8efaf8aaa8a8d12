package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportNoRequests = errors.New("暂无下载请求可导出")

// ExportService 导出业务接口
//
// 设计说明：
//   - 将全部下载请求导出为 Excel (.xlsx) 台账，供线下归档
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRequests 导出下载请求台账；status 为空串时导出全部
	ExportRequests(ctx context.Context, status string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportRequests(ctx context.Context, status string) (*bytes.Buffer, string, error) {
	requests, err := s.repo.DownloadRequest.ListByStatus(ctx, status)
	if err != nil {
		s.logger.Error("查询下载请求失败", zap.Error(err))
		return nil, "", err
	}
	if len(requests) == 0 {
		return nil, "", ErrExportNoRequests
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "下载请求"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"请求时间", "姓名", "邮箱", "电话", "照片数", "事由", "状态", "审核时间", "审核备注", "下载时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, req := range requests {
		values := []interface{}{
			req.RequestedAt.Format("2006-01-02 15:04"),
			req.UserName,
			req.UserEmail,
			req.UserPhone,
			len(req.PhotoIDs),
			derefOr(req.Reason, ""),
			statusLabel(req.Status),
			formatTimePtr(req.ReviewedAt),
			derefOr(req.AdminNote, ""),
			formatTimePtr(req.DownloadedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// 列宽：时间与邮箱列加宽
	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "C", "C", 28)
	f.SetColWidth(sheet, "F", "F", 30)
	f.SetColWidth(sheet, "H", "J", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 文件失败", zap.Error(err))
		return nil, "", err
	}

	suffix := status
	if suffix == "" {
		suffix = "all"
	}
	filename := fmt.Sprintf("download_requests_%s_%s.xlsx",
		strings.ToLower(suffix), time.Now().Format("2006-01-02"))
	return buf, filename, nil
}

func statusLabel(status string) string {
	switch status {
	case model.RequestStatusPending:
		return "待审核"
	case model.RequestStatusApproved:
		return "已批准"
	case model.RequestStatusRejected:
		return "已拒绝"
	default:
		return status
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
