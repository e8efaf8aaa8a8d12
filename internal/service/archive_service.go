package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/korekulturteacher-afk/village-photos/config"
	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/internal/repository"
)

// ── 打包下载模块业务错误 ──

var (
	ErrNotApproved      = errors.New("请求尚未批准，无法下载")
	ErrDownloadExpired  = errors.New("下载有效期已过")
	ErrArchiveEmpty     = errors.New("没有任何照片下载成功")
	ErrPhotoNotInScope = errors.New("该照片不属于此下载请求")
)

// ArchiveService 打包下载业务接口
//
// 设计说明：
//   - 打包前逐张从远端拉取字节，受信号量约束的固定并发度抓取，
//     结果按请求中的照片顺序写入压缩包，产物与并发调度无关
//   - 单张抓取失败记录日志后跳过；全部失败才返回错误
//   - downloaded_at 仅在压缩包成功产出后写入
type ArchiveService interface {
	// BuildForUser 请求人下载：校验所有权、批准状态与有效期
	BuildForUser(ctx context.Context, email, requestID string) (*bytes.Buffer, string, error)
	// BuildForAdmin 管理员代为打包，不校验所有权与有效期；
	// 条目嵌套在 <姓名>_<请求日期>/ 目录下以便归档
	BuildForAdmin(ctx context.Context, requestID string) (*bytes.Buffer, string, error)
	// DownloadSingle 下载请求内的单张照片，校验照片属于该请求
	DownloadSingle(ctx context.Context, email, requestID, fileID string) (*SingleFile, error)
}

// SingleFile 单张照片下载结果
type SingleFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type archiveService struct {
	cfg    *config.Config
	repo   *repository.Repository
	drive  drive.Client
	logger *zap.Logger
}

// NewArchiveService 创建 ArchiveService 实例
func NewArchiveService(
	cfg *config.Config,
	repo *repository.Repository,
	driveClient drive.Client,
	logger *zap.Logger,
) ArchiveService {
	return &archiveService{
		cfg:    cfg,
		repo:   repo,
		drive:  driveClient,
		logger: logger,
	}
}

func (s *archiveService) BuildForUser(ctx context.Context, email, requestID string) (*bytes.Buffer, string, error) {
	request, err := s.repo.DownloadRequest.GetByIDForUser(ctx, requestID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRequestNotFound
		}
		return nil, "", err
	}

	now := time.Now()
	if request.Status != model.RequestStatusApproved {
		return nil, "", ErrNotApproved
	}
	if !request.Downloadable(now) {
		return nil, "", ErrDownloadExpired
	}

	return s.build(ctx, request, "")
}

func (s *archiveService) BuildForAdmin(ctx context.Context, requestID string) (*bytes.Buffer, string, error) {
	request, err := s.repo.DownloadRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRequestNotFound
		}
		return nil, "", err
	}
	if request.Status != model.RequestStatusApproved {
		return nil, "", ErrNotApproved
	}

	prefix := fmt.Sprintf("%s_%s/", request.UserName, request.RequestedAt.Format("2006-01-02"))
	return s.build(ctx, request, prefix)
}

func (s *archiveService) DownloadSingle(ctx context.Context, email, requestID, fileID string) (*SingleFile, error) {
	request, err := s.repo.DownloadRequest.GetByIDForUser(ctx, requestID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	now := time.Now()
	if request.Status != model.RequestStatusApproved {
		return nil, ErrNotApproved
	}
	if !request.Downloadable(now) {
		return nil, ErrDownloadExpired
	}

	// 照片必须属于该请求
	found := false
	for _, id := range request.PhotoIDs {
		if id == fileID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrPhotoNotInScope
	}

	name := fileID + ".jpg"
	if photos, err := s.repo.Photo.ListByIDs(ctx, []string{fileID}); err == nil && len(photos) > 0 {
		name = photos[0].Name
	}

	data, err := s.drive.Download(ctx, fileID)
	if err != nil {
		s.logger.Error("单张照片抓取失败",
			zap.String("request_id", requestID), zap.String("file_id", fileID), zap.Error(err))
		return nil, err
	}

	entry := &model.DownloadLog{
		UserEmail:    request.UserEmail,
		FileID:       fileID,
		FileName:     &name,
		DownloadedAt: now,
	}
	if err := s.repo.DownloadLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入下载审计记录失败", zap.String("file_id", fileID), zap.Error(err))
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &SingleFile{Name: name, ContentType: contentType, Data: data}, nil
}

// fetchResult 单张照片的抓取结果，index 对应请求内的照片序号
type fetchResult struct {
	index int
	name  string
	data  []byte
	err   error
}

func (s *archiveService) build(ctx context.Context, request *model.DownloadRequest, prefix string) (*bytes.Buffer, string, error) {
	photoIDs := []string(request.PhotoIDs)

	// 1. 查询照片元数据，补全压缩包内文件名
	photos, err := s.repo.Photo.ListByIDs(ctx, photoIDs)
	if err != nil {
		return nil, "", err
	}
	names := make(map[string]string, len(photos))
	for i := range photos {
		names[photos[i].ID] = photos[i].Name
	}

	// 2. 受信号量约束的并发抓取，结果按请求顺序落位
	concurrency := s.cfg.Drive.DownloadConcurrency
	sem := make(chan struct{}, concurrency)
	results := make([]fetchResult, len(photoIDs))

	var wg sync.WaitGroup
	for i, fileID := range photoIDs {
		wg.Add(1)
		go func(i int, fileID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			name := names[fileID]
			if name == "" {
				name = fileID + ".jpg"
			}
			data, err := s.drive.Download(ctx, fileID)
			results[i] = fetchResult{index: i, name: name, data: data, err: err}
		}(i, fileID)
	}
	wg.Wait()

	// 3. 写入压缩包；单张失败跳过并记录
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	entries := 0
	used := make(map[string]int, len(photoIDs))

	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("打包时跳过抓取失败的照片",
				zap.String("request_id", request.ID),
				zap.String("file_id", photoIDs[r.index]),
				zap.Error(r.err))
			continue
		}

		entryName := r.name
		if n := used[entryName]; n > 0 {
			entryName = fmt.Sprintf("%d_%s", n, entryName)
		}
		used[r.name]++

		w, err := zw.Create(prefix + entryName)
		if err != nil {
			zw.Close()
			return nil, "", err
		}
		if _, err := w.Write(r.data); err != nil {
			zw.Close()
			return nil, "", err
		}
		entries++
	}

	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	if entries == 0 {
		return nil, "", ErrArchiveEmpty
	}

	// 4. 压缩包产出成功后才记录下载时间与逐文件审计
	downloadedAt := time.Now()
	if err := s.repo.DownloadRequest.MarkDownloaded(ctx, request.ID, downloadedAt); err != nil {
		s.logger.Error("记录下载时间失败", zap.String("request_id", request.ID), zap.Error(err))
	}
	for _, r := range results {
		if r.err != nil {
			continue
		}
		name := r.name
		entry := &model.DownloadLog{
			UserEmail:    request.UserEmail,
			FileID:       photoIDs[r.index],
			FileName:     &name,
			DownloadedAt: downloadedAt,
		}
		if err := s.repo.DownloadLog.Create(ctx, entry); err != nil {
			s.logger.Warn("写入下载审计记录失败",
				zap.String("file_id", photoIDs[r.index]), zap.Error(err))
		}
	}

	filename := fmt.Sprintf("%s_%s.zip", request.UserName, time.Now().Format("2006-01-02"))
	s.logger.Info("压缩包已生成",
		zap.String("request_id", request.ID),
		zap.Int("entries", entries),
		zap.Int("requested", len(photoIDs)))
	return buf, filename, nil
}
