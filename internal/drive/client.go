package drive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/config"
)

const driveBaseURL = "https://www.googleapis.com/drive/v3"

// File 远端存储的文件元数据
type File struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	MimeType       string     `json:"mimeType"`
	Size           string     `json:"size,omitempty"`
	ThumbnailLink  string     `json:"thumbnailLink,omitempty"`
	WebContentLink string     `json:"webContentLink,omitempty"`
	WebViewLink    string     `json:"webViewLink,omitempty"`
	CreatedTime    *time.Time `json:"createdTime,omitempty"`
	ModifiedTime   *time.Time `json:"modifiedTime,omitempty"`
}

// SizeBytes 将 Drive 返回的字符串字节数转为 int64，缺失时返回 nil
func (f *File) SizeBytes() *int64 {
	if f.Size == "" {
		return nil
	}
	n, err := strconv.ParseInt(f.Size, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Client 远端文件存储适配器接口
// 业务层通过该接口访问 Google Drive，测试中以内存实现替换
type Client interface {
	// ListFiles 列出若干文件夹下的全部图片文件（自动翻页）
	ListFiles(ctx context.Context, folderIDs []string) ([]File, error)
	// GetFile 查询单个文件的元数据
	GetFile(ctx context.Context, fileID string) (*File, error)
	// Download 下载文件完整字节
	Download(ctx context.Context, fileID string) ([]byte, error)
	// DownloadThumbnail 下载缩略图；无缩略图时回退为完整下载
	DownloadThumbnail(ctx context.Context, fileID string, size int) ([]byte, error)
}

// driveClient Client 的 Google Drive v3 实现
type driveClient struct {
	http    *resty.Client
	tokens  *tokenSource
	baseURL string
	logger  *zap.Logger
}

// NewClient 创建 Google Drive 客户端
func NewClient(cfg *config.DriveConfig, logger *zap.Logger) (Client, error) {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	http := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &driveClient{
		http:    http,
		tokens:  newTokenSource(creds, http),
		baseURL: driveBaseURL,
		logger:  logger,
	}, nil
}

type fileListPage struct {
	NextPageToken string `json:"nextPageToken"`
	Files         []File `json:"files"`
}

func (c *driveClient) ListFiles(ctx context.Context, folderIDs []string) ([]File, error) {
	var all []File

	for _, folderID := range folderIDs {
		pageToken := ""
		for {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return nil, err
			}

			var page fileListPage
			req := c.http.R().
				SetContext(ctx).
				SetAuthToken(token).
				SetQueryParams(map[string]string{
					"q":        fmt.Sprintf("'%s' in parents and (mimeType contains 'image/')", folderID),
					"fields":   "nextPageToken, files(id, name, thumbnailLink, webContentLink, webViewLink, mimeType, size, createdTime, modifiedTime)",
					"pageSize": "1000",
					"orderBy":  "createdTime desc",
				}).
				SetResult(&page)
			if pageToken != "" {
				req.SetQueryParam("pageToken", pageToken)
			}

			resp, err := req.Get(c.baseURL + "/files")
			if err != nil {
				return nil, fmt.Errorf("查询文件列表失败: %w", err)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("查询文件列表失败 (%d): %s", resp.StatusCode(), resp.String())
			}

			for _, f := range page.Files {
				if f.ID == "" || f.Name == "" || f.MimeType == "" {
					c.logger.Warn("跳过元数据不完整的文件", zap.String("file_id", f.ID))
					continue
				}
				all = append(all, f)
			}

			if page.NextPageToken == "" {
				break
			}
			pageToken = page.NextPageToken
		}
	}

	return all, nil
}

func (c *driveClient) GetFile(ctx context.Context, fileID string) (*File, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var file File
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("fields", "id, name, thumbnailLink, webContentLink, webViewLink, mimeType, size, createdTime, modifiedTime").
		SetResult(&file).
		Get(c.baseURL + "/files/" + url.PathEscape(fileID))
	if err != nil {
		return nil, fmt.Errorf("查询文件元数据失败: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, ErrFileNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("查询文件元数据失败 (%d): %s", resp.StatusCode(), resp.String())
	}
	if file.ID == "" {
		return nil, ErrFileNotFound
	}

	return &file, nil
}

func (c *driveClient) Download(ctx context.Context, fileID string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"alt":              "media",
			"acknowledgeAbuse": "true",
		}).
		Get(c.baseURL + "/files/" + url.PathEscape(fileID))
	if err != nil {
		return nil, fmt.Errorf("下载文件失败: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, ErrFileNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("下载文件失败 (%d)", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, ErrEmptyFile
	}

	return body, nil
}

func (c *driveClient) DownloadThumbnail(ctx context.Context, fileID string, size int) ([]byte, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if file.ThumbnailLink != "" {
		u, err := url.Parse(file.ThumbnailLink)
		if err == nil {
			if size > 0 {
				q := u.Query()
				q.Set("sz", fmt.Sprintf("w%d", size))
				u.RawQuery = q.Encode()
			}

			resp, err := c.http.R().SetContext(ctx).Get(u.String())
			if err == nil && !resp.IsError() && len(resp.Body()) > 0 {
				return resp.Body(), nil
			}
			c.logger.Warn("缩略图抓取失败，回退为完整下载", zap.String("file_id", fileID))
		}
	}

	return c.Download(ctx, fileID)
}
