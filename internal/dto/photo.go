package dto

// ── 照片模块 DTO ──

// PhotoResponse 照片元数据响应
type PhotoResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mime_type"`
	ThumbnailLink string `json:"thumbnail_link,omitempty"`
	WebViewLink   string `json:"web_view_link,omitempty"`
	CreatedTime   string `json:"created_time,omitempty"`
	Approved      bool   `json:"approved"`
	IsPublic      bool   `json:"is_public"`
}

// SyncResultResponse 照片同步结果响应
type SyncResultResponse struct {
	Total   int `json:"total"`   // Drive 目录内照片总数
	Added   int `json:"added"`   // 本次新入库数量
	Skipped int `json:"skipped"` // 无效文件 ID 跳过数量
	Removed int `json:"removed"` // 历史脏数据清理数量
}

// PhotoApprovalRequest 照片批量审批请求
type PhotoApprovalRequest struct {
	PhotoIDs []string `json:"photo_ids" binding:"required,min=1,max=500,dive,max=60"`
	Approved bool     `json:"approved"`
}

// PhotoPublishRequest 照片批量公开设置请求
type PhotoPublishRequest struct {
	PhotoIDs []string `json:"photo_ids" binding:"required,min=1,max=500,dive,max=60"`
	IsPublic bool     `json:"is_public"`
}

// ThumbnailBatchRequest 缩略图批量获取请求
type ThumbnailBatchRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1,max=50,dive,max=60"`
	Width   int      `json:"width"    binding:"omitempty,min=16,max=2048"`
}

// ThumbnailItem 单张缩略图结果，失败时 Error 非空
type ThumbnailItem struct {
	FileID  string `json:"file_id"`
	DataURL string `json:"data_url,omitempty"`
	Error   string `json:"error,omitempty"`
}
