package model

import "time"

// 下载请求状态
// pending → approved / rejected，两者均为终态
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// DownloadRequest 下载请求表 — 对应 download_requests
type DownloadRequest struct {
	ID                string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserEmail         string      `gorm:"type:text;not null"                             json:"user_email"`
	UserName          string      `gorm:"type:text;not null"                             json:"user_name"`
	UserPhone         string      `gorm:"type:text;not null"                             json:"user_phone"`
	PhotoIDs          StringArray `gorm:"type:text[];not null"                           json:"photo_ids"`
	Reason            *string     `gorm:"type:text"                                      json:"reason,omitempty"`
	Status            string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	AdminNote         *string     `gorm:"type:text"                                      json:"admin_note,omitempty"`
	RequestedAt       time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"requested_at"`
	ReviewedAt        *time.Time  `json:"reviewed_at,omitempty"`
	ReviewedBy        *string     `gorm:"type:text"                                      json:"reviewed_by,omitempty"`
	DownloadExpiresAt *time.Time  `json:"download_expires_at,omitempty"`
	DownloadedAt      *time.Time  `json:"downloaded_at,omitempty"`
}

// TableName 指定表名
func (DownloadRequest) TableName() string { return "download_requests" }

// Downloadable 请求是否处于可下载状态（已批准且未超过下载有效期）
func (r *DownloadRequest) Downloadable(now time.Time) bool {
	if r.Status != RequestStatusApproved {
		return false
	}
	if r.DownloadExpiresAt != nil && now.After(*r.DownloadExpiresAt) {
		return false
	}
	return true
}

// RateLimit 下载请求限流计数表 — 对应 rate_limits
// 每个用户一行，窗口到期后计数清零
type RateLimit struct {
	UserEmail    string    `gorm:"type:text;primaryKey" json:"user_email"`
	RequestCount int       `gorm:"not null;default:0"   json:"request_count"`
	ResetAt      time.Time `gorm:"not null"             json:"reset_at"`
}

// TableName 指定表名
func (RateLimit) TableName() string { return "rate_limits" }

// DownloadLog 单文件下载审计表 — 对应 download_logs
type DownloadLog struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserEmail    string    `gorm:"type:text;not null"                             json:"user_email"`
	FileID       string    `gorm:"type:text;not null"                             json:"file_id"`
	FileName     *string   `gorm:"type:text"                                      json:"file_name,omitempty"`
	IPAddress    *string   `gorm:"type:text"                                      json:"ip_address,omitempty"`
	DownloadedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"downloaded_at"`
}

// TableName 指定表名
func (DownloadLog) TableName() string { return "download_logs" }
