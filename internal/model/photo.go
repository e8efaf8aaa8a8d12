package model

import (
	"regexp"
	"time"
)

// Photo 照片表 — 对应 photos
// 主键为远端存储（Google Drive）的文件 ID
type Photo struct {
	ID             string     `gorm:"type:text;primaryKey"       json:"id"`
	Name           string     `gorm:"type:text;not null"         json:"name"`
	MimeType       string     `gorm:"type:text;not null"         json:"mime_type"`
	Size           *int64     `json:"size,omitempty"`
	ThumbnailLink  *string    `gorm:"type:text"                  json:"thumbnail_link,omitempty"`
	WebContentLink *string    `gorm:"type:text"                  json:"web_content_link,omitempty"`
	WebViewLink    *string    `gorm:"type:text"                  json:"web_view_link,omitempty"`
	CreatedTime    *time.Time `json:"created_time,omitempty"`
	ModifiedTime   *time.Time `json:"modified_time,omitempty"`
	IsApproved     bool       `gorm:"not null;default:false"     json:"is_approved"`
	IsPublic       bool       `gorm:"not null;default:false"     json:"is_public"`
	ApprovedBy     *string    `gorm:"type:text"                  json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Photo) TableName() string { return "photos" }

// Visible 照片是否对普通访客可见（需同时满足已审核与公开）
func (p *Photo) Visible() bool {
	return p.IsApproved && p.IsPublic
}

var driveIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{25,50}$`)
var corruptedIDPattern = regexp.MustCompile(`^\d+_`)

// IsValidDriveID 校验远端文件 ID 格式
// Drive 文件 ID 为 25-50 位字母数字加连字符下划线；
// 以数字开头紧跟下划线的 ID 是历史同步故障产生的脏数据
func IsValidDriveID(id string) bool {
	if !driveIDPattern.MatchString(id) {
		return false
	}
	if corruptedIDPattern.MatchString(id) {
		return false
	}
	return true
}
