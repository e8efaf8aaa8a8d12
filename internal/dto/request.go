package dto

import "time"

// ── 下载请求模块 DTO ──

// CreateDownloadRequest 创建下载请求
type CreateDownloadRequest struct {
	PhotoIDs []string `json:"photo_ids" binding:"required,min=1,max=200,dive,max=60"`
	Name     string   `json:"name"      binding:"required,max=100"`
	Phone    string   `json:"phone"     binding:"required,max=30"`
	Reason   string   `json:"reason"    binding:"omitempty,max=500"`
}

// ReviewRequest 管理员审批请求
type ReviewRequest struct {
	Action    string `json:"action"     binding:"required,oneof=approve reject"`
	AdminNote string `json:"admin_note" binding:"omitempty,max=500"`
}

// DownloadRequestResponse 下载请求详情响应
type DownloadRequestResponse struct {
	ID           string     `json:"id"`
	UserEmail    string     `json:"user_email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Reason       string     `json:"reason,omitempty"`
	PhotoIDs     []string   `json:"photo_ids"`
	PhotoCount   int        `json:"photo_count"`
	Status       string     `json:"status"`
	AdminNote    string     `json:"admin_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

// ── 邀请码模块 DTO ──

// CreateInviteCodeRequest 创建邀请码请求
type CreateInviteCodeRequest struct {
	Code      string     `json:"code"       binding:"omitempty,max=50"`
	MaxUses   int        `json:"max_uses"   binding:"omitempty,min=1,max=1000"`
	ExpiresAt *time.Time `json:"expires_at"`
	Note      string     `json:"note"       binding:"omitempty,max=200"`
}

// UpdateInviteCodeRequest 更新邀请码请求
type UpdateInviteCodeRequest struct {
	IsActive  *bool      `json:"is_active"`
	MaxUses   *int       `json:"max_uses"   binding:"omitempty,min=1,max=1000"`
	ExpiresAt *time.Time `json:"expires_at"`
	Note      *string    `json:"note"       binding:"omitempty,max=200"`
}

// ── 允许名单模块 DTO ──

// AddAllowedUserRequest 手工添加允许名单用户请求
type AddAllowedUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"omitempty,max=100"`
}
