package model

import "time"

// AllowedUser 允许名单表 — 对应 allowed_users
// 通过邀请码兑换进入名单；身份提供方登录后据此放行
type AllowedUser struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email     string    `gorm:"type:text;not null;uniqueIndex"                 json:"email"`
	Name      *string   `gorm:"type:text"                                      json:"name,omitempty"`
	InvitedBy *string   `gorm:"type:varchar(50)"                               json:"invited_by,omitempty"`
	IsAdmin   bool      `gorm:"not null;default:false"                         json:"is_admin"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AllowedUser) TableName() string { return "allowed_users" }

// AdminConfig 管理员口令表 — 对应 admin_configs（单行，id 恒为 1）
type AdminConfig struct {
	ID           int       `gorm:"primaryKey"                         json:"id"`
	PasswordHash string    `gorm:"type:text;not null"                 json:"-"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (AdminConfig) TableName() string { return "admin_configs" }
