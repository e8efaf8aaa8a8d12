package model

import "time"

// InviteCode 邀请码表 — 对应 invite_codes
// 码值统一大写存储
type InviteCode struct {
	Code        string     `gorm:"type:varchar(50);primaryKey"        json:"code"`
	Description *string    `gorm:"type:text"                          json:"description,omitempty"`
	CreatedBy   *string    `gorm:"type:text"                          json:"created_by,omitempty"`
	MaxUses     *int       `json:"max_uses,omitempty"`
	UsedCount   int        `gorm:"not null;default:0"                 json:"used_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `gorm:"not null;default:true"              json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (InviteCode) TableName() string { return "invite_codes" }

// Redeemable 邀请码当前是否可兑换
func (ic *InviteCode) Redeemable(now time.Time) bool {
	if !ic.IsActive {
		return false
	}
	if ic.ExpiresAt != nil && ic.ExpiresAt.Before(now) {
		return false
	}
	if ic.MaxUses != nil && ic.UsedCount >= *ic.MaxUses {
		return false
	}
	return true
}

// InviteCodeUsage 邀请码使用记录表 — 对应 invite_code_usages
// (code, user_email) 唯一，保证同一用户重复兑换不会重复计数
type InviteCodeUsage struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code      string    `gorm:"type:varchar(50);not null"                      json:"code"`
	UserEmail string    `gorm:"type:text;not null"                             json:"user_email"`
	UserName  *string   `gorm:"type:text"                                      json:"user_name,omitempty"`
	IPAddress *string   `gorm:"type:text"                                      json:"ip_address,omitempty"`
	UsedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"used_at"`
}

// TableName 指定表名
func (InviteCodeUsage) TableName() string { return "invite_code_usages" }
