package dto

// ── 认证模块 DTO ──

// SessionRequest 会话换取请求
// 身份提供方 OAuth 流程在前端完成，回调后以邮箱与显示名换取本服务会话令牌
type SessionRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"omitempty,max=100"`
}

// SessionResponse 会话令牌响应
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // 有效期（秒）
	User        UserResponse `json:"user"`
}

// UserResponse 允许名单用户信息
type UserResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	InvitedBy string `json:"invited_by,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

// InviteVerifyRequest 邀请码预校验请求
type InviteVerifyRequest struct {
	Code string `json:"code" binding:"required,max=50"`
}

// InviteVerifyResponse 邀请码预校验响应
type InviteVerifyResponse struct {
	Valid bool   `json:"valid"`
	Code  string `json:"code,omitempty"`
}

// InviteRedeemRequest 邀请码兑换请求
type InviteRedeemRequest struct {
	Code  string `json:"code"  binding:"required,max=50"`
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"omitempty,max=100"`
}

// AdminLoginRequest 管理员口令登录请求
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminSessionResponse 管理员会话令牌响应
type AdminSessionResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// ChangePasswordRequest 管理员修改口令请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required,min=8,max=64"`
}
