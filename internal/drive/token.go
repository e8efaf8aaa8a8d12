package drive

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/korekulturteacher-afk/village-photos/config"
)

const (
	tokenURL   = "https://oauth2.googleapis.com/token"
	driveScope = "https://www.googleapis.com/auth/drive.readonly"
	grantType  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// credentials 服务账号凭据
type credentials struct {
	ClientEmail string
	PrivateKey  *rsa.PrivateKey
}

// loadCredentials 解析服务账号凭据
// 优先读取配置中的 JSON（原文或 base64），其次读取密钥文件
func loadCredentials(cfg *config.DriveConfig) (*credentials, error) {
	raw := cfg.ServiceAccountKey
	if raw == "" && cfg.ServiceAccountFile != "" {
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("读取服务账号密钥文件失败: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, fmt.Errorf("未配置 Google Drive 服务账号凭据")
	}

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("解码服务账号凭据失败: %w", err)
		}
		raw = string(decoded)
	}

	var parsed struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("解析服务账号凭据失败: %w", err)
	}
	if parsed.ClientEmail == "" || parsed.PrivateKey == "" {
		return nil, fmt.Errorf("服务账号凭据缺少 client_email 或 private_key")
	}

	key, err := jwtv5.ParseRSAPrivateKeyFromPEM([]byte(strings.ReplaceAll(parsed.PrivateKey, `\n`, "\n")))
	if err != nil {
		return nil, fmt.Errorf("解析服务账号私钥失败: %w", err)
	}

	return &credentials{ClientEmail: parsed.ClientEmail, PrivateKey: key}, nil
}

// tokenSource 服务账号访问令牌缓存
// 通过 RS256 签名的 JWT 断言换取访问令牌，提前 60 秒过期以避免边界失效
type tokenSource struct {
	creds    *credentials
	http     *resty.Client
	tokenURL string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(creds *credentials, http *resty.Client) *tokenSource {
	return &tokenSource{creds: creds, http: http, tokenURL: tokenURL}
}

// Token 返回有效的访问令牌，必要时向授权服务器换取新令牌
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	assertion, err := ts.assertion()
	if err != nil {
		return "", err
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	resp, err := ts.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": grantType,
			"assertion":  assertion,
		}).
		SetResult(&result).
		Post(ts.tokenURL)
	if err != nil {
		return "", fmt.Errorf("换取访问令牌失败: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("换取访问令牌失败 (%d): %s", resp.StatusCode(), resp.String())
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("授权服务器未返回访问令牌")
	}

	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	ts.token = result.AccessToken
	ts.expiresAt = time.Now().Add(time.Duration(expiresIn-60) * time.Second)

	return ts.token, nil
}

// assertion 构造服务账号 JWT 断言（RS256）
func (ts *tokenSource) assertion() (string, error) {
	now := time.Now()
	claims := jwtv5.MapClaims{
		"iss":   ts.creds.ClientEmail,
		"scope": driveScope,
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	signed, err := token.SignedString(ts.creds.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("签名服务账号断言失败: %w", err)
	}
	return signed, nil
}
