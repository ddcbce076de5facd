package admin

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/framedrop/framedrop/internal/config"
	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/utils"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService 实现"永远接受"的 OAuth 设备码授权桩
// 自托管模式下没有真正的账号体系:配对自动批准,令牌交换只在
// device_code 授权引用未知设备码时拒绝
type AuthService interface {
	IssueDeviceCode(clientID, scope string) *models.DeviceCodeResponse
	ExchangeToken(grantType, deviceCode string) (*models.TokenResponse, error)
	PairedDevices() int
	// Prune 把配对码与令牌登记收缩到上限,返回删除数量
	Prune() int
}

type authService struct {
	mu          sync.Mutex
	deviceCodes map[string]*models.DeviceCode
	tokens      map[string]*models.TokenRecord
	limit       int
	jwtCfg      *config.JWTConfig
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{
		deviceCodes: make(map[string]*models.DeviceCode),
		tokens:      make(map[string]*models.TokenRecord),
		limit:       cfg.Upload.AuthEntryLimit,
		jwtCfg:      &cfg.JWT,
	}
}

// IssueDeviceCode 为相机签发配对码,立即视为已批准
func (s *authService) IssueDeviceCode(clientID, scope string) *models.DeviceCodeResponse {
	userCode := newUserCode()
	dc := uuid.NewString()

	s.mu.Lock()
	s.deviceCodes[dc] = &models.DeviceCode{
		UserCode:  userCode,
		ClientID:  clientID,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	logger.Info("Device pairing requested", zap.String("userCode", userCode), zap.String("clientID", clientID))
	logger.Info("Auto-approved (self-hosted mode)")

	return &models.DeviceCodeResponse{
		DeviceCode:              dc,
		UserCode:                userCode,
		VerificationURI:         "https://api.frame.io/device",
		VerificationURIComplete: "https://api.frame.io/device?code=" + userCode,
		ExpiresIn:               900,
		Interval:                5,
	}
}

// ExchangeToken 处理设备码换令牌和令牌刷新
// 访问令牌是自包含的 HS256 JWT,刷新令牌是不做校验的占位 uuid
func (s *authService) ExchangeToken(grantType, deviceCode string) (*models.TokenResponse, error) {
	switch {
	case strings.Contains(grantType, "device_code"):
		s.mu.Lock()
		code, ok := s.deviceCodes[deviceCode]
		s.mu.Unlock()
		if !ok {
			return nil, xerr.NewCodeError(xerr.CodeInvalidGrant, xerr.ErrInvalidGrant)
		}
		logger.Info("Camera paired successfully", zap.String("userCode", code.UserCode))
	case strings.Contains(grantType, "refresh_token"):
		logger.Info("Token refreshed")
	default:
		logger.Warn("Unknown grant_type", zap.String("grantType", grantType))
	}

	accessToken, jti, err := utils.GenerateAccessToken("framedrop-device", s.jwtCfg.SecretKey, s.jwtCfg.Issuer, s.jwtCfg.ExpiresIn)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tokens[jti] = &models.TokenRecord{CreatedAt: time.Now().UTC()}
	s.mu.Unlock()

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwtCfg.ExpiresIn.Seconds()),
		Scope:        "asset_create offline",
	}, nil
}

func (s *authService) PairedDevices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deviceCodes)
}

// Prune 按创建时间淘汰最旧的条目,两张表各自保留最近 limit 条
func (s *authService) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := pruneOldest(s.deviceCodes, s.limit, func(v *models.DeviceCode) time.Time { return v.CreatedAt })
	n += pruneOldest(s.tokens, s.limit, func(v *models.TokenRecord) time.Time { return v.CreatedAt })
	return n
}

func pruneOldest[V any](m map[string]V, limit int, createdAt func(V) time.Time) int {
	if len(m) <= limit {
		return 0
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return createdAt(m[keys[i]]).Before(createdAt(m[keys[j]]))
	})

	excess := len(keys) - limit
	for _, k := range keys[:excess] {
		delete(m, k)
	}
	return excess
}

// newUserCode 生成 6 位数字配对码
func newUserCode() string {
	digits := []byte("0123456789")
	b := make([]byte, 6)
	b[0] = digits[1+rand.Intn(9)]
	for i := 1; i < len(b); i++ {
		b[i] = digits[rand.Intn(10)]
	}
	return string(b)
}
