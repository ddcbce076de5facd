package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 为已配对的相机生成 JWT 访问令牌
// clientID: 设备上报的 client_id
// secretKey: 用于签名的密钥
// issuer: Token 的签发者
// expiresIn: Token 的有效期
// 返回签名后的 token 字符串和 jti(用于登记与清理)
func GenerateAccessToken(clientID, secretKey, issuer string, expiresIn time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   clientID,
			ID:        jti, // jti 是 token 的唯一标识符
			Audience:  []string{"devices"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, jti, nil
}

// ParseAccessToken 解析并校验访问令牌
// 当前协议不强制校验上传请求,主要用于测试与诊断
func ParseAccessToken(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	return claims, nil
}
