package models

import "time"

// DeviceCode 记录一次设备配对请求
// 自托管模式下配对总是自动批准,这里只做展示与规模约束用的登记
type DeviceCode struct {
	UserCode  string
	ClientID  string
	Scope     string
	CreatedAt time.Time
}

// TokenRecord 记录一个已签发的访问令牌,键是 JWT 的 jti
type TokenRecord struct {
	CreatedAt time.Time
}
