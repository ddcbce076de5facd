package models

// AssetCreateRequest 定义了创建 asset 的请求体
// 字段均为相机端可选项,缺失时由服务端取默认值
type AssetCreateRequest struct {
	Name             string `json:"name"`
	Filesize         *int64 `json:"filesize"`
	Filetype         string `json:"filetype"`
	IsRealtimeUpload bool   `json:"is_realtime_upload"`
}

// AssetCreateResponse 定义了创建 asset 的响应体
// UploadURLs 的条目数恰好等于 expected_parts
type AssetCreateResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Filesize         *int64   `json:"filesize"`
	Filetype         string   `json:"filetype"`
	UploadURLs       []string `json:"upload_urls"`
	IsRealtimeUpload bool     `json:"is_realtime_upload"`
}

// RealtimePartsResponse 定义了实时上传扩展请求的响应体
type RealtimePartsResponse struct {
	UploadURLs []string `json:"upload_urls"`
}

// DeviceCodeResponse 是 OAuth 设备码授权第一步的响应体
type DeviceCodeResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// TokenResponse 是令牌交换/刷新的响应体
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// StatusResponse 是仪表盘 /api/status 的响应体
type StatusResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	TotalUploads   int    `json:"total_uploads"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	PairedDevices  int    `json:"paired_devices"`
	PendingAssets  int    `json:"pending_assets"`
}

// UploadsResponse 是仪表盘 /api/uploads 的响应体
type UploadsResponse struct {
	Uploads []HistoryEntry `json:"uploads"`
}
