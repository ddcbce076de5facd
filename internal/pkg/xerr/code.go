package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	CodeMalformedRequest  = 40000 // 请求体或参数无法解析
	CodeInvalidPartNumber = 40001 // 分片号不是正整数

	// --- 认证错误系列 (401xx) ---
	CodeInvalidGrant = 40100 // device_code 授权时设备码未知

	// --- 资源未找到错误系列 (404xx) ---
	CodeAssetNotFound = 40400 // asset id 未登记

	// --- 服务器内部错误系列 (500xx) ---
	CodeInternalServerError = 50000 // 服务器内部通用错误
	CodeStorageFailure      = 50002 // 磁盘写入/重命名/删除失败
)
