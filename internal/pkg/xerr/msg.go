package xerr

import "errors"

var (
	// 客户端请求错误
	ErrMalformedRequest  = errors.New("请求参数无法解析")
	ErrInvalidPartNumber = errors.New("分片号必须是正整数")

	// 认证错误
	// 配对是"永远接受"模式,唯一会拒绝的情况是 device_code 授权引用了未知设备码
	ErrInvalidGrant = errors.New("设备码无效或已被清理")

	// 资源未找到
	ErrAssetNotFound = errors.New("asset 不存在或已被清理")

	// 存储错误
	// 返回该错误时 asset 状态保持不变,客户端可以重试
	ErrStorageFailure = errors.New("存储操作失败")
)
