package xerr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeError 结构体用于在服务层传递带有业务码的错误
// 它实现了 error 接口
type CodeError struct {
	Code int   // 业务错误码
	Err  error // 被包裹的底层错误
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return e.Err.Error()
}

// Unwrap 返回被包裹的底层错误，支持 errors.Unwrap
func (e *CodeError) Unwrap() error {
	return e.Err
}

// NewCodeError 创建一个 CodeError 实例
func NewCodeError(code int, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// Is 判断错误是否为指定的错误类型
// 如果 err 是 *CodeError，则会解包后与 target 比较
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// 相机端点不使用统一的业务信封:设备固件只理解 Frame.io 原生的
// 响应形状,所以这里的 helper 都按协议原样输出

// ProtocolError 按协议形状返回错误 JSON,例如 {"error": "asset not found"}
func ProtocolError(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}

// Empty 返回 200 与空 JSON 对象
// 未识别的协议调用一律走这里:现场设备无法优雅处理任意错误码
func Empty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}
