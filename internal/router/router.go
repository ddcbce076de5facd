package router

import (
	"github.com/framedrop/framedrop/internal/handlers"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/framedrop/framedrop/internal/services/admin"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	Coordinator *uploader.Coordinator
	Auth        admin.AuthService
	Dashboard   *handlers.DashboardHandler
}

// InitCameraRouter 构建相机侧引擎 (经 TLS 拦截到达,端口 443)
// 仪表盘路由也挂在这里:相机侧同样可以访问状态页
func InitCameraRouter(rc *RouterConfig) *gin.Engine {
	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	registerDashboardRoutes(router, rc)

	v2 := router.Group("/v2")
	{
		authGroup := v2.Group("/auth")
		{
			authGroup.POST("/device/code", handlers.DeviceCode(rc.Auth))
			authGroup.POST("/token", handlers.Token(rc.Auth))
		}

		v2.GET("/me", handlers.Me())
		v2.GET("/accounts/:account_id", handlers.Account())

		assetGroup := v2.Group("/devices/assets")
		{
			assetGroup.POST("", handlers.CreateAsset(rc.Coordinator))
			assetGroup.POST("/:asset_id/realtime-upload-parts", handlers.RealtimeParts(rc.Coordinator))
		}
	}

	uploadGroup := router.Group("/upload")
	{
		uploadGroup.PUT("/:asset_id", handlers.UploadPart(rc.Coordinator))
		uploadGroup.POST("/:asset_id/complete", handlers.CompleteUpload(rc.Coordinator))
	}

	// 未识别的协议调用不能让设备侧报错:
	// 记录日志后返回通用成功与空载荷,现场固件不会优雅处理任意错误码
	router.NoRoute(func(c *gin.Context) {
		logger.Warn("Unhandled endpoint",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))
		xerr.Empty(c)
	})

	return router
}

// InitDashboardRouter 构建纯 HTTP 的仪表盘引擎 (浏览器访问,无证书警告)
func InitDashboardRouter(rc *RouterConfig) *gin.Engine {
	router := gin.Default()
	registerDashboardRoutes(router, rc)
	return router
}

func registerDashboardRoutes(router *gin.Engine, rc *RouterConfig) {
	router.GET("/", rc.Dashboard.Index)
	router.GET("/ca.crt", rc.Dashboard.CACert)
	router.GET("/api/status", rc.Dashboard.Status)
	router.GET("/api/uploads", rc.Dashboard.Uploads)
}
