package handlers

import (
	"net/http"

	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/framedrop/framedrop/internal/services/admin"
	"github.com/gin-gonic/gin"
)

// DeviceCode 处理相机的配对码请求 (OAuth 2.0 Device Code Grant 第一步)
// 表单字段缺失时按未知设备处理,不拒绝
func DeviceCode(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.PostForm("client_id")
		if clientID == "" {
			clientID = "unknown"
		}
		scope := c.PostForm("scope")

		resp := authService.IssueDeviceCode(clientID, scope)
		c.JSON(http.StatusOK, resp)
	}
}

// Token 处理设备码换令牌与令牌刷新
func Token(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		grantType := c.PostForm("grant_type")
		deviceCode := c.PostForm("device_code")

		resp, err := authService.ExchangeToken(grantType, deviceCode)
		if err != nil {
			if xerr.Is(err, xerr.ErrInvalidGrant) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
				return
			}
			xerr.ProtocolError(c, http.StatusInternalServerError, "token issuance failed")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
