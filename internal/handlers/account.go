package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 配对完成后相机可能调用这些端点验证连接,返回固定的占位身份即可

// Me 返回占位用户信息
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":         "framedrop-user",
			"name":       "framedrop",
			"email":      "local@framedrop",
			"account_id": "framedrop-account",
		})
	}
}

// Account 返回占位账户信息
func Account() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   c.Param("account_id"),
			"name": "framedrop",
		})
	}
}
