package handlers

import (
	"net/http"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"github.com/gin-gonic/gin"
)

// CreateAsset 处理 asset 创建请求,响应中携带与预期分片数等量的上传地址
func CreateAsset(coordinator *uploader.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AssetCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.ProtocolError(c, http.StatusBadRequest, "invalid request body")
			return
		}

		c.JSON(http.StatusOK, coordinator.CreateAsset(&req))
	}
}

// RealtimeParts 处理实时上传的扩展请求,返回一批新的上传地址
func RealtimeParts(coordinator *uploader.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID := c.Param("asset_id")

		resp, err := coordinator.ExtendRealtime(assetID)
		if err != nil {
			if xerr.Is(err, xerr.ErrAssetNotFound) {
				xerr.ProtocolError(c, http.StatusNotFound, "asset not found")
				return
			}
			xerr.ProtocolError(c, http.StatusInternalServerError, "failed to extend upload")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
