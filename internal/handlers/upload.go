package handlers

import (
	"net/http"
	"strconv"

	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadPart 接收相机推送的一个分片
// 请求体是原始字节流,按 asset id + part 查询参数定位;
// 响应只有状态码,没有响应体
func UploadPart(coordinator *uploader.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID := c.Param("asset_id")

		partStr := c.DefaultQuery("part", "1")
		part, err := strconv.Atoi(partStr)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		err = coordinator.IngestPart(c.Request.Context(), assetID, part, c.Request.Body)
		switch {
		case err == nil:
			c.Status(http.StatusOK)
		case xerr.Is(err, xerr.ErrInvalidPartNumber):
			c.Status(http.StatusBadRequest)
		case xerr.Is(err, xerr.ErrAssetNotFound):
			logger.Warn("Upload for unknown asset", zap.String("assetID", assetID))
			c.Status(http.StatusNotFound)
		default:
			logger.Error("分片接收失败", zap.String("assetID", assetID), zap.Int("part", part), zap.Error(err))
			c.Status(http.StatusInternalServerError)
		}
	}
}

// CompleteUpload 处理实时上传的完成信号,按协议永远返回 200
func CompleteUpload(coordinator *uploader.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = coordinator.CompleteRealtime(c.Param("asset_id"))
		c.Status(http.StatusOK)
	}
}
