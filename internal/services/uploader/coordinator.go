package uploader

import (
	"context"
	"fmt"
	"io"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/framedrop/framedrop/internal/pkg/utils"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"go.uber.org/zap"
)

// Coordinator 负责把入站分片变成已落盘的暂存分片并判定就绪:
// 写入分片存储 -> 更新登记表 -> 就绪则移交装配器
type Coordinator struct {
	registry      *Registry
	store         storage.PartStore
	assembler     *Assembler
	baseURL       string
	realtimeBatch int
}

func NewCoordinator(registry *Registry, store storage.PartStore, assembler *Assembler, baseURL string, realtimeBatch int) *Coordinator {
	return &Coordinator{
		registry:      registry,
		store:         store,
		assembler:     assembler,
		baseURL:       baseURL,
		realtimeBatch: realtimeBatch,
	}
}

// partURL 生成稳定的分片定位地址,相机经由 DNS 重写回到本服务
func (c *Coordinator) partURL(assetID string, partNumber int) string {
	return fmt.Sprintf("%s/upload/%s?part=%d", c.baseURL, assetID, partNumber)
}

// CreateAsset 登记 asset 并返回与预期分片数等量的上传地址
func (c *Coordinator) CreateAsset(req *models.AssetCreateRequest) *models.AssetCreateResponse {
	asset := c.registry.Create(req.Name, req.Filesize, req.Filetype, req.IsRealtimeUpload)

	urls := make([]string, 0, asset.ExpectedParts)
	for i := 1; i <= asset.ExpectedParts; i++ {
		urls = append(urls, c.partURL(asset.ID, i))
	}

	logger.Info("Asset created",
		zap.String("assetID", asset.ID),
		zap.String("name", asset.Name),
		zap.Any("filesize", req.Filesize),
		zap.Int("parts", asset.ExpectedParts),
		zap.Bool("realtime", asset.IsRealtime))

	return &models.AssetCreateResponse{
		ID:               asset.ID,
		Name:             asset.Name,
		Filesize:         asset.Filesize,
		Filetype:         asset.Filetype,
		UploadURLs:       urls,
		IsRealtimeUpload: asset.IsRealtime,
	}
}

// IngestPart 接收一个分片:
// 字节流直接写入分片存储(内存占用与分片大小无关),写入完整成功后
// 才在登记表中记录大小;同号重传覆盖旧数据,不额外增加计数。
// 每次成功接收后检查就绪并触发装配;装配失败不影响本次上传的结果,
// 下一次分片事件会再次触发
func (c *Coordinator) IngestPart(ctx context.Context, assetID string, partNumber int, body io.Reader) error {
	if partNumber < 1 {
		return xerr.NewCodeError(xerr.CodeInvalidPartNumber, xerr.ErrInvalidPartNumber)
	}
	if !c.registry.Has(assetID) {
		return xerr.NewCodeError(xerr.CodeAssetNotFound, xerr.ErrAssetNotFound)
	}

	size, err := c.store.SavePart(ctx, assetID, partNumber, body)
	if err != nil {
		return xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("暂存分片失败: %w", err))
	}

	if err := c.registry.RecordPart(assetID, partNumber, size); err != nil {
		return err
	}

	asset, _ := c.registry.Get(assetID)
	logger.Info("Received part",
		zap.String("assetID", assetID),
		zap.Int("part", partNumber),
		zap.Int("expected", asset.ExpectedParts),
		zap.String("size", utils.HumanSize(size)),
		zap.String("name", asset.Name))

	if c.registry.ReadyForAssembly(assetID) {
		if err := c.assembler.Assemble(assetID); err != nil {
			logger.Error("装配失败,等待下一次分片事件重试", zap.String("assetID", assetID), zap.Error(err))
		}
	}
	return nil
}

// ExtendRealtime 为实时 asset 分配一批新的上传地址
func (c *Coordinator) ExtendRealtime(assetID string) (*models.RealtimePartsResponse, error) {
	nums, err := c.registry.GrowRealtime(assetID, c.realtimeBatch)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(nums))
	for _, n := range nums {
		urls = append(urls, c.partURL(assetID, n))
	}
	return &models.RealtimePartsResponse{UploadURLs: urls}, nil
}

// CompleteRealtime 处理实时上传的完成信号:
// 预期数收敛到实际收到的分片数,然后走与 batch 模式相同的装配移交。
// 未知 asset 按协议宽容处理,静默成功
func (c *Coordinator) CompleteRealtime(assetID string) error {
	if err := c.registry.FinalizeRealtime(assetID); err != nil {
		logger.Warn("Completion signal for unknown asset", zap.String("assetID", assetID))
		return nil
	}
	if c.registry.ReadyForAssembly(assetID) {
		if err := c.assembler.Assemble(assetID); err != nil {
			logger.Error("装配失败,等待重复的完成信号重试", zap.String("assetID", assetID), zap.Error(err))
		}
	}
	return nil
}
