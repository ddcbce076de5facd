package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/framedrop/framedrop/internal/config"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"go.uber.org/zap"
)

type AliyunOSSArchiveStore struct {
	client *oss.Client
	cfg    *config.AliyunOSSConfig // 阿里云OSS的配置信息
}

var _ ArchiveStore = (*AliyunOSSArchiveStore)(nil)

// NewAliyunOSSArchiveStore 创建并返回一个 AliyunOSSArchiveStore 实例
func NewAliyunOSSArchiveStore(cfg *config.AliyunOSSConfig) (*AliyunOSSArchiveStore, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	ossClient, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	logger.Info("阿里云OSS归档后端初始化成功", zap.String("endpoint", cfg.Endpoint))
	return &AliyunOSSArchiveStore{client: ossClient, cfg: cfg}, nil
}

// PutObject 实现 ArchiveStore 接口的 PutObject 方法
func (s *AliyunOSSArchiveStore) PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error) {
	bucket, err := s.client.Bucket(s.cfg.BucketName)
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}

	options := []oss.Option{
		oss.ContentType(contentType),
	}
	if err := bucket.PutObject(objectName, reader, options...); err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传文件失败: %w", err)
	}

	// PutObject 本身不返回对象信息,这里沿用传入的尺寸
	// 如果需要精确 ETag,需要再调用 GetObjectMeta
	return PutObjectResult{
		Bucket: s.cfg.BucketName,
		Key:    objectName,
		Size:   objectSize,
	}, nil
}
