package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/framedrop/framedrop/internal/config"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOArchiveStore struct {
	client *minio.Client
	cfg    *config.MinIOConfig // MinIO的配置信息
}

var _ ArchiveStore = (*MinIOArchiveStore)(nil)

// NewMinIOArchiveStore 创建并返回一个 MinIOArchiveStore 实例
// 初始化时保证归档桶存在
func NewMinIOArchiveStore(cfg *config.MinIOConfig) (*MinIOArchiveStore, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL, // 根据配置决定是否使用 HTTPS
	}

	minioClient, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		logger.Error("初始化 MinIO 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化 MinIO 客户端: %w", err)
	}

	s := &MinIOArchiveStore{client: minioClient, cfg: cfg}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("MinIO 归档后端初始化成功", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.BucketName))
	return s, nil
}

func (s *MinIOArchiveStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("检查 MinIO 存储桶存在性失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
		// 并发初始化时桶可能刚被创建,不算错误
		exists, errBucketExists := s.client.BucketExists(ctx, s.cfg.BucketName)
		if errBucketExists == nil && exists {
			return nil
		}
		return fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
	}
	return nil
}

func (s *MinIOArchiveStore) PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error) {
	info, err := s.client.PutObject(ctx, s.cfg.BucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("MinIO 上传文件失败: %w", err)
	}
	return PutObjectResult{
		Bucket: info.Bucket,
		Key:    info.Key,
		Size:   info.Size,
		ETag:   info.ETag,
	}, nil
}
