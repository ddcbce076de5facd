package storage

import (
	"context"
	"errors"
	"io"

	"github.com/framedrop/framedrop/internal/config"
)

// ArchiveStore 定义了归档存储接口
// 装配完成后,最终文件可以被镜像到一份对象存储副本;镜像是尽力而为的,
// 失败只记录日志,绝不影响本地文件与 complete 标志
type ArchiveStore interface {
	// PutObject 上传对象到归档桶,返回对象信息或错误
	PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error)
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string // 对象哈希值
}

// NewArchiveStore 根据配置选择归档后端
// type 为空表示禁用归档,返回 (nil, nil)
func NewArchiveStore(cfg *config.Config) (ArchiveStore, error) {
	switch cfg.Archive.Type {
	case "":
		return nil, nil
	case "minio":
		return NewMinIOArchiveStore(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSArchiveStore(&cfg.AliyunOSS)
	default:
		return nil, errors.New("invalid archive type")
	}
}
