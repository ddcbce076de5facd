package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/framedrop/framedrop/internal/pkg/utils"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"go.uber.org/zap"
)

// Assembler 把一个就绪 asset 的分片按分片号升序拼接成最终文件,
// 每个 asset 至多执行一次
type Assembler struct {
	mu        sync.Mutex
	registry  *Registry
	store     storage.PartStore
	history   *History
	pruner    *Pruner
	uploadDir string
	archive   storage.ArchiveStore // 可为 nil,表示禁用归档镜像
}

func NewAssembler(registry *Registry, store storage.PartStore, history *History, pruner *Pruner, uploadDir string, archive storage.ArchiveStore) *Assembler {
	return &Assembler{
		registry:  registry,
		store:     store,
		history:   history,
		pruner:    pruner,
		uploadDir: uploadDir,
		archive:   archive,
	}
}

// Assemble 执行一次装配尝试
// check-then-assemble 整体处于装配锁内:最后两个分片并发到达时,
// 两个协程都会观察到"就绪",但只有先拿到锁的那个真正装配,
// 后到者在锁内重新检查 complete 后直接返回。
// 失败时 asset 保持 incomplete,下一次分片事件或完成信号会重试;
// 失败尝试留下的半成品输出文件由重试时的重名规避逻辑绕开(已知局限)
func (a *Assembler) Assemble(assetID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	asset, ok := a.registry.Get(assetID)
	if !ok || asset.Complete {
		return nil
	}

	parts, err := a.store.ListParts(assetID)
	if err != nil {
		return xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("列出暂存分片失败: %w", err))
	}
	if len(parts) == 0 {
		// 没有任何已暂存分片(例如实时上传没传就发完成信号),无事可做
		return nil
	}

	// 按完成日期分桶,便于人工浏览
	bucket := time.Now().Format("2006-01-02")
	outputDir := filepath.Join(a.uploadDir, bucket)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("创建输出目录失败: %w", err))
	}
	outputPath := resolveCollision(outputDir, asset.Name)

	size, err := a.concatParts(outputPath, assetID, parts)
	if err != nil {
		return err
	}

	// 输出已完整落盘,先置位终态再清理暂存;
	// 暂存清理失败不撤销完成状态,残留目录由下次重启的孤儿扫描兜底
	a.registry.MarkComplete(assetID)
	if err := a.store.RemoveParts(assetID); err != nil {
		logger.Error("清理暂存分片失败", zap.String("assetID", assetID), zap.Error(err))
	}

	entry := models.HistoryEntry{
		Name:      filepath.Base(outputPath),
		Size:      size,
		Directory: bucket,
		Type:      asset.Filetype,
		Timestamp: time.Now().UTC(),
	}
	a.history.Push(entry)

	logger.Info("Saved assembled file",
		zap.String("name", entry.Name),
		zap.String("size", utils.HumanSize(size)),
		zap.String("directory", bucket))

	a.pruner.Run()

	if a.archive != nil {
		go a.mirror(outputPath, bucket+"/"+entry.Name, size, asset.Filetype)
	}
	return nil
}

// concatParts 严格按分片号升序拼接,返回写入的总字节数
func (a *Assembler) concatParts(outputPath, assetID string, parts []storage.PartInfo) (int64, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("创建输出文件失败: %w", err))
	}

	var total int64
	for _, p := range parts {
		n, err := a.appendPart(out, assetID, p.Number)
		total += n
		if err != nil {
			out.Close()
			return total, xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("拼接分片 %d 失败: %w", p.Number, err))
		}
	}
	if err := out.Close(); err != nil {
		return total, xerr.NewCodeError(xerr.CodeStorageFailure, fmt.Errorf("关闭输出文件失败: %w", err))
	}
	return total, nil
}

func (a *Assembler) appendPart(out io.Writer, assetID string, partNumber int) (int64, error) {
	in, err := a.store.OpenPart(assetID, partNumber)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(out, in)
}

// mirror 把最终文件镜像到归档存储,尽力而为
func (a *Assembler) mirror(path, objectName string, size int64, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("打开文件用于归档失败", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := a.archive.PutObject(context.Background(), objectName, f, size, contentType); err != nil {
		logger.Error("归档镜像失败", zap.String("object", objectName), zap.Error(err))
		return
	}
	logger.Info("Mirrored file to archive", zap.String("object", objectName))
}

// resolveCollision 在输出目录内确定性地解决重名:
// name.ext, name_1.ext, name_2.ext ... 直到找到空闲名字,绝不覆盖已有文件
func resolveCollision(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}
