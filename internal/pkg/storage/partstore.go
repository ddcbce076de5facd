package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// 分片暂存目录名,位于上传根目录下,历史扫描会跳过它
const partsDirName = ".parts"

// PartInfo 描述一个已暂存的分片
type PartInfo struct {
	Number int
	Size   int64
}

// PartStore 定义了分片暂存区的操作接口
// 分片按 (assetID, partNumber) 定位,在被装配器消费前归其 asset 独占
type PartStore interface {
	// SavePart 把分片字节流直接写入暂存区,返回写入的字节数
	// 同一 (assetID, partNumber) 重复写入会覆盖旧内容
	SavePart(ctx context.Context, assetID string, partNumber int, r io.Reader) (int64, error)
	// ListParts 列出某 asset 已暂存的分片,按分片号升序
	ListParts(assetID string) ([]PartInfo, error)
	// OpenPart 打开一个分片用于读取,调用方负责关闭
	OpenPart(assetID string, partNumber int) (io.ReadCloser, error)
	// RemoveParts 删除某 asset 的整个暂存目录
	RemoveParts(assetID string) error
	// StagedAssets 列出暂存区中存在分片目录的 asset id
	StagedAssets() ([]string, error)
	// Sweep 在暂存根目录为空时将其删除
	Sweep() error
}

// DiskPartStore 把分片暂存在 <baseDir>/.parts/<assetID>/<NNNNNN> 下
// 分片文件名零填充到六位,保证数值序与字典序一致
type DiskPartStore struct {
	baseDir string
}

var _ PartStore = (*DiskPartStore)(nil)

func NewDiskPartStore(baseDir string) *DiskPartStore {
	return &DiskPartStore{baseDir: baseDir}
}

func (s *DiskPartStore) partsRoot() string {
	return filepath.Join(s.baseDir, partsDirName)
}

func (s *DiskPartStore) partsDir(assetID string) string {
	return filepath.Join(s.partsRoot(), assetID)
}

func (s *DiskPartStore) partPath(assetID string, partNumber int) string {
	return filepath.Join(s.partsDir(assetID), fmt.Sprintf("%06d", partNumber))
}

// SavePart 流式写入,不在内存中缓冲整个分片
func (s *DiskPartStore) SavePart(ctx context.Context, assetID string, partNumber int, r io.Reader) (int64, error) {
	dir := s.partsDir(assetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("创建分片暂存目录失败: %w", err)
	}

	f, err := os.Create(s.partPath(assetID, partNumber))
	if err != nil {
		return 0, fmt.Errorf("创建分片文件失败: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("写入分片文件失败: %w", err)
	}
	return n, nil
}

// ListParts 解析文件名得到分片号并按数值排序
// 不依赖目录遍历顺序,也不依赖变宽文件名的字典序
func (s *DiskPartStore) ListParts(assetID string) ([]PartInfo, error) {
	entries, err := os.ReadDir(s.partsDir(assetID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取分片暂存目录失败: %w", err)
	}

	parts := make([]PartInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		num, err := strconv.Atoi(e.Name())
		if err != nil {
			continue // 非分片文件,忽略
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("读取分片文件信息失败: %w", err)
		}
		parts = append(parts, PartInfo{Number: num, Size: info.Size()})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Number < parts[j].Number })
	return parts, nil
}

func (s *DiskPartStore) OpenPart(assetID string, partNumber int) (io.ReadCloser, error) {
	f, err := os.Open(s.partPath(assetID, partNumber))
	if err != nil {
		return nil, fmt.Errorf("打开分片文件失败: %w", err)
	}
	return f, nil
}

func (s *DiskPartStore) RemoveParts(assetID string) error {
	if err := os.RemoveAll(s.partsDir(assetID)); err != nil {
		return fmt.Errorf("删除分片暂存目录失败: %w", err)
	}
	return nil
}

func (s *DiskPartStore) StagedAssets() ([]string, error) {
	entries, err := os.ReadDir(s.partsRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取分片暂存根目录失败: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Sweep 只在根目录已空时成功,非空时静默保留
func (s *DiskPartStore) Sweep() error {
	err := os.Remove(s.partsRoot())
	if err != nil && !os.IsNotExist(err) {
		// 目录非空等情况,保留即可
		return nil
	}
	return nil
}
