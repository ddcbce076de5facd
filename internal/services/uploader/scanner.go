package uploader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/storage"
	"go.uber.org/zap"
)

// Scanner 在进程启动、开始服务流量之前运行一次:
// 清理上一次崩溃留下的孤儿分片目录,并从磁盘已有文件重建上传历史,
// 历史因此无需单独的持久化日志即可跨重启保留
type Scanner struct {
	registry     *Registry
	history      *History
	store        storage.PartStore
	uploadDir    string
	historyLimit int
}

func NewScanner(registry *Registry, history *History, store storage.PartStore, uploadDir string, historyLimit int) *Scanner {
	return &Scanner{
		registry:     registry,
		history:      history,
		store:        store,
		uploadDir:    uploadDir,
		historyLimit: historyLimit,
	}
}

// Run 执行启动恢复
func (s *Scanner) Run() {
	s.cleanupStaleParts()
	s.scanExistingUploads()
}

// cleanupStaleParts 删除登记表中不存在的 asset 的暂存目录
// 启动时登记表是空的,所以上次进程留下的所有半成品上传都会被丢弃
// (不支持跨重启续传,这是明确的取舍)
func (s *Scanner) cleanupStaleParts() {
	ids, err := s.store.StagedAssets()
	if err != nil {
		logger.Error("扫描暂存目录失败", zap.Error(err))
		return
	}

	removed := 0
	for _, id := range ids {
		if s.registry.Has(id) {
			continue
		}
		if err := s.store.RemoveParts(id); err != nil {
			logger.Error("删除孤儿分片目录失败", zap.String("assetID", id), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("Cleaned up orphaned partial uploads", zap.Int("count", removed))
	}
	_ = s.store.Sweep()
}

// scanExistingUploads 遍历输出目录,跳过暂存区与隐藏条目,
// 按修改时间降序播种最近的历史记录
func (s *Scanner) scanExistingUploads() {
	if _, err := os.Stat(s.uploadDir); err != nil {
		return
	}

	var found []models.HistoryEntry
	err := filepath.WalkDir(s.uploadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // 个别条目不可读时跳过,不中断扫描
		}
		if d.IsDir() {
			if path != s.uploadDir && (d.Name() == ".parts" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(s.uploadDir, filepath.Dir(path))
		if err != nil {
			rel = ""
		}
		found = append(found, models.HistoryEntry{
			Name:      d.Name(),
			Size:      info.Size(),
			Directory: rel,
			Timestamp: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		logger.Error("扫描已有上传文件失败", zap.Error(err))
		return
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Timestamp.After(found[j].Timestamp) })
	if len(found) > s.historyLimit {
		found = found[:s.historyLimit]
	}
	s.history.Seed(found)

	if len(found) > 0 {
		logger.Info("Found existing files in uploads directory", zap.Int("count", len(found)))
	}
}
