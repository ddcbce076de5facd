package uploader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(t *testing.T) (*Scanner, *Registry, *History, storage.PartStore, string) {
	t.Helper()
	dir := t.TempDir()
	registry := NewRegistry(4, 4000)
	history := NewHistory(500)
	store := storage.NewDiskPartStore(dir)
	scanner := NewScanner(registry, history, store, dir, 500)
	return scanner, registry, history, store, dir
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// 登记表启动时为空,上次进程留下的暂存分片全部被丢弃
func TestCleanupOrphanedParts(t *testing.T) {
	scanner, _, _, store, dir := newTestScanner(t)

	_, err := store.SavePart(context.Background(), "dead-beef", 1, strings.NewReader("stale"))
	require.NoError(t, err)
	_, err = store.SavePart(context.Background(), "cafe-babe", 3, strings.NewReader("stale"))
	require.NoError(t, err)

	scanner.Run()

	// 孤儿目录连同暂存根目录一起消失
	_, err = os.Stat(filepath.Join(dir, ".parts"))
	assert.True(t, os.IsNotExist(err))
}

// 已登记 asset 的暂存分片在清理时保留
func TestCleanupKeepsRegisteredAssets(t *testing.T) {
	scanner, registry, _, store, dir := newTestScanner(t)

	asset := registry.Create("inflight.mov", nil, "", false)
	_, err := store.SavePart(context.Background(), asset.ID, 1, strings.NewReader("keep"))
	require.NoError(t, err)
	_, err = store.SavePart(context.Background(), "dead-beef", 1, strings.NewReader("stale"))
	require.NoError(t, err)

	scanner.Run()

	_, err = os.Stat(filepath.Join(dir, ".parts", asset.ID, "000001"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".parts", "dead-beef"))
	assert.True(t, os.IsNotExist(err))
}

// 从磁盘已有文件重建历史:按修改时间降序,跳过暂存区与隐藏条目
func TestScanRebuildsHistory(t *testing.T) {
	scanner, _, history, _, dir := newTestScanner(t)

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	writeFile(t, filepath.Join(dir, "2026-08-01", "a.jpg"), "12345", older)
	writeFile(t, filepath.Join(dir, "2026-08-02", "b.mov"), "1234567", newer)
	writeFile(t, filepath.Join(dir, ".parts", "dead-beef", "000001"), "stale", newer)
	writeFile(t, filepath.Join(dir, "2026-08-02", ".DS_Store"), "junk", newer)

	scanner.Run()

	require.Equal(t, 2, history.Len())
	entries := history.Recent(2)
	assert.Equal(t, "b.mov", entries[0].Name)
	assert.Equal(t, int64(7), entries[0].Size)
	assert.Equal(t, "2026-08-02", entries[0].Directory)
	assert.Equal(t, "a.jpg", entries[1].Name)
	assert.Equal(t, int64(5), entries[1].Size)
}

// 历史播种受上限约束,只保留最近的条目
func TestScanRespectsHistoryLimit(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(4, 4000)
	history := NewHistory(2)
	store := storage.NewDiskPartStore(dir)
	scanner := NewScanner(registry, history, store, dir, 2)

	base := time.Now().Add(-time.Hour)
	writeFile(t, filepath.Join(dir, "2026-08-01", "oldest.bin"), "x", base)
	writeFile(t, filepath.Join(dir, "2026-08-01", "middle.bin"), "x", base.Add(time.Minute))
	writeFile(t, filepath.Join(dir, "2026-08-01", "newest.bin"), "x", base.Add(2*time.Minute))

	scanner.Run()

	require.Equal(t, 2, history.Len())
	entries := history.Recent(2)
	assert.Equal(t, "newest.bin", entries[0].Name)
	assert.Equal(t, "middle.bin", entries[1].Name)
}

// 上传目录不存在时扫描静默跳过
func TestScanMissingUploadDir(t *testing.T) {
	registry := NewRegistry(4, 4000)
	history := NewHistory(500)
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	store := storage.NewDiskPartStore(dir)
	scanner := NewScanner(registry, history, store, dir, 500)

	scanner.Run()
	assert.Equal(t, 0, history.Len())
}
