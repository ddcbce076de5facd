package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(t *testing.T, historyLimit int) (*Assembler, *Registry, *History, storage.PartStore, string) {
	t.Helper()
	dir := t.TempDir()
	registry := NewRegistry(4, 4000)
	history := NewHistory(historyLimit)
	store := storage.NewDiskPartStore(dir)
	pruner := NewPruner(registry)
	assembler := NewAssembler(registry, store, history, pruner, dir, nil)
	return assembler, registry, history, store, dir
}

// stagePart 直接写入暂存区并登记,绕过 Coordinator
func stagePart(t *testing.T, store storage.PartStore, registry *Registry, assetID string, part int, data string) {
	t.Helper()
	size, err := store.SavePart(context.Background(), assetID, part, strings.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, registry.RecordPart(assetID, part, size))
}

// 并发触发装配时,文件只被装配一次
func TestAssembleExactlyOnce(t *testing.T) {
	assembler, registry, history, store, dir := newTestAssembler(t, 500)

	asset := registry.Create("clip.mov", nil, "", false)
	stagePart(t, store, registry, asset.ID, 1, "AAAA")
	require.True(t, registry.ReadyForAssembly(asset.ID))

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, assembler.Assemble(asset.ID))
		}()
	}
	wg.Wait()

	outputDir := filepath.Join(dir, time.Now().Format("2006-01-02"))
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "clip.mov", entries[0].Name())
	assert.Equal(t, 1, history.Len())
}

// 重名文件确定性地追加 _1, _2 后缀,绝不覆盖已有输出
func TestAssembleResolvesNameCollision(t *testing.T) {
	assembler, registry, _, store, dir := newTestAssembler(t, 500)

	for i, content := range []string{"first", "second", "third"} {
		asset := registry.Create("clip.mov", nil, "", false)
		stagePart(t, store, registry, asset.ID, 1, content)
		require.NoError(t, assembler.Assemble(asset.ID), "assembly %d", i)
	}

	outputDir := filepath.Join(dir, time.Now().Format("2006-01-02"))
	for name, want := range map[string]string{
		"clip.mov":   "first",
		"clip_1.mov": "second",
		"clip_2.mov": "third",
	} {
		data, err := os.ReadFile(filepath.Join(outputDir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

// 没有任何暂存分片时装配是空操作,asset 保持未完成
func TestAssembleWithoutParts(t *testing.T) {
	assembler, registry, history, _, _ := newTestAssembler(t, 500)

	asset := registry.Create("empty.mov", nil, "", false)
	require.NoError(t, assembler.Assemble(asset.ID))

	assert.True(t, registry.Has(asset.ID))
	got, _ := registry.Get(asset.ID)
	assert.False(t, got.Complete)
	assert.Equal(t, 0, history.Len())
}

func TestAssembleUnknownAssetIsNoop(t *testing.T) {
	assembler, _, history, _, _ := newTestAssembler(t, 500)
	require.NoError(t, assembler.Assemble("no-such-asset"))
	assert.Equal(t, 0, history.Len())
}

// 历史有界:超出上限时最旧的记录被淘汰
func TestHistoryBoundedAcrossAssemblies(t *testing.T) {
	const limit = 5
	assembler, registry, history, store, _ := newTestAssembler(t, limit)

	for i := 0; i < limit+1; i++ {
		asset := registry.Create(fmt.Sprintf("f%03d.bin", i), nil, "", false)
		stagePart(t, store, registry, asset.ID, 1, "x")
		require.NoError(t, assembler.Assemble(asset.ID))
	}

	assert.Equal(t, limit, history.Len())
	recent := history.Recent(limit)
	assert.Equal(t, fmt.Sprintf("f%03d.bin", limit), recent[0].Name)
	// f000.bin 是最旧的一条,应当已被淘汰
	assert.Equal(t, "f001.bin", recent[limit-1].Name)
}
