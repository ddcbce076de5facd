package uploader

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/xerr"
	"github.com/google/uuid"
)

// Registry 是 asset 元数据的内存登记表
// 所有请求协程共享一个实例,读改写序列由单把互斥锁串行化;
// 分片字节本身的落盘不经过这把锁,互不相关的分片写入完全并行
type Registry struct {
	mu        sync.Mutex
	assets    map[string]*models.Asset
	chunkSize int64
	maxParts  int
}

func NewRegistry(chunkSize int64, maxParts int) *Registry {
	return &Registry{
		assets:    make(map[string]*models.Asset),
		chunkSize: chunkSize,
		maxParts:  maxParts,
	}
}

// computeParts 计算创建时的预期分片数
// batch 模式且声明了大小: ceil(size/chunkSize),上限 maxParts;
// 实时模式或未声明大小: 从 1 开始按需增长
func (r *Registry) computeParts(filesize *int64, isRealtime bool) int {
	if isRealtime || filesize == nil || *filesize <= 0 {
		return 1
	}
	n := int((*filesize + r.chunkSize - 1) / r.chunkSize)
	if n < 1 {
		n = 1
	}
	if n > r.maxParts {
		n = r.maxParts
	}
	return n
}

// Create 登记一个新 asset 并分配 id,永远成功,无外部副作用
// 文件名在这里只做路径剥离,重名在装配时才解决
func (r *Registry) Create(name string, filesize *int64, filetype string, isRealtime bool) models.Asset {
	id := uuid.NewString()

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = fmt.Sprintf("unknown_%s", id)
	}
	if filetype == "" {
		filetype = "application/octet-stream"
	}

	parts := r.computeParts(filesize, isRealtime)
	asset := &models.Asset{
		ID:            id,
		Name:          base,
		Filesize:      filesize,
		Filetype:      filetype,
		IsRealtime:    isRealtime,
		ExpectedParts: parts,
		NextPart:      parts + 1,
		ReceivedParts: make(map[int]int64),
		CreatedAt:     time.Now().UTC(),
	}

	r.mu.Lock()
	r.assets[id] = asset
	r.mu.Unlock()

	return snapshot(asset)
}

// RecordPart 登记一个分片的接收结果
// asset 未知时返回 ErrAssetNotFound;asset 已 complete 时静默忽略,
// 防御迟到或重复的投递;同号分片覆盖旧值,计数只看不同分片号的集合
func (r *Registry) RecordPart(assetID string, partNumber int, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return xerr.NewCodeError(xerr.CodeAssetNotFound, xerr.ErrAssetNotFound)
	}
	if asset.Complete {
		return nil
	}
	asset.ReceivedParts[partNumber] = size
	return nil
}

// ReadyForAssembly 判断 asset 是否可以交给装配器
// batch 模式看分片计数;实时模式必须等显式完成信号
func (r *Registry) ReadyForAssembly(assetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok || asset.Complete {
		return false
	}
	if asset.IsRealtime && !asset.RealtimeDone {
		return false
	}
	return len(asset.ReceivedParts) >= asset.ExpectedParts
}

// GrowRealtime 原子地为实时 asset 扩展 batch 个分片号
// 返回新分配的连续分片号区间;并发扩展请求在登记表锁下串行,区间不会重叠
func (r *Registry) GrowRealtime(assetID string, batch int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return nil, xerr.NewCodeError(xerr.CodeAssetNotFound, xerr.ErrAssetNotFound)
	}

	nums := make([]int, 0, batch)
	for i := 0; i < batch; i++ {
		nums = append(nums, asset.NextPart+i)
	}
	asset.NextPart += batch
	asset.ExpectedParts = asset.NextPart - 1
	return nums, nil
}

// FinalizeRealtime 处理显式完成信号:预期数收敛到实际收到的分片数
// 重复的完成信号是幂等的,允许相机在装配失败后重试
func (r *Registry) FinalizeRealtime(assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return xerr.NewCodeError(xerr.CodeAssetNotFound, xerr.ErrAssetNotFound)
	}
	if asset.Complete {
		return nil
	}
	asset.ExpectedParts = len(asset.ReceivedParts)
	asset.RealtimeDone = true
	return nil
}

// Get 返回 asset 的一份快照副本,调用方可以安全地读取
func (r *Registry) Get(assetID string) (models.Asset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return models.Asset{}, false
	}
	return snapshot(asset), true
}

// Has 判断 asset 是否已登记
func (r *Registry) Has(assetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.assets[assetID]
	return ok
}

// MarkComplete 置位终态标志,只有装配器在持有装配锁时调用
func (r *Registry) MarkComplete(assetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if asset, ok := r.assets[assetID]; ok {
		asset.Complete = true
	}
}

// PendingCount 统计未完成的 asset 数,供仪表盘展示
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, asset := range r.assets {
		if !asset.Complete {
			n++
		}
	}
	return n
}

// PruneCompleted 删除已完成的登记项,返回删除数量
// 它们的持久记录只存在于上传历史中,继续留在登记表里只会无界增长
func (r *Registry) PruneCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, asset := range r.assets {
		if asset.Complete {
			delete(r.assets, id)
			n++
		}
	}
	return n
}

// snapshot 复制 asset,包括分片映射,避免调用方与登记表产生数据竞争
func snapshot(a *models.Asset) models.Asset {
	cp := *a
	cp.ReceivedParts = make(map[int]int64, len(a.ReceivedParts))
	for k, v := range a.ReceivedParts {
		cp.ReceivedParts[k] = v
	}
	return cp
}
