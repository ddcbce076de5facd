package uploader

import (
	"sync"

	"github.com/framedrop/framedrop/internal/models"
)

// History 是有界的上传历史,最新在前
// 由装配成功追加,或在启动时由恢复扫描器整体播种;
// 追加加截断是一个读改写序列,必须在锁内完成
type History struct {
	mu      sync.Mutex
	limit   int
	entries []models.HistoryEntry
}

func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Push 头插一条记录,超出上限时淘汰最旧的
func (h *History) Push(e models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]models.HistoryEntry{e}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Seed 用磁盘扫描结果整体填充历史,只在启动时调用
func (h *History) Seed(entries []models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = append(h.entries, entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Recent 返回最近 n 条记录的副本,供仪表盘做一致性快照读
func (h *History) Recent(n int) []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]models.HistoryEntry, n)
	copy(out, h.entries[:n])
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// TotalBytes 累计历史中所有文件的字节数
func (h *History) TotalBytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	var total int64
	for _, e := range h.entries {
		total += e.Size
	}
	return total
}
