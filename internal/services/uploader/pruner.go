package uploader

import (
	"context"
	"time"

	"github.com/framedrop/framedrop/internal/pkg/logger"
	"go.uber.org/zap"
)

// Prunable 是可以被约束规模的登记表
// 认证簿记(配对码、令牌)在 admin 包里实现该接口
type Prunable interface {
	Prune() int
}

// Pruner 约束服务器长期运行时的内存占用:
// 已完成的 asset 登记项在每次装配成功后删除,其余有界登记表一并收缩
type Pruner struct {
	registry *Registry
	stores   []Prunable
}

func NewPruner(registry *Registry, stores ...Prunable) *Pruner {
	return &Pruner{registry: registry, stores: stores}
}

// Run 执行一轮清理
func (p *Pruner) Run() {
	if n := p.registry.PruneCompleted(); n > 0 {
		logger.Debug("Pruned completed assets", zap.Int("count", n))
	}
	for _, s := range p.stores {
		if n := s.Prune(); n > 0 {
			logger.Debug("Pruned auth bookkeeping entries", zap.Int("count", n))
		}
	}
}

// Start 周期性地运行清理,直到 ctx 取消
func (p *Pruner) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Run()
			}
		}
	}()
}
