package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/framedrop/framedrop/internal/config"
	"github.com/framedrop/framedrop/internal/handlers"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/framedrop/framedrop/internal/router"
	"github.com/framedrop/framedrop/internal/services/admin"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"go.uber.org/zap"
)

// Server 持有两个 HTTP 服务:相机 API 与仪表盘
type Server struct {
	cameraServer    *http.Server
	dashboardServer *http.Server
	pruner          *uploader.Pruner
}

// NewServer 负责构建所有依赖
// 恢复扫描在这里同步执行,保证开始服务流量前完成
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	partStore := storage.NewDiskPartStore(cfg.Storage.UploadDir)

	archive, err := storage.NewArchiveStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive store: %w", err)
	}

	registry := uploader.NewRegistry(cfg.Upload.ChunkSize, cfg.Upload.MaxParts)
	history := uploader.NewHistory(cfg.Upload.HistoryLimit)
	authService := admin.NewAuthService(cfg)
	pruner := uploader.NewPruner(registry, authService)
	assembler := uploader.NewAssembler(registry, partStore, history, pruner, cfg.Storage.UploadDir, archive)
	coordinator := uploader.NewCoordinator(registry, partStore, assembler, cfg.Server.PublicBaseURL, cfg.Upload.RealtimeBatch)

	// 启动恢复:丢弃上次崩溃留下的半成品,从磁盘重建上传历史
	scanner := uploader.NewScanner(registry, history, partStore, cfg.Storage.UploadDir, cfg.Upload.HistoryLimit)
	scanner.Run()

	dashboard := handlers.NewDashboardHandler(registry, history, authService, cfg.Storage.CertDir)

	routerCfg := &router.RouterConfig{
		Coordinator: coordinator,
		Auth:        authService,
		Dashboard:   dashboard,
	}

	cameraServer := &http.Server{
		Addr:    ":" + cfg.Server.CameraPort,
		Handler: router.InitCameraRouter(routerCfg),
	}
	dashboardServer := &http.Server{
		Addr:    ":" + cfg.Server.DashboardPort,
		Handler: router.InitDashboardRouter(routerCfg),
	}

	logger.Info("framedrop server started")
	logger.Info("Camera API", zap.String("port", cfg.Server.CameraPort))
	logger.Info("Dashboard", zap.String("port", cfg.Server.DashboardPort))
	logger.Info("Uploads directory", zap.String("dir", cfg.Storage.UploadDir))
	logger.Info("Certificates", zap.String("dir", cfg.Storage.CertDir))

	return &Server{
		cameraServer:    cameraServer,
		dashboardServer: dashboardServer,
		pruner:          pruner,
	}, nil
}

// Run 启动两个 HTTP 服务与周期清理,并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 装配成功后清理会立即触发,这里的周期清理只是兜底
	s.pruner.Start(runCtx, 10*time.Minute)

	go func() {
		if err := s.cameraServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Camera server failed to start", zap.Error(err))
		}
	}()
	go func() {
		if err := s.dashboardServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Dashboard server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := s.cameraServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Camera server forced to shutdown", zap.Error(err))
	}
	if err := s.dashboardServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Dashboard server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
