package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/logger"
	"github.com/framedrop/framedrop/internal/pkg/utils"
	"github.com/framedrop/framedrop/internal/services/admin"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler 提供只读的状态视图
// 所有读取都走各登记表的快照接口,不会出现撕裂读
type DashboardHandler struct {
	registry  *uploader.Registry
	history   *uploader.History
	auth      admin.AuthService
	certDir   string
	startedAt time.Time
}

func NewDashboardHandler(registry *uploader.Registry, history *uploader.History, auth admin.AuthService, certDir string) *DashboardHandler {
	return &DashboardHandler{
		registry:  registry,
		history:   history,
		auth:      auth,
		certDir:   certDir,
		startedAt: time.Now().UTC(),
	}
}

type dashboardRow struct {
	Name      string
	Size      string
	Directory string
	Date      string
}

type dashboardData struct {
	Uptime     string
	TotalFiles int
	TotalSize  string
	Paired     bool
	Rows       []dashboardRow
}

// Index 渲染仪表盘首页
func (h *DashboardHandler) Index(c *gin.Context) {
	recent := h.history.Recent(50)
	rows := make([]dashboardRow, 0, len(recent))
	for _, e := range recent {
		rows = append(rows, dashboardRow{
			Name:      e.Name,
			Size:      utils.HumanSize(e.Size),
			Directory: e.Directory,
			Date:      e.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}

	data := dashboardData{
		Uptime:     utils.FormatUptime(time.Since(h.startedAt)),
		TotalFiles: h.history.Len(),
		TotalSize:  utils.HumanSize(h.history.TotalBytes()),
		Paired:     h.auth.PairedDevices() > 0,
		Rows:       rows,
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(c.Writer, data); err != nil {
		logger.Error("渲染仪表盘失败", zap.Error(err))
	}
}

// CACert 提供拦截用 CA 证书下载,证书由外部工具生成
func (h *DashboardHandler) CACert(c *gin.Context) {
	caPath := filepath.Join(h.certDir, "ca.crt")
	if _, err := os.Stat(caPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "CA certificate not generated yet"})
		return
	}
	c.FileAttachment(caPath, "ca.crt")
}

// Status 返回服务器概况
func (h *DashboardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:         "running",
		Uptime:         utils.FormatUptime(time.Since(h.startedAt)),
		TotalUploads:   h.history.Len(),
		TotalSizeBytes: h.history.TotalBytes(),
		PairedDevices:  h.auth.PairedDevices(),
		PendingAssets:  h.registry.PendingCount(),
	})
}

// Uploads 返回最近的上传记录
func (h *DashboardHandler) Uploads(c *gin.Context) {
	c.JSON(http.StatusOK, models.UploadsResponse{Uploads: h.history.Recent(100)})
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en"><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>framedrop</title>
<style>
  * { margin:0; padding:0; box-sizing:border-box; }
  body { font-family: -apple-system, system-ui, sans-serif; background:#111; color:#e5e5e5; padding:2rem; }
  h1 { font-size:1.5rem; font-weight:600; margin-bottom:1.5rem; }
  .status { display:flex; gap:2rem; margin-bottom:2rem; flex-wrap:wrap; }
  .card { background:#1a1a1a; border:1px solid #333; border-radius:8px; padding:1rem 1.5rem; min-width:160px; }
  .card .label { font-size:0.75rem; text-transform:uppercase; color:#888; margin-bottom:0.25rem; }
  .card .value { font-size:1.25rem; font-weight:600; }
  .dot { display:inline-block; width:8px; height:8px; border-radius:50%; margin-right:6px; position:relative; top:-1px; }
  table { width:100%; border-collapse:collapse; margin-top:1rem; }
  th { text-align:left; font-size:0.75rem; text-transform:uppercase; color:#888; padding:0.5rem 1rem; border-bottom:1px solid #333; }
  td { padding:0.5rem 1rem; border-bottom:1px solid #222; font-size:0.9rem; }
  tr:hover { background:#1a1a1a; }
  a { color:#60a5fa; text-decoration:none; }
  a:hover { text-decoration:underline; }
  .section { margin-top:2rem; }
  .section h2 { font-size:1.1rem; font-weight:600; margin-bottom:0.75rem; }
  .muted { color:#888; font-size:0.85rem; }
</style>
</head><body>
<h1>framedrop</h1>
<div class="status">
  <div class="card">
    <div class="label">Server</div>
    <div class="value"><span class="dot" style="background:#4ade80"></span>Running</div>
  </div>
  <div class="card">
    <div class="label">Camera</div>
    {{if .Paired}}<div class="value"><span class="dot" style="background:#4ade80"></span>Paired</div>
    {{else}}<div class="value"><span class="dot" style="background:#888"></span>Waiting</div>{{end}}
  </div>
  <div class="card">
    <div class="label">Uploads</div>
    <div class="value">{{.TotalFiles}}</div>
  </div>
  <div class="card">
    <div class="label">Total Size</div>
    <div class="value">{{.TotalSize}}</div>
  </div>
  <div class="card">
    <div class="label">Uptime</div>
    <div class="value">{{.Uptime}}</div>
  </div>
</div>

<div class="section">
  <div style="display:flex; justify-content:space-between; align-items:baseline;">
    <h2>Recent Uploads</h2>
    <a href="/ca.crt">Download CA Certificate</a>
  </div>
  <table>
    <tr><th>Filename</th><th>Size</th><th>Folder</th><th>Date</th></tr>
    {{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Size}}</td><td>{{.Directory}}</td><td>{{.Date}}</td></tr>
    {{else}}<tr><td colspan="4" style="text-align:center;color:#888">No uploads yet</td></tr>{{end}}
  </table>
</div>

<p class="muted" style="margin-top:2rem">framedrop &mdash; self-hosted Frame.io C2C emulator</p>
</body></html>`))
