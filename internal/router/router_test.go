package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framedrop/framedrop/internal/config"
	"github.com/framedrop/framedrop/internal/handlers"
	"github.com/framedrop/framedrop/internal/models"
	"github.com/framedrop/framedrop/internal/pkg/storage"
	"github.com/framedrop/framedrop/internal/services/admin"
	"github.com/framedrop/framedrop/internal/services/uploader"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouters 搭建与 cmd/server 相同的依赖图,分片大小缩小到 4 字节
func newTestRouters(t *testing.T) (camera *gin.Engine, dashboard *gin.Engine, dir string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir = t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{PublicBaseURL: "https://api.frame.io"},
		Upload: config.UploadConfig{ChunkSize: 4, MaxParts: 4000, RealtimeBatch: 5, HistoryLimit: 500, AuthEntryLimit: 100},
		JWT:    config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "framedrop"},
	}

	store := storage.NewDiskPartStore(dir)
	registry := uploader.NewRegistry(cfg.Upload.ChunkSize, cfg.Upload.MaxParts)
	history := uploader.NewHistory(cfg.Upload.HistoryLimit)
	auth := admin.NewAuthService(cfg)
	pruner := uploader.NewPruner(registry, auth)
	assembler := uploader.NewAssembler(registry, store, history, pruner, dir, nil)
	coordinator := uploader.NewCoordinator(registry, store, assembler, cfg.Server.PublicBaseURL, cfg.Upload.RealtimeBatch)
	dash := handlers.NewDashboardHandler(registry, history, auth, filepath.Join(dir, "certs"))

	rc := &RouterConfig{Coordinator: coordinator, Auth: auth, Dashboard: dash}
	return InitCameraRouter(rc), InitDashboardRouter(rc), dir
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func doForm(engine *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func putPart(engine *gin.Engine, assetID string, part int, data string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/upload/%s?part=%d", assetID, part), strings.NewReader(data))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func createAsset(t *testing.T, engine *gin.Engine, body string) models.AssetCreateResponse {
	t.Helper()
	w := doJSON(engine, http.MethodPost, "/v2/devices/assets", body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AssetCreateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateAndUploadEndToEnd(t *testing.T) {
	camera, dashboard, dir := newTestRouters(t)

	resp := createAsset(t, camera, `{"name":"clip.mov","filesize":12,"filetype":"video/quicktime"}`)
	require.Len(t, resp.UploadURLs, 3)

	// 分片乱序推送
	assert.Equal(t, http.StatusOK, putPart(camera, resp.ID, 2, "BBBB").Code)
	assert.Equal(t, http.StatusOK, putPart(camera, resp.ID, 1, "AAAA").Code)
	assert.Equal(t, http.StatusOK, putPart(camera, resp.ID, 3, "CC").Code)

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02"), "clip.mov"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBBCC", string(data))

	// 仪表盘状态反映装配结果
	w := httptest.NewRecorder()
	dashboard.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 1, status.TotalUploads)
	assert.Equal(t, int64(10), status.TotalSizeBytes)
	assert.Equal(t, 0, status.PendingAssets)

	w = httptest.NewRecorder()
	dashboard.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var uploads models.UploadsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploads))
	require.Len(t, uploads.Uploads, 1)
	assert.Equal(t, "clip.mov", uploads.Uploads[0].Name)
}

func TestUploadUnknownAssetReturns404(t *testing.T) {
	camera, _, _ := newTestRouters(t)
	assert.Equal(t, http.StatusNotFound, putPart(camera, "no-such-asset", 1, "data").Code)
}

func TestUploadBadPartNumberReturns400(t *testing.T) {
	camera, _, _ := newTestRouters(t)

	req := httptest.NewRequest(http.MethodPut, "/upload/some-asset?part=abc", strings.NewReader("data"))
	w := httptest.NewRecorder()
	camera.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusBadRequest, putPart(camera, "some-asset", 0, "data").Code)
}

// 未识别的协议端点返回 200 与空对象,设备固件不会因此报错
func TestUnknownProtocolEndpointReturnsEmptyOK(t *testing.T) {
	camera, _, _ := newTestRouters(t)

	w := doJSON(camera, http.MethodPost, "/v2/some/unknown/endpoint", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestDevicePairingFlow(t *testing.T) {
	camera, _, _ := newTestRouters(t)

	w := doForm(camera, "/v2/auth/device/code", url.Values{
		"client_id": {"camera-01"},
		"scope":     {"asset_create"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var code models.DeviceCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &code))
	assert.Len(t, code.UserCode, 6)

	w = doForm(camera, "/v2/auth/token", url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {code.DeviceCode},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
}

func TestTokenInvalidGrantReturns400(t *testing.T) {
	camera, _, _ := newTestRouters(t)

	w := doForm(camera, "/v2/auth/token", url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {"no-such-code"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_grant"}`, w.Body.String())
}

func TestRealtimeUploadFlow(t *testing.T) {
	camera, _, dir := newTestRouters(t)

	resp := createAsset(t, camera, `{"name":"live.mp4","is_realtime_upload":true}`)
	require.Len(t, resp.UploadURLs, 1)

	assert.Equal(t, http.StatusOK, putPart(camera, resp.ID, 1, "aa").Code)

	w := doJSON(camera, http.MethodPost, "/v2/devices/assets/"+resp.ID+"/realtime-upload-parts", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	var more models.RealtimePartsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &more))
	require.Len(t, more.UploadURLs, 5)

	assert.Equal(t, http.StatusOK, putPart(camera, resp.ID, 2, "bb").Code)

	w = doJSON(camera, http.MethodPost, "/upload/"+resp.ID+"/complete", ``)
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02"), "live.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "aabb", string(data))
}

func TestRealtimePartsUnknownAssetReturns404(t *testing.T) {
	camera, _, _ := newTestRouters(t)
	w := doJSON(camera, http.MethodPost, "/v2/devices/assets/no-such-asset/realtime-upload-parts", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentityStubs(t *testing.T) {
	camera, _, _ := newTestRouters(t)

	w := doJSON(camera, http.MethodGet, "/v2/me", ``)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.NotEmpty(t, me["account_id"])

	w = doJSON(camera, http.MethodGet, "/v2/accounts/acc-123", ``)
	require.Equal(t, http.StatusOK, w.Code)
	var account map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.Equal(t, "acc-123", account["id"])
}

func TestCACertNotGenerated(t *testing.T) {
	_, dashboard, _ := newTestRouters(t)

	w := httptest.NewRecorder()
	dashboard.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ca.crt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardIndexRenders(t *testing.T) {
	_, dashboard, _ := newTestRouters(t)

	w := httptest.NewRecorder()
	dashboard.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "framedrop")
	assert.Contains(t, w.Body.String(), "No uploads yet")
}
