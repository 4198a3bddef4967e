// Package api 看板 JSON API（gin）
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/exporter"
	"github.com/yudhiahmadi/dasboard-data/internal/importer"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/session"
	"github.com/yudhiahmadi/dasboard-data/internal/store"
)

// DownloadTTL 导出文件的下载有效期
const DownloadTTL = 10 * time.Minute

// Options 处理器依赖
type Options struct {
	Session  *session.Session
	Loader   *importer.Loader
	Store    *store.Store
	Builder  *dashboard.Builder
	Exporter *exporter.Exporter
	Title    string
	Logger   *slog.Logger
}

// Handler API 处理器
type Handler struct {
	session  *session.Session
	loader   *importer.Loader
	store    *store.Store
	builder  *dashboard.Builder
	exporter *exporter.Exporter
	title    string
	logger   *slog.Logger

	downloads *downloadStore

	// 串行化数据集重载
	reloadMu   sync.Mutex
	importMu   sync.RWMutex
	lastImport *importer.Result
}

// NewHandler 创建处理器；initial 为启动时的加载结果，可为 nil
func NewHandler(opts Options, initial *importer.Result) *Handler {
	if opts.Session == nil {
		opts.Session = session.New(nil)
	}
	if opts.Builder == nil {
		opts.Builder = dashboard.NewBuilder(dashboard.Options{})
	}
	if opts.Exporter == nil {
		opts.Exporter = exporter.NewExporter(opts.Builder.Formatter(), nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		session:    opts.Session,
		loader:     opts.Loader,
		store:      opts.Store,
		builder:    opts.Builder,
		exporter:   opts.Exporter,
		title:      opts.Title,
		logger:     opts.Logger,
		downloads:  newDownloadStore(DownloadTTL),
		lastImport: initial,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 日期范围
	router.GET("/range", h.GetRange)
	router.POST("/range/select", h.SelectRange)

	// 看板
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/tabs/:id", h.GetTab)

	// 数据集
	router.GET("/months", h.ListMonths)
	router.POST("/dataset/reload", h.ReloadDataset)
	router.POST("/dataset/reload/stream", h.ReloadDatasetStream)

	// 导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
	router.GET("/export/pdf", h.ExportPDF)
}

// Close 停止下载缓存的过期清理
func (h *Handler) Close() {
	h.downloads.stop()
}

// Reload 重新加载数据集并重置会话（文件监听也走这里）
func (h *Handler) Reload(ctx context.Context) (*importer.Result, error) {
	if h.loader == nil {
		return nil, errors.New("reload dataset: no loader configured")
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	res, err := h.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	h.apply(res)
	return res, nil
}

func (h *Handler) apply(res *importer.Result) {
	h.session.Reload(res.Table)
	h.importMu.Lock()
	h.lastImport = res
	h.importMu.Unlock()
	h.logger.Info("session reloaded", "rows", res.Table.Len(), "cached", res.Cached)
}

func (h *Handler) currentImport() *importer.Result {
	h.importMu.RLock()
	defer h.importMu.RUnlock()
	return h.lastImport
}

// buildCurrent 按当前会话构建全部分页
func (h *Handler) buildCurrent(ctx context.Context) (*dashboard.Dashboard, session.Snapshot, error) {
	snap := h.session.Snapshot()
	if !snap.Loaded() {
		return nil, snap, fmt.Errorf("build dashboard: %w", model.ErrEmptyInput)
	}
	d, err := h.builder.Build(ctx, snap.Filtered, snap.Range)
	return d, snap, err
}

// respondError 把错误分类映射为 HTTP 状态码
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期范围无效: " + err.Error()})
	case errors.Is(err, model.ErrMissingColumn):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "数据集缺少必需列: " + err.Error()})
	case errors.Is(err, model.ErrEmptyInput):
		c.JSON(http.StatusConflict, gin.H{"error": "尚未加载数据集"})
	case errors.Is(err, dashboard.ErrUnknownTab):
		c.JSON(http.StatusNotFound, gin.H{"error": "分页不存在"})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "请求已取消"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback + ": " + err.Error()})
	}
}
