package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/api"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
)

//go:embed all:dist
var staticFiles embed.FS

// DevServerURL 开发模式下前端开发服务器地址
const DevServerURL = "http://localhost:5173"

// Options 服务器选项
type Options struct {
	DevMode bool
	API     *api.Handler
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	api     *api.Handler
	metrics *telemetry.Metrics
	logger  *slog.Logger
	http    *http.Server
}

// NewServer 创建服务器
func NewServer(opts Options) *Server {
	if !opts.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		router:  gin.New(),
		api:     opts.API,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	s.setupRoutes(opts.DevMode)
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Recovery(), requestLogger(s.logger, s.metrics), cors())

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := s.router.Group("/api")
	{
		s.api.RegisterRoutes(group)
	}

	// 静态资源
	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, DevServerURL+c.Request.URL.Path)
		})
		return
	}

	sub, _ := fs.Sub(staticFiles, "dist")
	assetsSub, _ := fs.Sub(sub, "assets")
	s.router.StaticFS("/assets", http.FS(assetsSub))

	index := func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
	s.router.GET("/", index)
	s.router.NoRoute(func(c *gin.Context) {
		// 未知的 API 路径返回 JSON 404，其余交给前端
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
			return
		}
		index(c)
	})
}

// Handler 底层 http.Handler（测试用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 在后台开始监听；监听失败的错误从返回的通道送出
func (s *Server) Start(addr string) <-chan error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", addr, err)
		}
	}()
	return errCh
}

// Shutdown 优雅关闭：等待进行中的请求完成
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.api.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
