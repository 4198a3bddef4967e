package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yudhiahmadi/dasboard-data/internal/api"
	"github.com/yudhiahmadi/dasboard-data/internal/config"
	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/exporter"
	"github.com/yudhiahmadi/dasboard-data/internal/importer"
	"github.com/yudhiahmadi/dasboard-data/internal/logging"
	"github.com/yudhiahmadi/dasboard-data/internal/report"
	"github.com/yudhiahmadi/dasboard-data/internal/server"
	"github.com/yudhiahmadi/dasboard-data/internal/session"
	"github.com/yudhiahmadi/dasboard-data/internal/store"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
	"github.com/yudhiahmadi/dasboard-data/internal/util"
)

const (
	shutdownTimeout = 10 * time.Second
	portAttempts    = 20
	summaryMaxRows  = 10
)

var rootCmd = &cobra.Command{
	Use:           "dasboard",
	Short:         "电商订单数据看板",
	Long:          "加载订单数据集，在浏览器中按日期范围展示营收、支付、满意度、配送、投放时段与 RFM 分析。",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, cmd.OutOrStdout())
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "在终端输出完整日期范围内的各分页指标",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return summary(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// app 启动期间装配好的依赖
type app struct {
	cfg     *config.AppConfig
	info    config.LoadConfigInfo
	logger  *slog.Logger
	metrics *telemetry.Metrics
	store   *store.Store
	loader  *importer.Loader
	builder *dashboard.Builder
}

// setup 加载配置并打开数据库；日志写到 logOut
func setup(logOut io.Writer) (*app, error) {
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewWithWriter(logOut, cfg.Log.Level, false)
	slog.SetDefault(logger)
	logger.Info("config loaded", "path", info.Path, "found", info.FileFound)

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Debug("data dir ready", "path", dataDir)

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	format, err := dashboard.NewFormatter(cfg.Display.Locale, cfg.Display.Currency)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("display settings: %w", err)
	}

	m := telemetry.New()
	loader := importer.NewLoader(st, importer.Options{
		Path:    cfg.SourcePath(),
		Sheet:   cfg.Data.Sheet,
		Metrics: m,
		Logger:  logger,
	})
	builder := dashboard.NewBuilder(dashboard.Options{
		Formatter: format,
		Metrics:   m,
		Logger:    logger,
	})
	return &app{
		cfg:     cfg,
		info:    info,
		logger:  logger,
		metrics: m,
		store:   st,
		loader:  loader,
		builder: builder,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
}

// serve 加载数据集、启动服务并等待退出信号
func serve(ctx context.Context, logOut io.Writer) error {
	a, err := setup(logOut)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", a.loader.Path(), err)
	}
	a.logger.Info("dataset loaded",
		"path", a.loader.Path(),
		"rows", res.Table.Len(),
		"cached", res.Cached,
		"row_errors", len(res.RowErrors))

	handler := api.NewHandler(api.Options{
		Session:  session.New(res.Table),
		Loader:   a.loader,
		Store:    a.store,
		Builder:  a.builder,
		Exporter: exporter.NewExporter(a.builder.Formatter(), a.metrics),
		Title:    a.cfg.Display.Title,
		Logger:   a.logger,
	}, res)

	srv := server.NewServer(server.Options{
		DevMode: a.cfg.Server.DevMode,
		API:     handler,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	port, err := listenPort(a.cfg, a.info)
	if err != nil {
		return err
	}
	errCh := srv.Start(fmt.Sprintf(":%d", port))
	url := fmt.Sprintf("http://localhost:%d", port)
	a.logger.Info("server started", "url", url, "dev_mode", a.cfg.Server.DevMode)

	if a.cfg.Server.DevMode {
		a.logger.Info("dev mode: frontend served by dev server", "url", server.DevServerURL)
	} else if err := util.OpenBrowser(url); err != nil {
		a.logger.Warn("无法自动打开浏览器，请手动访问", "url", url, "error", err)
	}

	if a.cfg.Data.Watch {
		go func() {
			err := session.Watch(ctx, a.loader.Path(), session.DefaultDebounce, a.logger, func() {
				if _, err := handler.Reload(ctx); err != nil {
					a.logger.Error("reload dataset", "error", err)
				}
			})
			if err != nil {
				a.logger.Error("watch dataset", "error", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err, ok := <-errCh:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("shutdown", "error", err)
	}
	return runErr
}

// listenPort 配置中显式指定的端口直接使用，否则从默认端口起找一个空闲端口
func listenPort(cfg *config.AppConfig, info config.LoadConfigInfo) (int, error) {
	if info.PortSpecified {
		return cfg.Server.Port, nil
	}
	port, err := util.FindAvailablePort(cfg.Server.Port, portAttempts)
	if err != nil {
		return 0, fmt.Errorf("find port: %w", err)
	}
	return port, nil
}

// summary 加载数据集并在终端输出完整范围的看板
func summary(ctx context.Context, w, logOut io.Writer) error {
	a, err := setup(logOut)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", a.loader.Path(), err)
	}
	d, err := a.builder.Build(ctx, res.Table, res.Table.Bounds())
	if err != nil {
		return err
	}
	return report.Render(w, d, report.Options{Charts: true, MaxRows: summaryMaxRows})
}
