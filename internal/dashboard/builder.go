package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
)

// ErrUnknownTab 不存在的分页
var ErrUnknownTab = errors.New("unknown tab")

// NoDataMessage 日期范围内没有数据时的占位提示
const NoDataMessage = "所选日期范围内没有数据"

// 分页构建结果，对应 telemetry 的 outcome 标签
const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

type tabSpec struct {
	id    TabID
	name  string
	title string
	build func(b *Builder, t *model.OrderTable, tab *Tab) error
}

var tabSpecs = []tabSpec{
	{id: TabRevenue, name: "Revenue", title: "销售与营收表现", build: (*Builder).buildRevenue},
	{id: TabPayment, name: "Payment", title: "客户支付方式", build: (*Builder).buildPayment},
	{id: TabCustomer, name: "Customer", title: "客户满意度", build: (*Builder).buildCustomer},
	{id: TabDelivery, name: "Delivery", title: "商品配送", build: (*Builder).buildDelivery},
	{id: TabMarketing, name: "Digital Marketing", title: "投放推广的最佳时段", build: (*Builder).buildMarketing},
	{id: TabRFM, name: "RFM and Churn Rate", title: "RFM 与流失率分析", build: (*Builder).buildRFM},
}

func specOf(id TabID) (tabSpec, bool) {
	for _, s := range tabSpecs {
		if s.id == id {
			return s, true
		}
	}
	return tabSpec{}, false
}

// Options 构建器选项
type Options struct {
	Formatter *Formatter
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
	// Workers 并行构建分页的协程数，默认 min(CPU 数, 分页数)
	Workers int
}

// Builder 分页构建器
type Builder struct {
	format  *Formatter
	metrics *telemetry.Metrics
	logger  *slog.Logger
	pool    pond.ResultPool[Tab]
}

// NewBuilder 创建构建器
func NewBuilder(opts Options) *Builder {
	if opts.Formatter == nil {
		opts.Formatter = DefaultFormatter()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = min(runtime.NumCPU(), len(tabSpecs))
	}
	return &Builder{
		format:  opts.Formatter,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		pool:    pond.NewResultPool[Tab](opts.Workers),
	}
}

// Formatter 构建器使用的格式化器
func (b *Builder) Formatter() *Formatter {
	return b.format
}

// Build 并行构建全部分页，结果按 TabOrder 排列；table 须已按 r 过滤
//
// 单个分页失败只记录在该分页的 Error 中，不影响其他分页。
func (b *Builder) Build(ctx context.Context, table *model.OrderTable, r model.DateRange) (*Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	group := b.pool.NewGroupContext(ctx)
	for _, spec := range tabSpecs {
		spec := spec
		group.SubmitErr(func() (Tab, error) {
			if err := ctx.Err(); err != nil {
				return Tab{}, err
			}
			return b.buildTab(spec, table), nil
		})
	}
	tabs, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	d := &Dashboard{
		Range:       r,
		Rows:        table.Len(),
		Orders:      table.DistinctOrders(),
		Customers:   table.DistinctCustomers(),
		GeneratedAt: start,
		Tabs:        tabs,
	}

	b.metrics.ObserveBuild(time.Since(start))
	b.logger.Debug("dashboard built", "range", r.String(), "rows", d.Rows, "took", time.Since(start))
	return d, nil
}

// BuildTab 只构建一个分页
func (b *Builder) BuildTab(ctx context.Context, table *model.OrderTable, id TabID) (Tab, error) {
	spec, ok := specOf(id)
	if !ok {
		return Tab{}, fmt.Errorf("%w: %q", ErrUnknownTab, id)
	}
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	return b.buildTab(spec, table), nil
}

func (b *Builder) buildTab(spec tabSpec, table *model.OrderTable) (tab Tab) {
	tab = newTab(spec)

	outcome := outcomeOK
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("tab build panicked", "tab", spec.id, "panic", p)
			tab = failedTab(spec, fmt.Sprintf("生成失败: %v", p))
			outcome = outcomeError
		}
		b.metrics.ObserveTab(string(spec.id), outcome)
	}()

	err := spec.build(b, table, &tab)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrEmptyInput):
		tab = failedTab(spec, NoDataMessage)
		tab.Empty = true
		outcome = outcomeEmpty
	default:
		b.logger.Warn("tab build failed", "tab", spec.id, "error", err)
		tab = failedTab(spec, err.Error())
		outcome = outcomeError
	}
	return tab
}

func newTab(spec tabSpec) Tab {
	return Tab{
		ID:         spec.id,
		Name:       spec.name,
		Title:      spec.title,
		Indicators: []Indicator{},
		Charts:     []Chart{},
		Advice:     []string{},
	}
}

func failedTab(spec tabSpec, msg string) Tab {
	tab := newTab(spec)
	tab.Error = msg
	return tab
}
