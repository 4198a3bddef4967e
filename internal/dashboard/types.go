// Package dashboard 把指标层的结果组装成六个分页（图表、关键指标、建议）
package dashboard

import (
	"strconv"
	"time"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// TabID 分页标识
type TabID string

const (
	TabRevenue   TabID = "revenue"
	TabPayment   TabID = "payment"
	TabCustomer  TabID = "customer"
	TabDelivery  TabID = "delivery"
	TabMarketing TabID = "marketing"
	TabRFM       TabID = "rfm"
)

// TabOrder 分页展示顺序
var TabOrder = []TabID{TabRevenue, TabPayment, TabCustomer, TabDelivery, TabMarketing, TabRFM}

// ChartKind 图表类型
type ChartKind string

const (
	ChartLine      ChartKind = "line"
	ChartBar       ChartKind = "bar"
	ChartHistogram ChartKind = "histogram"
	ChartScatter   ChartKind = "scatter"
)

// Series 一组数值，与 Chart.Labels 一一对应
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Kind   ChartKind `json:"kind,omitempty"` // 叠加在散点图上的回归线为 line
}

// Chart 图表数据
type Chart struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       ChartKind `json:"kind"`
	Dimension  string    `json:"dimension"` // 标签维度名，如 State、Month
	Labels     []string  `json:"labels"`
	X          []float64 `json:"x,omitempty"` // 仅散点图
	XLabel     string    `json:"xLabel,omitempty"`
	YLabel     string    `json:"yLabel,omitempty"`
	Series     []Series  `json:"series"`
	Currency   bool      `json:"currency,omitempty"`   // 数值为货币
	Highlight  int       `json:"highlight"`            // 高亮的标签下标，-1 表示不高亮
	Horizontal bool      `json:"horizontal,omitempty"` // 横向条形图
	Annotation string    `json:"annotation,omitempty"`
}

// Table 以表格形式展开图表（导出、终端报表使用）
func (c Chart) Table() (header []string, rows [][]string) {
	header = append(header, c.labelHeader())
	if c.X != nil {
		header = append(header, c.XLabel)
	}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}

	rows = make([][]string, len(c.Labels))
	for i, label := range c.Labels {
		row := []string{label}
		if c.X != nil {
			row = append(row, formatFloat(c.X[i]))
		}
		for _, s := range c.Series {
			v := ""
			if i < len(s.Values) {
				v = formatFloat(s.Values[i])
			}
			row = append(row, v)
		}
		rows[i] = row
	}
	return header, rows
}

func (c Chart) labelHeader() string {
	if c.Dimension != "" {
		return c.Dimension
	}
	return "Label"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Indicator 关键指标
type Indicator struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Display string  `json:"display"` // 按地区格式化后的展示值
	Unit    string  `json:"unit,omitempty"`
}

// Tab 分页
type Tab struct {
	ID         TabID       `json:"id"`
	Name       string      `json:"name"`  // 英文名（PDF 报表使用）
	Title      string      `json:"title"` // 页面标题
	Indicators []Indicator `json:"indicators"`
	Charts     []Chart     `json:"charts"`
	Notes      []string    `json:"notes,omitempty"`
	Advice     []string    `json:"advice"`
	Empty      bool        `json:"empty"`
	Error      string      `json:"error,omitempty"`
}

// OK 分页是否成功生成
func (t Tab) OK() bool {
	return t.Error == ""
}

// Dashboard 某一日期范围下的全部分页
type Dashboard struct {
	Range       model.DateRange `json:"range"`
	Rows        int             `json:"rows"`
	Orders      int             `json:"orders"`
	Customers   int             `json:"customers"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Tabs        []Tab           `json:"tabs"`
}

// Tab 按 ID 查找分页
func (d *Dashboard) Tab(id TabID) (Tab, bool) {
	for _, t := range d.Tabs {
		if t.ID == id {
			return t, true
		}
	}
	return Tab{}, false
}
