// Package exporter 把看板导出为 Excel 工作簿或 PDF 报表
package exporter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/metrics"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
)

// 导出格式，对应 telemetry 的 format 标签
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	summarySheet = "Summary"
	rfmSheet     = "RFM"

	// Excel 工作表名长度上限
	maxSheetName = 31
)

// ErrNoDashboard 未提供看板
var ErrNoDashboard = errors.New("no dashboard to export")

// ExportOptions 导出选项
type ExportOptions struct {
	Dashboard *dashboard.Dashboard
	// Table 为已过滤的订单表；非空时附带逐客户的 RFM 明细
	Table    *model.OrderTable
	Progress func(ProgressEvent)
}

// Exporter 看板导出器
type Exporter struct {
	format  *dashboard.Formatter
	metrics *telemetry.Metrics
}

// NewExporter 创建导出器
func NewExporter(format *dashboard.Formatter, m *telemetry.Metrics) *Exporter {
	if format == nil {
		format = dashboard.DefaultFormatter()
	}
	return &Exporter{format: format, metrics: m}
}

type workbookStyles struct {
	header int
	title  int
	number int
	money  int
}

// Export 生成工作簿：Summary 汇总页、每个图表一页、可选的 RFM 明细页
func (e *Exporter) Export(opts ExportOptions) (*excelize.File, error) {
	d := opts.Dashboard
	if d == nil {
		return nil, ErrNoDashboard
	}
	reportProgress(opts.Progress, 0, "准备导出")

	f := excelize.NewFile()
	styles, err := newWorkbookStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}

	reportProgress(opts.Progress, 5, "写入汇总")
	if err := e.writeSummary(f, styles, d); err != nil {
		_ = f.Close()
		return nil, err
	}

	charts := 0
	for _, tab := range d.Tabs {
		charts += len(tab.Charts)
	}
	used := map[string]bool{summarySheet: true, rfmSheet: true}
	done := 0
	for _, tab := range d.Tabs {
		for _, c := range tab.Charts {
			name := uniqueSheetName(c.ID, used)
			if err := writeChartSheet(f, styles, name, c); err != nil {
				_ = f.Close()
				return nil, err
			}
			done++
			reportProgress(opts.Progress, 10+done*75/max(charts, 1), "写入图表: "+c.Title)
		}
	}

	if opts.Table != nil && opts.Table.Len() > 0 {
		reportProgress(opts.Progress, 90, "写入 RFM 明细")
		if err := writeRFMSheet(f, styles, opts.Table); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	e.metrics.ObserveExport(FormatXLSX)
	reportProgress(opts.Progress, 100, "导出完成")
	return f, nil
}

// ExportXLSX 生成工作簿并序列化为字节
func (e *Exporter) ExportXLSX(opts ExportOptions) ([]byte, error) {
	f, err := e.Export(opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	if s.number, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return s, fmt.Errorf("create number style: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Color: "1F4E79"}}); err != nil {
		return s, fmt.Errorf("create money style: %w", err)
	}
	return s, nil
}

func (e *Exporter) writeSummary(f *excelize.File, styles workbookStyles, d *dashboard.Dashboard) error {
	sheet := summarySheet
	rows := [][]any{
		{"Dasboard Report"},
		{"Date range", d.Range.Start.Format(model.DateLayout), d.Range.End.Format(model.DateLayout)},
		{"Generated at", d.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Rows", d.Rows},
		{"Orders", d.Orders},
		{"Customers", d.Customers},
		{"Currency", e.format.CurrencyCode()},
		{},
		{"Tab", "Indicator", "Value", "Display"},
	}
	headerRow := len(rows)
	for _, tab := range d.Tabs {
		if !tab.OK() {
			rows = append(rows, []any{tab.Name, "-", nil, tab.Error})
			continue
		}
		for _, ind := range tab.Indicators {
			rows = append(rows, []any{tab.Name, ind.Name, ind.Value, ind.Display})
		}
	}

	for i, row := range rows {
		row := row
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return fmt.Errorf("style summary title: %w", err)
	}
	hdr := fmt.Sprintf("A%d", headerRow)
	if err := f.SetCellStyle(sheet, hdr, fmt.Sprintf("D%d", headerRow), styles.header); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if len(rows) > headerRow {
		if err := f.SetCellStyle(sheet, fmt.Sprintf("C%d", headerRow+1), fmt.Sprintf("C%d", len(rows)), styles.number); err != nil {
			return fmt.Errorf("style summary values: %w", err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
		return fmt.Errorf("set summary width: %w", err)
	}
	return f.SetColWidth(sheet, "C", "D", 18)
}

func writeChartSheet(f *excelize.File, styles workbookStyles, sheet string, c dashboard.Chart) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header, _ := c.Table()
	if err := f.SetCellValue(sheet, "A1", c.Title); err != nil {
		return fmt.Errorf("write chart title %s: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return fmt.Errorf("style chart title %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return fmt.Errorf("write header %s: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheet, "A3", lastCol+"3", styles.header); err != nil {
		return fmt.Errorf("style header %s: %w", sheet, err)
	}

	// 数值列写成数字而非字符串，便于在 Excel 中继续计算
	for i, label := range c.Labels {
		row := make([]any, 0, len(header))
		row = append(row, label)
		if c.X != nil {
			row = append(row, c.X[i])
		}
		for _, s := range c.Series {
			if i < len(s.Values) {
				row = append(row, s.Values[i])
			} else {
				row = append(row, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %s:%d: %w", sheet, i+4, err)
		}
	}

	if n := len(c.Labels); n > 0 && len(header) > 1 {
		style := styles.number
		// 直方图的 Currency 只描述分箱标签，计数仍按普通数字
		if c.Currency && c.Kind != dashboard.ChartHistogram {
			style = styles.money
		}
		if err := f.SetCellStyle(sheet, "B4", fmt.Sprintf("%s%d", lastCol, n+3), style); err != nil {
			return fmt.Errorf("style values %s: %w", sheet, err)
		}
	}
	if c.Annotation != "" {
		cell := fmt.Sprintf("A%d", len(c.Labels)+5)
		if err := f.SetCellValue(sheet, cell, c.Annotation); err != nil {
			return fmt.Errorf("write annotation %s: %w", sheet, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 3, TopLeftCell: "A4", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header %s: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", lastCol, 22)
}

func writeRFMSheet(f *excelize.File, styles workbookStyles, t *model.OrderTable) error {
	rows, err := metrics.RFM(t)
	if err != nil {
		return fmt.Errorf("compute rfm: %w", err)
	}
	if _, err := f.NewSheet(rfmSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", rfmSheet, err)
	}

	header := []any{"Customer", "Last purchase", "Recency (days)", "Frequency", "Monetary"}
	if err := f.SetSheetRow(rfmSheet, "A1", &header); err != nil {
		return fmt.Errorf("write rfm header: %w", err)
	}
	if err := f.SetCellStyle(rfmSheet, "A1", "E1", styles.header); err != nil {
		return fmt.Errorf("style rfm header: %w", err)
	}
	for i, r := range rows {
		row := []any{r.CustomerUniqueID, r.LastPurchase.Format("2006-01-02 15:04:05"), r.Recency, r.Frequency, r.Monetary.InexactFloat64()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(rfmSheet, cell, &row); err != nil {
			return fmt.Errorf("write rfm row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(rfmSheet, "E2", fmt.Sprintf("E%d", len(rows)+1), styles.money); err != nil {
			return fmt.Errorf("style rfm monetary: %w", err)
		}
	}
	if err := f.SetColWidth(rfmSheet, "A", "A", 36); err != nil {
		return fmt.Errorf("set rfm width: %w", err)
	}
	return f.SetColWidth(rfmSheet, "B", "E", 20)
}

// uniqueSheetName 截断到 31 个字符并去除非法字符，重名时追加序号
func uniqueSheetName(base string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, base)
	if name == "" {
		name = "Chart"
	}
	name = truncateRunes(name, maxSheetName)

	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// FileName 导出文件名，如 dasboard_2017-01-01_2017-12-31.xlsx
func FileName(r model.DateRange, format string) string {
	return fmt.Sprintf("dasboard_%s_%s.%s", r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout), format)
}
