// Package report 在终端以表格输出看板
package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// Options 输出选项
type Options struct {
	// Charts 同时输出每个图表的数据表
	Charts bool
	// MaxRows 每个图表最多输出的行数，0 表示不限
	MaxRows int
}

// Render 输出概览、各分页关键指标与建议
func Render(w io.Writer, d *dashboard.Dashboard, opts Options) error {
	if d == nil {
		return fmt.Errorf("render report: nil dashboard")
	}

	fmt.Fprintf(w, "日期范围: %s ~ %s\n", d.Range.Start.Format(model.DateLayout), d.Range.End.Format(model.DateLayout))
	fmt.Fprintf(w, "明细行: %d  订单: %d  客户: %d\n", d.Rows, d.Orders, d.Customers)

	for _, tab := range d.Tabs {
		fmt.Fprintf(w, "\n== %s (%s) ==\n", tab.Title, tab.Name)
		if !tab.OK() {
			fmt.Fprintln(w, tab.Error)
			continue
		}

		if len(tab.Indicators) > 0 {
			table := newTable(w)
			table.SetHeader([]string{"Indicator", "Value"})
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
			for _, ind := range tab.Indicators {
				table.Append([]string{ind.Name, ind.Display})
			}
			table.Render()
		}

		if opts.Charts {
			for _, c := range tab.Charts {
				renderChart(w, c, opts.MaxRows)
			}
		}

		for _, line := range tab.Advice {
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func renderChart(w io.Writer, c dashboard.Chart, maxRows int) {
	header, rows := c.Table()
	hidden := 0
	if maxRows > 0 && len(rows) > maxRows {
		hidden = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	fmt.Fprintf(w, "\n%s\n", c.Title)
	table := newTable(w)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
	if hidden > 0 {
		fmt.Fprintf(w, "... 另有 %d 行\n", hidden)
	}
	if c.Annotation != "" {
		fmt.Fprintln(w, c.Annotation)
	}
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	return table
}
