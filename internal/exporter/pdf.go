package exporter

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// PDF 报表中每个图表最多列出的行数
const pdfMaxRows = 10

var (
	pdfDark   = color.Color{Red: 38, Green: 38, Blue: 34}
	pdfMuted  = color.Color{Red: 121, Green: 119, Blue: 109}
	pdfAccent = color.Color{Red: 31, Green: 78, Blue: 121}
	pdfAlert  = color.Color{Red: 192, Green: 57, Blue: 43}
)

// ExportPDF 生成 PDF 报表：各分页的关键指标与图表数据（每图最多 10 行）
//
// 内置字体只支持 Latin-1，报表文字统一使用英文。
func (e *Exporter) ExportPDF(d *dashboard.Dashboard, title string) ([]byte, error) {
	if d == nil {
		return nil, ErrNoDashboard
	}
	if title == "" {
		title = "Dasboard Report"
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 20, 20)

	m.Row(12, func() {
		m.Col(12, func() {
			m.Text(latin1(title), props.Text{Size: 18, Style: consts.Bold, Color: pdfDark})
		})
	})
	m.Row(6, func() {
		m.Col(6, func() {
			m.Text(fmt.Sprintf("Date range: %s to %s", d.Range.Start.Format(model.DateLayout), d.Range.End.Format(model.DateLayout)),
				props.Text{Size: 9, Color: pdfMuted})
		})
		m.Col(6, func() {
			m.Text("Generated: "+d.GeneratedAt.Format("Jan 02, 2006 15:04"),
				props.Text{Size: 9, Color: pdfMuted, Align: consts.Right})
		})
	})
	m.Row(6, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Rows: %d   Orders: %d   Customers: %d", d.Rows, d.Orders, d.Customers),
				props.Text{Size: 9, Color: pdfMuted})
		})
	})

	for _, tab := range d.Tabs {
		writePDFTab(m, tab)
	}

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	e.metrics.ObserveExport(FormatPDF)
	return buf.Bytes(), nil
}

func writePDFTab(m pdf.Maroto, tab dashboard.Tab) {
	m.Row(8, func() {})
	m.Row(9, func() {
		m.Col(12, func() {
			m.Text(latin1(tab.Name), props.Text{Size: 14, Style: consts.Bold, Color: pdfAccent})
		})
	})

	if !tab.OK() {
		msg := "This tab could not be generated."
		if tab.Empty {
			msg = "No data in the selected date range."
		}
		m.Row(6, func() {
			m.Col(12, func() {
				m.Text(msg, props.Text{Size: 9, Style: consts.Italic, Color: pdfAlert})
			})
		})
		return
	}

	for _, ind := range tab.Indicators {
		ind := ind
		m.Row(5, func() {
			m.Col(8, func() {
				m.Text(latin1(ind.Name), props.Text{Size: 9, Color: pdfDark})
			})
			m.Col(4, func() {
				m.Text(latin1(ind.Display), props.Text{Size: 9, Style: consts.Bold, Color: pdfDark, Align: consts.Right})
			})
		})
	}
	if len(tab.Notes) > 0 {
		m.Row(5, func() {
			m.Col(12, func() {
				m.Text("Needs attention: "+latin1(strings.Join(tab.Notes, ", ")), props.Text{Size: 8, Color: pdfAlert})
			})
		})
	}

	for _, c := range tab.Charts {
		writePDFChart(m, c)
	}
}

func writePDFChart(m pdf.Maroto, c dashboard.Chart) {
	header, rows := c.Table()
	// 12 栏栅格，超出的列不输出
	if len(header) > 4 {
		header = header[:4]
	}
	width := uint(12 / len(header))

	m.Row(6, func() {})
	m.Row(6, func() {
		m.Col(12, func() {
			m.Text(latin1(c.Title), props.Text{Size: 10, Style: consts.Bold, Color: pdfDark})
		})
	})
	m.Row(5, func() {
		for i, h := range header {
			h := h
			align := consts.Right
			if i == 0 {
				align = consts.Left
			}
			m.Col(width, func() {
				m.Text(latin1(h), props.Text{Size: 8, Style: consts.Bold, Color: pdfMuted, Align: align})
			})
		}
	})

	shown := rows
	if len(shown) > pdfMaxRows {
		shown = shown[:pdfMaxRows]
	}
	for _, row := range shown {
		row := row
		m.Row(4.5, func() {
			for i := range header {
				align := consts.Right
				if i == 0 {
					align = consts.Left
				}
				v := ""
				if i < len(row) {
					v = row[i]
				}
				m.Col(width, func() {
					m.Text(latin1(v), props.Text{Size: 8, Color: pdfDark, Align: align})
				})
			}
		})
	}
	if hidden := len(rows) - len(shown); hidden > 0 {
		m.Row(4.5, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("... %d more rows in the Excel export", hidden), props.Text{Size: 7, Style: consts.Italic, Color: pdfMuted})
			})
		})
	}
	if c.Annotation != "" {
		m.Row(5, func() {
			m.Col(12, func() {
				m.Text(latin1(c.Annotation), props.Text{Size: 8, Style: consts.Italic, Color: pdfMuted})
			})
		})
	}
}

// latin1 替换内置字体无法显示的字符
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}
