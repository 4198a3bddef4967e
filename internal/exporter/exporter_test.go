package exporter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func fp(v float64) *float64 { return &v }

func sampleTable() *model.OrderTable {
	row := func(order, customer, at, price, payment, category, state string, days, score float64) model.OrderRecord {
		return model.OrderRecord{
			OrderID: order, CustomerUniqueID: customer, ApprovedAt: ts(at),
			DeliveryDuration: fp(days), ReviewScore: fp(score),
			Price: decimal.RequireFromString(price), FreightValue: decimal.NewFromInt(5),
			PaymentType: payment, Category: category, CustomerState: state,
		}
	}
	return model.NewOrderTable([]model.OrderRecord{
		row("o1", "c1", "2017-01-02 03:10:00", "100.50", "credit_card", "bed_bath_table", "SP", 10, 5),
		row("o2", "c2", "2017-01-02 09:00:00", "40.00", "boleto", "security_and_services", "RJ", 20, 2),
		row("o3", "c1", "2017-01-20 14:30:00", "19.90", "credit_card", "bed_bath_table", "SP", 6, 4),
		row("o4", "c3", "2017-02-05 19:45:00", "250.00", "credit_card", "toys", "MG", 12, 3),
	})
}

func buildDashboard(t *testing.T, table *model.OrderTable, r model.DateRange) *dashboard.Dashboard {
	t.Helper()
	d, err := dashboard.NewBuilder(dashboard.Options{}).Build(context.Background(), table.Filter(r), r)
	require.NoError(t, err)
	return d
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	d := buildDashboard(t, table, table.Bounds())
	m := telemetry.New()
	exp := NewExporter(nil, m)

	var events []ProgressEvent
	data, err := exp.ExportXLSX(ExportOptions{
		Dashboard: d,
		Table:     table,
		Progress:  func(p ProgressEvent) { events = append(events, p) },
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, "Summary", sheets[0])
	assert.Contains(t, sheets, "revenue_by_state")
	assert.Contains(t, sheets, "delivery_vs_review")
	assert.Contains(t, sheets, "RFM")

	v, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-02", v)

	header, err := f.GetCellValue("revenue_by_state", "A3")
	require.NoError(t, err)
	assert.Equal(t, "State", header)
	top, err := f.GetCellValue("revenue_by_state", "A4")
	require.NoError(t, err)
	assert.Equal(t, "MG", top)

	raw, err := f.GetCellValue("delivery_vs_review", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Mean review score", raw)

	rfm, err := f.GetRows("RFM")
	require.NoError(t, err)
	assert.Len(t, rfm, 4, "header plus three customers")

	require.NotEmpty(t, events)
	assert.Equal(t, 0, events[0].Percent)
	assert.Equal(t, 100, events[len(events)-1].Percent)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Percent, events[i-1].Percent)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues(FormatXLSX)))
}

func TestExportXLSX_EmptyRange(t *testing.T) {
	t.Parallel()

	r := model.DateRange{Start: ts("2017-01-10 00:00:00"), End: ts("2017-01-11 00:00:00")}
	d := buildDashboard(t, sampleTable(), r)

	data, err := NewExporter(nil, nil).ExportXLSX(ExportOptions{Dashboard: d})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary"}, f.GetSheetList())
	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, dashboard.NoDataMessage, last[len(last)-1])
}

func TestExport_NoDashboard(t *testing.T) {
	t.Parallel()

	_, err := NewExporter(nil, nil).ExportXLSX(ExportOptions{})
	assert.ErrorIs(t, err, ErrNoDashboard)
	_, err = NewExporter(nil, nil).ExportPDF(nil, "")
	assert.ErrorIs(t, err, ErrNoDashboard)
}

func TestExportPDF(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	m := telemetry.New()
	data, err := NewExporter(nil, m).ExportPDF(buildDashboard(t, table, table.Bounds()), "Y.AH Dasboard")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues(FormatPDF)))
}

func TestUniqueSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{"Summary": true}
	assert.Equal(t, "a_b", uniqueSheetName("a/b", used))
	assert.Equal(t, "a_b_2", uniqueSheetName("a/b", used))
	assert.Equal(t, "Summary_2", uniqueSheetName("Summary", used))

	long := uniqueSheetName("revenue_by_state_and_category_over_time", used)
	assert.Len(t, long, 31)
	again := uniqueSheetName("revenue_by_state_and_category_over_time", used)
	assert.Len(t, again, 31)
	assert.NotEqual(t, long, again)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	r := model.DateRange{Start: ts("2017-01-01 00:00:00"), End: ts("2017-12-31 00:00:00")}
	assert.Equal(t, "dasboard_2017-01-01_2017-12-31.xlsx", FileName(r, FormatXLSX))
}

func TestLatin1(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R$ 1.234,50", latin1("R$ 1.234,50"))
	assert.Equal(t, "S?o", latin1("S中o"))
}
