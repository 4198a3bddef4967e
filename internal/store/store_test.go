package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "dasboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fp(v float64) *float64 { return &v }

func sampleOrders() []model.OrderRecord {
	delivered := time.Date(2017, 3, 10, 12, 0, 0, 0, time.UTC)
	return []model.OrderRecord{
		{
			OrderID: "o2", CustomerUniqueID: "c2",
			ApprovedAt:   time.Date(2017, 4, 1, 8, 0, 0, 0, time.UTC),
			Price:        decimal.RequireFromString("0.10"),
			FreightValue: decimal.RequireFromString("0.20"),
			PaymentType:  "boleto", Category: "toys", CustomerState: "RJ",
		},
		{
			OrderID: "o1", CustomerUniqueID: "c1",
			ApprovedAt:       time.Date(2017, 3, 1, 12, 0, 0, 500, time.UTC),
			DeliveredAt:      &delivered,
			DeliveryDuration: fp(9),
			Price:            decimal.RequireFromString("1234.56"),
			FreightValue:     decimal.RequireFromString("17.80"),
			PaymentType:      "credit_card",
			ReviewScore:      fp(4),
			Category:         "bed_bath_table",
			CustomerState:    "SP",
		},
		{
			OrderID: "o1", CustomerUniqueID: "c1",
			ApprovedAt:   time.Date(2017, 3, 1, 12, 0, 0, 500, time.UTC),
			Price:        decimal.RequireFromString("5"),
			FreightValue: decimal.RequireFromString("0"),
			PaymentType:  "voucher", Category: "bed_bath_table", CustomerState: "SP",
		},
	}
}

func TestStore_OrdersRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.CreateImportLog(ctx, model.ImportLog{Filename: "orders.csv", FilePath: "/tmp/orders.csv", FileSize: 10, FileHash: "abc", SourceType: "csv"})
	require.NoError(t, err)
	require.NoError(t, s.BatchInsertOrders(ctx, id, sampleOrders()))

	got, err := s.LoadOrders(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// 按审核时间升序，同一时间保持写入顺序
	require.Equal(t, "o1", got[0].OrderID)
	require.Equal(t, "credit_card", got[0].PaymentType)
	require.Equal(t, "voucher", got[1].PaymentType)
	require.Equal(t, "o2", got[2].OrderID)

	first := got[0]
	require.True(t, first.ApprovedAt.Equal(time.Date(2017, 3, 1, 12, 0, 0, 500, time.UTC)))
	require.NotNil(t, first.DeliveredAt)
	require.NotNil(t, first.DeliveryDuration)
	require.Equal(t, 9.0, *first.DeliveryDuration)
	require.NotNil(t, first.ReviewScore)
	require.True(t, first.Price.Equal(decimal.RequireFromString("1234.56")))
	require.True(t, first.FreightValue.Equal(decimal.RequireFromString("17.80")))

	require.Nil(t, got[2].DeliveredAt)
	require.Nil(t, got[2].ReviewScore)
	require.True(t, got[2].Price.Equal(decimal.RequireFromString("0.10")))

	n, err := s.CountOrders(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestStore_ImportLogLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	found, err := s.FindCompletedImportByHash(ctx, "h1")
	require.NoError(t, err)
	require.Nil(t, found)

	id, err := s.CreateImportLog(ctx, model.ImportLog{Filename: "a.csv", FilePath: "/d/a.csv", FileHash: "h1", SourceType: "csv"})
	require.NoError(t, err)

	// processing 状态不参与命中
	found, err = s.FindCompletedImportByHash(ctx, "h1")
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, s.FinishImportLog(ctx, model.ImportLog{
		ID:           id,
		ColumnsJSON:  BuildColumnsJSON([]string{"order_id", "price"}),
		TotalRows:    10,
		ImportedRows: 9,
		ErrorRows:    1,
		Status:       model.ImportCompleted,
	}))

	found, err = s.FindCompletedImportByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, id, found.ID)
	require.Equal(t, 9, found.ImportedRows)
	require.Equal(t, model.ImportCompleted, found.Status)
	require.Equal(t, `["order_id","price"]`, found.ColumnsJSON)
	require.NotNil(t, found.CompletedAt)

	_, err = s.GetImportLog(ctx, id+100)
	require.Error(t, err)
}

func TestStore_ActiveImportAndCleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.ActiveImportID(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	oldID, err := s.CreateImportLog(ctx, model.ImportLog{Filename: "a.csv", FilePath: "a.csv", FileHash: "old"})
	require.NoError(t, err)
	require.NoError(t, s.BatchInsertOrders(ctx, oldID, sampleOrders()))
	newID, err := s.CreateImportLog(ctx, model.ImportLog{Filename: "a.csv", FilePath: "a.csv", FileHash: "new"})
	require.NoError(t, err)
	require.NoError(t, s.BatchInsertOrders(ctx, newID, sampleOrders()[:1]))

	require.NoError(t, s.SetActiveImportID(ctx, newID))
	active, ok, err := s.ActiveImportID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, newID, active)

	require.NoError(t, s.DeleteImportsExcept(ctx, newID))
	n, err := s.CountOrders(ctx, oldID)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = s.CountOrders(ctx, newID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStore_ListMonths(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.CreateImportLog(ctx, model.ImportLog{Filename: "a.csv", FilePath: "a.csv", FileHash: "h"})
	require.NoError(t, err)
	require.NoError(t, s.BatchInsertOrders(ctx, id, sampleOrders()))

	months, err := s.ListMonths(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []MonthStat{
		{Month: "2017-03", Rows: 2, Orders: 1, Customers: 1},
		{Month: "2017-04", Rows: 1, Orders: 1, Customers: 1},
	}, months)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dasboard.db")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SetActiveImportID(ctx, 7))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var version int
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	require.Equal(t, schemaVersion, version)

	id, ok, err := s.ActiveImportID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), id)
	require.Equal(t, path, s.Path())
}
