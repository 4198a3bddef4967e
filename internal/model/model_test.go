package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tableOf(times ...string) *OrderTable {
	rows := make([]OrderRecord, len(times))
	for i, ts := range times {
		rows[i] = OrderRecord{OrderID: ts, ApprovedAt: at(ts)}
	}
	return NewOrderTable(rows)
}

func TestNewOrderTable_SortsCopy(t *testing.T) {
	rows := []OrderRecord{
		{OrderID: "b", ApprovedAt: at("2017-02-01 00:00:00")},
		{OrderID: "a", ApprovedAt: at("2017-01-01 00:00:00")},
	}
	tbl := NewOrderTable(rows)

	assert.Equal(t, "a", tbl.Row(0).OrderID)
	assert.Equal(t, "b", rows[0].OrderID, "input slice must not be reordered")
	assert.Equal(t, at("2017-01-01 00:00:00"), tbl.MinApproved())
	assert.Equal(t, at("2017-02-01 00:00:00"), tbl.MaxApproved())
}

func TestFilter_InclusiveDays(t *testing.T) {
	tbl := tableOf(
		"2017-01-01 00:00:00",
		"2017-01-02 23:59:59",
		"2017-01-03 00:00:00",
		"2017-01-04 12:00:00",
	)
	r, err := ParseDateRange("2017-01-02", "2017-01-03", time.UTC)
	require.NoError(t, err)

	got := tbl.Filter(r)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "2017-01-02 23:59:59", got.Row(0).OrderID)
	assert.Equal(t, "2017-01-03 00:00:00", got.Row(1).OrderID)
	assert.Equal(t, 4, tbl.Len())

	empty := tbl.Filter(DateRange{Start: at("2018-01-01 00:00:00"), End: at("2018-01-31 00:00:00")})
	assert.Zero(t, empty.Len())
}

func TestDateRange_Validate(t *testing.T) {
	bounds := DateRange{Start: at("2017-01-01 00:00:00"), End: at("2017-12-31 00:00:00")}

	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"full bounds", "2017-01-01", "2017-12-31", false},
		{"single day", "2017-06-01", "2017-06-01", false},
		{"reversed", "2017-06-02", "2017-06-01", true},
		{"before bounds", "2016-12-31", "2017-01-05", true},
		{"after bounds", "2017-12-01", "2018-01-01", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.start, tt.end, time.UTC)
			require.NoError(t, err)
			err = r.Validate(bounds)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDateRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDateRange_BadInput(t *testing.T) {
	_, err := ParseDateRange("2017-13-01", "2017-12-31", nil)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestMissingColumnError(t *testing.T) {
	var err error = &MissingColumnError{Columns: []string{"price", "review_score"}}
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Equal(t, "missing column: price, review_score", err.Error())
}

func TestDistinctCounts(t *testing.T) {
	tbl := NewOrderTable([]OrderRecord{
		{OrderID: "o1", CustomerUniqueID: "c1"},
		{OrderID: "o1", CustomerUniqueID: "c1"},
		{OrderID: "o2", CustomerUniqueID: "c1"},
		{OrderID: "o3", CustomerUniqueID: "c2"},
	})
	assert.Equal(t, 3, tbl.DistinctOrders())
	assert.Equal(t, 2, tbl.DistinctCustomers())

	var nilTable *OrderTable
	assert.Zero(t, nilTable.Len())
	assert.Zero(t, nilTable.DistinctOrders())
}
