package store

import (
	"context"
	"fmt"
)

// MonthStat 某月的数据量统计
type MonthStat struct {
	Month     string `json:"month"` // YYYY-MM
	Rows      int    `json:"rows"`
	Orders    int    `json:"orders"`
	Customers int    `json:"customers"`
}

// ListMonths 列出某次导入中存在数据的月份（按月份升序）
func (s *Store) ListMonths(ctx context.Context, importID int64) ([]MonthStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			substr(approved_at, 1, 7) AS ym,
			COUNT(1),
			COUNT(DISTINCT order_id),
			COUNT(DISTINCT customer_unique_id)
		FROM orders
		WHERE import_id = ?
		GROUP BY ym
		ORDER BY ym ASC
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	var out []MonthStat
	for rows.Next() {
		var it MonthStat
		if err := rows.Scan(&it.Month, &it.Rows, &it.Orders, &it.Customers); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}
