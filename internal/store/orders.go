package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// timeLayout 定宽 UTC 时间文本，字典序即时间序
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BatchInsertOrders 在一个事务中批量写入某次导入的订单明细
func (s *Store) BatchInsertOrders(ctx context.Context, importID int64, records []model.OrderRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO orders (
				import_id, order_id, customer_unique_id,
				approved_at, delivered_at, delivery_duration,
				price, freight_value,
				payment_type, review_score, category, customer_state
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range records {
			r := &records[i]
			var deliveredAt any
			if r.DeliveredAt != nil {
				deliveredAt = r.DeliveredAt.UTC().Format(timeLayout)
			}
			_, err := stmt.ExecContext(ctx,
				importID, r.OrderID, r.CustomerUniqueID,
				r.ApprovedAt.UTC().Format(timeLayout), deliveredAt, r.DeliveryDuration,
				r.Price.String(), r.FreightValue.String(),
				r.PaymentType, r.ReviewScore, r.Category, r.CustomerState,
			)
			if err != nil {
				return fmt.Errorf("insert order %s: %w", r.OrderID, err)
			}
		}
		return nil
	})
}

// LoadOrders 读取某次导入的全部订单明细，按审核时间升序（同一时间按写入顺序）
func (s *Store) LoadOrders(ctx context.Context, importID int64) ([]model.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, customer_unique_id,
			approved_at, delivered_at, delivery_duration,
			price, freight_value,
			payment_type, review_score, category, customer_state
		FROM orders
		WHERE import_id = ?
		ORDER BY approved_at ASC, id ASC
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("query orders failed: %w", err)
	}
	defer rows.Close()

	var out []model.OrderRecord
	for rows.Next() {
		r, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders failed: %w", err)
	}
	return out, nil
}

// CountOrders 某次导入的明细行数
func (s *Store) CountOrders(ctx context.Context, importID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM orders WHERE import_id = ?", importID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders failed: %w", err)
	}
	return n, nil
}

// DeleteImportsExcept 删除除 keepID 以外的全部导入及其明细（只保留当前数据集）
func (s *Store) DeleteImportsExcept(ctx context.Context, keepID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE import_id <> ?", keepID); err != nil {
			return fmt.Errorf("delete stale orders: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM import_logs WHERE id <> ?", keepID); err != nil {
			return fmt.Errorf("delete stale import logs: %w", err)
		}
		return nil
	})
}

func scanOrder(rows *sql.Rows) (model.OrderRecord, error) {
	var (
		r            model.OrderRecord
		approvedAt   string
		deliveredAt  sql.NullString
		duration     sql.NullFloat64
		price        string
		freightValue string
		reviewScore  sql.NullFloat64
	)
	if err := rows.Scan(
		&r.ID, &r.OrderID, &r.CustomerUniqueID,
		&approvedAt, &deliveredAt, &duration,
		&price, &freightValue,
		&r.PaymentType, &reviewScore, &r.Category, &r.CustomerState,
	); err != nil {
		return r, fmt.Errorf("scan order failed: %w", err)
	}

	var err error
	if r.ApprovedAt, err = time.Parse(timeLayout, approvedAt); err != nil {
		return r, fmt.Errorf("order %d: bad approved_at %q: %w", r.ID, approvedAt, err)
	}
	if deliveredAt.Valid {
		t, err := time.Parse(timeLayout, deliveredAt.String)
		if err != nil {
			return r, fmt.Errorf("order %d: bad delivered_at %q: %w", r.ID, deliveredAt.String, err)
		}
		r.DeliveredAt = &t
	}
	if duration.Valid {
		v := duration.Float64
		r.DeliveryDuration = &v
	}
	if reviewScore.Valid {
		v := reviewScore.Float64
		r.ReviewScore = &v
	}
	if r.Price, err = decimal.NewFromString(price); err != nil {
		return r, fmt.Errorf("order %d: bad price %q: %w", r.ID, price, err)
	}
	if r.FreightValue, err = decimal.NewFromString(freightValue); err != nil {
		return r, fmt.Errorf("order %d: bad freight_value %q: %w", r.ID, freightValue, err)
	}
	return r, nil
}
