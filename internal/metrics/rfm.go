package metrics

import (
	"fmt"
	"time"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

const day = 24 * time.Hour

// RFM 计算每位客户的 Recency / Frequency / Monetary，按客户 ID 升序
//
// Recency 以过滤后数据集的最晚审核时间为基准，取整天数（向下取整，非负）。
func RFM(t *model.OrderTable) ([]model.RFMRow, error) {
	if err := requireRows("rfm", t); err != nil {
		return nil, err
	}

	lastDate := t.MaxApproved()
	keys, groups := groupSorted(t.Rows(), func(r model.OrderRecord) string { return r.CustomerUniqueID })

	out := make([]model.RFMRow, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		last := g[0].ApprovedAt
		for i := range g {
			if g[i].ApprovedAt.After(last) {
				last = g[i].ApprovedAt
			}
		}
		out = append(out, model.RFMRow{
			CustomerUniqueID: k,
			LastPurchase:     last,
			Recency:          int(lastDate.Sub(last) / day),
			Frequency:        distinctOrders(g),
			Monetary:         sumPrice(g),
		})
	}
	return out, nil
}

// ChurnRate 只购买过一次的客户占比（百分数）
//
// 客户数为 0 时返回同时匹配 ErrEmptyInput 与 ErrDivisionByZero 的错误。
func ChurnRate(t *model.OrderTable) (float64, error) {
	if t.Len() == 0 {
		return 0, fmt.Errorf("churn rate: %w: %w", model.ErrEmptyInput, model.ErrDivisionByZero)
	}
	rfm, err := RFM(t)
	if err != nil {
		return 0, fmt.Errorf("churn rate: %w", err)
	}
	if len(rfm) == 0 {
		return 0, fmt.Errorf("churn rate: no customers: %w", model.ErrDivisionByZero)
	}

	oneTime := 0
	for _, r := range rfm {
		if r.Frequency == 1 {
			oneTime++
		}
	}
	return float64(oneTime) / float64(len(rfm)) * 100, nil
}
