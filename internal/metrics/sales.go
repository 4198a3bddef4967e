package metrics

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// DailyOrders 按审核日期（日历日）汇总订单数、营收、运费
//
// 只输出至少有一笔订单的日期，不补零。
func DailyOrders(t *model.OrderTable) ([]model.DailyAggregate, error) {
	if err := requireRows("daily orders", t); err != nil {
		return nil, err
	}

	rows := t.Rows()
	groups := lo.GroupBy(rows, func(r model.OrderRecord) time.Time {
		return model.DateOf(r.ApprovedAt)
	})
	days := lo.Keys(groups)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]model.DailyAggregate, 0, len(days))
	for _, d := range days {
		g := groups[d]
		out = append(out, model.DailyAggregate{
			Day:         d,
			OrderCount:  distinctOrders(g),
			Revenue:     sumPrice(g),
			FreightCost: sumFreight(g),
		})
	}
	return out, nil
}

// MonthlyOrders 按审核月份汇总
func MonthlyOrders(t *model.OrderTable) ([]model.MonthlyAggregate, error) {
	if err := requireRows("monthly orders", t); err != nil {
		return nil, err
	}

	// YYYY-MM 字典序即时间序
	months, groups := groupSorted(t.Rows(), func(r model.OrderRecord) string {
		return r.ApprovedAt.Format("2006-01")
	})

	out := make([]model.MonthlyAggregate, 0, len(months))
	for _, m := range months {
		g := groups[m]
		out = append(out, model.MonthlyAggregate{
			Month:       m,
			OrderCount:  distinctOrders(g),
			Revenue:     sumPrice(g),
			FreightCost: sumFreight(g),
		})
	}
	return out, nil
}

// RevenueVsFreight 总营收与总运费
func RevenueVsFreight(t *model.OrderTable) ([]model.RevenueFreight, error) {
	if err := requireRows("revenue vs freight", t); err != nil {
		return nil, err
	}
	rows := t.Rows()
	return []model.RevenueFreight{
		{Label: model.LabelTotalRevenue, Amount: sumPrice(rows)},
		{Label: model.LabelTotalFreightCost, Amount: sumFreight(rows)},
	}, nil
}
