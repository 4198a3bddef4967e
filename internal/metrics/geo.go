package metrics

import (
	"fmt"
	"sort"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

func byState(r model.OrderRecord) string { return r.CustomerState }

// CustomersByState 各州去重客户数
func CustomersByState(t *model.OrderTable) ([]model.StateCustomers, error) {
	if err := requireRows("customers by state", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byState)
	out := make([]model.StateCustomers, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.StateCustomers{State: k, CustomerCount: distinctCustomers(groups[k])})
	}
	return out, nil
}

// RevenueByState 各州营收，降序
func RevenueByState(t *model.OrderTable) ([]model.StateRevenue, error) {
	if err := requireRows("revenue by state", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byState)
	out := make([]model.StateRevenue, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.StateRevenue{State: k, Revenue: sumPrice(groups[k])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out, nil
}

// DeliveryByState 各州平均配送时长与平均评分，按配送时长降序
//
// 缺失值不参与均值；配送时长或评分完全缺失的州不输出。
func DeliveryByState(t *model.OrderTable) ([]model.StateDelivery, error) {
	if err := requireRows("delivery by state", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byState)
	out := make([]model.StateDelivery, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		durations := make([]*float64, 0, len(g))
		scores := make([]*float64, 0, len(g))
		for i := range g {
			durations = append(durations, g[i].DeliveryDuration)
			scores = append(scores, g[i].ReviewScore)
		}
		days, ok := mean(durations)
		if !ok {
			continue
		}
		score, ok := mean(scores)
		if !ok {
			continue
		}
		out = append(out, model.StateDelivery{State: k, MeanDeliveryDays: days, MeanReviewScore: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanDeliveryDays > out[j].MeanDeliveryDays })
	return out, nil
}

// DeliverySatisfaction 回归分析输入：州级（平均评分, 平均配送时长）
func DeliverySatisfaction(t *model.OrderTable) ([]model.StatePoint, error) {
	states, err := DeliveryByState(t)
	if err != nil {
		return nil, fmt.Errorf("delivery satisfaction: %w", err)
	}
	out := make([]model.StatePoint, 0, len(states))
	for _, s := range states {
		out = append(out, model.StatePoint{
			State:            s.State,
			MeanReviewScore:  s.MeanReviewScore,
			MeanDeliveryDays: s.MeanDeliveryDays,
		})
	}
	return out, nil
}
