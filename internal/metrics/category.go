package metrics

import (
	"sort"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

func byCategory(r model.OrderRecord) string { return r.Category }

// CategoryPopularity 各品类去重订单数，降序
func CategoryPopularity(t *model.OrderTable) ([]model.CategoryCount, error) {
	if err := requireRows("category popularity", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byCategory)
	out := make([]model.CategoryCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.CategoryCount{Category: k, OrderCount: distinctOrders(groups[k])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderCount > out[j].OrderCount })
	return out, nil
}

// CategoryReviewScores 各品类平均评分，降序；没有任何评分的品类不输出
func CategoryReviewScores(t *model.OrderTable) ([]model.CategoryScore, error) {
	if err := requireRows("category review scores", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byCategory)
	out := make([]model.CategoryScore, 0, len(keys))
	for _, k := range keys {
		scores := make([]*float64, 0, len(groups[k]))
		for i := range groups[k] {
			scores = append(scores, groups[k][i].ReviewScore)
		}
		avg, ok := mean(scores)
		if !ok {
			continue
		}
		out = append(out, model.CategoryScore{Category: k, MeanReviewScore: avg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanReviewScore > out[j].MeanReviewScore })
	return out, nil
}

// CategoryRevenue 各品类营收，降序
func CategoryRevenue(t *model.OrderTable) ([]model.CategoryRevenue, error) {
	if err := requireRows("category revenue", t); err != nil {
		return nil, err
	}

	keys, groups := groupSorted(t.Rows(), byCategory)
	out := make([]model.CategoryRevenue, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.CategoryRevenue{Category: k, Revenue: sumPrice(groups[k])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out, nil
}
