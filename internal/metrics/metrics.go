// Package metrics 订单明细的聚合指标
//
// 每个函数只读取传入的（已按日期过滤的）订单表，返回新分配的结果，
// 不缓存、不修改入参；空表一律返回 model.ErrEmptyInput。
package metrics

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// Rule 有序分级规则中的一项
type Rule[T any, L any] struct {
	Label L
	Match func(T) bool
}

// FirstMatch 按书写顺序逐条匹配，返回第一条命中的标签
func FirstMatch[T any, L any](rules []Rule[T, L], v T) (L, bool) {
	for _, r := range rules {
		if r.Match(v) {
			return r.Label, true
		}
	}
	var zero L
	return zero, false
}

func requireRows(op string, t *model.OrderTable) error {
	if t.Len() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrEmptyInput)
	}
	return nil
}

// distinctOrders 去重订单数
func distinctOrders(rows []model.OrderRecord) int {
	return len(lo.UniqBy(rows, func(r model.OrderRecord) string { return r.OrderID }))
}

// distinctCustomers 去重客户数
func distinctCustomers(rows []model.OrderRecord) int {
	return len(lo.UniqBy(rows, func(r model.OrderRecord) string { return r.CustomerUniqueID }))
}

func sumPrice(rows []model.OrderRecord) decimal.Decimal {
	return lo.Reduce(rows, func(acc decimal.Decimal, r model.OrderRecord, _ int) decimal.Decimal {
		return acc.Add(r.Price)
	}, decimal.Zero)
}

func sumFreight(rows []model.OrderRecord) decimal.Decimal {
	return lo.Reduce(rows, func(acc decimal.Decimal, r model.OrderRecord, _ int) decimal.Decimal {
		return acc.Add(r.FreightValue)
	}, decimal.Zero)
}

// mean 忽略缺失值的均值；没有可用值时 ok=false
func mean(values []*float64) (avg float64, ok bool) {
	var sum float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// groupSorted 按 key 分组，返回升序 key 列表与分组（组内保持表顺序）
func groupSorted(rows []model.OrderRecord, key func(model.OrderRecord) string) ([]string, map[string][]model.OrderRecord) {
	groups := lo.GroupBy(rows, key)
	keys := lo.Keys(groups)
	sort.Strings(keys)
	return keys, groups
}
