package metrics

import (
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// PeriodRules 审核时间小时数 -> 时段
var PeriodRules = []Rule[int, model.DayPeriod]{
	{Label: model.PeriodDawn, Match: func(h int) bool { return 0 <= h && h < 6 }},
	{Label: model.PeriodMorning, Match: func(h int) bool { return 6 <= h && h < 12 }},
	{Label: model.PeriodAfternoon, Match: func(h int) bool { return 12 <= h && h < 18 }},
	{Label: model.PeriodNight, Match: func(h int) bool { return 18 <= h && h < 24 }},
}

// PeriodOrder 时段输出顺序
var PeriodOrder = []model.DayPeriod{
	model.PeriodDawn,
	model.PeriodMorning,
	model.PeriodAfternoon,
	model.PeriodNight,
}

// PeriodOfHour 小时数所属时段
func PeriodOfHour(hour int) (model.DayPeriod, bool) {
	return FirstMatch(PeriodRules, hour)
}

// PeriodOfDay 各时段去重订单数，固定 4 行且顺序固定，空时段计 0
func PeriodOfDay(t *model.OrderTable) ([]model.PeriodCount, error) {
	if err := requireRows("period of day", t); err != nil {
		return nil, err
	}

	seen := make(map[model.DayPeriod]map[string]struct{}, len(PeriodOrder))
	t.Each(func(_ int, r *model.OrderRecord) bool {
		p, ok := PeriodOfHour(r.ApprovedAt.Hour())
		if !ok {
			return true
		}
		if seen[p] == nil {
			seen[p] = make(map[string]struct{})
		}
		seen[p][r.OrderID] = struct{}{}
		return true
	})

	out := make([]model.PeriodCount, 0, len(PeriodOrder))
	for _, p := range PeriodOrder {
		out = append(out, model.PeriodCount{Period: p, OrderCount: len(seen[p])})
	}
	return out, nil
}
