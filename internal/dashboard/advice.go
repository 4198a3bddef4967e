package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/yudhiahmadi/dasboard-data/internal/analysis"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// 各分页的建议文字：第一条为结论，其后为建议事项

func (b *Builder) revenueAdvice(monthly []model.MonthlyAggregate, byState []model.StateRevenue, rf []model.RevenueFreight) []string {
	total, freight := rf[0].Amount, rf[1].Amount
	top := byState[0]

	share := 0.0
	if !total.IsZero() {
		share = top.Revenue.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	trend := "只覆盖一个月"
	if n := len(monthly); n > 1 {
		first, last := monthly[0].OrderCount, monthly[n-1].OrderCount
		switch {
		case last > first:
			trend = fmt.Sprintf("由 %s 的 %d 单增长到 %s 的 %d 单", monthly[0].Month, first, monthly[n-1].Month, last)
		case last < first:
			trend = fmt.Sprintf("由 %s 的 %d 单回落到 %s 的 %d 单", monthly[0].Month, first, monthly[n-1].Month, last)
		default:
			trend = "首尾月份持平"
		}
	}

	compare := "高于"
	if total.LessThan(freight) {
		compare = "低于"
	}

	return []string{
		fmt.Sprintf("所选时段内月订单量%s；营收最高的州是 %s（%s，占 %s）；总营收%s运费支出（%s / %s）。",
			trend, top.State, b.format.Money(top.Revenue), b.format.Percent(share), compare,
			b.format.Money(total), b.format.Money(freight)),
		fmt.Sprintf("1. 计划开设分店时，先对与 %s 特征相近的州做聚类研究，需求相似的州更可能复制 %s 的销售表现。", top.State, top.State),
		"2. 优先改进已在主要州销售的低评分品类，具体品类见「客户满意度」分页。",
	}
}

func (b *Builder) paymentAdvice(topType string, share float64) []string {
	return []string{
		fmt.Sprintf("客户最常用的支付方式是 %s，占订单的 %s。", topType, b.format.Percent(share)),
		fmt.Sprintf("1. 评估 %s 支付通道的容量与维护状况，为订单量的快速增长预留余量。", topType),
		"2. 支付环节出现故障会直接造成弃单，建议为主要支付方式准备备用通道。",
	}
}

func (b *Builder) customerAdvice(scores []model.CategoryScore, classes model.ReviewClassification, popularity []model.CategoryCount) []string {
	out := make([]string, 0, 4)

	if len(scores) > 0 {
		avg := lo.SumBy(scores, func(s model.CategoryScore) float64 { return s.MeanReviewScore }) / float64(len(scores))
		out = append(out, fmt.Sprintf("共 %d 个品类有评分，品类平均分为 %s；销量最高的品类是 %s，最低的是 %s。",
			len(scores), b.format.Number(avg, 2), popularity[0].Category, popularity[len(popularity)-1].Category))
	} else {
		out = append(out, fmt.Sprintf("所选时段内没有评分记录；销量最高的品类是 %s。", popularity[0].Category))
	}

	if len(classes.PoorCategories) == 0 {
		out = append(out, "1. 没有平均分低于 3 的品类，继续保持现有品控。")
		return out
	}

	names := lo.Map(classes.PoorCategories, func(c model.CategoryScore, _ int) string { return c.Category })
	out = append(out,
		fmt.Sprintf("1. 改进平均分低于 3 的品类：%s。", strings.Join(names, "、")),
		"2. 若无法改进且销量很低，可以考虑下架；以客户满意度为目标时，应优先改进而不是下架。",
	)
	return out
}

func (b *Builder) deliveryAdvice(byState []model.StateDelivery, reg analysis.Regression, hasReg bool) []string {
	if len(byState) == 0 {
		return []string{"所选时段内没有可计算配送时长的订单。"}
	}

	fastest := byState[len(byState)-1]
	out := []string{fmt.Sprintf("配送最快的州是 %s，平均 %s 天送达。", fastest.State, b.format.Number(fastest.MeanDeliveryDays, 1))}
	if !hasReg {
		return append(out, fmt.Sprintf("1. 复盘 %s 的配送流程，推广到其他州。", fastest.State))
	}

	relation := "配送越快，客户评分越高"
	if reg.R > 0 {
		relation = "配送时长与评分没有呈现负相关"
	}
	return append(out,
		fmt.Sprintf("各州平均配送时长与平均评分的相关系数为 %s，%s。", b.format.Number(reg.R, 2), relation),
		fmt.Sprintf("1. 复盘 %s 的配送流程，推广到其他州。", fastest.State),
		"2. 设立专门负责配送时效的团队，把配送速度作为与竞争对手的差异点。",
	)
}

func (b *Builder) marketingAdvice(periods []model.PeriodCount) []string {
	ranked := make([]model.PeriodCount, len(periods))
	copy(ranked, periods)
	// 并列时保持时段顺序
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].OrderCount > ranked[j].OrderCount })

	label := func(p model.PeriodCount) string { return periodNames[p.Period] }
	high := ranked[0:2]
	low := ranked[len(ranked)-2:]
	return []string{
		fmt.Sprintf("客户多在%s和%s下单（%d / %d 单）。",
			label(high[0]), label(high[1]), high[0].OrderCount, high[1].OrderCount),
		fmt.Sprintf("1. 减少%s与%s的广告投放，把预算转移到%s和%s。",
			label(low[0]), label(low[1]), label(high[0]), label(high[1])),
	}
}

var periodNames = map[model.DayPeriod]string{
	model.PeriodDawn:      "凌晨",
	model.PeriodMorning:   "上午",
	model.PeriodAfternoon: "下午",
	model.PeriodNight:     "晚上",
}

func (b *Builder) rfmAdvice(churn float64, recency, frequency, monetary Chart) []string {
	peak := func(c Chart) string {
		if c.Highlight < 0 {
			return "-"
		}
		return c.Labels[c.Highlight]
	}
	return []string{
		fmt.Sprintf("流失率为 %s；最集中的 Recency 区间为 %s 天，Frequency 区间为 %s，Monetary 区间为 %s。",
			b.format.Percent(churn), peak(recency), peak(frequency), peak(monetary)),
		"1. Recency：调研客户在该区间后不再回购的原因（竞品、技术、替代品或外部事件），针对性挽回。",
		"2. Frequency：推出会员卡或经客户同意的促销推送（折扣、买二送一等），吸引一次性客户再次购买。",
		"3. Monetary：对常被一起购买的商品做关联分析，在商品页推荐互补商品以提高客单价。",
	}
}
