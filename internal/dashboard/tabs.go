package dashboard

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/yudhiahmadi/dasboard-data/internal/analysis"
	"github.com/yudhiahmadi/dasboard-data/internal/metrics"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// 直方图分箱数
const (
	reviewBins = 10
	rfmBins    = 50
)

func (b *Builder) buildRevenue(t *model.OrderTable, tab *Tab) error {
	daily, err := metrics.DailyOrders(t)
	if err != nil {
		return err
	}
	monthly, err := metrics.MonthlyOrders(t)
	if err != nil {
		return err
	}
	byState, err := metrics.RevenueByState(t)
	if err != nil {
		return err
	}
	revFreight, err := metrics.RevenueVsFreight(t)
	if err != nil {
		return err
	}

	totalOrders := lo.SumBy(daily, func(d model.DailyAggregate) int { return d.OrderCount })
	totalRevenue := revFreight[0].Amount
	tab.Indicators = append(tab.Indicators,
		Indicator{ID: "total_orders", Name: "Total orders", Value: float64(totalOrders), Display: b.format.Int(totalOrders)},
		Indicator{ID: "total_revenue", Name: "Total Revenue", Value: totalRevenue.InexactFloat64(), Display: b.format.Money(totalRevenue), Unit: b.format.CurrencyCode()},
	)

	tab.Charts = append(tab.Charts, Chart{
		ID:        "daily_orders",
		Title:     "Daily Orders",
		Kind:      ChartLine,
		Dimension: "Day",
		Labels:    lo.Map(daily, func(d model.DailyAggregate, _ int) string { return d.Day.Format(model.DateLayout) }),
		Series: []Series{{
			Name:   "Orders",
			Values: lo.Map(daily, func(d model.DailyAggregate, _ int) float64 { return float64(d.OrderCount) }),
		}},
		Highlight: -1,
	})

	months := lo.Map(monthly, func(m model.MonthlyAggregate, _ int) string { return m.Month })
	tab.Charts = append(tab.Charts,
		Chart{
			ID: "monthly_orders", Title: "Sales Quantity Monthly Analysis", Kind: ChartLine, Dimension: "Month", Labels: months,
			Series: []Series{{
				Name:   "Orders",
				Values: lo.Map(monthly, func(m model.MonthlyAggregate, _ int) float64 { return float64(m.OrderCount) }),
			}},
			Highlight: -1,
		},
		Chart{
			ID: "monthly_revenue", Title: "Revenue Monthly Analysis", Kind: ChartLine, Dimension: "Month", Labels: months,
			Series: []Series{{
				Name:   "Revenue",
				Values: lo.Map(monthly, func(m model.MonthlyAggregate, _ int) float64 { return m.Revenue.InexactFloat64() }),
			}},
			Currency:  true,
			Highlight: -1,
		},
		Chart{
			ID: "monthly_freight", Title: "Freight Cost Monthly Analysis", Kind: ChartLine, Dimension: "Month", Labels: months,
			Series: []Series{{
				Name:   "Freight Cost",
				Values: lo.Map(monthly, func(m model.MonthlyAggregate, _ int) float64 { return m.FreightCost.InexactFloat64() }),
			}},
			Currency:  true,
			Highlight: -1,
		},
		Chart{
			ID:        "revenue_by_state",
			Title:     "Revenue by State",
			Kind:      ChartBar,
			Dimension: "State",
			Labels:    lo.Map(byState, func(s model.StateRevenue, _ int) string { return s.State }),
			XLabel:    "State Locations",
			YLabel:    "Total Revenue",
			Series: []Series{{
				Name:   "Revenue",
				Values: lo.Map(byState, func(s model.StateRevenue, _ int) float64 { return s.Revenue.InexactFloat64() }),
			}},
			Currency:  true,
			Highlight: 0,
		},
		Chart{
			ID:        "revenue_vs_freight",
			Title:     "Revenue vs Freight Cost",
			Kind:      ChartBar,
			Dimension: "Metric",
			Labels:    lo.Map(revFreight, func(r model.RevenueFreight, _ int) string { return r.Label }),
			Series: []Series{{
				Name:   "Amount",
				Values: lo.Map(revFreight, func(r model.RevenueFreight, _ int) float64 { return r.Amount.InexactFloat64() }),
			}},
			Currency:  true,
			Highlight: 0,
		},
	)

	tab.Advice = b.revenueAdvice(monthly, byState, revFreight)
	return nil
}

func (b *Builder) buildPayment(t *model.OrderTable, tab *Tab) error {
	mix, err := metrics.PaymentMix(t)
	if err != nil {
		return err
	}

	counts := lo.Map(mix, func(p model.PaymentCount, _ int) float64 { return float64(p.OrderCount) })
	top := argmax(counts)
	total := lo.Sum(counts)
	share := 100 * counts[top] / total

	tab.Indicators = append(tab.Indicators,
		Indicator{ID: "payment_types", Name: "Payment types", Value: float64(len(mix)), Display: b.format.Int(len(mix))},
		Indicator{ID: "top_payment_share", Name: "Top payment share (" + mix[top].PaymentType + ")", Value: share, Display: b.format.Percent(share), Unit: "%"},
	)
	tab.Charts = append(tab.Charts, Chart{
		ID:        "payment_mix",
		Title:     "Payment Methods",
		Kind:      ChartBar,
		Dimension: "Payment Type",
		Labels:    lo.Map(mix, func(p model.PaymentCount, _ int) string { return p.PaymentType }),
		YLabel:    "Orders",
		Series:    []Series{{Name: "Orders", Values: counts}},
		Highlight: top,
	})

	tab.Advice = b.paymentAdvice(mix[top].PaymentType, share)
	return nil
}

func (b *Builder) buildCustomer(t *model.OrderTable, tab *Tab) error {
	scores, err := metrics.CategoryReviewScores(t)
	if err != nil {
		return err
	}
	classes, err := metrics.ReviewClassification(t)
	if err != nil {
		return err
	}
	revenue, err := metrics.CategoryRevenue(t)
	if err != nil {
		return err
	}
	popularity, err := metrics.CategoryPopularity(t)
	if err != nil {
		return err
	}

	classCount := func(c model.ReviewClass) int {
		found, _ := lo.Find(classes.Counts, func(rc model.ReviewClassCount) bool { return rc.Class == c })
		return found.Categories
	}
	good, poor := classCount(model.ReviewGood), classCount(model.ReviewPoor)
	tab.Indicators = append(tab.Indicators,
		Indicator{ID: "rated_categories", Name: "Rated categories", Value: float64(len(scores)), Display: b.format.Int(len(scores))},
		Indicator{ID: "good_categories", Name: "Good categories", Value: float64(good), Display: b.format.Int(good)},
		Indicator{ID: "poor_categories", Name: "Poor categories", Value: float64(poor), Display: b.format.Int(poor)},
	)

	if len(scores) > 0 {
		hist, err := histogramChart("review_distribution", "Review Score Distribution", "Mean review score",
			lo.Map(scores, func(s model.CategoryScore, _ int) float64 { return s.MeanReviewScore }), reviewBins)
		if err != nil {
			return err
		}
		tab.Charts = append(tab.Charts, hist)
	}

	tab.Charts = append(tab.Charts,
		Chart{
			ID:        "review_classes",
			Title:     "Product Reviews",
			Kind:      ChartBar,
			Dimension: "Class",
			Labels:    lo.Map(classes.Counts, func(c model.ReviewClassCount, _ int) string { return string(c.Class) }),
			YLabel:    "Categories",
			Series: []Series{{
				Name:   "Categories",
				Values: lo.Map(classes.Counts, func(c model.ReviewClassCount, _ int) float64 { return float64(c.Categories) }),
			}},
			Highlight: len(classes.Counts) - 1,
		},
		Chart{
			ID:         "category_revenue",
			Title:      "Revenue by Product Category",
			Kind:       ChartBar,
			Dimension:  "Category",
			Labels:     lo.Map(revenue, func(c model.CategoryRevenue, _ int) string { return c.Category }),
			XLabel:     "Total Revenue",
			YLabel:     "Product Category",
			Series:     []Series{{Name: "Revenue", Values: lo.Map(revenue, func(c model.CategoryRevenue, _ int) float64 { return c.Revenue.InexactFloat64() })}},
			Currency:   true,
			Highlight:  0,
			Horizontal: true,
		},
		Chart{
			ID:         "category_popularity",
			Title:      "Orders by Product Category",
			Kind:       ChartBar,
			Dimension:  "Category",
			Labels:     lo.Map(popularity, func(c model.CategoryCount, _ int) string { return c.Category }),
			XLabel:     "Orders",
			YLabel:     "Product Category",
			Series:     []Series{{Name: "Orders", Values: lo.Map(popularity, func(c model.CategoryCount, _ int) float64 { return float64(c.OrderCount) })}},
			Highlight:  0,
			Horizontal: true,
		},
	)

	tab.Notes = lo.Map(classes.PoorCategories, func(c model.CategoryScore, _ int) string {
		return fmt.Sprintf("%s (%s)", c.Category, b.format.Number(c.MeanReviewScore, 2))
	})
	tab.Advice = b.customerAdvice(scores, classes, popularity)
	return nil
}

func (b *Builder) buildDelivery(t *model.OrderTable, tab *Tab) error {
	byState, err := metrics.DeliveryByState(t)
	if err != nil {
		return err
	}
	points, err := metrics.DeliverySatisfaction(t)
	if err != nil {
		return err
	}

	if len(byState) > 0 {
		slowest, fastest := byState[0], byState[len(byState)-1]
		tab.Indicators = append(tab.Indicators,
			Indicator{ID: "fastest_state", Name: "Fastest state (" + fastest.State + ")", Value: fastest.MeanDeliveryDays, Display: b.format.Number(fastest.MeanDeliveryDays, 1) + " d", Unit: "days"},
			Indicator{ID: "slowest_state", Name: "Slowest state (" + slowest.State + ")", Value: slowest.MeanDeliveryDays, Display: b.format.Number(slowest.MeanDeliveryDays, 1) + " d", Unit: "days"},
		)
	}

	tab.Charts = append(tab.Charts, Chart{
		ID:        "delivery_by_state",
		Title:     "Delivery Duration by State",
		Kind:      ChartBar,
		Dimension: "State",
		Labels:    lo.Map(byState, func(s model.StateDelivery, _ int) string { return s.State }),
		YLabel:    "Mean delivery days",
		Series: []Series{{
			Name:   "Mean delivery days",
			Values: lo.Map(byState, func(s model.StateDelivery, _ int) float64 { return s.MeanDeliveryDays }),
		}},
		Highlight: len(byState) - 1,
	})

	x := lo.Map(points, func(p model.StatePoint, _ int) float64 { return p.MeanReviewScore })
	y := lo.Map(points, func(p model.StatePoint, _ int) float64 { return p.MeanDeliveryDays })
	scatter := Chart{
		ID:        "delivery_vs_review",
		Title:     "Delivery Duration vs Customer Satisfaction",
		Kind:      ChartScatter,
		Dimension: "State",
		Labels:    lo.Map(points, func(p model.StatePoint, _ int) string { return p.State }),
		X:         x,
		XLabel:    "Mean review score",
		YLabel:    "Mean delivery days",
		Series:    []Series{{Name: "Mean delivery days", Values: y}},
		Highlight: -1,
	}

	reg, regErr := analysis.LinearRegression(x, y)
	if regErr == nil {
		scatter.Series = append(scatter.Series, Series{
			Name:   "Regression Line",
			Values: lo.Map(x, func(v float64, _ int) float64 { return reg.Predict(v) }),
			Kind:   ChartLine,
		})
		scatter.Annotation = fmt.Sprintf("Correlation (r) = %.2f, y = %.2fx + %.2f", reg.R, reg.Slope, reg.Intercept)
		tab.Indicators = append(tab.Indicators,
			Indicator{ID: "correlation", Name: "Correlation (r)", Value: reg.R, Display: b.format.Number(reg.R, 2)})
	} else {
		b.logger.Debug("regression skipped", "error", regErr)
		scatter.Annotation = "数据点不足，无法拟合回归线"
	}
	tab.Charts = append(tab.Charts, scatter)

	tab.Advice = b.deliveryAdvice(byState, reg, regErr == nil)
	return nil
}

func (b *Builder) buildMarketing(t *model.OrderTable, tab *Tab) error {
	periods, err := metrics.PeriodOfDay(t)
	if err != nil {
		return err
	}

	counts := lo.Map(periods, func(p model.PeriodCount, _ int) float64 { return float64(p.OrderCount) })
	top := argmax(counts)
	share := 100 * counts[top] / lo.Sum(counts)

	tab.Indicators = append(tab.Indicators,
		Indicator{ID: "peak_period_share", Name: "Peak period share (" + string(periods[top].Period) + ")", Value: share, Display: b.format.Percent(share), Unit: "%"})
	tab.Charts = append(tab.Charts, Chart{
		ID:        "period_of_day",
		Title:     "Orders by Time of Day",
		Kind:      ChartBar,
		Dimension: "Period",
		Labels:    lo.Map(periods, func(p model.PeriodCount, _ int) string { return string(p.Period) }),
		XLabel:    "Order Time",
		YLabel:    "Orders",
		Series:    []Series{{Name: "Orders", Values: counts}},
		Highlight: top,
	})

	tab.Advice = b.marketingAdvice(periods)
	return nil
}

func (b *Builder) buildRFM(t *model.OrderTable, tab *Tab) error {
	rfm, err := metrics.RFM(t)
	if err != nil {
		return err
	}
	churn, err := metrics.ChurnRate(t)
	if err != nil {
		return err
	}

	oneTime := lo.CountBy(rfm, func(r model.RFMRow) bool { return r.Frequency == 1 })
	tab.Indicators = append(tab.Indicators,
		Indicator{ID: "churn_rate", Name: "Churn Rate (%)", Value: churn, Display: b.format.Percent(churn), Unit: "%"},
		Indicator{ID: "customers", Name: "Customers", Value: float64(len(rfm)), Display: b.format.Int(len(rfm))},
		Indicator{ID: "one_time_customers", Name: "One-time customers", Value: float64(oneTime), Display: b.format.Int(oneTime)},
	)

	recency := lo.Map(rfm, func(r model.RFMRow, _ int) float64 { return float64(r.Recency) })
	frequency := lo.Map(rfm, func(r model.RFMRow, _ int) float64 { return float64(r.Frequency) })
	monetary := lo.Map(rfm, func(r model.RFMRow, _ int) float64 { return r.Monetary.InexactFloat64() })

	charts := []struct {
		id, title, dim string
		values         []float64
	}{
		{"recency_distribution", "Recency Distribution", "Recency (days)", recency},
		{"frequency_distribution", "Frequency Distribution", "Frequency (orders)", frequency},
		{"monetary_distribution", "Monetary Distribution", "Monetary", monetary},
	}
	hists := make([]Chart, 0, len(charts))
	for _, c := range charts {
		h, err := histogramChart(c.id, c.title, c.dim, c.values, rfmBins)
		if err != nil {
			return err
		}
		hists = append(hists, h)
	}
	hists[2].Currency = true
	tab.Charts = append(tab.Charts, hists...)

	tab.Advice = b.rfmAdvice(churn, hists[0], hists[1], hists[2])
	return nil
}

// histogramChart 等宽直方图
func histogramChart(id, title, dimension string, values []float64, bins int) (Chart, error) {
	hist, err := analysis.Histogram(values, bins)
	if err != nil {
		return Chart{}, fmt.Errorf("%s: %w", id, err)
	}
	counts := lo.Map(hist, func(h analysis.Bin, _ int) float64 { return float64(h.Count) })
	return Chart{
		ID:        id,
		Title:     title,
		Kind:      ChartHistogram,
		Dimension: dimension,
		Labels:    lo.Map(hist, func(h analysis.Bin, _ int) string { return binLabel(h) }),
		XLabel:    dimension,
		YLabel:    "Count",
		Series:    []Series{{Name: "Count", Values: counts}},
		Highlight: argmax(counts),
	}, nil
}

func binLabel(h analysis.Bin) string {
	if h.Lower == h.Upper {
		return formatFloat(h.Lower)
	}
	return fmt.Sprintf("%.2f-%.2f", h.Lower, h.Upper)
}

// argmax 最大值下标，并列时取第一个；空切片返回 -1
func argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}
