package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fp(v float64) *float64 { return &v }

// 三位客户、五笔订单、七行明细；o2 含两件商品，o5 跨两个品类
func sampleTable() *model.OrderTable {
	return model.NewOrderTable([]model.OrderRecord{
		{OrderID: "o1", CustomerUniqueID: "c1", ApprovedAt: ts("2017-01-02 03:10:00"), DeliveryDuration: fp(10), Price: dec("100.50"), FreightValue: dec("10.10"), PaymentType: "credit_card", ReviewScore: fp(5), Category: "bed_bath_table", CustomerState: "SP"},
		{OrderID: "o2", CustomerUniqueID: "c2", ApprovedAt: ts("2017-01-02 09:00:00"), DeliveryDuration: fp(20), Price: dec("40.00"), FreightValue: dec("5.00"), PaymentType: "boleto", ReviewScore: fp(2), Category: "security_and_services", CustomerState: "RJ"},
		{OrderID: "o2", CustomerUniqueID: "c2", ApprovedAt: ts("2017-01-02 09:00:00"), DeliveryDuration: fp(20), Price: dec("60.00"), FreightValue: dec("5.00"), PaymentType: "voucher", ReviewScore: fp(2), Category: "security_and_services", CustomerState: "RJ"},
		{OrderID: "o3", CustomerUniqueID: "c1", ApprovedAt: ts("2017-01-20 14:30:00"), DeliveryDuration: fp(6), Price: dec("19.90"), FreightValue: dec("7.25"), PaymentType: "credit_card", ReviewScore: fp(4), Category: "bed_bath_table", CustomerState: "SP"},
		{OrderID: "o4", CustomerUniqueID: "c3", ApprovedAt: ts("2017-02-05 19:45:00"), DeliveryDuration: nil, Price: dec("250.00"), FreightValue: dec("30.00"), PaymentType: "credit_card", ReviewScore: nil, Category: "toys", CustomerState: "RR"},
		{OrderID: "o5", CustomerUniqueID: "c1", ApprovedAt: ts("2017-02-28 23:59:59"), DeliveryDuration: fp(8), Price: dec("15.00"), FreightValue: dec("3.00"), PaymentType: "debit_card", ReviewScore: fp(3), Category: "toys", CustomerState: "SP"},
		{OrderID: "o5", CustomerUniqueID: "c1", ApprovedAt: ts("2017-02-28 23:59:59"), DeliveryDuration: fp(8), Price: dec("5.00"), FreightValue: dec("1.00"), PaymentType: "debit_card", ReviewScore: fp(3), Category: "bed_bath_table", CustomerState: "SP"},
	})
}

func totalPrice(t *model.OrderTable) decimal.Decimal {
	sum := decimal.Zero
	t.Each(func(_ int, r *model.OrderRecord) bool {
		sum = sum.Add(r.Price)
		return true
	})
	return sum
}

func TestDailyOrders_PartitionsOrdersAndRevenue(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	daily, err := DailyOrders(table)
	if err != nil {
		t.Fatalf("daily orders: %v", err)
	}
	if len(daily) != 4 {
		t.Fatalf("unexpected day buckets: %d (%v)", len(daily), daily)
	}

	orders := 0
	revenue := decimal.Zero
	for i, d := range daily {
		orders += d.OrderCount
		revenue = revenue.Add(d.Revenue)
		if i > 0 && !daily[i-1].Day.Before(d.Day) {
			t.Fatalf("days not ascending at %d: %v then %v", i, daily[i-1].Day, d.Day)
		}
	}
	if want := table.DistinctOrders(); orders != want {
		t.Fatalf("order count partition: want=%d got=%d", want, orders)
	}
	if want := totalPrice(table); !revenue.Equal(want) {
		t.Fatalf("revenue partition: want=%s got=%s", want, revenue)
	}

	first := daily[0]
	if first.OrderCount != 2 || !first.Revenue.Equal(dec("200.50")) || !first.FreightCost.Equal(dec("20.10")) {
		t.Fatalf("unexpected first day: %+v", first)
	}
}

func TestMonthlyOrders_OnlyMonthsWithOrders(t *testing.T) {
	t.Parallel()

	monthly, err := MonthlyOrders(sampleTable())
	if err != nil {
		t.Fatalf("monthly orders: %v", err)
	}
	want := []model.MonthlyAggregate{
		{Month: "2017-01", OrderCount: 3, Revenue: dec("220.40"), FreightCost: dec("27.35")},
		{Month: "2017-02", OrderCount: 2, Revenue: dec("270.00"), FreightCost: dec("34.00")},
	}
	if diff := cmp.Diff(want, monthly); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestRevenueVsFreight_KeepsFreightSeparate(t *testing.T) {
	t.Parallel()

	rows, err := RevenueVsFreight(sampleTable())
	if err != nil {
		t.Fatalf("revenue vs freight: %v", err)
	}
	want := []model.RevenueFreight{
		{Label: model.LabelTotalRevenue, Amount: dec("490.40")},
		{Label: model.LabelTotalFreightCost, Amount: dec("61.35")},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoryPopularity_DistinctOrdersDescending(t *testing.T) {
	t.Parallel()

	got, err := CategoryPopularity(sampleTable())
	if err != nil {
		t.Fatalf("category popularity: %v", err)
	}
	// o5 同时计入 bed_bath_table 与 toys
	want := []model.CategoryCount{
		{Category: "bed_bath_table", OrderCount: 3},
		{Category: "toys", OrderCount: 2},
		{Category: "security_and_services", OrderCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("popularity mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoryReviewScores_MeanDescendingSkipsMissing(t *testing.T) {
	t.Parallel()

	got, err := CategoryReviewScores(sampleTable())
	if err != nil {
		t.Fatalf("category scores: %v", err)
	}
	want := []model.CategoryScore{
		{Category: "bed_bath_table", MeanReviewScore: 4},
		{Category: "toys", MeanReviewScore: 3},
		{Category: "security_and_services", MeanReviewScore: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scores mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoryRevenue_Descending(t *testing.T) {
	t.Parallel()

	got, err := CategoryRevenue(sampleTable())
	if err != nil {
		t.Fatalf("category revenue: %v", err)
	}
	want := []model.CategoryRevenue{
		{Category: "toys", Revenue: dec("265.00")},
		{Category: "bed_bath_table", Revenue: dec("125.40")},
		{Category: "security_and_services", Revenue: dec("100.00")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("category revenue mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyReviewScore_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  model.ReviewClass
	}{
		{5, model.ReviewGood},
		{4.0, model.ReviewGood},
		{3.999, model.ReviewFair},
		{3.0, model.ReviewFair},
		{2.999, model.ReviewPoor},
		{1, model.ReviewPoor},
	}
	for _, tc := range cases {
		got, ok := ClassifyReviewScore(tc.score)
		if !ok || got != tc.want {
			t.Fatalf("score %v: want=%s got=%s ok=%v", tc.score, tc.want, got, ok)
		}
	}

	if _, ok := ClassifyReviewScore(math.NaN()); ok {
		t.Fatalf("NaN must not classify")
	}
}

func TestReviewClassification_CountsPerCategoryMean(t *testing.T) {
	t.Parallel()

	// 品类 a 单笔评分 5 与 3，平均 4.0，应为 Good 而非 Good+Fair
	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "1", CustomerUniqueID: "x", ApprovedAt: ts("2018-01-01 10:00:00"), ReviewScore: fp(5), Category: "a"},
		{OrderID: "2", CustomerUniqueID: "x", ApprovedAt: ts("2018-01-02 10:00:00"), ReviewScore: fp(3), Category: "a"},
		{OrderID: "3", CustomerUniqueID: "y", ApprovedAt: ts("2018-01-03 10:00:00"), ReviewScore: fp(3), Category: "b"},
		{OrderID: "4", CustomerUniqueID: "z", ApprovedAt: ts("2018-01-04 10:00:00"), ReviewScore: fp(2.5), Category: "c"},
		{OrderID: "5", CustomerUniqueID: "z", ApprovedAt: ts("2018-01-05 10:00:00"), ReviewScore: fp(3.497), Category: "c"},
	})

	got, err := ReviewClassification(table)
	if err != nil {
		t.Fatalf("review classification: %v", err)
	}
	wantCounts := []model.ReviewClassCount{
		{Class: model.ReviewGood, Categories: 1},
		{Class: model.ReviewFair, Categories: 1},
		{Class: model.ReviewPoor, Categories: 1},
	}
	if diff := cmp.Diff(wantCounts, got.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if len(got.PoorCategories) != 1 || got.PoorCategories[0].Category != "c" {
		t.Fatalf("unexpected poor categories: %+v", got.PoorCategories)
	}
}

func TestReviewClassification_KeepsZeroClasses(t *testing.T) {
	t.Parallel()

	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "1", CustomerUniqueID: "x", ApprovedAt: ts("2018-01-01 10:00:00"), ReviewScore: fp(4.5), Category: "a"},
	})
	got, err := ReviewClassification(table)
	if err != nil {
		t.Fatalf("review classification: %v", err)
	}
	if len(got.Counts) != 3 || got.Counts[1].Categories != 0 || got.Counts[2].Categories != 0 {
		t.Fatalf("unexpected counts: %+v", got.Counts)
	}
}

func TestCustomersByState_DistinctCustomers(t *testing.T) {
	t.Parallel()

	got, err := CustomersByState(sampleTable())
	if err != nil {
		t.Fatalf("customers by state: %v", err)
	}
	want := []model.StateCustomers{
		{State: "RJ", CustomerCount: 1},
		{State: "RR", CustomerCount: 1},
		{State: "SP", CustomerCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state customers mismatch (-want +got):\n%s", diff)
	}
}

func TestRevenueByState_SumsToTotalPrice(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	got, err := RevenueByState(table)
	if err != nil {
		t.Fatalf("revenue by state: %v", err)
	}
	sum := decimal.Zero
	for i, s := range got {
		sum = sum.Add(s.Revenue)
		if i > 0 && got[i-1].Revenue.LessThan(s.Revenue) {
			t.Fatalf("not descending at %d: %+v", i, got)
		}
	}
	if want := totalPrice(table); !sum.Equal(want) {
		t.Fatalf("state revenue total: want=%s got=%s", want, sum)
	}
	if got[0].State != "RR" {
		t.Fatalf("unexpected top state: %+v", got[0])
	}
}

func TestDeliveryByState_SortedAndSkipsMissing(t *testing.T) {
	t.Parallel()

	got, err := DeliveryByState(sampleTable())
	if err != nil {
		t.Fatalf("delivery by state: %v", err)
	}
	// RR 没有配送时长与评分，不输出；SP 平均 (10+6+8+8)/4 = 8
	want := []model.StateDelivery{
		{State: "RJ", MeanDeliveryDays: 20, MeanReviewScore: 2},
		{State: "SP", MeanDeliveryDays: 8, MeanReviewScore: 3.75},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delivery mismatch (-want +got):\n%s", diff)
	}

	points, err := DeliverySatisfaction(sampleTable())
	if err != nil {
		t.Fatalf("delivery satisfaction: %v", err)
	}
	if len(points) != 2 || points[0].State != "RJ" || points[0].MeanReviewScore != 2 || points[0].MeanDeliveryDays != 20 {
		t.Fatalf("unexpected regression input: %+v", points)
	}
}

func TestPaymentMix_SumsToDistinctOrders(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	got, err := PaymentMix(table)
	if err != nil {
		t.Fatalf("payment mix: %v", err)
	}
	// o2 的首行支付方式为 boleto，voucher 不单独计数
	want := []model.PaymentCount{
		{PaymentType: "boleto", OrderCount: 1},
		{PaymentType: "credit_card", OrderCount: 3},
		{PaymentType: "debit_card", OrderCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payment mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for _, p := range got {
		total += p.OrderCount
	}
	if total != table.DistinctOrders() {
		t.Fatalf("payment total: want=%d got=%d", table.DistinctOrders(), total)
	}
}

func TestPeriodOfDay_FixedOrderWithEmptyBuckets(t *testing.T) {
	t.Parallel()

	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "1", CustomerUniqueID: "a", ApprovedAt: ts("2018-03-01 13:00:00")},
		{OrderID: "1", CustomerUniqueID: "a", ApprovedAt: ts("2018-03-01 13:00:00")},
		{OrderID: "2", CustomerUniqueID: "b", ApprovedAt: ts("2018-03-02 17:59:59")},
	})
	got, err := PeriodOfDay(table)
	if err != nil {
		t.Fatalf("period of day: %v", err)
	}
	want := []model.PeriodCount{
		{Period: model.PeriodDawn, OrderCount: 0},
		{Period: model.PeriodMorning, OrderCount: 0},
		{Period: model.PeriodAfternoon, OrderCount: 2},
		{Period: model.PeriodNight, OrderCount: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("period mismatch (-want +got):\n%s", diff)
	}
}

func TestPeriodOfHour_Boundaries(t *testing.T) {
	t.Parallel()

	cases := map[int]model.DayPeriod{
		0: model.PeriodDawn, 5: model.PeriodDawn,
		6: model.PeriodMorning, 11: model.PeriodMorning,
		12: model.PeriodAfternoon, 17: model.PeriodAfternoon,
		18: model.PeriodNight, 23: model.PeriodNight,
	}
	for hour, want := range cases {
		if got, ok := PeriodOfHour(hour); !ok || got != want {
			t.Fatalf("hour %d: want=%s got=%s", hour, want, got)
		}
	}
}

func TestRFM_SingleCustomerTwoOrders(t *testing.T) {
	t.Parallel()

	latest := ts("2018-06-30 12:00:00")
	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "old", CustomerUniqueID: "c", ApprovedAt: latest.AddDate(0, 0, -30), Price: dec("12.30")},
		{OrderID: "new", CustomerUniqueID: "c", ApprovedAt: latest.AddDate(0, 0, -10), Price: dec("7.70")},
		{OrderID: "ref", CustomerUniqueID: "other", ApprovedAt: latest, Price: dec("1")},
	})

	rows, err := RFM(table)
	if err != nil {
		t.Fatalf("rfm: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected customers: %d", len(rows))
	}
	c := rows[0]
	if c.CustomerUniqueID != "c" || c.Recency != 10 || c.Frequency != 2 || !c.Monetary.Equal(dec("20.00")) {
		t.Fatalf("unexpected rfm row: %+v", c)
	}
	if rows[1].Recency != 0 || rows[1].Frequency != 1 {
		t.Fatalf("unexpected reference customer: %+v", rows[1])
	}
}

func TestRFM_RecencyFloorsPartialDays(t *testing.T) {
	t.Parallel()

	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "a", CustomerUniqueID: "c1", ApprovedAt: ts("2018-01-01 00:00:00")},
		{OrderID: "b", CustomerUniqueID: "c2", ApprovedAt: ts("2018-01-02 23:00:00")},
	})
	rows, err := RFM(table)
	if err != nil {
		t.Fatalf("rfm: %v", err)
	}
	if rows[0].Recency != 1 {
		t.Fatalf("recency of 47h want=1 got=%d", rows[0].Recency)
	}
}

func TestChurnRate_TwoOfThreeOneTimeBuyers(t *testing.T) {
	t.Parallel()

	table := model.NewOrderTable([]model.OrderRecord{
		{OrderID: "1", CustomerUniqueID: "a", ApprovedAt: ts("2018-01-01 10:00:00")},
		{OrderID: "2", CustomerUniqueID: "b", ApprovedAt: ts("2018-01-02 10:00:00")},
		{OrderID: "3", CustomerUniqueID: "c", ApprovedAt: ts("2018-01-03 10:00:00")},
		{OrderID: "4", CustomerUniqueID: "c", ApprovedAt: ts("2018-01-04 10:00:00")},
		{OrderID: "5", CustomerUniqueID: "c", ApprovedAt: ts("2018-01-05 10:00:00")},
	})
	got, err := ChurnRate(table)
	if err != nil {
		t.Fatalf("churn rate: %v", err)
	}
	if math.Abs(got-66.67) > 0.01 {
		t.Fatalf("churn rate want≈66.67 got=%v", got)
	}
}

func TestChurnRate_EmptyTableFails(t *testing.T) {
	t.Parallel()

	got, err := ChurnRate(model.NewOrderTable(nil))
	if err == nil {
		t.Fatalf("expected error, got %v", got)
	}
	if !errors.Is(err, model.ErrEmptyInput) || !errors.Is(err, model.ErrDivisionByZero) {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(got) {
		t.Fatalf("churn rate must not be NaN")
	}
}

func TestAllMetrics_EmptyInput(t *testing.T) {
	t.Parallel()

	empty := model.NewOrderTable(nil)
	calls := map[string]func() error{
		"daily":        func() error { _, err := DailyOrders(empty); return err },
		"monthly":      func() error { _, err := MonthlyOrders(empty); return err },
		"revFreight":   func() error { _, err := RevenueVsFreight(empty); return err },
		"popularity":   func() error { _, err := CategoryPopularity(empty); return err },
		"scores":       func() error { _, err := CategoryReviewScores(empty); return err },
		"catRevenue":   func() error { _, err := CategoryRevenue(empty); return err },
		"reviewClass":  func() error { _, err := ReviewClassification(empty); return err },
		"stateCust":    func() error { _, err := CustomersByState(empty); return err },
		"stateRevenue": func() error { _, err := RevenueByState(empty); return err },
		"delivery":     func() error { _, err := DeliveryByState(empty); return err },
		"satisfaction": func() error { _, err := DeliverySatisfaction(empty); return err },
		"payment":      func() error { _, err := PaymentMix(empty); return err },
		"period":       func() error { _, err := PeriodOfDay(empty); return err },
		"rfm":          func() error { _, err := RFM(empty); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, model.ErrEmptyInput) {
			t.Fatalf("%s: want ErrEmptyInput, got %v", name, err)
		}
	}
}

func TestAllMetrics_IdempotentAndInputUntouched(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	before := table.Rows()

	run := func() []any {
		var out []any
		add := func(v any, err error) {
			if err != nil {
				t.Fatalf("metric failed: %v", err)
			}
			out = append(out, v)
		}
		add(DailyOrders(table))
		add(MonthlyOrders(table))
		add(RevenueVsFreight(table))
		add(CategoryPopularity(table))
		add(CategoryReviewScores(table))
		add(CategoryRevenue(table))
		add(ReviewClassification(table))
		add(CustomersByState(table))
		add(RevenueByState(table))
		add(DeliveryByState(table))
		add(DeliverySatisfaction(table))
		add(PaymentMix(table))
		add(PeriodOfDay(table))
		add(RFM(table))
		add(ChurnRate(table))
		return out
	}

	first := run()
	second := run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("metrics not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, table.Rows()); diff != "" {
		t.Fatalf("input table mutated (-before +after):\n%s", diff)
	}
}
