package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyAggregate 日销售汇总
type DailyAggregate struct {
	Day         time.Time       `json:"day"`
	OrderCount  int             `json:"orderCount"`
	Revenue     decimal.Decimal `json:"revenue"`
	FreightCost decimal.Decimal `json:"freightCost"`
}

// MonthlyAggregate 月销售汇总
type MonthlyAggregate struct {
	Month       string          `json:"month"` // YYYY-MM
	OrderCount  int             `json:"orderCount"`
	Revenue     decimal.Decimal `json:"revenue"`
	FreightCost decimal.Decimal `json:"freightCost"`
}

// CategoryCount 品类订单数
type CategoryCount struct {
	Category   string `json:"category"`
	OrderCount int    `json:"orderCount"`
}

// CategoryScore 品类平均评分
type CategoryScore struct {
	Category        string  `json:"category"`
	MeanReviewScore float64 `json:"meanReviewScore"`
}

// CategoryRevenue 品类营收
type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ReviewClass 评分等级
type ReviewClass string

const (
	ReviewGood ReviewClass = "Good"
	ReviewFair ReviewClass = "Fair"
	ReviewPoor ReviewClass = "Poor"
)

// ReviewClassCount 各评分等级的品类数
type ReviewClassCount struct {
	Class      ReviewClass `json:"class"`
	Categories int         `json:"categories"`
}

// ReviewClassification 品类评分分级结果
type ReviewClassification struct {
	Counts         []ReviewClassCount `json:"counts"` // 固定顺序 Good/Fair/Poor
	PoorCategories []CategoryScore    `json:"poorCategories"`
}

// StateCustomers 州客户数
type StateCustomers struct {
	State         string `json:"state"`
	CustomerCount int    `json:"customerCount"`
}

// StateRevenue 州营收
type StateRevenue struct {
	State   string          `json:"state"`
	Revenue decimal.Decimal `json:"revenue"`
}

// StateDelivery 州平均配送时长与平均评分
type StateDelivery struct {
	State            string  `json:"state"`
	MeanDeliveryDays float64 `json:"meanDeliveryDays"`
	MeanReviewScore  float64 `json:"meanReviewScore"`
}

// PaymentCount 支付方式订单数
type PaymentCount struct {
	PaymentType string `json:"paymentType"`
	OrderCount  int    `json:"orderCount"`
}

// DayPeriod 下单时段
type DayPeriod string

const (
	PeriodDawn      DayPeriod = "Dawn"      // [0,6)
	PeriodMorning   DayPeriod = "Morning"   // [6,12)
	PeriodAfternoon DayPeriod = "Afternoon" // [12,18)
	PeriodNight     DayPeriod = "Night"     // [18,24)
)

// PeriodCount 时段订单数
type PeriodCount struct {
	Period     DayPeriod `json:"period"`
	OrderCount int       `json:"orderCount"`
}

// RevenueFreight 营收/运费对比行
type RevenueFreight struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

const (
	LabelTotalRevenue     = "Total Revenue"
	LabelTotalFreightCost = "Total Freight Cost"
)

// RFMRow 客户 RFM 指标
type RFMRow struct {
	CustomerUniqueID string          `json:"customerUniqueId"`
	LastPurchase     time.Time       `json:"lastPurchase"`
	Recency          int             `json:"recency"` // 距数据集最晚审核时间的整天数
	Frequency        int             `json:"frequency"`
	Monetary         decimal.Decimal `json:"monetary"`
}

// StatePoint 州级（平均评分，平均配送时长）配对，作为回归输入
type StatePoint struct {
	State            string  `json:"state"`
	MeanReviewScore  float64 `json:"meanReviewScore"`
	MeanDeliveryDays float64 `json:"meanDeliveryDays"`
}
