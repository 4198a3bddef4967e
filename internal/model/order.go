package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord 订单明细行（一行 = 一个订单商品项，同一订单可能出现在多行）
type OrderRecord struct {
	ID int64 `json:"id"`

	OrderID          string `json:"orderId"`
	CustomerUniqueID string `json:"customerUniqueId"`

	ApprovedAt  time.Time  `json:"approvedAt"`
	DeliveredAt *time.Time `json:"deliveredAt"` // 未送达时为 NULL

	// DeliveryDuration 配送时长（天）；数据集自带则直接使用，否则由送达-审核时间推算
	DeliveryDuration *float64 `json:"deliveryDuration"`

	Price        decimal.Decimal `json:"price"`
	FreightValue decimal.Decimal `json:"freightValue"`

	PaymentType   string   `json:"paymentType"`
	ReviewScore   *float64 `json:"reviewScore"` // 1-5，可能缺失
	Category      string   `json:"category"`    // product_category_name_english
	CustomerState string   `json:"customerState"`
}

// HasDeliveryDuration 是否可计算配送时长
func (r *OrderRecord) HasDeliveryDuration() bool {
	return r.DeliveryDuration != nil
}

// ComputeDeliveryDuration 用送达时间与审核时间推算配送时长（天）
func ComputeDeliveryDuration(approvedAt time.Time, deliveredAt *time.Time) *float64 {
	if deliveredAt == nil || approvedAt.IsZero() {
		return nil
	}
	days := deliveredAt.Sub(approvedAt).Hours() / 24
	return &days
}

// OrderTable 已校验的订单明细表（按 ApprovedAt 升序，行号从 0 连续）
//
// 表一经构建即视为只读：过滤、聚合都返回新的结果，不修改 rows。
type OrderTable struct {
	rows []OrderRecord
}

// NewOrderTable 复制并按 ApprovedAt 稳定排序后构建订单表
func NewOrderTable(rows []OrderRecord) *OrderTable {
	cp := make([]OrderRecord, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].ApprovedAt.Before(cp[j].ApprovedAt)
	})
	return &OrderTable{rows: cp}
}

// Len 行数
func (t *OrderTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row 返回第 i 行的副本
func (t *OrderTable) Row(i int) OrderRecord {
	return t.rows[i]
}

// Rows 返回所有行的副本
func (t *OrderTable) Rows() []OrderRecord {
	if t == nil {
		return nil
	}
	out := make([]OrderRecord, len(t.rows))
	copy(out, t.rows)
	return out
}

// Each 按表顺序遍历（只读），fn 返回 false 时提前结束
func (t *OrderTable) Each(fn func(i int, r *OrderRecord) bool) {
	if t == nil {
		return
	}
	for i := range t.rows {
		r := t.rows[i]
		if !fn(i, &r) {
			return
		}
	}
}

// MinApproved 最早审核时间；空表返回零值
func (t *OrderTable) MinApproved() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.rows[0].ApprovedAt
}

// MaxApproved 最晚审核时间；空表返回零值
func (t *OrderTable) MaxApproved() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.rows[len(t.rows)-1].ApprovedAt
}

// Bounds 数据集的可选日期范围
func (t *OrderTable) Bounds() DateRange {
	return DateRange{
		Start: DateOf(t.MinApproved()),
		End:   DateOf(t.MaxApproved()),
	}
}

// Filter 返回 ApprovedAt 落在日期范围内（首尾两天均包含）的新表
func (t *OrderTable) Filter(r DateRange) *OrderTable {
	if t.Len() == 0 {
		return &OrderTable{}
	}
	from := r.Start
	until := r.End.AddDate(0, 0, 1)

	// rows 按时间升序，二分定位区间
	lo := sort.Search(len(t.rows), func(i int) bool {
		return !t.rows[i].ApprovedAt.Before(from)
	})
	hi := sort.Search(len(t.rows), func(i int) bool {
		return !t.rows[i].ApprovedAt.Before(until)
	})
	if hi < lo {
		hi = lo
	}

	out := make([]OrderRecord, hi-lo)
	copy(out, t.rows[lo:hi])
	return &OrderTable{rows: out}
}

// DistinctOrders 去重订单数
func (t *OrderTable) DistinctOrders() int {
	seen := make(map[string]struct{}, t.Len())
	t.Each(func(_ int, r *OrderRecord) bool {
		seen[r.OrderID] = struct{}{}
		return true
	})
	return len(seen)
}

// DistinctCustomers 去重客户数
func (t *OrderTable) DistinctCustomers() int {
	seen := make(map[string]struct{}, t.Len())
	t.Each(func(_ int, r *OrderRecord) bool {
		seen[r.CustomerUniqueID] = struct{}{}
		return true
	})
	return len(seen)
}
