package parser

import (
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// fieldAliases 各字段可识别的列名（均为规范化后的形式），第一项为规范名
var fieldAliases = map[Field][]string{
	FieldOrderID:          {"order_id", "orderid", "id_pedido"},
	FieldCustomerUniqueID: {"customer_unique_id", "customeruniqueid", "unique_customer_id"},
	FieldApprovedAt:       {"order_approved_at", "approved_at", "orderapprovedat"},
	FieldDeliveredAt:      {"order_delivered_customer_date", "delivered_customer_date", "order_delivered_at", "delivered_at"},
	FieldDeliveryDuration: {"delivery_duration", "delivery_days"},
	FieldPrice:            {"price", "item_price"},
	FieldFreightValue:     {"freight_value", "freight"},
	FieldPaymentType:      {"payment_type", "payment_method"},
	FieldReviewScore:      {"review_score", "score"},
	FieldCategory:         {"product_category_name_english", "category_english", "product_category", "category"},
	FieldCustomerState:    {"customer_state", "state"},
}

// requiredFields 必须存在的列（配送时长单独判断：delivery_duration 或 送达时间 至少其一）
var requiredFields = []Field{
	FieldOrderID,
	FieldCustomerUniqueID,
	FieldApprovedAt,
	FieldPrice,
	FieldFreightValue,
	FieldPaymentType,
	FieldReviewScore,
	FieldCategory,
	FieldCustomerState,
}

// FieldMapper 字段映射器
type FieldMapper struct {
	lookup map[string]Field
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper() *FieldMapper {
	lookup := make(map[string]Field)
	for field, aliases := range fieldAliases {
		for _, a := range aliases {
			lookup[a] = field
		}
	}
	return &FieldMapper{lookup: lookup}
}

// MapColumns 按表头映射字段；同一字段出现多次时取第一列
func (m *FieldMapper) MapColumns(columnNames []string) map[Field]FieldMapping {
	mappings := make(map[Field]FieldMapping)
	for idx, raw := range columnNames {
		col := NormalizeColumnName(raw)
		if col == "" {
			continue
		}
		field, ok := m.lookup[col]
		if !ok {
			continue
		}
		if _, exists := mappings[field]; exists {
			continue
		}
		mappings[field] = FieldMapping{ColumnIndex: idx, ColumnName: raw, Field: field}
	}
	return mappings
}

// Validate 校验表头是否包含全部必填列，缺失时返回 *model.MissingColumnError
func (m *FieldMapper) Validate(mappings map[Field]FieldMapping) error {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := mappings[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	_, hasDelivered := mappings[FieldDeliveredAt]
	_, hasDuration := mappings[FieldDeliveryDuration]
	if !hasDelivered && !hasDuration {
		missing = append(missing, string(FieldDeliveredAt))
	}
	if len(missing) > 0 {
		return &model.MissingColumnError{Columns: missing}
	}
	return nil
}
