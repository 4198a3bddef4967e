package parser

import (
	"fmt"
	"time"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// Field 订单明细字段（即数据集中的规范列名）
type Field string

const (
	FieldOrderID          Field = "order_id"
	FieldCustomerUniqueID Field = "customer_unique_id"
	FieldApprovedAt       Field = "order_approved_at"
	FieldDeliveredAt      Field = "order_delivered_customer_date"
	FieldDeliveryDuration Field = "delivery_duration"
	FieldPrice            Field = "price"
	FieldFreightValue     Field = "freight_value"
	FieldPaymentType      Field = "payment_type"
	FieldReviewScore      Field = "review_score"
	FieldCategory         Field = "product_category_name_english"
	FieldCustomerState    Field = "customer_state"
)

// UnknownValue 分组字段为空时的占位值
const UnknownValue = "unknown"

// SourceType 数据源格式
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceXLSX    SourceType = "xlsx"
	SourceUnknown SourceType = "unknown"
)

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // 源文件列索引
	ColumnName  string `json:"columnName"`  // 源文件列名
	Field       Field  `json:"field"`
}

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string  `json:"sheetName"`
	Confidence float64 `json:"confidence"` // 必填列命中比例 0-1
}

// RowError 单行解析错误（行号从 1 开始，含表头）
type RowError struct {
	Row    int    `json:"row"`
	Field  Field  `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

// ParseResult 解析结果
type ParseResult struct {
	Source       string              `json:"source"`
	SourceType   SourceType          `json:"sourceType"`
	SheetName    string              `json:"sheetName,omitempty"`
	Columns      []string            `json:"columns"` // 原始表头
	Records      []model.OrderRecord `json:"-"`
	TotalRows    int                 `json:"totalRows"`
	ImportedRows int                 `json:"importedRows"`
	ErrorRows    int                 `json:"errorRows"`
	Errors       []RowError          `json:"errors,omitempty"`
	Duration     time.Duration       `json:"duration"`
}

// maxReportedErrors 结果中最多保留的行错误条数
const maxReportedErrors = 50

func (r *ParseResult) addError(e RowError) {
	r.ErrorRows++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, e)
	}
}
