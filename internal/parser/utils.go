package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var separatorRe = regexp.MustCompile(`[\s\-.]+`)

// NormalizeColumnName 规范化列名：小写，空白/连字符/点号统一为下划线
// 例如 "Order Approved At" -> "order_approved_at"
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	name = separatorRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}

// timestampLayouts 支持的时间格式，按顺序尝试
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp 解析时间戳；allowSerial 为 true 时接受 Excel 日期序列号
func ParseTimestamp(s string, allowSerial bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if allowSerial {
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid excel date %q: %w", s, err)
			}
			// 序列号精度为浮点，按秒取整
			return t.Round(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseOptionalTimestamp 空值返回 nil
func parseOptionalTimestamp(s string, allowSerial bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(s, allowSerial)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseMoney 解析非负金额
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "") // 移除千分位
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", s)
	}
	return d, nil
}

// parseOptionalFloat 空值返回 nil
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}

// orUnknown 分组字段为空时归入 unknown
func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownValue
	}
	return s
}
