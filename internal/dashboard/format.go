package dashboard

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter 按地区格式化货币与数字
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter locale 如 pt-BR，code 为 ISO 4217 货币代码
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	return &Formatter{tag: tag, unit: unit, printer: message.NewPrinter(tag)}, nil
}

// DefaultFormatter pt-BR / BRL
func DefaultFormatter() *Formatter {
	return &Formatter{
		tag:     language.BrazilianPortuguese,
		unit:    currency.BRL,
		printer: message.NewPrinter(language.BrazilianPortuguese),
	}
}

// Locale 地区标签
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// CurrencyCode ISO 货币代码
func (f *Formatter) CurrencyCode() string {
	return f.unit.String()
}

// Money 货币金额，如 R$ 1.234,50
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.MoneyFloat(d.InexactFloat64())
}

// MoneyFloat 货币金额（浮点输入）
func (f *Formatter) MoneyFloat(v float64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(v)))
}

// Number 保留 scale 位小数的数字
func (f *Formatter) Number(v float64, scale int) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(scale)))
}

// Int 带千分位的整数
func (f *Formatter) Int(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

// Percent v 已是百分数（66.67 表示 66.67%）
func (f *Formatter) Percent(v float64) string {
	return f.Number(v, 2) + "%"
}
