package model

import (
	"errors"
	"strings"
)

// 错误分类：解析、过滤、计算各层统一用 errors.Is 判断
var (
	ErrMissingColumn    = errors.New("missing column")
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrDivisionByZero   = errors.New("division by zero")
)

// MissingColumnError 数据集缺少必需列
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "missing column: " + strings.Join(e.Columns, ", ")
}

// Is 使 errors.Is(err, ErrMissingColumn) 成立
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}
