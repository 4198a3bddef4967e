package model

import (
	"fmt"
	"time"
)

// DateLayout 日期范围在 API / 配置中的格式
const DateLayout = "2006-01-02"

// DateRange 闭区间日期范围（按日历日，Start/End 均为当天 00:00）
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateOf 截取到日历日
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDateRange 解析 YYYY-MM-DD 形式的起止日期
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad start date %q", ErrInvalidDateRange, start)
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad end date %q", ErrInvalidDateRange, end)
	}
	return DateRange{Start: s, End: e}, nil
}

// Validate 校验起止顺序，并要求范围落在 bounds 内
func (r DateRange) Validate(bounds DateRange) error {
	start, end := DateOf(r.Start), DateOf(r.End)
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange, start.Format(DateLayout), end.Format(DateLayout))
	}
	if start.Before(DateOf(bounds.Start)) || end.After(DateOf(bounds.End)) {
		return fmt.Errorf("%w: %s..%s outside dataset bounds %s..%s", ErrInvalidDateRange,
			start.Format(DateLayout), end.Format(DateLayout),
			bounds.Start.Format(DateLayout), bounds.End.Format(DateLayout))
	}
	return nil
}

// String 形如 2017-01-01..2017-12-31
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
