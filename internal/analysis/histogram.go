package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin 直方图的一个区间 [Lower, Upper)，最后一个区间包含 Upper
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram 等宽分箱；所有值相同时只返回一个区间
func Histogram(values []float64, bins int) ([]Bin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram: bins must be positive, got %d", bins)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("histogram: %w", ErrInsufficientData)
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("histogram: %w: no finite values", ErrInsufficientData)
	}
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Lower: lo, Upper: hi, Count: len(sorted)}}, nil
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// 最大值须落在最后一个区间内
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	out[bins-1].Upper = hi
	return out, nil
}
