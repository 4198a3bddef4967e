// Package analysis 图表用的统计计算（回归、直方图）
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData 数据点不足以完成计算
var ErrInsufficientData = errors.New("insufficient data")

// Regression 一元线性回归结果 y = Slope*x + Intercept
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`      // Pearson 相关系数；y 无波动时为 0
	StdErr    float64 `json:"stdErr"` // 斜率标准误；两点时为 0
	N         int     `json:"n"`
}

// Predict 回归线在 x 处的取值
func (r Regression) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// LinearRegression 最小二乘拟合
func LinearRegression(x, y []float64) (Regression, error) {
	if len(x) != len(y) {
		return Regression{}, fmt.Errorf("linear regression: x has %d points, y has %d", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return Regression{}, fmt.Errorf("linear regression: %w: %d points", ErrInsufficientData, n)
	}
	if stat.Variance(x, nil) == 0 {
		return Regression{}, fmt.Errorf("linear regression: %w: x has zero variance", ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	res := Regression{Slope: slope, Intercept: intercept, N: n}

	if stat.Variance(y, nil) > 0 {
		res.R = stat.Correlation(x, y, nil)
	}

	if n > 2 {
		meanX := stat.Mean(x, nil)
		var ssRes, sxx float64
		for i := range x {
			d := y[i] - res.Predict(x[i])
			ssRes += d * d
			dx := x[i] - meanX
			sxx += dx * dx
		}
		res.StdErr = math.Sqrt(ssRes/float64(n-2)) / math.Sqrt(sxx)
	}
	return res, nil
}
