package metrics

import (
	"fmt"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// ReviewRules 品类平均评分分级规则，按顺序匹配，先命中者生效。
// 4.0 同时满足前两条，归为 Good。
var ReviewRules = []Rule[float64, model.ReviewClass]{
	{Label: model.ReviewGood, Match: func(s float64) bool { return s >= 4 }},
	{Label: model.ReviewFair, Match: func(s float64) bool { return 3 <= s && s <= 4 }},
	{Label: model.ReviewPoor, Match: func(s float64) bool { return s < 3 }},
}

var reviewClassOrder = []model.ReviewClass{model.ReviewGood, model.ReviewFair, model.ReviewPoor}

// ClassifyReviewScore 对单个平均评分分级；NaN 不命中任何规则
func ClassifyReviewScore(score float64) (model.ReviewClass, bool) {
	return FirstMatch(ReviewRules, score)
}

// ReviewClassification 统计各等级的品类数（按品类平均分而非单笔评分）
func ReviewClassification(t *model.OrderTable) (model.ReviewClassification, error) {
	scores, err := CategoryReviewScores(t)
	if err != nil {
		return model.ReviewClassification{}, fmt.Errorf("review classification: %w", err)
	}

	counts := make(map[model.ReviewClass]int, len(reviewClassOrder))
	poor := make([]model.CategoryScore, 0)
	for _, s := range scores {
		class, ok := ClassifyReviewScore(s.MeanReviewScore)
		if !ok {
			continue
		}
		counts[class]++
		if class == model.ReviewPoor {
			poor = append(poor, s)
		}
	}

	out := model.ReviewClassification{
		Counts:         make([]model.ReviewClassCount, 0, len(reviewClassOrder)),
		PoorCategories: poor,
	}
	for _, c := range reviewClassOrder {
		out.Counts = append(out.Counts, model.ReviewClassCount{Class: c, Categories: counts[c]})
	}
	return out, nil
}
