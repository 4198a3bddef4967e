package metrics

import (
	"github.com/samber/lo"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// PaymentMix 各支付方式的去重订单数
//
// 一笔订单只计入其在表中首行的支付方式，因此各方式之和等于去重订单数。
func PaymentMix(t *model.OrderTable) ([]model.PaymentCount, error) {
	if err := requireRows("payment mix", t); err != nil {
		return nil, err
	}

	firstRows := lo.UniqBy(t.Rows(), func(r model.OrderRecord) string { return r.OrderID })
	keys, groups := groupSorted(firstRows, func(r model.OrderRecord) string { return r.PaymentType })

	out := make([]model.PaymentCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.PaymentCount{PaymentType: k, OrderCount: len(groups[k])})
	}
	return out, nil
}
