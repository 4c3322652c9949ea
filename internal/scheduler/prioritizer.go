package scheduler

import "sort"

// Rank 返回按优先级排序后的订单副本（稳定排序，不修改入参）
//
// 比较链：
//  1. 来源层级：reserved-purchase-order → production-order → standard
//  2. 优先级分值升序（缺省 99）
//  3. 交期升序（缺交期时回退下单日期）
//
// 三键全部相同时保持输入顺序。
func Rank(orders []Order) []Order {
	ranked := make([]Order, len(orders))
	copy(ranked, orders)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ra, rb := a.SourceTier.rank(), b.SourceTier.rank(); ra != rb {
			return ra < rb
		}
		if pa, pb := a.Priority(), b.Priority(); pa != pb {
			return pa < pb
		}
		return a.effectiveDueDate().Before(b.effectiveDueDate())
	})

	return ranked
}
