package scheduler

import "errors"

// ── 排产引擎错误 ──
// 容量/兼容性不可行不是错误，会进入 Result.Unscheduled；
// 以下仅用于输入数据违反前置条件的情况。

var (
	ErrInvalidInput         = errors.New("排产输入不合法")
	ErrDuplicateOrder       = errors.New("订单 ID 重复")
	ErrDuplicateMold        = errors.New("模具 ID 重复")
	ErrNegativeCapacity     = errors.New("产能不能为负数")
	ErrInsufficientCapacity = errors.New("剩余产能不足")
)
