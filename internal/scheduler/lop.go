package scheduler

import (
	"fmt"
	"time"
)

// AdjustmentReason LOP 调整安排原因
type AdjustmentReason string

// ReasonPriorityEscalation 优先级提升触发的当日调整
const ReasonPriorityEscalation AdjustmentReason = "priority escalation"

// LOPScheduler 二次调整（Length-of-Pull）延期调度
//
// 对 NeedsSecondaryAdjustment 的订单：
//   - 今天是调整日，或优先级在上次评估后被提升 → 安排在今天
//   - 否则 → 顺延到今天之后的下一个调整日
//
// 无论走哪个分支，LastAdjustmentScheduledAt 都记为本次评估时刻（now 原值，不截断到零点）。
// 日期与星期判断只看 now 所在的日历日；同一天重复执行时结果不变（除非期间优先级再次变更）。
type LOPScheduler struct {
	day time.Weekday
}

// NewLOPScheduler 创建 LOP 调度器，day 为固定调整日（默认周一）
func NewLOPScheduler(day time.Weekday) *LOPScheduler {
	return &LOPScheduler{day: day}
}

// ScheduledReason 当天即调整日时的原因，如 "scheduled for Monday"
func (s *LOPScheduler) ScheduledReason() AdjustmentReason {
	return AdjustmentReason(fmt.Sprintf("scheduled for %s", s.day))
}

// DeferredReason 顺延时的原因，如 "deferred for Monday"
func (s *LOPScheduler) DeferredReason() AdjustmentReason {
	return AdjustmentReason(fmt.Sprintf("deferred for %s", s.day))
}

// ScheduleAdjustments 返回更新了 LOP 字段的订单副本；不需要调整的订单原样返回
func (s *LOPScheduler) ScheduleAdjustments(orders []Order, now time.Time) []Order {
	today := civilDate(now)
	out := make([]Order, len(orders))

	for i, o := range orders {
		if !o.NeedsSecondaryAdjustment {
			out[i] = o
			continue
		}

		escalated := o.PriorityChangedAt != nil &&
			(o.LastAdjustmentScheduledAt == nil || o.PriorityChangedAt.After(*o.LastAdjustmentScheduledAt))

		// 当日已评估且此后优先级未变：保持当日首次评估结果
		if !escalated && o.ScheduledAdjustmentDate != nil && o.LastAdjustmentScheduledAt != nil &&
			civilDate(*o.LastAdjustmentScheduledAt).Equal(today) {
			out[i] = o
			continue
		}

		var date time.Time
		switch {
		case today.Weekday() == s.day:
			date, o.OverrideReason = today, s.ScheduledReason()
		case escalated:
			date, o.OverrideReason = today, ReasonPriorityEscalation
		default:
			date, o.OverrideReason = s.next(today), s.DeferredReason()
		}

		evaluated := now
		o.ScheduledAdjustmentDate = &date
		o.LastAdjustmentScheduledAt = &evaluated
		out[i] = o
	}

	return out
}

// next 严格晚于 d 的下一个调整日
func (s *LOPScheduler) next(d time.Time) time.Time {
	delta := (int(s.day) - int(d.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return d.AddDate(0, 0, delta)
}
