package scheduler

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unlimited 未设上限的品类剩余量
const Unlimited = math.MaxInt

// CapacityTracker 单次排产运行内的产能账本
//
// 三类计数器（均按日历日分桶，首次访问时即为满额）：
//   - 模具 × 日：已用 / 模具日产能
//   - 日：已用 / 全员日产能之和
//   - 品类 × 日：已用 / 品类上限（仅配置了上限的品类，品类名不区分大小写）
//
// 实例只属于一次 Schedule 调用，不可跨运行复用。
type CapacityTracker struct {
	moldCapacity map[string]int
	workforce    int
	caps         map[string]CategoryCap

	moldUsed     map[string]int // "moldID|day"
	dayUsed      map[string]int // "day"
	categoryUsed map[string]int // "categoryID|day"
}

// NewCapacityTracker 根据模具注册表、员工注册表与品类上限创建账本
// 全员日产能取员工日产能之和向下取整
func NewCapacityTracker(molds []Mold, employees []Employee, caps map[string]CategoryCap) *CapacityTracker {
	mc := make(map[string]int, len(molds))
	for _, m := range molds {
		mc[m.ID] = m.DailyCapacity
	}

	total := 0.0
	for _, e := range employees {
		total += e.DailyCapacity()
	}

	cc := make(map[string]CategoryCap, len(caps))
	for k, v := range caps {
		cc[categoryKey(k)] = v
	}

	return &CapacityTracker{
		moldCapacity: mc,
		workforce:    int(math.Floor(total)),
		caps:         cc,
		moldUsed:     make(map[string]int),
		dayUsed:      make(map[string]int),
		categoryUsed: make(map[string]int),
	}
}

// AvailableUnits 模具当日剩余产能（未知模具为 0）
func (t *CapacityTracker) AvailableUnits(moldID string, day time.Time) int {
	return nonNegative(t.moldCapacity[moldID] - t.moldUsed[moldDayKey(moldID, day)])
}

// AggregateAvailable 当日全员剩余产能
func (t *CapacityTracker) AggregateAvailable(day time.Time) int {
	return nonNegative(t.workforce - t.dayUsed[dayKey(civilDate(day))])
}

// CategoryAvailable 品类当日剩余额度；未设上限返回 Unlimited
func (t *CapacityTracker) CategoryAvailable(categoryID string, day time.Time) int {
	c, ok := t.caps[categoryKey(categoryID)]
	if !ok {
		return Unlimited
	}
	return nonNegative(c.Max - t.categoryUsed[categoryDayKey(categoryID, day)])
}

// CategoryUsed 品类当日已提交数
func (t *CapacityTracker) CategoryUsed(categoryID string, day time.Time) int {
	return t.categoryUsed[categoryDayKey(categoryID, day)]
}

// Commit 原子提交：三类计数器全部校验通过后才一并扣减，任一不足则不做任何修改
func (t *CapacityTracker) Commit(moldID string, day time.Time, categoryID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("提交数量必须为正数 (units=%d): %w", units, ErrInvalidInput)
	}
	if t.AvailableUnits(moldID, day) < units {
		return fmt.Errorf("模具 %s 在 %s 剩余产能不足: %w", moldID, dayKey(day), ErrInsufficientCapacity)
	}
	if t.AggregateAvailable(day) < units {
		return fmt.Errorf("%s 人力产能不足: %w", dayKey(day), ErrInsufficientCapacity)
	}
	if avail := t.CategoryAvailable(categoryID, day); avail != Unlimited && avail < units {
		return fmt.Errorf("品类 %s 在 %s 已达上限: %w", categoryID, dayKey(day), ErrInsufficientCapacity)
	}

	t.add(moldID, day, categoryID, units)
	return nil
}

// Seed 预置既有占用（如手工安排的周五订单），不做容量校验
func (t *CapacityTracker) Seed(moldID string, day time.Time, categoryID string, units int) {
	if units <= 0 {
		return
	}
	t.add(moldID, day, categoryID, units)
}

func (t *CapacityTracker) add(moldID string, day time.Time, categoryID string, units int) {
	t.moldUsed[moldDayKey(moldID, day)] += units
	t.dayUsed[dayKey(civilDate(day))] += units
	if _, capped := t.caps[categoryKey(categoryID)]; capped {
		t.categoryUsed[categoryDayKey(categoryID, day)] += units
	}
}

func moldDayKey(moldID string, day time.Time) string {
	return moldID + "|" + dayKey(civilDate(day))
}

func categoryDayKey(categoryID string, day time.Time) string {
	return categoryKey(categoryID) + "|" + dayKey(civilDate(day))
}

// categoryKey 品类上限按小写匹配（配置键经 viper 读取后均为小写）
func categoryKey(categoryID string) string {
	return strings.ToLower(strings.TrimSpace(categoryID))
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
