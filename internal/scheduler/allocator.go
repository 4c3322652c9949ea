package scheduler

import (
	"fmt"
	"sort"
	"time"
)

// Commitment 既有占用（用于预置 CapacityTracker）
type Commitment struct {
	Assignment
	CategoryID string
}

// Input 一次排产运行的全部输入（只读快照）
type Input struct {
	Orders    []Order
	Molds     []Mold     // 注册表顺序即平局时的模具顺序
	Employees []Employee
	StartDate time.Time
	Weekdays  []time.Weekday // 非 nil 时覆盖配置中的工作日集合
	Prior     []Commitment
}

// Engine 贪心排产引擎
//
// 无跨调用状态：每次 Schedule 新建 CapacityTracker 与模具游标，
// 同一 Engine 可被多个 goroutine 并发调用（what-if 场景）。
type Engine struct {
	cfg      Config
	resolver *CompatibilityResolver
}

// NewEngine 创建排产引擎
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		resolver: NewCompatibilityResolver(cfg.UniversalCategory, cfg.ReservedCategories),
	}
}

// Resolver 返回引擎使用的兼容性解析器
func (e *Engine) Resolver() *CompatibilityResolver {
	return e.resolver
}

// ════════════════════════════════════════════════════════════
// Schedule：单遍贪心排产
// ════════════════════════════════════════════════════════════

// Schedule 按优先级顺序为每个订单寻找最早可行的 (日期, 模具)
// 产能/兼容性不可行的订单进入 Result.Unscheduled；仅输入不合法时返回错误。
func (e *Engine) Schedule(in Input) (*Result, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	weekdays := e.cfg.Weekdays
	if in.Weekdays != nil {
		weekdays = in.Weekdays
	}
	calendar := NewWorkCalendar(weekdays, e.cfg.MinHorizonWeeks, e.cfg.MaxHorizonWeeks, e.cfg.Holidays)

	// ── 阶段1: 日历与账本 ──
	days, horizon := calendar.EligibleDays(in.StartDate, in.Orders)

	tracker := NewCapacityTracker(in.Molds, in.Employees, e.cfg.CategoryCaps)
	for _, p := range in.Prior {
		tracker.Seed(p.MoldID, p.Date, p.CategoryID, 1)
	}

	result := &Result{
		Assignments:  make([]Assignment, 0, len(in.Orders)),
		Unscheduled:  make([]Unscheduled, 0),
		Days:         days,
		HorizonWeeks: horizon,
		Warnings:     make([]string, 0),
	}

	ranked := Rank(in.Orders)

	if len(days) == 0 {
		for _, o := range ranked {
			result.Unscheduled = append(result.Unscheduled, Unscheduled{OrderID: o.ID, Reason: ReasonNoEligibleDays})
		}
		return result, nil
	}

	// ── 阶段2: 贪心分配 ──

	// 模具游标：指向该模具尚未确认排满的最早可排产日下标，整次运行内持续有效
	cursors := make(map[string]int, len(in.Molds))

	for _, order := range ranked {
		candidates := e.resolver.CompatibleMolds(order, in.Molds)
		if len(candidates) == 0 {
			result.Unscheduled = append(result.Unscheduled, Unscheduled{OrderID: order.ID, Reason: ReasonNoCompatibleMold})
			continue
		}

		assignment, ok := e.place(order, candidates, days, cursors, tracker)
		if !ok {
			result.Unscheduled = append(result.Unscheduled, Unscheduled{OrderID: order.ID, Reason: ReasonNoCapacity})
			continue
		}
		result.Assignments = append(result.Assignments, assignment)
	}

	// ── 阶段3: 品类软下限告警 ──
	result.Warnings = e.floorWarnings(in.Orders, days, tracker)

	return result, nil
}

// place 为单个订单寻找位置
// 每次失败都推进一个模具游标，迭代次数上限为 len(candidates) × len(days)
func (e *Engine) place(order Order, candidates []Mold, days []CalendarDay, cursors map[string]int, tracker *CapacityTracker) (Assignment, bool) {
	for {
		best := -1
		for i, m := range candidates {
			idx := cursors[m.ID]
			if idx >= len(days) {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			bestIdx := cursors[candidates[best].ID]
			switch {
			case idx < bestIdx:
				best = i
			case idx == bestIdx:
				// 同一天：剩余产能大者优先（负载分散），再相同则保持注册表顺序
				if tracker.AvailableUnits(m.ID, days[idx].Date) > tracker.AvailableUnits(candidates[best].ID, days[bestIdx].Date) {
					best = i
				}
			}
		}
		if best == -1 {
			return Assignment{}, false
		}

		mold := candidates[best]
		day := days[cursors[mold.ID]].Date

		if tracker.AvailableUnits(mold.ID, day) <= 0 ||
			tracker.AggregateAvailable(day) <= 0 ||
			tracker.CategoryAvailable(order.CategoryID, day) <= 0 {
			cursors[mold.ID]++
			continue
		}

		if err := tracker.Commit(mold.ID, day, order.CategoryID, 1); err != nil {
			cursors[mold.ID]++
			continue
		}

		// 仅当模具当日已满时推进游标，剩余产能留给后续订单
		if tracker.AvailableUnits(mold.ID, day) == 0 {
			cursors[mold.ID]++
		}

		return Assignment{OrderID: order.ID, MoldID: mold.ID, Date: day}, true
	}
}

// floorWarnings 对有订单需求且设置了软下限的品类，逐日检查是否达到下限
func (e *Engine) floorWarnings(orders []Order, days []CalendarDay, tracker *CapacityTracker) []string {
	demanded := make(map[string]bool)
	for _, o := range orders {
		demanded[categoryKey(o.CategoryID)] = true
	}

	categories := make([]string, 0, len(e.cfg.CategoryCaps))
	for c, cp := range e.cfg.CategoryCaps {
		if cp.Min > 0 && demanded[categoryKey(c)] {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)

	warnings := make([]string, 0)
	for _, d := range days {
		for _, c := range categories {
			used := tracker.CategoryUsed(c, d.Date)
			if floor := e.cfg.CategoryCaps[c].Min; used < floor {
				warnings = append(warnings, fmt.Sprintf("%s 品类 %s 排产 %d 件，低于下限 %d", dayKey(d.Date), c, used, floor))
			}
		}
	}
	return warnings
}

// validate 输入前置条件校验（快速失败）
func (e *Engine) validate(in Input) error {
	seenOrders := make(map[string]bool, len(in.Orders))
	for _, o := range in.Orders {
		if o.ID == "" {
			return fmt.Errorf("订单 ID 不能为空: %w", ErrInvalidInput)
		}
		if seenOrders[o.ID] {
			return fmt.Errorf("订单 %s: %w", o.ID, ErrDuplicateOrder)
		}
		seenOrders[o.ID] = true
	}

	seenMolds := make(map[string]bool, len(in.Molds))
	for _, m := range in.Molds {
		if m.ID == "" {
			return fmt.Errorf("模具 ID 不能为空: %w", ErrInvalidInput)
		}
		if seenMolds[m.ID] {
			return fmt.Errorf("模具 %s: %w", m.ID, ErrDuplicateMold)
		}
		seenMolds[m.ID] = true
		if m.DailyCapacity < 0 {
			return fmt.Errorf("模具 %s 日产能 %d: %w", m.ID, m.DailyCapacity, ErrNegativeCapacity)
		}
	}

	for _, emp := range in.Employees {
		if emp.UnitsPerHour < 0 || emp.HoursPerDay < 0 {
			return fmt.Errorf("员工 %s: %w", emp.ID, ErrNegativeCapacity)
		}
	}

	seenCaps := make(map[string]bool, len(e.cfg.CategoryCaps))
	for c, cp := range e.cfg.CategoryCaps {
		if cp.Max < 0 || cp.Min < 0 {
			return fmt.Errorf("品类 %s 上限: %w", c, ErrNegativeCapacity)
		}
		if seenCaps[categoryKey(c)] {
			return fmt.Errorf("品类上限 %s 仅大小写不同，重复配置: %w", c, ErrInvalidInput)
		}
		seenCaps[categoryKey(c)] = true
	}

	if in.StartDate.IsZero() {
		return fmt.Errorf("起始日期不能为空: %w", ErrInvalidInput)
	}
	return nil
}
