package scheduler

import "time"

// ── 排产引擎领域类型 ──
//
// 本包是纯计算：不读时钟、不做 I/O、不持有跨调用的可变状态。
// 所有日期在进入引擎时归一为 UTC 零点（见 civilDate）。

// DefaultPriorityScore 未设置优先级时的默认值（最低优先）
const DefaultPriorityScore = 99

// SourceTier 订单来源层级
type SourceTier string

const (
	TierReservedPurchaseOrder SourceTier = "reserved-purchase-order"
	TierProductionOrder       SourceTier = "production-order"
	TierStandard              SourceTier = "standard"
)

// rank 层级排序值，越小越优先；未知层级按 standard 处理
func (t SourceTier) rank() int {
	switch t {
	case TierReservedPurchaseOrder:
		return 0
	case TierProductionOrder:
		return 1
	default:
		return 2
	}
}

// Order 待排产订单（只读输入，LOP 相关字段除外）
type Order struct {
	ID                        string
	OrderDate                 time.Time
	DueDate                   *time.Time
	PriorityScore             *int // nil → DefaultPriorityScore
	SourceTier                SourceTier
	CategoryID                string
	NeedsSecondaryAdjustment  bool
	PriorityChangedAt         *time.Time
	LastAdjustmentScheduledAt *time.Time

	// LOP 子调度器输出
	ScheduledAdjustmentDate *time.Time
	OverrideReason          AdjustmentReason
}

// Priority 返回有效优先级分值
func (o Order) Priority() int {
	if o.PriorityScore == nil {
		return DefaultPriorityScore
	}
	return *o.PriorityScore
}

// effectiveDueDate 交期缺失时回退到下单日期
func (o Order) effectiveDueDate() time.Time {
	if o.DueDate != nil {
		return *o.DueDate
	}
	return o.OrderDate
}

// Mold 模具（生产资源）
type Mold struct {
	ID                   string
	Enabled              bool
	DailyCapacity        int
	CompatibleCategories []string // 可能包含通用哨兵值；为空表示不兼容任何品类
}

// Employee 员工；引擎只使用全体员工日产能之和
type Employee struct {
	ID           string
	UnitsPerHour float64
	HoursPerDay  float64
}

// DailyCapacity 员工日产能 = 每小时件数 × 每日工时
func (e Employee) DailyCapacity() float64 {
	return e.UnitsPerHour * e.HoursPerDay
}

// Assignment 排产结果 (订单, 模具, 日期)
type Assignment struct {
	OrderID string
	MoldID  string
	Date    time.Time
}

// CalendarDay 可排产日
type CalendarDay struct {
	Date    time.Time
	Weekday time.Weekday
}

// UnscheduledReason 未排产原因
type UnscheduledReason string

const (
	ReasonNoEligibleDays   UnscheduledReason = "no_eligible_days"
	ReasonNoCompatibleMold UnscheduledReason = "no_compatible_mold"
	ReasonNoCapacity       UnscheduledReason = "no_capacity"
)

// Unscheduled 未排产订单及原因
type Unscheduled struct {
	OrderID string
	Reason  UnscheduledReason
}

// Result 一次排产运行的输出
type Result struct {
	Assignments  []Assignment
	Unscheduled  []Unscheduled
	Days         []CalendarDay
	HorizonWeeks int
	Warnings     []string
}

// UnscheduledOrderIDs 按排名顺序返回未排产订单 ID
func (r *Result) UnscheduledOrderIDs() []string {
	ids := make([]string, 0, len(r.Unscheduled))
	for _, u := range r.Unscheduled {
		ids = append(ids, u.OrderID)
	}
	return ids
}

// civilDate 归一为 UTC 零点，丢弃时分秒与时区
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayKey 日期键（用于 map 索引，避免 time.Time 的 Location 指针差异）
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
