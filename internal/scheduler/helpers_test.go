package scheduler

import "time"

// ── 测试辅助 ──

// date 构造 UTC 零点日期；2025-03-03 为周一
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt(n int) *int { return &n }

// monday 测试统一使用的起始周一
var monday = date(2025, time.March, 3)

// crew 全员日产能为 n 的员工表（单人 1 件/小时 × n 小时）
func crew(n int) []Employee {
	return []Employee{{ID: "emp-1", UnitsPerHour: 1, HoursPerDay: float64(n)}}
}

func order(id, category string, priority int) Order {
	return Order{
		ID:            id,
		OrderDate:     monday.AddDate(0, 0, -7),
		PriorityScore: ptrInt(priority),
		SourceTier:    TierStandard,
		CategoryID:    category,
	}
}

func mold(id string, capacity int, categories ...string) Mold {
	return Mold{ID: id, Enabled: true, DailyCapacity: capacity, CompatibleCategories: categories}
}
