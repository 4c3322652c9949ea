package scheduler

import "time"

// CategoryCap 品类日上限
//   - Max: 硬上限，当日该品类提交数不得超过
//   - Min: 软下限，仅在未达到时产生告警
type CategoryCap struct {
	Min int
	Max int
}

// Config 排产引擎配置（由 config 包的 scheduler 段转换而来）
type Config struct {
	Weekdays           []time.Weekday
	MinHorizonWeeks    int
	MaxHorizonWeeks    int
	UniversalCategory  string
	ReservedCategories []string
	CategoryCaps       map[string]CategoryCap
	Holidays           []time.Time // 停产日，不参与排产
	AdjustmentWeekday  time.Weekday
}

// DefaultConfig 默认配置：周一至周四排产，周五仅手工安排
func DefaultConfig() Config {
	return Config{
		Weekdays:           []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
		MinHorizonWeeks:    2,
		MaxHorizonWeeks:    8,
		UniversalCategory:  "universal",
		ReservedCategories: []string{"mesa"},
		CategoryCaps:       map[string]CategoryCap{},
		AdjustmentWeekday:  time.Monday,
	}
}
