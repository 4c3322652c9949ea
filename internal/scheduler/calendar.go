package scheduler

import (
	"math"
	"time"
)

// WorkCalendar 工作日历：按周工作日集合与动态周期枚举可排产日
type WorkCalendar struct {
	weekdays map[time.Weekday]bool
	minWeeks int
	maxWeeks int
	holidays map[string]bool
}

// NewWorkCalendar 创建工作日历
// weekdays 为空时不产生任何可排产日
func NewWorkCalendar(weekdays []time.Weekday, minWeeks, maxWeeks int, holidays []time.Time) *WorkCalendar {
	wd := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		wd[d] = true
	}
	hd := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		hd[dayKey(civilDate(h))] = true
	}
	if minWeeks < 1 {
		minWeeks = 1
	}
	if maxWeeks < minWeeks {
		maxWeeks = minWeeks
	}
	return &WorkCalendar{weekdays: wd, minWeeks: minWeeks, maxWeeks: maxWeeks, holidays: hd}
}

// HorizonWeeks 排产周期（周）= clamp(ceil((最晚交期 − 起始日) / 7天), min, max)
func (c *WorkCalendar) HorizonWeeks(start time.Time, orders []Order) int {
	start = civilDate(start)

	var latest time.Time
	found := false
	for _, o := range orders {
		if o.DueDate == nil {
			continue
		}
		d := civilDate(*o.DueDate)
		if !found || d.After(latest) {
			latest, found = d, true
		}
	}
	if !found {
		return c.minWeeks
	}

	days := latest.Sub(start).Hours() / 24
	weeks := int(math.Ceil(days / 7))
	if weeks < c.minWeeks {
		return c.minWeeks
	}
	if weeks > c.maxWeeks {
		return c.maxWeeks
	}
	return weeks
}

// EligibleDays 返回 [start, start+周期] 内属于工作日集合且非停产日的日期（严格递增）
func (c *WorkCalendar) EligibleDays(start time.Time, orders []Order) ([]CalendarDay, int) {
	weeks := c.HorizonWeeks(start, orders)
	if len(c.weekdays) == 0 {
		return []CalendarDay{}, weeks
	}

	start = civilDate(start)
	end := start.AddDate(0, 0, weeks*7)

	days := make([]CalendarDay, 0, weeks*len(c.weekdays)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !c.weekdays[d.Weekday()] || c.holidays[dayKey(d)] {
			continue
		}
		days = append(days, CalendarDay{Date: d, Weekday: d.Weekday()})
	}
	return days, weeks
}

