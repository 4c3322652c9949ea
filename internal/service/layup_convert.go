package service

import (
	"time"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/model"
	"layup-scheduler/internal/scheduler"
)

// ── model ⇄ 引擎类型 ⇄ DTO 转换 ──

const dateLayout = "2006-01-02"

func toEngineOrder(o model.Order) scheduler.Order {
	return scheduler.Order{
		ID:                        o.OrderID,
		OrderDate:                 o.OrderDate,
		DueDate:                   o.DueDate,
		PriorityScore:             o.PriorityScore,
		SourceTier:                scheduler.SourceTier(o.SourceTier),
		CategoryID:                o.CategoryID,
		NeedsSecondaryAdjustment:  o.NeedsSecondaryAdjustment,
		PriorityChangedAt:         o.PriorityChangedAt,
		LastAdjustmentScheduledAt: o.LastAdjustmentScheduledAt,
		ScheduledAdjustmentDate:   o.ScheduledAdjustmentDate,
		OverrideReason:            scheduler.AdjustmentReason(o.OverrideReason),
	}
}

func toEngineOrders(orders []model.Order) []scheduler.Order {
	out := make([]scheduler.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toEngineOrder(o))
	}
	return out
}

func toEngineMolds(molds []model.Mold) []scheduler.Mold {
	out := make([]scheduler.Mold, 0, len(molds))
	for _, m := range molds {
		out = append(out, scheduler.Mold{
			ID:                   m.MoldID,
			Enabled:              m.Enabled,
			DailyCapacity:        m.DailyCapacity,
			CompatibleCategories: m.CompatibleCategories,
		})
	}
	return out
}

func toEngineEmployees(employees []model.Employee) []scheduler.Employee {
	out := make([]scheduler.Employee, 0, len(employees))
	for _, e := range employees {
		out = append(out, scheduler.Employee{
			ID:           e.EmployeeID,
			UnitsPerHour: e.UnitsPerHour,
			HoursPerDay:  e.HoursPerDay,
		})
	}
	return out
}

func toCommitments(items []model.LayupAssignment) []scheduler.Commitment {
	out := make([]scheduler.Commitment, 0, len(items))
	for _, it := range items {
		out = append(out, scheduler.Commitment{
			Assignment: scheduler.Assignment{OrderID: it.OrderID, MoldID: it.MoldID, Date: it.ScheduledDate},
			CategoryID: it.CategoryID,
		})
	}
	return out
}

// toWeekdays nil 保持为 nil（表示使用配置），空切片保持为空切片
func toWeekdays(days []int) []time.Weekday {
	if days == nil {
		return nil
	}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func fromWeekdays(days []time.Weekday) model.IntArray {
	out := make(model.IntArray, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}

// buildRunModel 将引擎结果组装为待持久化 / 缓存的运行记录
func buildRunModel(runID, status string, start time.Time, weekdays []time.Weekday, res *scheduler.Result, categories map[string]string, newID func() string) *model.LayupRun {
	days := make([]string, 0, len(res.Days))
	for _, d := range res.Days {
		days = append(days, d.Date.Format(dateLayout))
	}

	run := &model.LayupRun{
		RunID:            runID,
		Status:           status,
		StartDate:        start,
		HorizonWeeks:     res.HorizonWeeks,
		Weekdays:         fromWeekdays(weekdays),
		Days:             days,
		ScheduledCount:   len(res.Assignments),
		UnscheduledCount: len(res.Unscheduled),
		Warnings:         res.Warnings,
		Version:          1,
		Assignments:      make([]model.LayupAssignment, 0, len(res.Assignments)),
		Unscheduled:      make([]model.LayupUnscheduled, 0, len(res.Unscheduled)),
	}

	for i, a := range res.Assignments {
		run.Assignments = append(run.Assignments, model.LayupAssignment{
			AssignmentID:  newID(),
			RunID:         runID,
			OrderID:       a.OrderID,
			MoldID:        a.MoldID,
			CategoryID:    categories[a.OrderID],
			ScheduledDate: a.Date,
			Seq:           i,
		})
	}
	for i, u := range res.Unscheduled {
		run.Unscheduled = append(run.Unscheduled, model.LayupUnscheduled{
			UnscheduledID: newID(),
			RunID:         runID,
			OrderID:       u.OrderID,
			Reason:        string(u.Reason),
			Seq:           i,
		})
	}
	return run
}

func toRunResponse(run *model.LayupRun) *dto.LayupRunResponse {
	resp := &dto.LayupRunResponse{
		RunID:            run.RunID,
		Status:           run.Status,
		StartDate:        run.StartDate.Format(dateLayout),
		HorizonWeeks:     run.HorizonWeeks,
		Weekdays:         []int(run.Weekdays),
		Days:             run.Days,
		Assignments:      make([]dto.AssignmentItem, 0, len(run.Assignments)),
		Unscheduled:      make([]dto.UnscheduledItem, 0, len(run.Unscheduled)),
		Warnings:         run.Warnings,
		ScheduledCount:   run.ScheduledCount,
		UnscheduledCount: run.UnscheduledCount,
		Version:          run.Version,
		CreatedAt:        run.CreatedAt.Format(time.RFC3339),
	}
	if resp.Weekdays == nil {
		resp.Weekdays = []int{}
	}
	if resp.Days == nil {
		resp.Days = []string{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if run.PublishedAt != nil {
		p := run.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &p
	}
	for _, a := range run.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentItem{
			OrderID:    a.OrderID,
			MoldID:     a.MoldID,
			CategoryID: a.CategoryID,
			Date:       a.ScheduledDate.Format(dateLayout),
		})
	}
	for _, u := range run.Unscheduled {
		resp.Unscheduled = append(resp.Unscheduled, dto.UnscheduledItem{OrderID: u.OrderID, Reason: u.Reason})
	}
	return resp
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
