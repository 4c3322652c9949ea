package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/model"
)

func setupTestAdjustmentService(f *fixture) AdjustmentService {
	return NewAdjustmentService(f.repo, time.Monday, zap.NewNop())
}

func lopOrder(id string) model.Order {
	o := testOrder(id, "X")
	o.NeedsSecondaryAdjustment = true
	return o
}

func TestAdjustmentService_Run_DeferredToMonday(t *testing.T) {
	f := newFixture()
	f.orders.add(lopOrder("L1"))
	f.orders.add(testOrder("N1", "X"))
	svc := setupTestAdjustmentService(f)

	resp, err := svc.Run(context.Background(), &dto.AdjustmentRequest{Today: "2025-03-05"})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if resp.Evaluated != 1 || resp.Updated != 1 {
		t.Errorf("期望评估 1 更新 1，实际: %d/%d", resp.Evaluated, resp.Updated)
	}
	item := resp.Items[0]
	if item.ScheduledAdjustmentDate != "2025-03-10" || item.OverrideReason != "deferred for Monday" {
		t.Errorf("周三应顺延到下周一，实际: %+v", item)
	}

	stored := f.orders.orders["L1"]
	if stored.ScheduledAdjustmentDate == nil || stored.OverrideReason != "deferred for Monday" {
		t.Error("调整结果应回写到订单")
	}
	if f.orders.orders["N1"].ScheduledAdjustmentDate != nil {
		t.Error("无需调整的订单不应被修改")
	}
}

func TestAdjustmentService_Run_MondayScheduledToday(t *testing.T) {
	f := newFixture()
	f.orders.add(lopOrder("L1"))
	svc := setupTestAdjustmentService(f)

	resp, err := svc.Run(context.Background(), &dto.AdjustmentRequest{Today: "2025-03-10"})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if item := resp.Items[0]; item.ScheduledAdjustmentDate != "2025-03-10" || item.OverrideReason != "scheduled for Monday" {
		t.Errorf("周一应当天安排，实际: %+v", item)
	}
}

func TestAdjustmentService_Run_Escalation(t *testing.T) {
	f := newFixture()
	o := lopOrder("L1")
	changed := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)
	o.PriorityChangedAt = &changed
	f.orders.add(o)
	svc := setupTestAdjustmentService(f)

	resp, err := svc.Run(context.Background(), &dto.AdjustmentRequest{Today: "2025-03-05"})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if item := resp.Items[0]; item.ScheduledAdjustmentDate != "2025-03-05" || item.OverrideReason != "priority escalation" {
		t.Errorf("优先级提升应当天安排，实际: %+v", item)
	}
}

func TestAdjustmentService_Run_SameDayIdempotent(t *testing.T) {
	f := newFixture()
	f.orders.add(lopOrder("L1"))
	svc := setupTestAdjustmentService(f)
	ctx := context.Background()
	req := &dto.AdjustmentRequest{Today: "2025-03-05"}

	if _, err := svc.Run(ctx, req); err != nil {
		t.Fatalf("首次 Run 应成功: %v", err)
	}
	resp, err := svc.Run(ctx, req)
	if err != nil {
		t.Fatalf("再次 Run 应成功: %v", err)
	}
	if resp.Updated != 0 {
		t.Errorf("同日重复执行不应产生更新，实际: %d", resp.Updated)
	}
	if f.orders.updates != 1 {
		t.Errorf("期望累计回写 1 次，实际: %d", f.orders.updates)
	}
}

func TestAdjustmentService_Run_DefaultsToNow(t *testing.T) {
	f := newFixture()
	f.orders.add(lopOrder("L1"))
	svc := NewAdjustmentService(f.repo, time.Monday, zap.NewNop()).(*adjustmentService)
	svc.now = func() time.Time { return time.Date(2025, 3, 6, 9, 30, 0, 0, time.UTC) }

	resp, err := svc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if resp.Today != "2025-03-06" {
		t.Errorf("期望使用当前日期，实际: %s", resp.Today)
	}
}

func TestAdjustmentService_Run_EscalationHandledOnce(t *testing.T) {
	f := newFixture()
	o := lopOrder("L1")
	changed := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	o.PriorityChangedAt = &changed
	f.orders.add(o)
	svc := NewAdjustmentService(f.repo, time.Monday, zap.NewNop()).(*adjustmentService)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) }
	resp, err := svc.Run(ctx, &dto.AdjustmentRequest{Today: "2025-03-05"})
	if err != nil {
		t.Fatalf("周三 Run 应成功: %v", err)
	}
	if item := resp.Items[0]; item.OverrideReason != "priority escalation" {
		t.Fatalf("周三应按优先级提升当天安排，实际: %+v", item)
	}
	if last := f.orders.orders["L1"].LastAdjustmentScheduledAt; last == nil || last.Hour() != 12 {
		t.Errorf("回写的评估时刻应为 12:00，实际: %v", last)
	}

	svc.now = func() time.Time { return time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC) }
	resp, err = svc.Run(ctx, nil)
	if err != nil {
		t.Fatalf("周四 Run 应成功: %v", err)
	}
	if item := resp.Items[0]; item.ScheduledAdjustmentDate != "2025-03-10" || item.OverrideReason != "deferred for Monday" {
		t.Errorf("已处理的提升次日应顺延到周一，实际: %+v", item)
	}
}

func TestAdjustmentService_Run_InvalidDate(t *testing.T) {
	svc := setupTestAdjustmentService(newFixture())

	_, err := svc.Run(context.Background(), &dto.AdjustmentRequest{Today: "2025/03/05"})
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}
