//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"layup-scheduler/internal/model"
	"layup-scheduler/internal/repository"
	pkgerrors "layup-scheduler/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=layup password=layup_password dbname=layup_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Order{},
		&model.Mold{},
		&model.Employee{},
		&model.LayupRun{},
		&model.LayupAssignment{},
		&model.LayupUnscheduled{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func uniq(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func newRun(orderID string, status string) *model.LayupRun {
	runID := uuid.NewString()
	return &model.LayupRun{
		RunID:        runID,
		Status:       status,
		StartDate:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		HorizonWeeks: 2,
		Weekdays:     model.IntArray{1, 2, 3, 4},
		Warnings:     []string{},
		Version:      1,
		Assignments: []model.LayupAssignment{{
			AssignmentID:  uuid.NewString(),
			OrderID:       orderID,
			MoldID:        "M1",
			CategoryID:    "X",
			ScheduledDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		}},
		Unscheduled: []model.LayupUnscheduled{{
			UnscheduledID: uuid.NewString(),
			OrderID:       uniq("late"),
			Reason:        "no_capacity",
		}},
	}
}

func cleanupRun(runID string) {
	testDB.Where("run_id = ?", runID).Delete(&model.LayupAssignment{})
	testDB.Where("run_id = ?", runID).Delete(&model.LayupUnscheduled{})
	testDB.Where("id = ?", runID).Delete(&model.LayupRun{})
}

// ═══════════════════════════════════════════════════════════
// Test: Orders
// ═══════════════════════════════════════════════════════════

func TestOrderRepo_PendingAndAdjustments(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	o := &model.Order{
		OrderID:                  uniq("ord"),
		OrderDate:                time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SourceTier:               "standard",
		CategoryID:               "X",
		Status:                   model.OrderStatusPending,
		NeedsSecondaryAdjustment: true,
	}
	if err := testDB.Create(o).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}
	defer testDB.Unscoped().Where("id = ?", o.OrderID).Delete(&model.Order{})

	pending, err := repo.Order.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending 失败: %v", err)
	}
	if !containsOrder(pending, o.OrderID) {
		t.Fatal("待排产列表应包含新订单")
	}

	adj := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	o.ScheduledAdjustmentDate = &adj
	o.LastAdjustmentScheduledAt = &now
	o.OverrideReason = "deferred for Monday"
	if err := repo.Order.UpdateAdjustments(ctx, []model.Order{*o}); err != nil {
		t.Fatalf("UpdateAdjustments 失败: %v", err)
	}

	needing, err := repo.Order.ListNeedingAdjustment(ctx)
	if err != nil {
		t.Fatalf("ListNeedingAdjustment 失败: %v", err)
	}
	for _, n := range needing {
		if n.OrderID == o.OrderID && n.OverrideReason != "deferred for Monday" {
			t.Errorf("回写原因不一致: %q", n.OverrideReason)
		}
	}

	n, err := repo.Order.MarkScheduled(ctx, []string{o.OrderID})
	if err != nil {
		t.Fatalf("MarkScheduled 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望更新 1 行，实际: %d", n)
	}
	pending, _ = repo.Order.ListPending(ctx)
	if containsOrder(pending, o.OrderID) {
		t.Error("标记已排产后不应再出现在待排产列表")
	}

	// 已排产订单再次标记不计入
	n, err = repo.Order.MarkScheduled(ctx, []string{o.OrderID})
	if err != nil || n != 0 {
		t.Errorf("重复标记期望 0 行，实际: %d, err=%v", n, err)
	}
}

func containsOrder(orders []model.Order, id string) bool {
	for _, o := range orders {
		if o.OrderID == id {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════
// Test: Runs
// ═══════════════════════════════════════════════════════════

func TestLayupRunRepo_CreateWithAssociations(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	run := newRun(uniq("ord"), model.RunStatusDraft)
	if err := repo.LayupRun.Create(ctx, run); err != nil {
		t.Fatalf("创建运行失败: %v", err)
	}
	defer cleanupRun(run.RunID)

	found, err := repo.LayupRun.GetByID(ctx, run.RunID)
	if err != nil {
		t.Fatalf("查询运行失败: %v", err)
	}
	if len(found.Assignments) != 1 || len(found.Unscheduled) != 1 {
		t.Errorf("关联数量不一致: %d/%d", len(found.Assignments), len(found.Unscheduled))
	}
	if len(found.Weekdays) != 4 {
		t.Errorf("weekdays 读写不一致: %v", found.Weekdays)
	}
}

func TestTransaction_Rollback(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	run := newRun(uniq("ord"), model.RunStatusDraft)
	if err := txRepo.LayupRun.Create(ctx, run); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建运行失败: %v", err)
	}
	tx.Rollback()

	if _, err := repo.LayupRun.GetByID(ctx, run.RunID); err == nil {
		cleanupRun(run.RunID)
		t.Fatal("期望回滚后查不到运行，但实际查到了")
	}
}

func TestOptimisticLock_LayupRun_ConflictDetected(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	run := newRun(uniq("ord"), model.RunStatusDraft)
	if err := repo.LayupRun.Create(ctx, run); err != nil {
		t.Fatalf("创建运行失败: %v", err)
	}
	defer cleanupRun(run.RunID)

	copy1, _ := repo.LayupRun.GetByID(ctx, run.RunID)
	copy2, _ := repo.LayupRun.GetByID(ctx, run.RunID)

	now := time.Now()
	copy1.Status = model.RunStatusPublished
	copy1.PublishedAt = &now
	if err := repo.LayupRun.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.Status = model.RunStatusPublished
	if err := repo.LayupRun.Update(ctx, copy2); err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestLayupRunRepo_PublishedAssignmentsOnly(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	draft := newRun(uniq("draft"), model.RunStatusDraft)
	published := newRun(uniq("pub"), model.RunStatusPublished)
	for _, r := range []*model.LayupRun{draft, published} {
		if err := repo.LayupRun.Create(ctx, r); err != nil {
			t.Fatalf("创建运行失败: %v", err)
		}
		defer cleanupRun(r.RunID)
	}

	items, err := repo.LayupRun.ListPublishedAssignmentsFrom(ctx, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	var sawPublished bool
	for _, it := range items {
		if it.RunID == draft.RunID {
			t.Error("草稿运行的明细不应计入")
		}
		if it.RunID == published.RunID {
			sawPublished = true
		}
	}
	if !sawPublished {
		t.Error("应包含已发布运行的明细")
	}
}
