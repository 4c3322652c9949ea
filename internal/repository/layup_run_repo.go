package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"layup-scheduler/internal/model"
	pkgerrors "layup-scheduler/pkg/errors"
)

// LayupRunRepository 排产运行数据访问接口
type LayupRunRepository interface {
	Create(ctx context.Context, run *model.LayupRun) error
	GetByID(ctx context.Context, id string) (*model.LayupRun, error)
	Update(ctx context.Context, run *model.LayupRun) error
	ListPublishedAssignmentsFrom(ctx context.Context, from time.Time) ([]model.LayupAssignment, error)
}

type layupRunRepo struct {
	db *gorm.DB
}

func NewLayupRunRepo(db *gorm.DB) LayupRunRepository {
	return &layupRunRepo{db: db}
}

// Create 连同 Assignments / Unscheduled 关联一并写入
func (r *layupRunRepo) Create(ctx context.Context, run *model.LayupRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *layupRunRepo) GetByID(ctx context.Context, id string) (*model.LayupRun, error) {
	var run model.LayupRun
	err := r.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Unscheduled", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Update 乐观锁更新运行状态
func (r *layupRunRepo) Update(ctx context.Context, run *model.LayupRun) error {
	oldVersion := run.Version
	result := r.db.WithContext(ctx).
		Model(&model.LayupRun{}).
		Where("id = ? AND version = ?", run.RunID, oldVersion).
		Updates(map[string]interface{}{
			"status":       run.Status,
			"published_at": run.PublishedAt,
			"updated_at":   time.Now().UTC(),
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version = oldVersion + 1
	return nil
}

// ListPublishedAssignmentsFrom 已发布运行中 from 及之后的排产明细（用于预置产能）
func (r *layupRunRepo) ListPublishedAssignmentsFrom(ctx context.Context, from time.Time) ([]model.LayupAssignment, error) {
	var items []model.LayupAssignment
	err := r.db.WithContext(ctx).
		Joins("JOIN layup_runs ON layup_runs.id = layup_assignments.run_id").
		Where("layup_runs.status = ? AND layup_assignments.scheduled_date >= ?", model.RunStatusPublished, from).
		Order("layup_assignments.scheduled_date ASC, layup_assignments.seq ASC").
		Find(&items).Error
	return items, err
}
