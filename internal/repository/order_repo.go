package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"layup-scheduler/internal/model"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	ListPending(ctx context.Context) ([]model.Order, error)
	ListNeedingAdjustment(ctx context.Context) ([]model.Order, error)
	UpdateAdjustments(ctx context.Context, orders []model.Order) error
	MarkScheduled(ctx context.Context, ids []string) (int64, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

// ListPending 待排产订单，按 id 排序保证输入顺序稳定
func (r *orderRepo) ListPending(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OrderStatusPending).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListNeedingAdjustment(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("needs_secondary_adjustment = ?", true).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// UpdateAdjustments 回写 LOP 三个字段（单事务）
func (r *orderRepo) UpdateAdjustments(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range orders {
			o := &orders[i]
			err := tx.Model(&model.Order{}).
				Where("id = ?", o.OrderID).
				Updates(map[string]interface{}{
					"scheduled_adjustment_date":    o.ScheduledAdjustmentDate,
					"override_reason":              o.OverrideReason,
					"last_adjustment_scheduled_at": o.LastAdjustmentScheduledAt,
					"updated_at":                   time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkScheduled pending → scheduled，返回实际更新行数（已非 pending 的订单不计入）
func (r *orderRepo) MarkScheduled(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id IN ? AND status = ?", ids, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusScheduled,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
