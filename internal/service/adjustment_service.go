package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/model"
	"layup-scheduler/internal/repository"
	"layup-scheduler/internal/scheduler"
	"layup-scheduler/pkg/metrics"
)

// ErrInvalidDate 日期格式错误
var ErrInvalidDate = errors.New("日期格式错误，应为 YYYY-MM-DD")

// AdjustmentService LOP 二次调整业务接口
type AdjustmentService interface {
	// Run 对所有需二次调整的订单执行一次 LOP 评估并回写
	Run(ctx context.Context, req *dto.AdjustmentRequest) (*dto.AdjustmentResponse, error)
}

type adjustmentService struct {
	repo   *repository.Repository
	lop    *scheduler.LOPScheduler
	logger *zap.Logger
	now    func() time.Time
}

// NewAdjustmentService 创建 AdjustmentService 实例
func NewAdjustmentService(repo *repository.Repository, day time.Weekday, logger *zap.Logger) AdjustmentService {
	return &adjustmentService{
		repo:   repo,
		lop:    scheduler.NewLOPScheduler(day),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *adjustmentService) Run(ctx context.Context, req *dto.AdjustmentRequest) (*dto.AdjustmentResponse, error) {
	// today 为评估时刻；指定日期即当天时仍取当前时刻，否则取该日零点
	now := s.now()
	today := now
	if req != nil && req.Today != "" {
		t, err := parseDate(req.Today)
		if err != nil {
			return nil, ErrInvalidDate
		}
		if t.Format(dateLayout) != now.Format(dateLayout) {
			today = t
		}
	}

	orders, err := s.repo.Order.ListNeedingAdjustment(ctx)
	if err != nil {
		s.logger.Error("查询待调整订单失败", zap.Error(err))
		return nil, err
	}

	before := toEngineOrders(orders)
	after := s.lop.ScheduleAdjustments(before, today)

	// 只回写本次有变化的订单
	var changed []model.Order
	items := make([]dto.AdjustmentItem, 0, len(after))
	for i, o := range after {
		if adjustmentChanged(before[i], o) {
			m := orders[i]
			m.ScheduledAdjustmentDate = o.ScheduledAdjustmentDate
			m.LastAdjustmentScheduledAt = o.LastAdjustmentScheduledAt
			m.OverrideReason = string(o.OverrideReason)
			changed = append(changed, m)
			metrics.IncAdjustment(adjustmentKind(o.OverrideReason))
		}

		item := dto.AdjustmentItem{OrderID: o.ID, OverrideReason: string(o.OverrideReason)}
		if o.ScheduledAdjustmentDate != nil {
			item.ScheduledAdjustmentDate = o.ScheduledAdjustmentDate.Format(dateLayout)
		}
		items = append(items, item)
	}

	if err := s.repo.Order.UpdateAdjustments(ctx, changed); err != nil {
		s.logger.Error("回写 LOP 调整失败", zap.Int("orders", len(changed)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("LOP 调整完成",
		zap.String("today", today.Format(dateLayout)),
		zap.Int("evaluated", len(after)),
		zap.Int("updated", len(changed)),
	)

	return &dto.AdjustmentResponse{
		Today:     today.Format(dateLayout),
		Evaluated: len(after),
		Updated:   len(changed),
		Items:     items,
	}, nil
}

func adjustmentChanged(a, b scheduler.Order) bool {
	return a.OverrideReason != b.OverrideReason ||
		!sameTime(a.ScheduledAdjustmentDate, b.ScheduledAdjustmentDate) ||
		!sameTime(a.LastAdjustmentScheduledAt, b.LastAdjustmentScheduledAt)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// adjustmentKind 指标标签：scheduled / deferred / escalation
func adjustmentKind(r scheduler.AdjustmentReason) string {
	switch {
	case r == scheduler.ReasonPriorityEscalation:
		return "escalation"
	case strings.HasPrefix(string(r), "deferred"):
		return "deferred"
	default:
		return "scheduled"
	}
}
