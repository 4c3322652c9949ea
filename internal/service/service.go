package service

import (
	"go.uber.org/zap"

	"layup-scheduler/config"
	"layup-scheduler/internal/repository"
	"layup-scheduler/internal/scheduler"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Layup      LayupService
	Adjustment AdjustmentService
	Export     ExportService
}

// NewService 创建 Service 聚合；cache 为 nil 时排产结果不缓存、正式排产不加锁
func NewService(
	cfg *config.Config,
	engineCfg scheduler.Config,
	repo *repository.Repository,
	cache RunCache,
	logger *zap.Logger,
) *Service {
	layup := NewLayupService(repo, engineCfg, cache, LayupOptions{
		RunTTL:       cfg.Redis.RunTTL,
		LockTTL:      cfg.Redis.LockTTL,
		MaxScenarios: cfg.Scheduler.MaxScenarios,
	}, logger)

	return &Service{
		Layup:      layup,
		Adjustment: NewAdjustmentService(repo, engineCfg.AdjustmentWeekday, logger),
		Export:     NewExportService(layup, logger),
	}
}
