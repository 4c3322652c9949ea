package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/model"
	"layup-scheduler/internal/repository"
	"layup-scheduler/internal/scheduler"
	pkgerrors "layup-scheduler/pkg/errors"
	applogger "layup-scheduler/pkg/logger"
	"layup-scheduler/pkg/metrics"
	"layup-scheduler/pkg/redis"
)

// ── 排产模块业务错误 ──

var (
	ErrRunNotFound          = errors.New("排产运行不存在")
	ErrRunNotDraft          = errors.New("排产运行非草稿状态，不可发布")
	ErrRunInProgress        = errors.New("已有正式排产正在执行，请稍后重试")
	ErrRunStale             = errors.New("排产运行中的订单已被其他运行排产，请重新排产")
	ErrNoMolds              = errors.New("模具注册表为空")
	ErrScenarioLimit        = errors.New("场景数量超出上限")
	ErrInvalidScheduleInput = errors.New("排产输入不合法")
)

// 运行模式（日志 / 指标标签）
const (
	modeRun      = "run"
	modeDryRun   = "dry"
	modeScenario = "scenario"
)

const runLockName = "layup-run"

// RunCache 排产结果缓存与互斥锁（由 pkg/redis.Client 实现）
type RunCache interface {
	CacheRun(ctx context.Context, runID string, payload []byte, ttl time.Duration) error
	GetRun(ctx context.Context, runID string) ([]byte, error)
	DeleteRun(ctx context.Context, runID string) error
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// LayupOptions 排产服务运行参数
type LayupOptions struct {
	RunTTL       time.Duration
	LockTTL      time.Duration
	MaxScenarios int
}

// LayupService 排产业务接口
type LayupService interface {
	// 正式排产：计算并保存为草稿
	Run(ctx context.Context, req *dto.LayupRunRequest) (*dto.LayupRunResponse, error)
	// 试算：只计算并缓存，不落库
	DryRun(ctx context.Context, req *dto.LayupRunRequest) (*dto.LayupRunResponse, error)
	// 多场景并发对比
	CompareScenarios(ctx context.Context, req *dto.CompareScenariosRequest) (*dto.CompareScenariosResponse, error)
	// 查询运行结果（缓存优先）
	GetRun(ctx context.Context, runID string) (*dto.LayupRunResponse, error)
	// 发布草稿运行，订单转为已排产
	Publish(ctx context.Context, runID string, req *dto.PublishRunRequest) (*dto.LayupRunResponse, error)
}

type layupService struct {
	repo   *repository.Repository
	engine *scheduler.Engine
	cfg    scheduler.Config
	cache  RunCache
	opts   LayupOptions
	logger *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewLayupService 创建 LayupService 实例；cache 为 nil 时降级为无缓存、无锁运行
func NewLayupService(repo *repository.Repository, cfg scheduler.Config, cache RunCache, opts LayupOptions, logger *zap.Logger) LayupService {
	if opts.MaxScenarios <= 0 {
		opts.MaxScenarios = 8
	}
	return &layupService{
		repo:   repo,
		engine: scheduler.NewEngine(cfg),
		cfg:    cfg,
		cache:  cache,
		opts:   opts,
		logger: logger,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ════════════════════════════════════════════════════════════
// Run：正式排产
// ════════════════════════════════════════════════════════════

func (s *layupService) Run(ctx context.Context, req *dto.LayupRunRequest) (*dto.LayupRunResponse, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", ErrInvalidScheduleInput)
	}

	// 正式排产互斥：同一时间只允许一个运行读取待排产订单
	if s.cache != nil {
		release, err := s.cache.AcquireLock(ctx, runLockName, s.opts.LockTTL)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrResourceBusy) {
				return nil, ErrRunInProgress
			}
			s.logger.Error("获取排产锁失败", zap.Error(err))
			return nil, err
		}
		defer func() { _ = release(context.WithoutCancel(ctx)) }()
	}

	snap, err := s.loadSnapshot(ctx, start)
	if err != nil {
		return nil, err
	}

	run, err := s.compute(modeRun, snap, start, toWeekdays(req.Weekdays))
	if err != nil {
		return nil, err
	}

	if err := s.repo.LayupRun.Create(ctx, run); err != nil {
		s.logger.Error("保存排产运行失败", zap.String("run_id", run.RunID), zap.Error(err))
		return nil, err
	}

	resp := toRunResponse(run)
	s.cacheRun(ctx, resp)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// DryRun：试算
// ════════════════════════════════════════════════════════════

func (s *layupService) DryRun(ctx context.Context, req *dto.LayupRunRequest) (*dto.LayupRunResponse, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", ErrInvalidScheduleInput)
	}

	snap, err := s.loadSnapshot(ctx, start)
	if err != nil {
		return nil, err
	}

	run, err := s.compute(modeDryRun, snap, start, toWeekdays(req.Weekdays))
	if err != nil {
		return nil, err
	}

	resp := toRunResponse(run)
	s.cacheRun(ctx, resp)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// CompareScenarios：多场景并发试算
// ════════════════════════════════════════════════════════════
//
// 所有场景共享同一份只读快照；每个场景独立调用引擎（各自的产能账本）。
// 任一场景失败则整体失败，结果顺序与请求一致。

func (s *layupService) CompareScenarios(ctx context.Context, req *dto.CompareScenariosRequest) (*dto.CompareScenariosResponse, error) {
	if len(req.Scenarios) > s.opts.MaxScenarios {
		return nil, fmt.Errorf("%w: %d > %d", ErrScenarioLimit, len(req.Scenarios), s.opts.MaxScenarios)
	}

	defaultStart, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", ErrInvalidScheduleInput)
	}

	starts := make([]time.Time, len(req.Scenarios))
	earliest := defaultStart
	for i, sc := range req.Scenarios {
		starts[i] = defaultStart
		if sc.StartDate != "" {
			if starts[i], err = parseDate(sc.StartDate); err != nil {
				return nil, fmt.Errorf("%w: 场景 %s start_date", ErrInvalidScheduleInput, sc.Name)
			}
		}
		if starts[i].Before(earliest) {
			earliest = starts[i]
		}
	}

	snap, err := s.loadSnapshot(ctx, earliest)
	if err != nil {
		return nil, err
	}

	results := make([]dto.ScenarioResult, len(req.Scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxScenarios)

	for i, sc := range req.Scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := s.compute(modeScenario, snap, starts[i], toWeekdays(sc.Weekdays))
			if err != nil {
				return fmt.Errorf("场景 %s: %w", sc.Name, err)
			}
			resp := toRunResponse(run)
			s.cacheRun(gctx, resp)

			results[i] = dto.ScenarioResult{
				Name:             sc.Name,
				ScheduledCount:   resp.ScheduledCount,
				UnscheduledCount: resp.UnscheduledCount,
				LastDate:         lastDate(run),
				Run:              resp,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.CompareScenariosResponse{Scenarios: results}, nil
}

// ════════════════════════════════════════════════════════════
// GetRun / Publish
// ════════════════════════════════════════════════════════════

func (s *layupService) GetRun(ctx context.Context, runID string) (*dto.LayupRunResponse, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, ErrRunNotFound
	}

	if s.cache != nil {
		b, err := s.cache.GetRun(ctx, runID)
		switch {
		case err == nil:
			var resp dto.LayupRunResponse
			if err := json.Unmarshal(b, &resp); err == nil {
				return &resp, nil
			}
			s.logger.Warn("缓存内容损坏，回源数据库", zap.String("run_id", runID))
		case !errors.Is(err, redis.ErrCacheMiss):
			s.logger.Warn("读取排产缓存失败", zap.String("run_id", runID), zap.Error(err))
		}
	}

	run, err := s.repo.LayupRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询排产运行失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}

	resp := toRunResponse(run)
	s.cacheRun(ctx, resp)
	return resp, nil
}

func (s *layupService) Publish(ctx context.Context, runID string, req *dto.PublishRunRequest) (*dto.LayupRunResponse, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, ErrRunNotFound
	}

	run, err := s.repo.LayupRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询排产运行失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	if run.Status != model.RunStatusDraft {
		return nil, ErrRunNotDraft
	}
	if run.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	now := s.now()
	run.Status = model.RunStatusPublished
	run.PublishedAt = &now

	orderIDs := make([]string, 0, len(run.Assignments))
	for _, a := range run.Assignments {
		orderIDs = append(orderIDs, a.OrderID)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	// 订单须全部仍为 pending，否则说明已被另一运行发布，整体回滚
	marked, err := txRepo.Order.MarkScheduled(ctx, orderIDs)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新订单状态失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	if marked != int64(len(orderIDs)) {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Warn("排产运行已过期，拒绝发布",
			zap.String("run_id", runID),
			zap.Int("orders", len(orderIDs)),
			zap.Int64("pending", marked),
		)
		return nil, ErrRunStale
	}
	if err := txRepo.LayupRun.Update(ctx, run); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("发布排产运行失败", zap.String("run_id", runID), zap.Error(err))
		}
		return nil, err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.DeleteRun(ctx, runID); err != nil {
			s.logger.Warn("清除排产缓存失败", zap.String("run_id", runID), zap.Error(err))
		}
	}

	s.logger.Info("排产运行已发布", zap.String("run_id", runID), zap.Int("orders", len(orderIDs)))
	return toRunResponse(run), nil
}

// ── 内部流程 ──

// snapshot 一次运行的只读输入快照
type snapshot struct {
	orders     []scheduler.Order
	molds      []scheduler.Mold
	employees  []scheduler.Employee
	prior      []scheduler.Commitment
	categories map[string]string // orderID → categoryID
}

func (s *layupService) loadSnapshot(ctx context.Context, start time.Time) (*snapshot, error) {
	orders, err := s.repo.Order.ListPending(ctx)
	if err != nil {
		s.logger.Error("查询待排产订单失败", zap.Error(err))
		return nil, err
	}
	molds, err := s.repo.Mold.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询模具失败", zap.Error(err))
		return nil, err
	}
	if len(molds) == 0 {
		return nil, ErrNoMolds
	}
	employees, err := s.repo.Employee.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	prior, err := s.repo.LayupRun.ListPublishedAssignmentsFrom(ctx, start)
	if err != nil {
		s.logger.Error("查询已发布排产失败", zap.Error(err))
		return nil, err
	}

	categories := make(map[string]string, len(orders))
	for _, o := range orders {
		categories[o.OrderID] = o.CategoryID
	}

	return &snapshot{
		orders:     toEngineOrders(orders),
		molds:      toEngineMolds(molds),
		employees:  toEngineEmployees(employees),
		prior:      toCommitments(prior),
		categories: categories,
	}, nil
}

// compute 调用引擎并组装运行记录；weekdays 为 nil 时使用配置
func (s *layupService) compute(mode string, snap *snapshot, start time.Time, weekdays []time.Weekday) (*model.LayupRun, error) {
	if weekdays == nil {
		weekdays = s.cfg.Weekdays
	}
	runID := s.newID()
	log := applogger.ForRun(s.logger, runID, mode)

	began := time.Now()
	res, err := s.engine.Schedule(scheduler.Input{
		Orders:    snap.orders,
		Molds:     snap.molds,
		Employees: snap.employees,
		StartDate: start,
		Weekdays:  weekdays,
		Prior:     snap.prior,
	})
	elapsed := time.Since(began)
	if err != nil {
		metrics.ObserveRun(mode, "invalid", elapsed)
		log.Warn("排产输入不合法", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidScheduleInput, err)
	}

	metrics.ObserveRun(mode, "ok", elapsed)
	metrics.AddScheduled(mode, len(res.Assignments))
	byReason := make(map[scheduler.UnscheduledReason]int)
	for _, u := range res.Unscheduled {
		byReason[u.Reason]++
	}
	for reason, n := range byReason {
		metrics.AddUnscheduled(mode, string(reason), n)
	}

	log.Info("排产完成",
		zap.Int("orders", len(snap.orders)),
		zap.Int("scheduled", len(res.Assignments)),
		zap.Int("unscheduled", len(res.Unscheduled)),
		zap.Int("horizon_weeks", res.HorizonWeeks),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", elapsed),
	)

	status := model.RunStatusDryRun
	if mode == modeRun {
		status = model.RunStatusDraft
	}
	run := buildRunModel(runID, status, start, weekdays, res, snap.categories, s.newID)
	run.CreatedAt = s.now()
	run.UpdatedAt = run.CreatedAt
	return run, nil
}

// cacheRun 缓存失败只记录告警，不影响主流程
func (s *layupService) cacheRun(ctx context.Context, resp *dto.LayupRunResponse) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("序列化排产结果失败", zap.String("run_id", resp.RunID), zap.Error(err))
		return
	}
	if err := s.cache.CacheRun(ctx, resp.RunID, b, s.opts.RunTTL); err != nil {
		s.logger.Warn("写入排产缓存失败", zap.String("run_id", resp.RunID), zap.Error(err))
	}
}

func lastDate(run *model.LayupRun) string {
	var last time.Time
	for _, a := range run.Assignments {
		if a.ScheduledDate.After(last) {
			last = a.ScheduledDate
		}
	}
	if last.IsZero() {
		return ""
	}
	return last.Format(dateLayout)
}
