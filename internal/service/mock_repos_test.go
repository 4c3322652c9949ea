package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"layup-scheduler/internal/model"
	"layup-scheduler/internal/repository"
	pkgerrors "layup-scheduler/pkg/errors"
	"layup-scheduler/pkg/redis"
)

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	orders  map[string]*model.Order
	ids     []string // 插入顺序
	updates int      // UpdateAdjustments 调用中实际回写的订单数
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*model.Order)}
}

func (m *mockOrderRepo) add(o model.Order) {
	if o.Status == "" {
		o.Status = model.OrderStatusPending
	}
	m.orders[o.OrderID] = &o
	m.ids = append(m.ids, o.OrderID)
}

func (m *mockOrderRepo) ListPending(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, id := range m.ids {
		if o := m.orders[id]; o.Status == model.OrderStatusPending {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListNeedingAdjustment(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, id := range m.ids {
		if o := m.orders[id]; o.NeedsSecondaryAdjustment {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateAdjustments(_ context.Context, orders []model.Order) error {
	for _, o := range orders {
		cp := o
		m.orders[o.OrderID] = &cp
	}
	m.updates += len(orders)
	return nil
}

func (m *mockOrderRepo) MarkScheduled(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := m.orders[id]; ok && o.Status == model.OrderStatusPending {
			o.Status = model.OrderStatusScheduled
			n++
		}
	}
	return n, nil
}

// ── Mock MoldRepository ──

type mockMoldRepo struct {
	molds []model.Mold
}

func (m *mockMoldRepo) ListAll(_ context.Context) ([]model.Mold, error) {
	return m.molds, nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees []model.Employee
}

func (m *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	return m.employees, nil
}

// ── Mock LayupRunRepository ──

type mockLayupRunRepo struct {
	runs map[string]*model.LayupRun
}

func newMockLayupRunRepo() *mockLayupRunRepo {
	return &mockLayupRunRepo{runs: make(map[string]*model.LayupRun)}
}

func (m *mockLayupRunRepo) Create(_ context.Context, run *model.LayupRun) error {
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockLayupRunRepo) GetByID(_ context.Context, id string) (*model.LayupRun, error) {
	if r, ok := m.runs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLayupRunRepo) Update(_ context.Context, run *model.LayupRun) error {
	stored, ok := m.runs[run.RunID]
	if !ok || stored.Version != run.Version {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version++
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockLayupRunRepo) ListPublishedAssignmentsFrom(_ context.Context, from time.Time) ([]model.LayupAssignment, error) {
	var out []model.LayupAssignment
	for _, r := range m.runs {
		if r.Status != model.RunStatusPublished {
			continue
		}
		for _, a := range r.Assignments {
			if !a.ScheduledDate.Before(from) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// ── Mock RunCache ──

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	locked  bool
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) CacheRun(_ context.Context, runID string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[runID] = payload
	return nil
}

func (m *mockCache) GetRun(_ context.Context, runID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.data[runID]; ok {
		return b, nil
	}
	return nil, redis.ErrCacheMiss
}

func (m *mockCache) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, runID)
	m.deleted = append(m.deleted, runID)
	return nil
}

func (m *mockCache) AcquireLock(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return nil, pkgerrors.ErrResourceBusy
	}
	m.locked = true
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.locked = false
		return nil
	}, nil
}

func (m *mockCache) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// ── 测试夹具 ──

type fixture struct {
	repo      *repository.Repository
	orders    *mockOrderRepo
	molds     *mockMoldRepo
	employees *mockEmployeeRepo
	runs      *mockLayupRunRepo
	cache     *mockCache
}

func newFixture() *fixture {
	f := &fixture{
		orders:    newMockOrderRepo(),
		molds:     &mockMoldRepo{},
		employees: &mockEmployeeRepo{employees: []model.Employee{{EmployeeID: "E1", UnitsPerHour: 1, HoursPerDay: 8, Active: true}}},
		runs:      newMockLayupRunRepo(),
		cache:     newMockCache(),
	}
	f.repo = &repository.Repository{
		Order:    f.orders,
		Mold:     f.molds,
		Employee: f.employees,
		LayupRun: f.runs,
	}
	return f
}

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func testOrder(id, category string) model.Order {
	return model.Order{
		OrderID:    id,
		OrderDate:  monday.AddDate(0, 0, -7),
		SourceTier: "standard",
		CategoryID: category,
	}
}

func testMold(id string, capacity int, categories ...string) model.Mold {
	return model.Mold{MoldID: id, Enabled: true, DailyCapacity: capacity, CompatibleCategories: categories}
}
