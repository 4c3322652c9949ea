package dto

// ── 排产模块 DTO ──

// LayupRunRequest 排产请求（正式排产 / 试算共用）
// Weekdays 缺省时使用配置；显式传 [] 表示不排产任何工作日
type LayupRunRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	Weekdays  []int  `json:"weekdays"   binding:"omitempty,max=7,dive,gte=0,lte=6"`
}

// ScenarioSpec 单个 what-if 场景
type ScenarioSpec struct {
	Name      string `json:"name"       binding:"required,max=64"`
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	Weekdays  []int  `json:"weekdays"   binding:"omitempty,max=7,dive,gte=0,lte=6"`
}

// CompareScenariosRequest 场景对比请求；场景未指定起始日时使用顶层 StartDate
type CompareScenariosRequest struct {
	StartDate string         `json:"start_date" binding:"required,datetime=2006-01-02"`
	Scenarios []ScenarioSpec `json:"scenarios"  binding:"required,min=1,dive"`
}

// PublishRunRequest 发布排产请求（携带版本号做乐观锁校验）
type PublishRunRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// AdjustmentRequest LOP 调整请求；Today 缺省为服务器当天
type AdjustmentRequest struct {
	Today string `json:"today" binding:"omitempty,datetime=2006-01-02"`
}

// ── 响应 ──

// LayupRunResponse 排产运行响应
type LayupRunResponse struct {
	RunID            string            `json:"run_id"`
	Status           string            `json:"status"` // draft | published | dry_run
	StartDate        string            `json:"start_date"`
	HorizonWeeks     int               `json:"horizon_weeks"`
	Weekdays         []int             `json:"weekdays"`
	Days             []string          `json:"days"`
	Assignments      []AssignmentItem  `json:"assignments"`
	Unscheduled      []UnscheduledItem `json:"unscheduled"`
	Warnings         []string          `json:"warnings"`
	ScheduledCount   int               `json:"scheduled_count"`
	UnscheduledCount int               `json:"unscheduled_count"`
	Version          int               `json:"version"`
	PublishedAt      *string           `json:"published_at,omitempty"`
	CreatedAt        string            `json:"created_at"`
}

// AssignmentItem 排产明细
type AssignmentItem struct {
	OrderID    string `json:"order_id"`
	MoldID     string `json:"mold_id"`
	CategoryID string `json:"category_id"`
	Date       string `json:"date"`
}

// UnscheduledItem 未排产订单
type UnscheduledItem struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// ScenarioResult 单个场景结果
type ScenarioResult struct {
	Name             string            `json:"name"`
	ScheduledCount   int               `json:"scheduled_count"`
	UnscheduledCount int               `json:"unscheduled_count"`
	LastDate         string            `json:"last_date,omitempty"` // 最晚排产日
	Run              *LayupRunResponse `json:"run"`
}

// CompareScenariosResponse 场景对比响应（顺序与请求一致）
type CompareScenariosResponse struct {
	Scenarios []ScenarioResult `json:"scenarios"`
}

// AdjustmentItem 单个订单的 LOP 调整结果
type AdjustmentItem struct {
	OrderID                 string `json:"order_id"`
	ScheduledAdjustmentDate string `json:"scheduled_adjustment_date"`
	OverrideReason          string `json:"override_reason"`
}

// AdjustmentResponse LOP 调整响应
type AdjustmentResponse struct {
	Today     string           `json:"today"`
	Evaluated int              `json:"evaluated"`
	Updated   int              `json:"updated"`
	Items     []AdjustmentItem `json:"items"`
}
