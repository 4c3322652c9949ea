package model

import "time"

// 订单状态
const (
	OrderStatusPending   = "pending"   // 待排产
	OrderStatusScheduled = "scheduled" // 已随排产运行发布
)

// Order 订单，对应表 orders
type Order struct {
	OrderID                   string     `gorm:"column:id;type:varchar(64);primaryKey"                json:"order_id"`
	OrderDate                 time.Time  `gorm:"type:date;not null"                                   json:"order_date"`
	DueDate                   *time.Time `gorm:"type:date"                                            json:"due_date,omitempty"`
	PriorityScore             *int       `json:"priority_score,omitempty"`
	SourceTier                string     `gorm:"type:varchar(32);not null;default:'standard'"         json:"source_tier"`
	CategoryID                string     `gorm:"type:varchar(64);not null"                            json:"category_id"`
	Status                    string     `gorm:"type:varchar(16);not null;default:'pending';index"    json:"status"`
	NeedsSecondaryAdjustment  bool       `gorm:"not null;default:false"                               json:"needs_secondary_adjustment"`
	PriorityChangedAt         *time.Time `json:"priority_changed_at,omitempty"`
	LastAdjustmentScheduledAt *time.Time `json:"last_adjustment_scheduled_at,omitempty"`
	ScheduledAdjustmentDate   *time.Time `gorm:"type:date"                                            json:"scheduled_adjustment_date,omitempty"`
	OverrideReason            string     `gorm:"type:varchar(64);not null;default:''"                 json:"override_reason,omitempty"`
	SoftDeleteModel
}

func (Order) TableName() string { return "orders" }
